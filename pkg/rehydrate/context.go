package rehydrate

import (
	"encoding/json"
	"reflect"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// UpdateContext copies the current case context and overwrites only the keys
// named in discriminantFields with their current form values. Non-discriminant
// context (seeds included) is left untouched.
func UpdateContext(current descriptor.CaseContext, formValues map[string]any, discriminantFields []string) descriptor.CaseContext {
	next := descriptor.CloneContext(current)
	for _, id := range discriminantFields {
		if value, ok := formValues[id]; ok {
			next[id] = value
		}
	}
	return next
}

// Changed reports structural inequality between two case contexts. Nil and
// empty contexts compare equal.
func Changed(old, new descriptor.CaseContext) bool {
	if len(old) == 0 && len(new) == 0 {
		return false
	}
	return !reflect.DeepEqual(old, new)
}

// contextKey canonically serialises a case context for dedupe comparison.
// JSON object keys are emitted sorted, so equal contexts always share a key.
func contextKey(ctx descriptor.CaseContext) string {
	raw, err := json.Marshal(ctx)
	if err != nil {
		return ""
	}
	return string(raw)
}
