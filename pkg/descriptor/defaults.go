package descriptor

import "strings"

// DefaultValues derives the initial values document for a descriptor. A
// string defaultValue containing placeholder syntax is evaluated against ctx;
// every other literal is carried verbatim. Fields without a default are
// omitted.
func DefaultValues(d GlobalFormDescriptor, evaluator Evaluator, ctx FormContext) map[string]any {
	values := make(map[string]any)
	for _, block := range d.Blocks {
		for _, field := range block.Fields {
			if field.DefaultValue == nil {
				continue
			}
			values[field.ID] = resolveDefault(field.DefaultValue, evaluator, ctx)
		}
	}
	return values
}

func resolveDefault(value any, evaluator Evaluator, ctx FormContext) any {
	tpl, ok := value.(string)
	if !ok || evaluator == nil {
		return value
	}
	if !isTemplate(tpl) {
		return tpl
	}
	return evaluator.Evaluate(tpl, ctx)
}

func isTemplate(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}
