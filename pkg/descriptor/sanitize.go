package descriptor

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	messagePolicyOnce sync.Once
	messagePolicy     *bluemonday.Policy
)

// sanitizeRuleMessage strips markup from user-facing rule messages arriving
// from the rules service. Messages end up in rendered error text, so they go
// through the strict policy before merge.
func sanitizeRuleMessage(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(rulePolicy().Sanitize(raw))
}

func rulePolicy() *bluemonday.Policy {
	messagePolicyOnce.Do(func() {
		messagePolicy = bluemonday.StrictPolicy()
	})
	return messagePolicy
}
