package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// Validator checks a single field value. A nil error means the value passes.
type Validator func(value any) error

// RuleError reports a failed rule with its user-facing message.
type RuleError struct {
	Rule    descriptor.RuleType
	Message string
}

func (e *RuleError) Error() string { return e.Message }

// Translate folds an ordered rule list into a single validator for the given
// field type. Rules apply in encountered order and validation stops at the
// first failure, so repeated rule types (as produced by merges) each get
// their turn.
func Translate(rules []descriptor.ValidationRule, fieldType descriptor.FieldType) Validator {
	validators := make([]Validator, 0, len(rules))
	for _, rule := range rules {
		validators = append(validators, ruleValidator(rule, fieldType))
	}
	return func(value any) error {
		for _, validate := range validators {
			if err := validate(value); err != nil {
				return err
			}
		}
		return nil
	}
}

// RuleMap projects the same rule list as a flat per-rule-type validator map
// for integration with field-level frameworks. Applying every entry agrees
// with Translate on pass/fail for identical inputs.
func RuleMap(rules []descriptor.ValidationRule, fieldType descriptor.FieldType) map[descriptor.RuleType]Validator {
	grouped := make(map[descriptor.RuleType][]Validator)
	for _, rule := range rules {
		grouped[rule.Type] = append(grouped[rule.Type], ruleValidator(rule, fieldType))
	}

	out := make(map[descriptor.RuleType]Validator, len(grouped))
	for ruleType, validators := range grouped {
		chain := validators
		out[ruleType] = func(value any) error {
			for _, validate := range chain {
				if err := validate(value); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return out
}

func ruleValidator(rule descriptor.ValidationRule, fieldType descriptor.FieldType) Validator {
	switch rule.Type {
	case descriptor.RuleRequired:
		return requiredValidator(rule, fieldType)
	case descriptor.RuleMinLength:
		return lengthValidator(rule, fieldType, true)
	case descriptor.RuleMaxLength:
		return lengthValidator(rule, fieldType, false)
	case descriptor.RulePattern:
		return patternValidator(rule)
	case descriptor.RuleCustom:
		return customValidator(rule)
	default:
		return passValidator
	}
}

func passValidator(any) error { return nil }

func requiredValidator(rule descriptor.ValidationRule, fieldType descriptor.FieldType) Validator {
	message := ruleMessage(rule, "value is required")
	return func(value any) error {
		switch fieldType {
		case descriptor.FieldTypeCheckbox:
			if b, ok := value.(bool); !ok || !b {
				return &RuleError{Rule: rule.Type, Message: message}
			}
		case descriptor.FieldTypeNumber:
			n, ok := asNumber(value)
			if !ok || math.IsNaN(n) {
				return &RuleError{Rule: rule.Type, Message: message}
			}
		case descriptor.FieldTypeFile:
			if isAbsent(value) {
				return &RuleError{Rule: rule.Type, Message: message}
			}
		default:
			if isAbsent(value) {
				return &RuleError{Rule: rule.Type, Message: message}
			}
			if s, ok := asString(value); ok && strings.TrimSpace(s) == "" {
				return &RuleError{Rule: rule.Type, Message: message}
			}
		}
		return nil
	}
}

// lengthValidator applies only to string-like field types; for every other
// type the rule is inert.
func lengthValidator(rule descriptor.ValidationRule, fieldType descriptor.FieldType, min bool) Validator {
	if !isStringLike(fieldType) {
		return passValidator
	}
	limit, ok := asNumber(rule.Value)
	if !ok {
		return passValidator
	}
	bound := int(limit)
	message := ruleMessage(rule, fmt.Sprintf("length out of bounds (%d)", bound))
	return func(value any) error {
		s, ok := asString(value)
		if !ok {
			return nil
		}
		length := len([]rune(s))
		if min && length < bound {
			return &RuleError{Rule: rule.Type, Message: message}
		}
		if !min && length > bound {
			return &RuleError{Rule: rule.Type, Message: message}
		}
		return nil
	}
}

// patternValidator accepts either a compiled regexp or a regex source string
// from JSON transport; the latter is compiled once here. Empty values pass,
// required-ness is the required rule's concern.
func patternValidator(rule descriptor.ValidationRule) Validator {
	var (
		re  *regexp.Regexp
		err error
	)
	switch v := rule.Value.(type) {
	case *regexp.Regexp:
		re = v
	case string:
		re, err = regexp.Compile(v)
	default:
		return passValidator
	}
	if err != nil {
		message := fmt.Sprintf("invalid pattern: %v", err)
		return func(any) error {
			return &RuleError{Rule: rule.Type, Message: message}
		}
	}

	message := ruleMessage(rule, "value does not match the expected format")
	return func(value any) error {
		s, ok := asString(value)
		if !ok || s == "" {
			return nil
		}
		if !re.MatchString(s) {
			return &RuleError{Rule: rule.Type, Message: message}
		}
		return nil
	}
}

func customValidator(rule descriptor.ValidationRule) Validator {
	if rule.Check == nil {
		return passValidator
	}
	fallback := ruleMessage(rule, "value is invalid")
	return func(value any) error {
		ok, message := rule.Check.Check(value)
		if ok {
			return nil
		}
		if message == "" {
			message = fallback
		}
		return &RuleError{Rule: rule.Type, Message: message}
	}
}

func ruleMessage(rule descriptor.ValidationRule, fallback string) string {
	if strings.TrimSpace(rule.Message) != "" {
		return rule.Message
	}
	return fallback
}

func isStringLike(fieldType descriptor.FieldType) bool {
	switch fieldType {
	case descriptor.FieldTypeText, descriptor.FieldTypeAutocomplete, descriptor.FieldTypeDate,
		descriptor.FieldTypeDropdown, descriptor.FieldTypeRadio:
		return true
	default:
		return false
	}
}

func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case descriptor.Item:
		if s, ok := v.Value.(string); ok {
			return s, true
		}
		return v.Label, true
	default:
		return "", false
	}
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
