package validation_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/validation"
)

func TestRequired(t *testing.T) {
	rule := descriptor.ValidationRule{Type: descriptor.RuleRequired, Message: "needed"}

	cases := []struct {
		name      string
		fieldType descriptor.FieldType
		value     any
		wantErr   bool
	}{
		{"text present", descriptor.FieldTypeText, "hello", false},
		{"text empty", descriptor.FieldTypeText, "", true},
		{"text blank", descriptor.FieldTypeText, "   ", true},
		{"text nil", descriptor.FieldTypeText, nil, true},
		{"checkbox checked", descriptor.FieldTypeCheckbox, true, false},
		{"checkbox unchecked", descriptor.FieldTypeCheckbox, false, true},
		{"checkbox non-bool", descriptor.FieldTypeCheckbox, "true", true},
		{"number zero", descriptor.FieldTypeNumber, 0.0, false},
		{"number string", descriptor.FieldTypeNumber, "42", false},
		{"number absent", descriptor.FieldTypeNumber, nil, true},
		{"number garbage", descriptor.FieldTypeNumber, "abc", true},
		{"file present", descriptor.FieldTypeFile, "upload.pdf", false},
		{"file absent", descriptor.FieldTypeFile, nil, true},
		{"dropdown empty list", descriptor.FieldTypeDropdown, []any{}, true},
		{"dropdown selection", descriptor.FieldTypeDropdown, "FR", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validate := validation.Translate([]descriptor.ValidationRule{rule}, tc.fieldType)
			err := validate(tc.value)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %v", tc.value)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr && err.Error() != "needed" {
				t.Fatalf("message: got %q, want %q", err.Error(), "needed")
			}
		})
	}
}

func TestLengthBounds(t *testing.T) {
	rules := []descriptor.ValidationRule{
		{Type: descriptor.RuleMinLength, Value: 2, Message: "too short"},
		{Type: descriptor.RuleMaxLength, Value: 5, Message: "too long"},
	}
	validate := validation.Translate(rules, descriptor.FieldTypeText)

	if err := validate("abc"); err != nil {
		t.Fatalf("in-bounds value failed: %v", err)
	}
	if err := validate("a"); err == nil || err.Error() != "too short" {
		t.Fatalf("min bound: got %v", err)
	}
	if err := validate("abcdef"); err == nil || err.Error() != "too long" {
		t.Fatalf("max bound: got %v", err)
	}

	// Length is measured in runes, not bytes.
	if err := validate("héllo"); err != nil {
		t.Fatalf("rune-length value failed: %v", err)
	}

	// Length rules are inert for non-string-like types.
	checkbox := validation.Translate(rules, descriptor.FieldTypeCheckbox)
	if err := checkbox(true); err != nil {
		t.Fatalf("length rule applied to checkbox: %v", err)
	}
}

func TestPattern(t *testing.T) {
	phone := descriptor.ValidationRule{
		Type:    descriptor.RulePattern,
		Value:   `^\(\d{3}\) \d{3}-\d{4}$`,
		Message: "Use (XXX) XXX-XXXX",
	}
	validate := validation.Translate([]descriptor.ValidationRule{phone}, descriptor.FieldTypeText)

	if err := validate("(123) 456-7890"); err != nil {
		t.Fatalf("matching value failed: %v", err)
	}
	if err := validate("1234567890"); err == nil || err.Error() != "Use (XXX) XXX-XXXX" {
		t.Fatalf("non-matching value: got %v", err)
	}
	// Empty values are the required rule's concern.
	if err := validate(""); err != nil {
		t.Fatalf("empty value must pass pattern: %v", err)
	}
	if err := validate(nil); err != nil {
		t.Fatalf("nil value must pass pattern: %v", err)
	}
}

func TestPattern_CompiledRegexp(t *testing.T) {
	rule := descriptor.ValidationRule{
		Type:  descriptor.RulePattern,
		Value: regexp.MustCompile(`^[A-Z]{2}$`),
	}
	validate := validation.Translate([]descriptor.ValidationRule{rule}, descriptor.FieldTypeText)

	if err := validate("FR"); err != nil {
		t.Fatalf("matching value failed: %v", err)
	}
	if err := validate("France"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestPattern_InvalidSourceAlwaysFails(t *testing.T) {
	rule := descriptor.ValidationRule{Type: descriptor.RulePattern, Value: "("}
	validate := validation.Translate([]descriptor.ValidationRule{rule}, descriptor.FieldTypeText)

	err := validate("anything")
	if err == nil {
		t.Fatal("expected invalid-pattern error")
	}
	var ruleErr *validation.RuleError
	if !errors.As(err, &ruleErr) || ruleErr.Rule != descriptor.RulePattern {
		t.Fatalf("expected pattern RuleError, got %v", err)
	}
}

func TestCustom(t *testing.T) {
	even := descriptor.CustomCheckFunc(func(value any) (bool, string) {
		n, ok := value.(int)
		if !ok || n%2 != 0 {
			return false, ""
		}
		return true, ""
	})
	rule := descriptor.ValidationRule{Type: descriptor.RuleCustom, Check: even, Message: "must be even"}
	validate := validation.Translate([]descriptor.ValidationRule{rule}, descriptor.FieldTypeNumber)

	if err := validate(4); err != nil {
		t.Fatalf("passing value failed: %v", err)
	}
	if err := validate(3); err == nil || err.Error() != "must be even" {
		t.Fatalf("rule message not used as fallback: %v", err)
	}

	// A message returned by the check overrides the rule's own message.
	loud := descriptor.CustomCheckFunc(func(any) (bool, string) { return false, "check message" })
	override := validation.Translate([]descriptor.ValidationRule{
		{Type: descriptor.RuleCustom, Check: loud, Message: "rule message"},
	}, descriptor.FieldTypeText)
	if err := override("x"); err == nil || err.Error() != "check message" {
		t.Fatalf("check message did not win: %v", err)
	}

	// A custom rule with no check is inert.
	inert := validation.Translate([]descriptor.ValidationRule{{Type: descriptor.RuleCustom}}, descriptor.FieldTypeText)
	if err := inert("x"); err != nil {
		t.Fatalf("check-less custom rule failed: %v", err)
	}
}

func TestTranslate_StopsAtFirstFailure(t *testing.T) {
	rules := []descriptor.ValidationRule{
		{Type: descriptor.RuleRequired, Message: "first"},
		{Type: descriptor.RuleMinLength, Value: 100, Message: "second"},
	}
	validate := validation.Translate(rules, descriptor.FieldTypeText)

	if err := validate(""); err == nil || err.Error() != "first" {
		t.Fatalf("expected first rule's failure, got %v", err)
	}
}

func TestRuleMap_AgreesWithTranslate(t *testing.T) {
	rules := []descriptor.ValidationRule{
		{Type: descriptor.RuleRequired},
		{Type: descriptor.RuleMinLength, Value: 2},
		{Type: descriptor.RulePattern, Value: `^[a-z]+$`},
		{Type: descriptor.RulePattern, Value: `^.{0,4}$`},
	}
	translated := validation.Translate(rules, descriptor.FieldTypeText)
	mapped := validation.RuleMap(rules, descriptor.FieldTypeText)

	if len(mapped) != 3 {
		t.Fatalf("expected 3 rule-type entries, got %d", len(mapped))
	}

	values := []any{"ok", "x", "", "UPPER", "toolong", nil}
	for _, value := range values {
		wantPass := translated(value) == nil

		gotPass := true
		for _, validate := range mapped {
			if validate(value) != nil {
				gotPass = false
				break
			}
		}
		if gotPass != wantPass {
			t.Fatalf("RuleMap disagrees with Translate for %v: map=%v translate=%v", value, gotPass, wantPass)
		}
	}
}
