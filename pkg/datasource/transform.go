package datasource

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// TransformConfig carries the two templates driving response transformation.
type TransformConfig struct {
	// IteratorTemplate points at the array inside the response body: either a
	// plain dotted path, or a template whose evaluation yields a dotted path
	// or a JSON array literal.
	IteratorTemplate string

	// ItemsTemplate is evaluated once per element with the element bound as
	// "item" (and its own properties splatted into the context).
	ItemsTemplate string
}

// TransformResponse turns an arbitrary JSON body into a uniform option list.
// The raw response is exposed to templates under both "response" and "data".
func TransformResponse(body any, cfg TransformConfig, evaluator descriptor.Evaluator, formCtx descriptor.FormContext) []descriptor.Item {
	elements := extractElements(body, cfg.IteratorTemplate, evaluator, formCtx)

	items := make([]descriptor.Item, 0, len(elements))
	for _, element := range elements {
		items = append(items, transformElement(element, cfg.ItemsTemplate, evaluator, formCtx, body))
	}
	return items
}

// extractElements resolves the array the iterator template points at. When
// extraction fails the raw body is used as the array, or wrapped when it is a
// plain object. The fallback silently accepts wrong-shaped responses; that
// lenience is intentional and should not be extended.
func extractElements(body any, iterator string, evaluator descriptor.Evaluator, formCtx descriptor.FormContext) []any {
	iterator = strings.TrimSpace(iterator)
	if iterator != "" {
		if !isTemplateSyntax(iterator) {
			if arr, ok := lookupPath(body, iterator); ok {
				return arr
			}
		} else if evaluator != nil {
			evaluated := strings.TrimSpace(evaluator.Evaluate(iterator, responseContext(formCtx, body)))
			if evaluated != "" {
				if arr, ok := parseArrayLiteral(evaluated); ok {
					return arr
				}
				if arr, ok := lookupPath(body, evaluated); ok {
					return arr
				}
			}
		}
	}

	switch v := body.(type) {
	case []any:
		return v
	case nil:
		return nil
	default:
		return []any{v}
	}
}

func transformElement(element any, itemsTemplate string, evaluator descriptor.Evaluator, formCtx descriptor.FormContext, body any) descriptor.Item {
	if strings.TrimSpace(itemsTemplate) == "" || evaluator == nil {
		label := fallbackLabel(element)
		return descriptor.Item{Label: label, Value: fallbackValue(element, label)}
	}

	ctx := responseContext(formCtx, body)
	ctx["item"] = element
	if props, ok := element.(map[string]any); ok {
		for key, value := range props {
			if _, taken := ctx[key]; !taken {
				ctx[key] = value
			}
		}
	}

	rendered := evaluator.Evaluate(itemsTemplate, ctx)

	// A rendered JSON object carrying both label and a defined value wins
	// verbatim; anything else is the label.
	var decoded struct {
		Label *string `json:"label"`
		Value any     `json:"value"`
	}
	if err := json.Unmarshal([]byte(rendered), &decoded); err == nil && decoded.Label != nil && decoded.Value != nil {
		return descriptor.Item{Label: *decoded.Label, Value: decoded.Value}
	}

	return descriptor.Item{Label: rendered, Value: fallbackValue(element, rendered)}
}

// responseContext copies the form context and exposes the raw response under
// its two template aliases.
func responseContext(formCtx descriptor.FormContext, body any) descriptor.FormContext {
	ctx := make(descriptor.FormContext, len(formCtx)+2)
	for key, value := range formCtx {
		ctx[key] = value
	}
	ctx["response"] = body
	ctx["data"] = body
	return ctx
}

// lookupPath walks a plain dotted path through maps and arrays and reports
// whether it terminated at an array.
func lookupPath(body any, path string) ([]any, bool) {
	current := body
	for _, segment := range strings.Split(path, ".") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return nil, false
		}
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			index, err := parseIndex(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}
			current = node[index]
		default:
			return nil, false
		}
	}
	arr, ok := current.([]any)
	return arr, ok
}

func parseIndex(segment string) (int, error) {
	var index int
	_, err := fmt.Sscanf(segment, "%d", &index)
	return index, err
}

func parseArrayLiteral(s string) ([]any, bool) {
	if !strings.HasPrefix(s, "[") {
		return nil, false
	}
	var arr []any
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func fallbackLabel(element any) string {
	if props, ok := element.(map[string]any); ok {
		for _, key := range []string{"label", "name", "title"} {
			if s, ok := props[key].(string); ok && s != "" {
				return s
			}
		}
	}
	if s, ok := element.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", element)
}

// fallbackValue prefers the element's own value/label/name property; object
// elements without one fall back to the rendered label, scalar elements to
// themselves.
func fallbackValue(element any, label string) any {
	if props, ok := element.(map[string]any); ok {
		for _, key := range []string{"value", "label", "name"} {
			if v, ok := props[key]; ok && v != nil {
				return v
			}
		}
		return label
	}
	if element == nil {
		return label
	}
	return element
}

func isTemplateSyntax(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}
