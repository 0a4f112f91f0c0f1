// Package validate checks formatter request bodies against an ordered list
// of CEL rules.
package validate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aescanero/dago-status-formatter/internal/eval/cel"
)

// Rule is a CEL condition that must hold for a request, and the message
// returned to the caller when it does not.
type Rule struct {
	Name      string
	Condition string
	Message   string
}

// DefaultRules are checked in order; the first failure wins. Text made only
// of Unicode spaces, line or paragraph separators, vertical tabs or byte
// order marks counts as empty.
var DefaultRules = []Rule{
	{
		Name:      "status",
		Condition: "has(request.status) && type(request.status) == string && request.status in categories",
		Message:   "Invalid request: status must be one of done, not_done, or canceled",
	},
	{
		Name:      "text",
		Condition: `has(request.text) && type(request.text) == string && request.text.matches('[^\\s\\v\\p{Z}\\x{FEFF}]')`,
		Message:   "Invalid request: text must be a non-empty string",
	},
}

// Request is a body that passed validation.
type Request struct {
	Status string
	Text   string
}

// Error is a validation failure carrying the public message.
type Error struct {
	Rule    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validator runs rules against decoded request bodies
type Validator struct {
	evaluator  *cel.Evaluator
	rules      []Rule
	categories []string
}

// New creates a validator for the given categories. Every rule is compiled
// up front so a bad rule fails at startup.
func New(evaluator *cel.Evaluator, categories []string, rules []Rule) (*Validator, error) {
	for _, r := range rules {
		if err := evaluator.ValidateExpression(r.Condition); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}

	return &Validator{
		evaluator:  evaluator,
		rules:      rules,
		categories: categories,
	}, nil
}

// Validate checks body, which is any decoded JSON value. Non-object bodies
// are treated as an empty object. A *Error is returned for rule failures;
// any other error means a rule could not be evaluated.
func (v *Validator) Validate(ctx context.Context, body interface{}) (*Request, error) {
	obj, ok := body.(map[string]interface{})
	if !ok {
		obj = map[string]interface{}{}
	}

	vars := map[string]interface{}{
		"request":    obj,
		"categories": v.categories,
	}

	for _, r := range v.rules {
		passed, err := v.evaluator.EvaluateBool(ctx, r.Condition, vars)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		if !passed {
			return nil, &Error{Rule: r.Name, Message: r.Message}
		}
	}

	status, _ := obj["status"].(string)
	text, _ := obj["text"].(string)
	return &Request{Status: status, Text: text}, nil
}

// Decode parses a request body as a generic JSON value.
func Decode(raw []byte) (interface{}, error) {
	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}
