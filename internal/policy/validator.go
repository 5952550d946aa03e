package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
	"github.com/savaki/static-site/internal/errors"
)

//go:embed permissions.rego
var policyContent string

// Validator checks permission policies before they are created
type Validator struct {
	allow      rego.PreparedEvalQuery
	violations rego.PreparedEvalQuery
}

// ValidationResult is the outcome of one evaluation
type ValidationResult struct {
	Allowed    bool     `json:"allowed"`
	Violations []string `json:"violations,omitempty"`
}

// NewValidator prepares the permission rules. Only the log write actions
// may be granted on every resource.
func NewValidator() (*Validator, error) {
	ctx := context.Background()
	unscoped := make([]interface{}, 0, len(logWriteActions))
	for _, action := range logWriteActions {
		unscoped = append(unscoped, action)
	}
	data := map[string]interface{}{
		"unscoped_actions": unscoped,
	}

	prepare := func(query string) (rego.PreparedEvalQuery, error) {
		return rego.New(
			rego.Query(query),
			rego.Module("permissions.rego", policyContent),
			rego.Store(inmem.NewFromObject(data)),
		).PrepareForEval(ctx)
	}

	allow, err := prepare("data.permissions.allow")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy query: %w", err)
	}
	violations, err := prepare("data.permissions.violations")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare violations query: %w", err)
	}

	return &Validator{
		allow:      allow,
		violations: violations,
	}, nil
}

// Evaluate runs the rules against a permission policy
func (v *Validator) Evaluate(ctx context.Context, doc Document) (*ValidationResult, error) {
	input, err := toInput(doc)
	if err != nil {
		return nil, err
	}

	results, err := v.allow.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned no results"},
		}, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return &ValidationResult{
			Allowed:    false,
			Violations: []string{"policy evaluation returned non-boolean result"},
		}, nil
	}

	result := &ValidationResult{
		Allowed: allowed,
	}

	if !allowed {
		violations, err := v.getViolations(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get violations: %w", err)
		}
		result.Violations = violations
	}

	return result, nil
}

// Validate returns an ErrPolicyViolation when the named policy breaks a rule
func (v *Validator) Validate(ctx context.Context, name string, doc Document) error {
	result, err := v.Evaluate(ctx, doc)
	if err != nil {
		return err
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s: %s", errors.ErrPolicyViolation, name, strings.Join(result.Violations, "; "))
	}
	return nil
}

func (v *Validator) getViolations(ctx context.Context, input map[string]interface{}) ([]string, error) {
	results, err := v.violations.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate violations: %w", err)
	}

	if len(results) == 0 || results[0].Expressions[0].Value == nil {
		return []string{"unknown policy violation"}, nil
	}

	var violations []string
	switch v := results[0].Expressions[0].Value.(type) {
	case []interface{}:
		for _, violation := range v {
			if str, ok := violation.(string); ok {
				violations = append(violations, str)
			}
		}
	case map[string]interface{}:
		for violation := range v {
			violations = append(violations, violation)
		}
	}

	if len(violations) == 0 {
		return []string{"policy validation failed but no specific violations found"}, nil
	}

	sort.Strings(violations)
	return violations, nil
}

// toInput converts the typed document into the plain JSON shape rego reads
func toInput(doc Document) (map[string]interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy input: %w", err)
	}
	var input map[string]interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to decode policy input: %w", err)
	}
	return input, nil
}
