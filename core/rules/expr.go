package rules

import (
	"fmt"

	govaluate "gopkg.in/Knetic/govaluate.v3"
)

// RegisterExpr compiles a boolean expression over the rule's field names
// and registers it as a validator. The expression is evaluated once per
// unique field combination in the view; any combination evaluating to
// false (or failing to evaluate) violates the rule.
//
// Example: RegisterExpr([]string{"EchoTime"}, "nonzero-echo",
// "EchoTime must be positive", "EchoTime > 0").
func (m *Model) RegisterExpr(fields []string, name, message, expr string) error {
	expression, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return fmt.Errorf("compile rule expression %q: %w", name, err)
	}

	m.Register(fields, name, message, func(view View) error {
		for _, row := range view.Rows {
			parameters := make(map[string]any, len(view.Fields))
			for _, field := range view.Fields {
				parameters[field] = row[field]
			}
			result, err := expression.Evaluate(parameters)
			if err != nil {
				return &ValidationError{Message: fmt.Sprintf("%s: %v", message, err)}
			}
			ok, isBool := result.(bool)
			if !isBool {
				return &ValidationError{Message: fmt.Sprintf("%s: expression is not boolean", message)}
			}
			if !ok {
				return &ValidationError{Message: message}
			}
		}
		return nil
	})
	return nil
}
