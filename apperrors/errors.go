package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateSyntax            = errors.New("template syntax error")
	ErrExpressionEvaluation      = errors.New("expression evaluation error")
	ErrUnsupportedDialectFeature = errors.New("unsupported dialect feature")
	ErrInjectionSuspected        = errors.New("sql injection pattern detected in parameter value")
	ErrUnknownStatement          = errors.New("statement not found in mapper")
	ErrInvalidBinding            = errors.New("invalid parameter binding")
)

// TemplateSyntaxError reports malformed template markup. Line is 1-based and zero
// when the position is unknown.
type TemplateSyntaxError struct {
	Line int
	Msg  string
}

func (e *TemplateSyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("template syntax error at line %d: %s", e.Line, e.Msg)
	}
	return "template syntax error: " + e.Msg
}

func (e *TemplateSyntaxError) Is(target error) bool { return target == ErrTemplateSyntax }

// ExpressionError wraps a failure to compile or evaluate a directive expression.
type ExpressionError struct {
	Expr string
	Err  error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("error evaluating expression '%s': %v", e.Expr, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

func (e *ExpressionError) Is(target error) bool { return target == ErrExpressionEvaluation }

// UnsupportedFeatureError is returned when a dialect has no rule for a requested
// feature, or the dialect itself is unknown.
type UnsupportedFeatureError struct {
	Dialect string
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("dialect %q does not support %s", e.Dialect, e.Feature)
}

func (e *UnsupportedFeatureError) Is(target error) bool {
	return target == ErrUnsupportedDialectFeature
}

// Syntaxf builds a TemplateSyntaxError.
func Syntaxf(line int, format string, args ...any) error {
	return &TemplateSyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
