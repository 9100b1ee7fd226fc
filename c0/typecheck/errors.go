package typecheck

import (
	"fmt"

	"github.com/dhamidi/c0ls/c0/source"
)

// Error is a typing problem with optional hints for fixing it.
type Error struct {
	Msg   string
	Hints []string
	Span  source.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Span.Start, e.Msg)
}

func (e *Error) Diagnostic() source.Diagnostic {
	return source.Diagnostic{
		Severity: source.SeverityError,
		Stage:    source.StageTypes,
		Message:  e.Msg,
		Hints:    e.Hints,
		Span:     e.Span,
	}
}

// Diagnostics converts typing errors for reporting.
func Diagnostics(errs []*Error) []source.Diagnostic {
	out := make([]source.Diagnostic, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Diagnostic())
	}
	return out
}

// ImpossibleError is raised with panic when a tree that already passed the
// checker turns out to be ill-typed.
type ImpossibleError struct {
	Msg  string
	Span source.Span
}

func (e *ImpossibleError) Error() string {
	return fmt.Sprintf("impossible (please report): %s at %s", e.Msg, e.Span)
}

// Impossible panics with an *ImpossibleError.
func Impossible(span source.Span, format string, args ...any) {
	panic(&ImpossibleError{Msg: fmt.Sprintf(format, args...), Span: span})
}
