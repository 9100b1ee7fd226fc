package restrict

import (
	"fmt"

	"github.com/dhamidi/c0ls/c0/source"
)

// Error is a restriction failure: a construct the active dialect does not
// allow, or a locally malformed one.
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
		Stage:    source.StageRestrict,
		Message:  e.Msg,
		Hints:    e.Hints,
		Span:     e.Span,
	}
}

// ImpossibleError signals a tree shape the parser can never produce. It is
// raised with panic and is never reported as a diagnostic.
type ImpossibleError struct {
	Msg  string
	Span source.Span
}

func (e *ImpossibleError) Error() string {
	return fmt.Sprintf("impossible (please report): %s at %s", e.Msg, e.Span)
}

func impossible(span source.Span, format string, args ...any) {
	panic(&ImpossibleError{Msg: fmt.Sprintf(format, args...), Span: span})
}
