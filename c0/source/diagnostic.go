package source

import (
	"fmt"
	"strings"
)

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// Stage names the pipeline stage that produced a diagnostic.
type Stage string

const (
	StageParse    Stage = "parse"
	StageRestrict Stage = "restrict"
	StageTypes    Stage = "typecheck"
	StageLoad     Stage = "load"
)

// Diagnostic is a positioned message produced by any stage of the pipeline.
type Diagnostic struct {
	Severity Severity
	Stage    Stage
	Message  string
	Hints    []string
	Span     Span
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Span.File != "" {
		b.WriteString(d.Span.File)
		b.WriteString(":")
	}
	fmt.Fprintf(&b, "%d:%d: %s: %s", d.Span.Start.Line, d.Span.Start.Column, d.Severity, d.Message)
	for _, h := range d.Hints {
		b.WriteString("\n  hint: ")
		b.WriteString(h)
	}
	return b.String()
}

// Errorf builds an error-severity diagnostic.
func Errorf(stage Stage, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Stage:    stage,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
