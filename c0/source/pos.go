// Package source holds positions, spans and diagnostics shared by every
// stage of the C0 pipeline.
package source

import "fmt"

// Position is a 1-indexed line/column location. Offset is the byte offset
// into the file text.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Span is a half-open source range. File is empty for the document being
// analyzed and set for declarations that came from an included file.
type Span struct {
	File  string
	Start Position
	End   Position
}

func (s Span) String() string {
	if s.File != "" {
		return fmt.Sprintf("%s:%s-%s", s.File, s.Start, s.End)
	}
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// IsZero reports whether the span carries no position information.
func (s Span) IsZero() bool {
	return s.Start.Line == 0 && s.End.Line == 0
}

// Contains reports whether pos lies within the span, inclusive of both ends
// so that a cursor placed just after an identifier still selects it.
func (s Span) Contains(pos Position) bool {
	if pos.Line < s.Start.Line || pos.Line > s.End.Line {
		return false
	}
	if pos.Line == s.Start.Line && pos.Column < s.Start.Column {
		return false
	}
	if pos.Line == s.End.Line && pos.Column > s.End.Column {
		return false
	}
	return true
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	out := a
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.Start.Before(a.Start) {
		out.Start = b.Start
	}
	if a.End.Before(b.End) {
		out.End = b.End
	}
	return out
}
