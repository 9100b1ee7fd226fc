package parser

import "github.com/dhamidi/c0ls/c0/source"

// segment is a stretch of source text between top-level semicolons. The
// semicolon itself is not part of the text.
type segment struct {
	text  string
	start source.Position
	semi  bool
	// semiAt is the position of the terminating semicolon.
	semiAt source.Position
	last   bool
}

type splitState int

const (
	inCode splitState = iota
	inString
	inChar
	inLineComment
	inBlockComment
)

// splitSegments cuts text at every semicolon that is not inside a string,
// a character literal or a comment. Annotations are comments to the
// splitter, so the semicolons that end contract clauses never split.
func splitSegments(text string) []segment {
	var segs []segment
	state := inCode
	depth := 0
	pos := source.Position{Line: 1, Column: 1}
	start := pos
	begin := 0

	advance := func(ch byte) {
		pos.Offset++
		if ch == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}

	for i := 0; i < len(text); {
		ch := text[i]
		var next byte
		if i+1 < len(text) {
			next = text[i+1]
		}

		switch state {
		case inCode:
			switch {
			case ch == ';':
				segs = append(segs, segment{text: text[begin:i], start: start, semi: true, semiAt: pos})
				advance(ch)
				i++
				begin, start = i, pos
				continue
			case ch == '"':
				state = inString
			case ch == '\'':
				state = inChar
			case ch == '/' && next == '/':
				state = inLineComment
				advance(ch)
				advance(next)
				i += 2
				continue
			case ch == '/' && next == '*':
				state = inBlockComment
				depth = 1
				advance(ch)
				advance(next)
				i += 2
				continue
			}

		case inString, inChar:
			quote := byte('"')
			if state == inChar {
				quote = '\''
			}
			switch {
			case ch == '\\' && next != 0 && next != '\n':
				advance(ch)
				advance(next)
				i += 2
				continue
			case ch == quote || ch == '\n':
				state = inCode
			}

		case inLineComment:
			if ch == '\n' {
				state = inCode
			}

		case inBlockComment:
			switch {
			case ch == '/' && next == '*':
				depth++
				advance(ch)
				advance(next)
				i += 2
				continue
			case ch == '*' && next == '/':
				depth--
				if depth == 0 {
					state = inCode
				}
				advance(ch)
				advance(next)
				i += 2
				continue
			}
		}

		advance(ch)
		i++
	}

	segs = append(segs, segment{text: text[begin:], start: start, last: true})
	return segs
}
