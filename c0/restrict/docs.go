package restrict

import (
	"strings"

	"github.com/dhamidi/c0ls/c0/scanner"
	"github.com/dhamidi/c0ls/c0/source"
)

// docFor returns the documentation for a declaration starting at start:
// either a block comment ending on the line above (or the same line), or a
// run of line comments on consecutive lines ending there. after is where
// the previous declaration ended; comments before it, or trailing on its
// last line, belong to that declaration.
func docFor(comments []scanner.Token, start, after source.Position) string {
	owned := func(c scanner.Token) bool {
		return c.Span.Start.Offset >= after.Offset && c.Span.Start.Line != after.Line
	}
	last := -1
	for i, c := range comments {
		if c.Span.End.Offset > start.Offset {
			break
		}
		last = i
	}
	if last < 0 {
		return ""
	}
	c := comments[last]
	if !owned(c) || c.Span.End.Line < start.Line-1 {
		return ""
	}

	if c.Kind == scanner.TokenComment {
		return stripBlock(c.Literal)
	}

	lines := []string{stripLine(c.Literal)}
	line := c.Span.Start.Line
	for i := last - 1; i >= 0; i-- {
		prev := comments[i]
		if prev.Kind != scanner.TokenLineComment || prev.Span.Start.Line != line-1 || !owned(prev) {
			break
		}
		lines = append(lines, stripLine(prev.Literal))
		line--
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripLine(text string) string {
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimPrefix(text, " ")
	return strings.TrimRight(text, " \t\r")
}

func stripBlock(text string) string {
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		l = strings.TrimLeft(l, "*")
		l = strings.TrimPrefix(l, " ")
		lines = append(lines, strings.TrimRight(l, " \t\r"))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
