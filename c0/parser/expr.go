package parser

import (
	"errors"

	"github.com/dhamidi/c0ls/c0/parsed"
	"github.com/dhamidi/c0ls/c0/scanner"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/ebnf/parse"
)

var ErrIncomplete = errors.New("incomplete expression")

// ParseExpression parses text as one expression. Nothing is committed, so
// it is safe to call speculatively, e.g. on the text before a '.' during
// completion.
func ParseExpression(text string, opts ...Option) (*parsed.Node, error) {
	p := New(opts...)
	engine := parse.NewParser(loadGrammars().expr)
	sc := scanner.NewScanner(text, source.Position{}, p.names, p.pragma)
	for {
		tok := sc.Next()
		if tok.Kind == scanner.TokenEOF {
			break
		}
		if tok.Kind.IsTrivia() {
			continue
		}
		ptok := parse.Token{Class: tok.Kind.Class(), Literal: tok.Literal, Span: tok.Span}
		ptok.Span.File = p.file
		if err := engine.Feed(ptok); err != nil {
			return nil, err
		}
	}
	results := engine.Results()
	if len(results) == 0 {
		return nil, ErrIncomplete
	}
	return buildExpr(results[0]), nil
}
