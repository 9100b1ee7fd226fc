package parser

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/c0ls/ebnf/parse"
)

//go:embed grammar.ebnf
var grammarSource string

type grammars struct {
	program *parse.Grammar
	expr    *parse.Grammar
}

// loadGrammars compiles the embedded grammar once per process, for whole
// files and for single expressions.
var loadGrammars = sync.OnceValue(func() grammars {
	g, err := ebnf.Parse("grammar.ebnf", strings.NewReader(grammarSource))
	if err != nil {
		panic(fmt.Sprintf("parser: embedded grammar: %v", err))
	}
	if err := ebnf.Verify(g, "Program"); err != nil {
		panic(fmt.Sprintf("parser: embedded grammar: %v", err))
	}
	program, err := parse.Compile(g, "Program")
	if err != nil {
		panic(fmt.Sprintf("parser: embedded grammar: %v", err))
	}
	expr, err := parse.Compile(g, "Expr")
	if err != nil {
		panic(fmt.Sprintf("parser: embedded grammar: %v", err))
	}
	return grammars{program: program, expr: expr}
})

// Grammar returns the EBNF source the parser is built from.
func Grammar() string {
	return grammarSource
}
