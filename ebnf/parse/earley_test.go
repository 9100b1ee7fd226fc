package parse

import (
	"strings"
	"testing"
)

const exprGrammar = `
Expr = Term { ("+" | "-") Term } .
Term = number | identifier | "(" Expr ")" | Call .
Call = identifier "(" [ Args ] ")" .
Args = Expr { "," Expr } .
number = "0" … "9" { "0" … "9" } .
identifier = "a" … "z" { "a" … "z" } .
`

func mustGrammar(t *testing.T, src, start string) *Grammar {
	t.Helper()
	g, err := ParseGrammar("test.ebnf", strings.NewReader(src), start)
	if err != nil {
		t.Fatalf("grammar: %v", err)
	}
	return g
}

// toks turns "x + ( 1 )" into tokens: words are identifiers, digits are
// numbers, everything else is matched literally.
func toks(src string) []Token {
	var out []Token
	for _, f := range strings.Fields(src) {
		switch {
		case f[0] >= '0' && f[0] <= '9':
			out = append(out, Token{Class: "number", Literal: f})
		case f[0] >= 'a' && f[0] <= 'z':
			out = append(out, Token{Class: "identifier", Literal: f})
		default:
			out = append(out, Token{Literal: f})
		}
	}
	return out
}

func feedAll(t *testing.T, p *Parser, src string) error {
	t.Helper()
	for _, tok := range toks(src) {
		if err := p.Feed(tok); err != nil {
			return err
		}
	}
	return nil
}

func shape(n *Node) string {
	if n.IsTerminal() {
		return n.Text()
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = shape(c)
	}
	return n.Kind + "(" + strings.Join(parts, " ") + ")"
}

func TestParserAcceptsSentences(t *testing.T) {
	g := mustGrammar(t, exprGrammar, "Expr")
	tests := []struct {
		input string
		want  string
	}{
		{"1", "Expr(Term(1))"},
		{"a + 2 - b", "Expr(Term(a) + Term(2) - Term(b))"},
		{"f ( )", "Expr(Term(Call(f ( ))))"},
		{"f ( 1 , x )", "Expr(Term(Call(f ( Args(Expr(Term(1)) , Expr(Term(x))) ))))"},
		{"( 1 + 2 )", "Expr(Term(( Expr(Term(1) + Term(2)) )))"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := NewParser(g)
			if err := feedAll(t, p, tt.input); err != nil {
				t.Fatalf("feed: %v", err)
			}
			res := p.Results()
			if len(res) != 1 {
				t.Fatalf("got %d results, want 1", len(res))
			}
			if got := shape(res[0]); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParserIncompleteInput(t *testing.T) {
	g := mustGrammar(t, exprGrammar, "Expr")
	p := NewParser(g)
	if err := feedAll(t, p, "1 +"); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if res := p.Results(); len(res) != 0 {
		t.Errorf("prefix produced %d results", len(res))
	}
	if err := p.Feed(Token{Class: "number", Literal: "2"}); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if res := p.Results(); len(res) != 1 {
		t.Errorf("got %d results after completion, want 1", len(res))
	}
}

func TestParserRejectsTokenAndKeepsState(t *testing.T) {
	g := mustGrammar(t, exprGrammar, "Expr")
	p := NewParser(g)
	if err := feedAll(t, p, "1 +"); err != nil {
		t.Fatalf("feed: %v", err)
	}
	err := p.Feed(Token{Literal: ")"})
	perr, ok := err.(*Error)
	if !ok {
		t.Fatalf("got %v, want *Error", err)
	}
	want := []string{`"("`, "identifier", "number"}
	if strings.Join(perr.Expected, " ") != strings.Join(want, " ") {
		t.Errorf("expected %v, want %v", perr.Expected, want)
	}
	if p.Fed() != 2 {
		t.Errorf("rejected token was consumed: fed %d", p.Fed())
	}
	if err := p.Feed(Token{Class: "number", Literal: "3"}); err != nil {
		t.Errorf("parser unusable after error: %v", err)
	}
}

func TestParserSaveRestore(t *testing.T) {
	g := mustGrammar(t, exprGrammar, "Expr")
	p := NewParser(g)
	if err := feedAll(t, p, "a"); err != nil {
		t.Fatal(err)
	}
	s := p.Save()
	if err := feedAll(t, p, "+ ( b"); err != nil {
		t.Fatal(err)
	}
	if len(p.Results()) != 0 {
		t.Fatal("unbalanced input parsed")
	}
	p.Restore(s)
	res := p.Results()
	if len(res) != 1 || shape(res[0]) != "Expr(Term(a))" {
		t.Fatalf("restore did not rewind: %v", res)
	}
	if !p.Accepts(Token{Literal: "+"}) || p.Accepts(Token{Literal: ")"}) {
		t.Error("Accepts disagrees with the restored state")
	}
}

func TestParserReportsAmbiguity(t *testing.T) {
	g := mustGrammar(t, `
S = A | B .
A = "x" .
B = "x" .
`, "S")
	p := NewParser(g)
	if err := p.Feed(Token{Literal: "x"}); err != nil {
		t.Fatal(err)
	}
	res := p.Results()
	if len(res) != 2 {
		t.Fatalf("got %d results, want 2", len(res))
	}
	if shape(res[0]) == shape(res[1]) {
		t.Errorf("ambiguous trees are identical: %s", shape(res[0]))
	}
}

func TestParserNestedAmbiguity(t *testing.T) {
	g := mustGrammar(t, `
E = E "-" E | number .
number = "0" … "9" .
`, "E")
	p := NewParser(g)
	if err := feedAll(t, p, "1 - 2 - 3"); err != nil {
		t.Fatal(err)
	}
	res := p.Results()
	if len(res) != 2 {
		t.Fatalf("got %d results, want 2", len(res))
	}
	if shape(res[0]) == shape(res[1]) {
		t.Errorf("trees are identical: %s", shape(res[0]))
	}
}

func TestCompileRejectsEmptyProductions(t *testing.T) {
	_, err := ParseGrammar("test.ebnf", strings.NewReader(`
S = [ "x" ] .
`), "S")
	if err == nil {
		t.Fatal("nullable start production accepted")
	}
}

func TestResetDiscardsInput(t *testing.T) {
	g := mustGrammar(t, exprGrammar, "Expr")
	p := NewParser(g)
	if err := feedAll(t, p, "a +"); err != nil {
		t.Fatal(err)
	}
	p.Reset()
	if p.Fed() != 0 {
		t.Fatalf("fed %d after reset", p.Fed())
	}
	if err := feedAll(t, p, "b"); err != nil {
		t.Fatal(err)
	}
	if len(p.Results()) != 1 {
		t.Error("fresh input did not parse after reset")
	}
}
