// Package parser drives the Earley engine over C0 source text.
//
// Text is split at top-level semicolons and fed one segment at a time.
// Whenever the input seen so far forms complete declarations they are
// committed and the engine restarts, so typedef names are registered with
// the scanner before the next segment is tokenized. A segment that fails to
// parse is discarded up to the innermost brace before the error, keeping
// block nesting intact for the rest of the file.
package parser

import (
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/c0ls/c0/parsed"
	"github.com/dhamidi/c0ls/c0/scanner"
	"github.com/dhamidi/c0ls/c0/source"
	"github.com/dhamidi/c0ls/ebnf/parse"
)

// log is resolved on each use; the backend is installed by main.
func log() commonlog.Logger {
	return commonlog.GetLogger("c0ls.parser")
}

type Option func(*Parser)

// WithFile stamps every span with path.
func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

// WithTypeNames makes the parser use and extend names instead of a fresh
// set. The set must not be shared with a concurrent parse.
func WithTypeNames(names *scanner.TypeNames) Option {
	return func(p *Parser) {
		p.names = names
	}
}

// WithPragmaNames installs the callback that maps a pragma line to the type
// names it brings into scope.
func WithPragmaNames(f scanner.PragmaFunc) Option {
	return func(p *Parser) {
		p.pragma = f
	}
}

type Parser struct {
	file   string
	names  *scanner.TypeNames
	pragma scanner.PragmaFunc
	engine *parse.Parser

	decls    []*parsed.Node
	comments []scanner.Token
	diags    []source.Diagnostic

	// Position just past the last brace fed in the current segment.
	braceEnd int
}

// Result is the outcome of parsing one file.
type Result struct {
	Decls       []*parsed.Node
	Comments    []scanner.Token
	TypeNames   *scanner.TypeNames
	Diagnostics []source.Diagnostic
}

func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.names == nil {
		p.names = scanner.NewTypeNames()
	}
	p.engine = parse.NewParser(loadGrammars().program)
	return p
}

// Parse parses a whole file.
func Parse(text string, opts ...Option) *Result {
	return New(opts...).Parse(text)
}

func (p *Parser) Parse(text string) *Result {
	for _, seg := range splitSegments(text) {
		p.segment(seg)
	}
	for _, d := range p.decls {
		if (d.Kind == parsed.KindTypedefDecl || d.Kind == parsed.KindFunTypedefDecl) && !d.Terminated {
			diag := source.Errorf(source.StageParse, d.Span, "typedef %s must end with ';'", d.Name())
			p.diags = append(p.diags, diag)
		}
	}
	return &Result{
		Decls:       p.decls,
		Comments:    p.comments,
		TypeNames:   p.names,
		Diagnostics: p.diags,
	}
}

func (p *Parser) segment(seg segment) {
	snap := p.engine.Save()
	ncomments := len(p.comments)
	p.braceEnd = 0

	if err := p.feedText(seg.text, seg.start); err != nil {
		p.recover(seg, snap, ncomments, err)
		p.settle(seg)
		return
	}

	if seg.semi {
		semi := p.token(";", seg.semiAt)
		switch {
		case p.engine.Accepts(semi):
			if err := p.engine.Feed(semi); err != nil {
				p.recover(seg, snap, ncomments, err)
			}
		case p.engine.Fed() == 0 || len(p.engine.Results()) == 1:
			diag := source.Errorf(source.StageParse, semi.Span, "extraneous ';'")
			p.diags = append(p.diags, diag)
		default:
			p.recover(seg, snap, ncomments, p.engine.Feed(semi))
		}
	}
	p.settle(seg)
}

// settle commits the declarations parsed since the last restart, if the
// input fed so far is complete.
func (p *Parser) settle(seg segment) {
	results := p.engine.Results()
	switch {
	case len(results) > 1:
		log().Warningf("ambiguous parse at %s; using the first of %d trees", results[0].Span, len(results))
		fallthrough
	case len(results) == 1:
		p.commit(buildProgram(results[0]))
		p.engine.Reset()
	case seg.last && p.engine.Fed() > 0:
		end := seg.start
		for i := 0; i < len(seg.text); i++ {
			end = step(end, seg.text[i])
		}
		diag := source.Errorf(source.StageParse, source.Span{File: p.file, Start: end, End: end}, "incomplete parse: unexpected end of file")
		diag.Hints = []string{"check for a missing '}' or ';'"}
		p.diags = append(p.diags, diag)
	}
}

func (p *Parser) commit(decls []*parsed.Node) {
	for _, d := range decls {
		if d.Kind == parsed.KindTypedefDecl || d.Kind == parsed.KindFunTypedefDecl {
			p.names.Add(d.Name())
		}
	}
	p.decls = append(p.decls, decls...)
}

func (p *Parser) token(literal string, at source.Position) parse.Token {
	end := at
	end.Offset += len(literal)
	end.Column += len(literal)
	return parse.Token{
		Literal: literal,
		Span:    source.Span{File: p.file, Start: at, End: end},
	}
}

// feedText tokenizes text starting at start and feeds every non-trivia
// token to the engine.
func (p *Parser) feedText(text string, start source.Position) error {
	sc := scanner.NewScanner(text, start, p.names, p.pragma)
	for {
		tok := sc.Next()
		switch {
		case tok.Kind == scanner.TokenEOF:
			return nil
		case tok.Kind == scanner.TokenComment || tok.Kind == scanner.TokenLineComment:
			if tok.Mode == scanner.ModeMain {
				tok.Span.File = p.file
				p.comments = append(p.comments, tok)
			}
			continue
		case tok.Kind.IsTrivia():
			continue
		}
		ptok := parse.Token{
			Class:   tok.Kind.Class(),
			Literal: tok.Literal,
			Span:    tok.Span,
		}
		ptok.Span.File = p.file
		if err := p.engine.Feed(ptok); err != nil {
			return err
		}
		if tok.Kind == scanner.TokenLBrace || tok.Kind == scanner.TokenRBrace {
			p.braceEnd = tok.Span.End.Offset - start.Offset
		}
	}
}

// recover rewinds to the state before seg and replays as much of it as
// can be kept: the text up to the last brace accepted before the error is
// fed again verbatim, and of the rest only braces are offered to the
// engine, each skipped if rejected.
func (p *Parser) recover(seg segment, snap parse.State, ncomments int, err error) {
	p.diags = append(p.diags, syntaxError(err))

	keep := p.braceEnd
	p.engine.Restore(snap)
	p.comments = p.comments[:ncomments]
	p.braceEnd = 0
	if keep > 0 {
		if err := p.feedText(seg.text[:keep], seg.start); err != nil {
			log().Errorf("replaying accepted prefix at %s: %v", seg.start, err)
			p.engine.Restore(snap)
			p.comments = p.comments[:ncomments]
			keep = 0
		}
	}

	pos := seg.start
	for i := 0; i < keep; i++ {
		pos = step(pos, seg.text[i])
	}
	for i := keep; i < len(seg.text); i++ {
		ch := seg.text[i]
		if ch == '{' || ch == '}' {
			s := p.engine.Save()
			if p.engine.Feed(p.token(string(ch), pos)) != nil {
				p.engine.Restore(s)
			}
		}
		pos = step(pos, ch)
	}
}

func step(pos source.Position, ch byte) source.Position {
	pos.Offset++
	if ch == '\n' {
		pos.Line++
		pos.Column = 1
	} else {
		pos.Column++
	}
	return pos
}

const maxExpected = 12

func syntaxError(err error) source.Diagnostic {
	perr, ok := err.(*parse.Error)
	if !ok {
		return source.Errorf(source.StageParse, source.Span{}, "syntax error: %v", err)
	}
	got := perr.Got
	var diag source.Diagnostic
	switch {
	case got.Class == "invalid":
		diag = source.Errorf(source.StageParse, got.Span, "syntax error: unrecognized input %q", got.Literal)
	case got.Class == "annoEnd":
		diag = source.Errorf(source.StageParse, got.Span, "syntax error: unexpected end of annotation")
	default:
		diag = source.Errorf(source.StageParse, got.Span, "syntax error: unexpected %s", describe(got))
	}
	if len(perr.Expected) > 0 {
		expected := perr.Expected
		if len(expected) > maxExpected {
			expected = append(expected[:maxExpected:maxExpected], "...")
		}
		diag.Hints = []string{"expected one of " + strings.Join(expected, ", ")}
	}
	return diag
}

func describe(tok parse.Token) string {
	switch tok.Class {
	case "":
		return "'" + tok.Literal + "'"
	case "identifier":
		return "identifier " + tok.Literal
	case "typeIdentifier":
		return "type name " + tok.Literal
	case "pragma":
		return "pragma"
	}
	return tok.Literal
}
