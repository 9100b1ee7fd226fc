// Package scanner converts C0 source text to tokens.
//
// The lexer keeps a stack of modes. The main mode covers ordinary code;
// "//@" and "/*@" push annotation modes in which the contract keywords are
// reserved and the end of the line (or "@*/") closes the annotation with a
// dedicated token. Block comments nest.
package scanner

import "github.com/dhamidi/c0ls/c0/source"

type Lexer struct {
	input  []byte
	pos    int
	base   source.Position
	line   int
	column int
	modes  []Mode
}

// NewLexer returns a lexer over input whose first byte sits at start.
// A zero start means the beginning of a file.
func NewLexer(input string, start source.Position) *Lexer {
	if start.Line == 0 {
		start = source.Position{Line: 1, Column: 1}
	}
	return &Lexer{
		input:  []byte(input),
		base:   start,
		line:   start.Line,
		column: start.Column,
	}
}

func (l *Lexer) Position() source.Position {
	return source.Position{
		Offset: l.base.Offset + l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

// Mode returns the mode the next token will be read in.
func (l *Lexer) Mode() Mode {
	if len(l.modes) == 0 {
		return ModeMain
	}
	return l.modes[len(l.modes)-1]
}

func (l *Lexer) push(m Mode) {
	l.modes = append(l.modes, m)
}

func (l *Lexer) pop() {
	if len(l.modes) > 0 {
		l.modes = l.modes[:len(l.modes)-1]
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

// NextToken returns the next token, including trivia. At the end of input
// it returns TokenEOF forever; an annotation line still open at the end of
// input is closed first.
func (l *Lexer) NextToken() Token {
	start := l.Position()
	mode := l.Mode()

	if l.atEOF() {
		if mode == ModeAnnoLine {
			l.pop()
			return l.token(TokenAnnoLineEnd, start, mode)
		}
		return Token{Kind: TokenEOF, Span: source.Span{Start: start, End: start}, Mode: mode}
	}

	ch := l.peek()

	switch mode {
	case ModeAnnoLine:
		if ch == '\n' {
			l.advance()
			l.pop()
			return l.token(TokenAnnoLineEnd, start, mode)
		}
	case ModeAnnoBlock:
		if ch == '@' && l.peekN(1) == '*' && l.peekN(2) == '/' {
			l.advanceN(3)
			l.pop()
			return l.token(TokenAnnoBlockEnd, start, mode)
		}
		if ch == '@' {
			// Decoration at the start of continuation lines.
			l.advance()
			return l.token(TokenWhitespace, start, mode)
		}
	}

	if ch == '/' && l.peekN(1) == '/' {
		if l.peekN(2) == '@' && mode == ModeMain {
			l.advanceN(3)
			l.push(ModeAnnoLine)
			return l.token(TokenAnnoLineStart, start, mode)
		}
		return l.scanLineComment(start, mode)
	}
	if ch == '/' && l.peekN(1) == '*' {
		if l.peekN(2) == '@' && mode == ModeMain {
			l.advanceN(3)
			l.push(ModeAnnoBlock)
			return l.token(TokenAnnoBlockStart, start, mode)
		}
		return l.scanBlockComment(start, mode)
	}

	if isSpace(ch) {
		return l.scanWhitespace(start, mode)
	}
	if isLetter(ch) {
		return l.scanIdentOrKeyword(start, mode)
	}
	if isDigit(ch) {
		return l.scanNumber(start, mode)
	}

	switch ch {
	case '"':
		return l.scanStringLiteral(start, mode)
	case '\'':
		return l.scanCharLiteral(start, mode)
	case '\\':
		return l.scanBackslashKeyword(start, mode)
	case '#':
		if mode == ModeMain {
			return l.scanPragma(start, mode)
		}
	}

	return l.scanOperator(start, mode)
}

func (l *Lexer) scanWhitespace(start source.Position, mode Mode) Token {
	for isSpace(l.peek()) {
		// The newline ends a line annotation, so it is its own token there.
		if l.peek() == '\n' && mode == ModeAnnoLine {
			break
		}
		l.advance()
	}
	return l.token(TokenWhitespace, start, mode)
}

func (l *Lexer) scanLineComment(start source.Position, mode Mode) Token {
	l.advanceN(2)
	for !l.atEOF() && l.peek() != '\n' {
		l.advance()
	}
	return l.token(TokenLineComment, start, mode)
}

func (l *Lexer) scanBlockComment(start source.Position, mode Mode) Token {
	l.advanceN(2)
	depth := 1
	for depth > 0 {
		if l.atEOF() {
			return l.token(TokenInvalid, start, mode)
		}
		if l.peek() == '/' && l.peekN(1) == '*' {
			l.advanceN(2)
			depth++
			continue
		}
		if l.peek() == '*' && l.peekN(1) == '/' {
			l.advanceN(2)
			depth--
			continue
		}
		l.advance()
	}
	return l.token(TokenComment, start, mode)
}

func (l *Lexer) scanIdentOrKeyword(start source.Position, mode Mode) Token {
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	tok := l.token(TokenIdent, start, mode)
	tok.Kind = LookupKeyword(tok.Literal, mode != ModeMain)
	return tok
}

func (l *Lexer) scanNumber(start source.Position, mode Mode) Token {
	kind := TokenDecLiteral
	if l.peek() == '0' && (l.peekN(1) == 'x' || l.peekN(1) == 'X') {
		l.advanceN(2)
		kind = TokenHexLiteral
		if !isHexDigit(l.peek()) {
			return l.token(TokenInvalid, start, mode)
		}
		for isHexDigit(l.peek()) {
			l.advance()
		}
	} else {
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if isLetter(l.peek()) {
		for isLetter(l.peek()) || isDigit(l.peek()) {
			l.advance()
		}
		return l.token(TokenInvalid, start, mode)
	}
	return l.token(kind, start, mode)
}

// scanStringLiteral reads a string body. Escapes are kept verbatim; they
// are validated later. A newline or end of input before the closing quote
// yields an invalid token.
func (l *Lexer) scanStringLiteral(start source.Position, mode Mode) Token {
	l.advance()
	for {
		ch := l.peek()
		if l.atEOF() || ch == '\n' {
			return l.token(TokenInvalid, start, mode)
		}
		if ch == '"' {
			l.advance()
			return l.token(TokenStringLiteral, start, mode)
		}
		if ch == '\\' {
			l.advance()
			if l.atEOF() || l.peek() == '\n' {
				return l.token(TokenInvalid, start, mode)
			}
		}
		l.advance()
	}
}

func (l *Lexer) scanCharLiteral(start source.Position, mode Mode) Token {
	l.advance()
	for {
		ch := l.peek()
		if l.atEOF() || ch == '\n' {
			return l.token(TokenInvalid, start, mode)
		}
		if ch == '\'' {
			l.advance()
			return l.token(TokenCharLiteral, start, mode)
		}
		if ch == '\\' {
			l.advance()
			if l.atEOF() || l.peek() == '\n' {
				return l.token(TokenInvalid, start, mode)
			}
		}
		l.advance()
	}
}

func (l *Lexer) scanBackslashKeyword(start source.Position, mode Mode) Token {
	l.advance()
	for isLetter(l.peek()) {
		l.advance()
	}
	tok := l.token(TokenInvalid, start, mode)
	if kind, ok := backslashKeywords[tok.Literal]; ok {
		tok.Kind = kind
	}
	return tok
}

func (l *Lexer) scanPragma(start source.Position, mode Mode) Token {
	for !l.atEOF() && l.peek() != '\n' {
		l.advance()
	}
	tok := l.token(TokenPragma, start, mode)
	// Keep trailing carriage returns out of the pragma text.
	for len(tok.Literal) > 0 && tok.Literal[len(tok.Literal)-1] == '\r' {
		tok.Literal = tok.Literal[:len(tok.Literal)-1]
	}
	return tok
}

func (l *Lexer) scanOperator(start source.Position, mode Mode) Token {
	three := string([]byte{l.peek(), l.peekN(1), l.peekN(2)})
	switch three {
	case "<<=":
		l.advanceN(3)
		return l.token(TokenShlAssign, start, mode)
	case ">>=":
		l.advanceN(3)
		return l.token(TokenShrAssign, start, mode)
	}

	two := three[:2]
	if kind, ok := twoCharOps[two]; ok {
		l.advanceN(2)
		return l.token(kind, start, mode)
	}

	if kind, ok := oneCharOps[l.peek()]; ok {
		l.advance()
		return l.token(kind, start, mode)
	}

	l.advance()
	return l.token(TokenInvalid, start, mode)
}

var twoCharOps = map[string]TokenKind{
	"->": TokenArrow,
	"+=": TokenPlusAssign,
	"-=": TokenMinusAssign,
	"*=": TokenStarAssign,
	"/=": TokenSlashAssign,
	"%=": TokenPercentAssign,
	"&=": TokenAndAssign,
	"^=": TokenXorAssign,
	"|=": TokenOrAssign,
	"==": TokenEQ,
	"!=": TokenNE,
	"<=": TokenLE,
	">=": TokenGE,
	"&&": TokenAnd,
	"||": TokenOr,
	"<<": TokenShl,
	">>": TokenShr,
	"++": TokenIncrement,
	"--": TokenDecrement,
}

var oneCharOps = map[byte]TokenKind{
	'(': TokenLParen,
	')': TokenRParen,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'[': TokenLBracket,
	']': TokenRBracket,
	';': TokenSemicolon,
	',': TokenComma,
	'.': TokenDot,
	'?': TokenQuestion,
	':': TokenColon,
	'=': TokenAssign,
	'<': TokenLT,
	'>': TokenGT,
	'!': TokenNot,
	'&': TokenBitAnd,
	'|': TokenBitOr,
	'^': TokenBitXor,
	'~': TokenBitNot,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
}

func (l *Lexer) token(kind TokenKind, start source.Position, mode Mode) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Literal: string(l.input[start.Offset-l.base.Offset : end.Offset-l.base.Offset]),
		Span:    source.Span{Start: start, End: end},
		Mode:    mode,
	}
}

// Tokenize returns every token up to and including TokenEOF.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens
		}
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == '\v'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}
