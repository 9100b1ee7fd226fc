package scanner

import "github.com/dhamidi/c0ls/c0/source"

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenInvalid
	TokenWhitespace
	TokenComment
	TokenLineComment

	// Classes
	TokenIdent
	TokenTypeIdent
	TokenDecLiteral
	TokenHexLiteral
	TokenStringLiteral
	TokenCharLiteral
	TokenPragma

	// Keywords
	TokenInt
	TokenBool
	TokenString
	TokenChar
	TokenVoid
	TokenStruct
	TokenTypedef
	TokenIf
	TokenElse
	TokenWhile
	TokenFor
	TokenContinue
	TokenBreak
	TokenReturn
	TokenAssert
	TokenError
	TokenTrue
	TokenFalse
	TokenNull
	TokenAlloc
	TokenAllocArray

	// Annotation-only keywords
	TokenRequires
	TokenEnsures
	TokenLoopInvariant
	TokenResult
	TokenLength
	TokenHastag

	// Annotation delimiters
	TokenAnnoLineStart
	TokenAnnoBlockStart
	TokenAnnoBlockEnd
	TokenAnnoLineEnd

	// Operators and punctuation
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenSemicolon
	TokenComma
	TokenDot
	TokenArrow
	TokenQuestion
	TokenColon
	TokenAssign
	TokenPlusAssign
	TokenMinusAssign
	TokenStarAssign
	TokenSlashAssign
	TokenPercentAssign
	TokenShlAssign
	TokenShrAssign
	TokenAndAssign
	TokenXorAssign
	TokenOrAssign
	TokenEQ
	TokenNE
	TokenLT
	TokenLE
	TokenGT
	TokenGE
	TokenAnd
	TokenOr
	TokenNot
	TokenBitAnd
	TokenBitOr
	TokenBitXor
	TokenBitNot
	TokenShl
	TokenShr
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenIncrement
	TokenDecrement
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:            "EOF",
	TokenInvalid:        "Invalid",
	TokenWhitespace:     "Whitespace",
	TokenComment:        "Comment",
	TokenLineComment:    "LineComment",
	TokenIdent:          "Identifier",
	TokenTypeIdent:      "TypeIdentifier",
	TokenDecLiteral:     "DecLiteral",
	TokenHexLiteral:     "HexLiteral",
	TokenStringLiteral:  "StringLiteral",
	TokenCharLiteral:    "CharLiteral",
	TokenPragma:         "Pragma",
	TokenInt:            "int",
	TokenBool:           "bool",
	TokenString:         "string",
	TokenChar:           "char",
	TokenVoid:           "void",
	TokenStruct:         "struct",
	TokenTypedef:        "typedef",
	TokenIf:             "if",
	TokenElse:           "else",
	TokenWhile:          "while",
	TokenFor:            "for",
	TokenContinue:       "continue",
	TokenBreak:          "break",
	TokenReturn:         "return",
	TokenAssert:         "assert",
	TokenError:          "error",
	TokenTrue:           "true",
	TokenFalse:          "false",
	TokenNull:           "NULL",
	TokenAlloc:          "alloc",
	TokenAllocArray:     "alloc_array",
	TokenRequires:       "requires",
	TokenEnsures:        "ensures",
	TokenLoopInvariant:  "loop_invariant",
	TokenResult:         `\result`,
	TokenLength:         `\length`,
	TokenHastag:         `\hastag`,
	TokenAnnoLineStart:  "//@",
	TokenAnnoBlockStart: "/*@",
	TokenAnnoBlockEnd:   "@*/",
	TokenAnnoLineEnd:    "AnnotationEnd",
	TokenLParen:         "(",
	TokenRParen:         ")",
	TokenLBrace:         "{",
	TokenRBrace:         "}",
	TokenLBracket:       "[",
	TokenRBracket:       "]",
	TokenSemicolon:      ";",
	TokenComma:          ",",
	TokenDot:            ".",
	TokenArrow:          "->",
	TokenQuestion:       "?",
	TokenColon:          ":",
	TokenAssign:         "=",
	TokenPlusAssign:     "+=",
	TokenMinusAssign:    "-=",
	TokenStarAssign:     "*=",
	TokenSlashAssign:    "/=",
	TokenPercentAssign:  "%=",
	TokenShlAssign:      "<<=",
	TokenShrAssign:      ">>=",
	TokenAndAssign:      "&=",
	TokenXorAssign:      "^=",
	TokenOrAssign:       "|=",
	TokenEQ:             "==",
	TokenNE:             "!=",
	TokenLT:             "<",
	TokenLE:             "<=",
	TokenGT:             ">",
	TokenGE:             ">=",
	TokenAnd:            "&&",
	TokenOr:             "||",
	TokenNot:            "!",
	TokenBitAnd:         "&",
	TokenBitOr:          "|",
	TokenBitXor:         "^",
	TokenBitNot:         "~",
	TokenShl:            "<<",
	TokenShr:            ">>",
	TokenPlus:           "+",
	TokenMinus:          "-",
	TokenStar:           "*",
	TokenSlash:          "/",
	TokenPercent:        "%",
	TokenIncrement:      "++",
	TokenDecrement:      "--",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Class returns the grammar terminal class of the token kind: the lexical
// production name for tokens whose text varies (identifiers, literals,
// pragmas), or "" for tokens matched by their literal text.
func (k TokenKind) Class() string {
	switch k {
	case TokenIdent:
		return "identifier"
	case TokenTypeIdent:
		return "typeIdentifier"
	case TokenDecLiteral:
		return "decLiteral"
	case TokenHexLiteral:
		return "hexLiteral"
	case TokenStringLiteral:
		return "stringLiteral"
	case TokenCharLiteral:
		return "charLiteral"
	case TokenPragma:
		return "pragma"
	case TokenAnnoLineEnd:
		return "annoEnd"
	case TokenInvalid:
		return "invalid"
	}
	return ""
}

// IsTrivia reports whether the parser should never see the token.
func (k TokenKind) IsTrivia() bool {
	return k == TokenWhitespace || k == TokenComment || k == TokenLineComment
}

// Mode is the lexer state a token was produced in.
type Mode int

const (
	ModeMain Mode = iota
	ModeAnnoLine
	ModeAnnoBlock
)

func (m Mode) String() string {
	switch m {
	case ModeAnnoLine:
		return "annotation-line"
	case ModeAnnoBlock:
		return "annotation-block"
	}
	return "main"
}

type Token struct {
	Kind    TokenKind
	Literal string
	Span    source.Span
	Mode    Mode
}

var keywords = map[string]TokenKind{
	"int":         TokenInt,
	"bool":        TokenBool,
	"string":      TokenString,
	"char":        TokenChar,
	"void":        TokenVoid,
	"struct":      TokenStruct,
	"typedef":     TokenTypedef,
	"if":          TokenIf,
	"else":        TokenElse,
	"while":       TokenWhile,
	"for":         TokenFor,
	"continue":    TokenContinue,
	"break":       TokenBreak,
	"return":      TokenReturn,
	"assert":      TokenAssert,
	"error":       TokenError,
	"true":        TokenTrue,
	"false":       TokenFalse,
	"NULL":        TokenNull,
	"alloc":       TokenAlloc,
	"alloc_array": TokenAllocArray,
}

var annotationKeywords = map[string]TokenKind{
	"requires":       TokenRequires,
	"ensures":        TokenEnsures,
	"loop_invariant": TokenLoopInvariant,
}

var backslashKeywords = map[string]TokenKind{
	`\result`: TokenResult,
	`\length`: TokenLength,
	`\hastag`: TokenHastag,
}

// LookupKeyword classifies an identifier-shaped word. Annotation keywords
// are only reserved inside annotations.
func LookupKeyword(ident string, inAnnotation bool) TokenKind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	if inAnnotation {
		if kind, ok := annotationKeywords[ident]; ok {
			return kind
		}
	}
	return TokenIdent
}
