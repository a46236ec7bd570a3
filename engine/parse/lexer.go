package parse

import "iter"

// The four template delimiters. All of them are two ASCII bytes, so a
// delimiter can never start inside a multi-byte UTF-8 sequence.
const (
	OpenExpr  = "{{"
	CloseExpr = "}}"
	OpenStmt  = "{%"
	CloseStmt = "%}"
)

type TokenType int

const (
	TokEOF TokenType = iota
	TokLiteral
	TokOpenExpr
	TokCloseExpr
	TokOpenStmt
	TokCloseStmt
)

func (t TokenType) String() string {
	switch t {
	case TokEOF:
		return "EOF"
	case TokLiteral:
		return "Literal"
	case TokOpenExpr:
		return "OpenExpr"
	case TokCloseExpr:
		return "CloseExpr"
	case TokOpenStmt:
		return "OpenStmt"
	case TokCloseStmt:
		return "CloseStmt"
	}
	return "Unknown"
}

// Token is either a delimiter or a literal span of the source. Val is always
// a substring of the lexer input.
type Token struct {
	Typ TokenType
	Val string
}

// Lexer splits template source into delimiter and literal tokens. A Lexer is
// single use; create a new one to scan the same input again.
type Lexer struct {
	input string
	pos   int
}

func NewLexer(s string) *Lexer {
	return &Lexer{input: s, pos: 0}
}

// delimiterAt reports the delimiter starting at byte offset i, if any.
func (l *Lexer) delimiterAt(i int) (TokenType, bool) {
	if i+2 > len(l.input) {
		return TokLiteral, false
	}
	switch l.input[i : i+2] {
	case OpenExpr:
		return TokOpenExpr, true
	case CloseExpr:
		return TokCloseExpr, true
	case OpenStmt:
		return TokOpenStmt, true
	case CloseStmt:
		return TokCloseStmt, true
	}
	return TokLiteral, false
}

func (l *Lexer) emitToken(typ TokenType, start int) Token {
	return Token{Typ: typ, Val: l.input[start:l.pos]}
}

// NextToken returns the next token, or a TokEOF token once the input is
// exhausted.
func (l *Lexer) NextToken() Token {
	if l.pos >= len(l.input) {
		return Token{Typ: TokEOF}
	}
	start := l.pos

	if typ, ok := l.delimiterAt(start); ok {
		l.pos += 2
		return l.emitToken(typ, start)
	}

	// literal: at least one byte, up to the next delimiter or end of input
	l.pos++
	for l.pos < len(l.input) {
		if _, ok := l.delimiterAt(l.pos); ok {
			break
		}
		l.pos++
	}
	return l.emitToken(TokLiteral, start)
}

// Tokens returns a lazy sequence over the tokens of s. Every call to the
// returned sequence starts a fresh scan.
func Tokens(s string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		l := NewLexer(s)
		for {
			tok := l.NextToken()
			if tok.Typ == TokEOF {
				return
			}
			if !yield(tok) {
				return
			}
		}
	}
}

// Tokenize scans s completely and returns all of its tokens.
func Tokenize(s string) []Token {
	var toks []Token
	for tok := range Tokens(s) {
		toks = append(toks, tok)
	}
	return toks
}
