package parse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnbalanced is wrapped by every error returned from Validate.
var ErrUnbalanced = errors.New("unbalanced delimiter")

// Validate checks that expression and statement delimiters are properly
// paired. Classify never fails on malformed input, it silently drops
// dangling regions; Validate exists to surface those mistakes.
func Validate(src string) error {
	var (
		errs     []error
		line     = 1
		openTyp  TokenType
		openLine int
		open     bool
	)
	for tok := range Tokens(src) {
		switch tok.Typ {
		case TokOpenExpr, TokOpenStmt:
			if open {
				errs = append(errs, fmt.Errorf("%w: line %d: %s opened inside %s from line %d",
					ErrUnbalanced, line, tok.Val, delimiterFor(openTyp), openLine))
			}
			open, openTyp, openLine = true, tok.Typ, line
		case TokCloseExpr, TokCloseStmt:
			want := TokOpenExpr
			if tok.Typ == TokCloseStmt {
				want = TokOpenStmt
			}
			switch {
			case !open:
				errs = append(errs, fmt.Errorf("%w: line %d: %s without opening delimiter",
					ErrUnbalanced, line, tok.Val))
			case openTyp != want:
				errs = append(errs, fmt.Errorf("%w: line %d: %s closes %s from line %d",
					ErrUnbalanced, line, tok.Val, delimiterFor(openTyp), openLine))
			}
			open = false
		}
		line += strings.Count(tok.Val, "\n")
	}
	if open {
		errs = append(errs, fmt.Errorf("%w: %s from line %d is never closed",
			ErrUnbalanced, delimiterFor(openTyp), openLine))
	}
	return errors.Join(errs...)
}

func delimiterFor(t TokenType) string {
	switch t {
	case TokOpenExpr:
		return OpenExpr
	case TokCloseExpr:
		return CloseExpr
	case TokOpenStmt:
		return OpenStmt
	case TokCloseStmt:
		return CloseStmt
	}
	return ""
}
