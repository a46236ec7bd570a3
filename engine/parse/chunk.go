package parse

import (
	"strconv"
	"strings"
)

// Kind classifies a chunk of a parsed template.
type Kind int

const (
	// RawText is emitted verbatim.
	RawText Kind = iota
	// ValueExpression is script code whose result replaces the chunk.
	ValueExpression
	// ControlStatement is script code executed for its side effects only.
	ControlStatement
)

func (k Kind) String() string {
	switch k {
	case RawText:
		return "RawText"
	case ValueExpression:
		return "ValueExpression"
	case ControlStatement:
		return "ControlStatement"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

type Chunk struct {
	Content string
	Kind    Kind
}

// luaQuote renders s as a double-quoted Lua string literal. Long brackets
// are avoided on purpose: Lua drops a newline that directly follows the
// opening bracket.
func luaQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				// three digits so a following digit is not absorbed
				b.WriteByte('\\')
				d := strconv.Itoa(int(c))
				b.WriteString(strings.Repeat("0", 3-len(d)))
				b.WriteString(d)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
