package parse

import (
	"fmt"
	"slices"
	"strings"
)

// accumulator is the Lua local that collects the output of an unrolled block.
const accumulator = "result"

// blockOpeners are the statement keywords that turn a control statement into
// an unrolled block.
var blockOpeners = []string{"for", "if", "while"}

// classifier is a single pass state machine over the token stream.
type classifier struct {
	chunks []Chunk

	inExpr     bool
	inStmt     bool
	inLoop     bool
	endPending bool // the block header has been closed

	depth   int // open Lua blocks inside the current unrolled block
	pending *string
	buf     strings.Builder
}

// Classify turns template source into an ordered list of chunks. Loop and
// conditional blocks, including everything nested in them, are folded into a
// single ValueExpression chunk that builds and returns a string.
//
// Dangling open delimiters at the end of the input produce no chunk.
func Classify(src string) []Chunk {
	c := &classifier{}
	for tok := range Tokens(src) {
		c.feed(tok)
	}
	return c.chunks
}

func (c *classifier) feed(tok Token) {
	switch tok.Typ {
	case TokOpenExpr:
		c.inExpr = true
		c.pending = nil
	case TokCloseExpr:
		matched := c.inExpr
		c.inExpr = false
		if !c.inLoop {
			// {% x }} is malformed and produces nothing
			c.inStmt = false
			if matched && c.pending != nil {
				c.emit("return "+*c.pending, ValueExpression)
			}
		}
		c.pending = nil
	case TokOpenStmt:
		c.inStmt = true
		c.pending = nil
	case TokCloseStmt:
		matched := c.inStmt
		c.inStmt = false
		if c.inLoop {
			if c.endPending && c.depth <= 0 {
				c.finishBlock()
			} else {
				c.endPending = true
			}
			return
		}
		c.inExpr = false
		if matched && c.pending != nil {
			c.emit(*c.pending, ControlStatement)
		}
		c.pending = nil
	case TokLiteral:
		c.literal(tok.Val)
	}
}

func (c *classifier) literal(t string) {
	switch {
	case c.inLoop:
		switch {
		case c.inExpr:
			fmt.Fprintf(&c.buf, "table.insert(%s, tostring((%s)))\n", accumulator, t)
		case c.inStmt:
			stmt := normalizeHeader(strings.TrimSpace(t))
			c.depth += blockBalance(stmt)
			c.buf.WriteString(stmt)
			c.buf.WriteByte('\n')
		default:
			fmt.Fprintf(&c.buf, "table.insert(%s, %s)\n", accumulator, luaQuote(t))
		}
	case c.inExpr:
		c.pending = &t
	case c.inStmt:
		stripped := strings.TrimSpace(t)
		if opensBlock(stripped) {
			c.startBlock(stripped)
			return
		}
		c.pending = &t
	default:
		c.emit(t, RawText)
	}
}

func (c *classifier) startBlock(header string) {
	header = normalizeHeader(header)
	c.inLoop = true
	c.endPending = false
	c.depth = blockBalance(header)
	c.buf.Reset()
	fmt.Fprintf(&c.buf, "local %s = {}\n%s\n", accumulator, header)
}

func (c *classifier) finishBlock() {
	fmt.Fprintf(&c.buf, "return table.concat(%s)", accumulator)
	c.emit(c.buf.String(), ValueExpression)
	c.buf.Reset()
	c.inLoop = false
	c.endPending = false
	c.depth = 0
}

func (c *classifier) emit(content string, kind Kind) {
	c.chunks = append(c.chunks, Chunk{Content: content, Kind: kind})
}

func opensBlock(stmt string) bool {
	words := luaWords(stmt)
	if len(words) == 0 || !strings.HasPrefix(stmt, words[0]) {
		return false
	}
	return slices.Contains(blockOpeners, words[0])
}

// normalizeHeader appends the "do" or "then" a block header is missing, so
// that {% for i=1,3 %} and {% if x %} are accepted.
func normalizeHeader(stmt string) string {
	words := luaWords(stmt)
	if len(words) == 0 || !strings.HasPrefix(stmt, words[0]) {
		return stmt
	}
	switch words[0] {
	case "for", "while":
		if !slices.Contains(words, "do") {
			return stmt + " do"
		}
	case "if", "elseif":
		if !slices.Contains(words, "then") {
			return stmt + " then"
		}
	}
	return stmt
}

// blockBalance returns the number of Lua blocks opened minus the number
// closed by stmt.
func blockBalance(stmt string) int {
	n := 0
	for _, w := range luaWords(stmt) {
		switch w {
		case "do", "if", "function", "repeat":
			n++
		case "end", "until":
			n--
		}
	}
	return n
}

// luaWords returns the identifier-like words of a Lua fragment, skipping
// string literals and comments.
func luaWords(s string) []string {
	var words []string
	i := 0
	for i < len(s) {
		ch := s[i]
		switch {
		case ch == '"' || ch == '\'':
			i++
			for i < len(s) && s[i] != ch {
				if s[i] == '\\' {
					i++
				}
				i++
			}
			i++
		case ch == '-' && i+1 < len(s) && s[i+1] == '-':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case isWordByte(ch):
			start := i
			for i < len(s) && isWordByte(s[i]) {
				i++
			}
			words = append(words, s[start:i])
		default:
			i++
		}
	}
	return words
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
