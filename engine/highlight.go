package engine

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const highlightStyle = "onedark"

var highlightFormatter = chromahtml.New(chromahtml.TabWidth(4))

// HighlightSyntax renders code as highlighted HTML. lang is a language name,
// alias or file extension; the code is returned unchanged when no lexer
// matches.
func HighlightSyntax(code, lang string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var b strings.Builder
	if err := highlightFormatter.Format(&b, styles.Get(highlightStyle), it); err != nil {
		return code
	}
	return b.String()
}
