package content

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const highlightStyle = "monokai"

// Highlight returns text coloured with terminal escape codes.
// Categories without a lexer, and any tokenising failure, return text unchanged.
func Highlight(text string, category Category) string {
	lexer := lexerFor(category)
	if lexer == nil || text == "" {
		return text
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return text
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	var out strings.Builder
	if err := formatter.Format(&out, style, iterator); err != nil {
		return text
	}
	return out.String()
}

func lexerFor(category Category) chroma.Lexer {
	switch category {
	case JSON:
		return lexers.Get("json")
	case HTML:
		return lexers.Get("html")
	case XML:
		return lexers.Get("xml")
	default:
		return nil
	}
}
