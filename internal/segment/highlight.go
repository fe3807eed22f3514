package segment

import (
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// fallbackLanguage is used when the block declares no known language.
const fallbackLanguage = "plaintext"

var formatter = chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true))

// highlight renders code as <pre><code class="language-x"> with class-based token spans.
func highlight(code, lang string) string {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
		lang = fallbackLanguage
	}
	lexer = chroma.Coalesce(lexer)

	var b strings.Builder
	b.WriteString(`<pre><code class="language-` + lang + `">`)
	if !format(&b, lexer, code) {
		b.WriteString(html.EscapeString(code))
	}
	b.WriteString(`</code></pre>`)
	return b.String()
}

func format(b *strings.Builder, lexer chroma.Lexer, code string) bool {
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return false
	}
	var out strings.Builder
	if err := formatter.Format(&out, styles.Fallback, it); err != nil {
		return false
	}
	b.WriteString(out.String())
	return true
}
