package glossary

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
)

var (
	reMarkup = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9-]*)(\s[^<>]*)?/?>`)
	reTag    = regexp.MustCompile(`(?s)<[^>]*>`)

	// readability resolves relative links against a page URL; glossary
	// cells have none, so any fixed URL will do.
	fieldURL = &url.URL{Scheme: "http", Host: "localhost", Path: "/"}

	angleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")
)

// Tags that end a line of text. They are replaced by a space so words on
// either side stay apart.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tbody": true, "td": true, "tfoot": true, "th": true, "thead": true,
	"tr": true, "ul": true,
}

var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true,
	"cite": true, "code": true, "data": true, "del": true, "dfn": true,
	"em": true, "font": true, "i": true, "ins": true, "kbd": true,
	"mark": true, "q": true, "s": true, "samp": true, "small": true,
	"span": true, "strike": true, "strong": true, "sub": true, "sup": true,
	"time": true, "u": true, "var": true, "wbr": true,
}

// StripHTML returns the visible text of a field that carries HTML markup,
// as spreadsheet exports of rich-text cells often do. Plain text, including
// text with angle brackets that are not HTML tags, is returned unchanged.
func StripHTML(text string) string {
	doc, ok := prepareMarkup(text)
	if !ok {
		return text
	}
	page := "<html><body><article>" + doc + "</article></body></html>"
	article, err := readability.FromReader(strings.NewReader(page), fieldURL)
	if err == nil {
		if out := collapse(article.TextContent); out != "" {
			return out
		}
	}
	return collapse(html.UnescapeString(reTag.ReplaceAllString(doc, " ")))
}

// prepareMarkup escapes angle brackets that are not part of a known HTML
// tag and turns block-level tags into spaces. It reports whether text had
// any HTML at all.
func prepareMarkup(text string) (string, bool) {
	var b strings.Builder
	found := false
	last := 0
	for _, m := range reMarkup.FindAllStringSubmatchIndex(text, -1) {
		name := strings.ToLower(text[m[2]:m[3]])
		block := blockTags[name]
		if !block && !inlineTags[name] {
			continue
		}
		found = true
		b.WriteString(angleEscaper.Replace(text[last:m[0]]))
		if block {
			b.WriteString(" ")
		} else {
			b.WriteString(text[m[0]:m[1]])
		}
		last = m[1]
	}
	if !found {
		return text, false
	}
	b.WriteString(angleEscaper.Replace(text[last:]))
	return b.String(), true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripHTMLRow returns a copy of r with StripHTML applied to columns.
func StripHTMLRow(r Row, columns ...string) Row {
	for _, col := range columns {
		if v, ok := r.Get(col); ok {
			r = r.with(col, StripHTML(v))
		}
	}
	return r
}
