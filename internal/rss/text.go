package rss

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const excerptLen = 160

// Excerpt strips markup from s and cuts it to 160 characters followed by "...".
func Excerpt(s string) string {
	text := StripHTML(s)
	if utf8.RuneCountInString(text) > excerptLen {
		text = string([]rune(text)[:excerptLen])
	}
	return text + "..."
}

// StripHTML returns the text content of an HTML fragment with runs of
// whitespace collapsed.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}
