// Package sanitize converts the HTML fragments ClassCharts embeds in homework
// titles and descriptions into plain display text.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var collapseSpaces = regexp.MustCompile(`\s+`)

// PlainText strips markup from an HTML fragment and returns trimmed plain
// text with runs of whitespace collapsed to single spaces. Entities are
// decoded twice because the backend sometimes double-encodes them
// ("&amp;amp;" for "&").
func PlainText(markup string) string {
	tz := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder

	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.TextToken:
			b.WriteString(tz.Token().Data)
		case html.StartTagToken, html.SelfClosingTagToken:
			// Line breaks become whitespace so adjacent words don't merge.
			name, _ := tz.TagName()
			if string(name) == "br" || string(name) == "p" {
				b.WriteByte(' ')
			}
		}
	}

	out := html.UnescapeString(b.String())
	// \s does not match NBSP, which &nbsp; decodes to.
	out = strings.ReplaceAll(out, " ", " ")
	out = collapseSpaces.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
