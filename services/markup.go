package services

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// inlineTags are the only tags SafeMarkup lets through.
var inlineTags = map[string]bool{
	"b": true, "strong": true, "i": true, "em": true, "br": true, "code": true,
}

// PlainText strips markup from a rendered value. Line-break markers become
// newlines so terminal and chat renderers keep the paragraph shape.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var sb strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return strings.TrimRight(sb.String(), " ")
		case xhtml.TextToken:
			sb.Write(z.Text())
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" || string(name) == "p" {
				sb.WriteByte('\n')
			}
		}
	}
}

// SafeMarkup escapes everything except a small set of inline tags, which are
// re-emitted without attributes. Telegram's HTML parse mode accepts exactly
// these.
func SafeMarkup(s string) string {
	var sb strings.Builder
	var open []string
	z := xhtml.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			for i := len(open) - 1; i >= 0; i-- {
				sb.WriteString("</" + open[i] + ">")
			}
			return sb.String()
		case xhtml.TextToken:
			sb.WriteString(html.EscapeString(string(z.Text())))
		case xhtml.StartTagToken, xhtml.EndTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !inlineTags[tag] {
				continue
			}
			switch {
			case tag == "br":
				sb.WriteByte('\n')
			case tt == xhtml.StartTagToken:
				open = append(open, tag)
				sb.WriteString("<" + tag + ">")
			case tt == xhtml.EndTagToken && len(open) > 0 && open[len(open)-1] == tag:
				open = open[:len(open)-1]
				sb.WriteString("</" + tag + ">")
			}
		}
	}
}
