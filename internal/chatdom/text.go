package chatdom

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlSpaceRun  = regexp.MustCompile(`[ \t\r\n\f]+`)
	spaceRun      = regexp.MustCompile(`[ \t]+`)
	spaceBeforeNL = regexp.MustCompile(`[ \t]+\n`)
	spaceAfterNL  = regexp.MustCompile(`\n[ \t]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	blockElements = map[string]bool{
		"address": true, "article": true, "blockquote": true, "div": true, "dl": true,
		"dt": true, "dd": true, "footer": true, "h1": true, "h2": true, "h3": true,
		"h4": true, "h5": true, "h6": true, "header": true, "li": true, "ol": true,
		"p": true, "pre": true, "section": true, "table": true, "tr": true, "ul": true,
	}
	skippedElements = map[string]bool{"script": true, "style": true, "template": true, "noscript": true}
)

// isInvisible matches zero-width characters the site sprinkles into text.
func isInvisible(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u2060', '\ufeff':
		return true
	}
	return false
}

func nbspToSpace(r rune) rune {
	if r == '\u00a0' {
		return ' '
	}
	return r
}

// Normalize applies NFC, maps non-breaking spaces to spaces and removes
// zero-width characters.
func Normalize(s string) string {
	t := transform.Chain(runes.Map(nbspToSpace), runes.Remove(runes.Predicate(isInvisible)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Clean normalises whitespace the way message text is compared and displayed.
func Clean(s string) string {
	s = Normalize(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	s = spaceBeforeNL.ReplaceAllString(s, "\n")
	s = spaceAfterNL.ReplaceAllString(s, "\n")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// InnerText approximates the browser's innerText for a snapshot: source
// whitespace collapses, <br> and block boundaries become line breaks. The
// selected element's own block boundary does not produce a break.
func InnerText(sel *goquery.Selection) string {
	var b strings.Builder
	for i, n := range sel.Nodes {
		if i > 0 {
			breakLine(&b)
		}
		if n.Type != html.ElementNode {
			writeText(&b, n)
			continue
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(&b, c)
		}
	}
	return strings.Trim(b.String(), "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(htmlSpaceRun.ReplaceAllString(n.Data, " "))
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		breakLine(b)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		breakLine(b)
	}
}

func breakLine(b *strings.Builder) {
	s := b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
	}
}
