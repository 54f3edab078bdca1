package reply

import (
	"regexp"
	"strings"

	"go-boss-assistant/internal/chatdom"
)

var (
	nbspEntity = regexp.MustCompile(`(?i)&nbsp;`)
	brTag      = regexp.MustCompile(`(?i)<br\s*/?>`)
	emptyBlock = regexp.MustCompile(`(?i)<(div|p)(\s[^>]*)?>\s*</(div|p)>`)
)

// IsInputEmpty reports whether a content-editable input holds nothing the
// user produced. text is the element's innerText and html its innerHTML.
// Markup made only of line breaks and empty div/p blocks counts as empty.
func IsInputEmpty(text, html string) bool {
	if strings.TrimSpace(chatdom.Normalize(text)) != "" {
		return false
	}

	h := nbspEntity.ReplaceAllString(chatdom.Normalize(html), "")
	h = strings.TrimSpace(brTag.ReplaceAllString(h, ""))
	for h != "" {
		next := strings.TrimSpace(emptyBlock.ReplaceAllString(h, ""))
		if next == h {
			break
		}
		h = next
	}
	return h == ""
}
