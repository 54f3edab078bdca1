package chatdom

import (
	"fmt"
	"regexp"
	"strings"

	"go-boss-assistant/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// Structure is the extraction interface the control logic depends on. The
// selector-driven SiteStructure is the only production implementation.
type Structure interface {
	Items(doc *goquery.Document) []*goquery.Selection
	Role(item *goquery.Selection) (models.Role, bool)
	Text(item *goquery.Selection) (string, bool)
	ID(item *goquery.Selection) string
	Time(item *goquery.Selection) string
}

type SiteStructure struct {
	sel      Selectors
	receipts *regexp.Regexp
}

func NewSiteStructure(sel Selectors) *SiteStructure {
	sel = sel.WithDefaults()
	quoted := make([]string, 0, len(sel.ReadReceipts))
	for _, r := range sel.ReadReceipts {
		if r != "" {
			quoted = append(quoted, regexp.QuoteMeta(r))
		}
	}
	s := &SiteStructure{sel: sel}
	if len(quoted) > 0 {
		s.receipts = regexp.MustCompile(`(?:` + strings.Join(quoted, "|") + `)\s*`)
	}
	return s
}

// ParseList parses the inner HTML of the message list into a document that
// Items can walk.
func ParseList(innerHTML string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<ul>" + innerHTML + "</ul>"))
	if err != nil {
		return nil, fmt.Errorf("parse message list: %w", err)
	}
	return doc, nil
}

func (s *SiteStructure) Items(doc *goquery.Document) []*goquery.Selection {
	var items []*goquery.Selection
	doc.Find(s.sel.Item).Each(func(_ int, item *goquery.Selection) {
		items = append(items, item)
	})
	return items
}

func (s *SiteStructure) Role(item *goquery.Selection) (models.Role, bool) {
	switch {
	case item.HasClass(s.sel.RecruiterClass):
		return models.RoleRecruiter, true
	case item.HasClass(s.sel.SelfClass):
		return models.RoleSelf, true
	case item.HasClass(s.sel.SystemClass):
		return models.RoleSystem, true
	}
	return "", false
}

func (s *SiteStructure) ID(item *goquery.Selection) string {
	id, _ := item.Attr(s.sel.IDAttr)
	return strings.TrimSpace(id)
}

func (s *SiteStructure) Time(item *goquery.Selection) string {
	return Clean(InnerText(item.Find(s.sel.Time).First()))
}

// Text extracts the cleaned content of one message. The boolean is false when
// the message carries nothing worth sending (noise, empty, unknown layout).
func (s *SiteStructure) Text(item *goquery.Selection) (string, bool) {
	all := InnerText(item)
	for _, marker := range s.sel.NoiseMarkers {
		if marker != "" && strings.Contains(all, marker) {
			return "", false
		}
	}

	if item.Find(s.sel.Image).Length() > 0 {
		return s.sel.ImagePlaceholder, true
	}

	// cards: title only, action buttons ignored
	if card := item.Find(s.sel.CardTitle).First(); card.Length() > 0 {
		return nonEmpty(Clean(InnerText(card)))
	}

	if title := item.Find(s.sel.DialogTitle).First(); title.Length() > 0 {
		text := InnerText(title)
		if desc := item.Find(s.sel.DialogDesc).First(); desc.Length() > 0 {
			text += " " + InnerText(desc)
		}
		return nonEmpty(Clean(text))
	}

	if span := item.Find(s.sel.Text).First(); span.Length() > 0 {
		return nonEmpty(Clean(s.stripReceipts(InnerText(span))))
	}

	for _, fallback := range s.sel.TextFallbacks {
		if node := item.Find(fallback).First(); node.Length() > 0 {
			return nonEmpty(Clean(s.stripReceipts(InnerText(node))))
		}
	}
	return "", false
}

func (s *SiteStructure) stripReceipts(text string) string {
	if s.receipts == nil {
		return text
	}
	return s.receipts.ReplaceAllString(text, "")
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}
