package dialogue

import (
	"regexp"
	"strings"

	"go-boss-assistant/internal/ai"
	"go-boss-assistant/internal/chatdom"
	"go-boss-assistant/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// DefaultWindow is how many messages the model sees by default.
const DefaultWindow = 20

var newlines = regexp.MustCompile(`\n+`)

// Collect walks the message list in page order. Messages without extractable
// text are dropped; messages without a known author are kept as RoleUnknown
// for Display.
func Collect(doc *goquery.Document, s chatdom.Structure) []models.ChatMessage {
	var msgs []models.ChatMessage
	for _, item := range s.Items(doc) {
		role, ok := s.Role(item)
		if !ok {
			role = models.RoleUnknown
		}
		text, ok := s.Text(item)
		if !ok {
			continue
		}
		msgs = append(msgs, models.ChatMessage{
			Role:      role,
			Text:      text,
			Timestamp: s.Time(item),
			ID:        s.ID(item),
		})
	}
	return msgs
}

// LastRecruiterID returns the id of the newest recruiter item in the list, or
// "" when there is none. It looks at every recruiter item, including ones
// whose text could not be extracted, because the page's own ordering decides
// which message is newest.
func LastRecruiterID(doc *goquery.Document, s chatdom.Structure) string {
	items := s.Items(doc)
	for i := len(items) - 1; i >= 0; i-- {
		if role, ok := s.Role(items[i]); ok && role == models.RoleRecruiter {
			return s.ID(items[i])
		}
	}
	return ""
}

// LastRecruiterMessage returns the newest collected recruiter message.
func LastRecruiterMessage(msgs []models.ChatMessage) (models.ChatMessage, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleRecruiter {
			return msgs[i], true
		}
	}
	return models.ChatMessage{}, false
}

// known drops messages the model must not see.
func known(msgs []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != models.RoleUnknown {
			out = append(out, m)
		}
	}
	return out
}

func window(msgs []models.ChatMessage, max int) []models.ChatMessage {
	if max <= 0 || len(msgs) <= max {
		return msgs
	}
	return msgs[len(msgs)-max:]
}

func oneLine(text string) string {
	return strings.TrimSpace(newlines.ReplaceAllString(text, " "))
}

// Transcript renders the last max messages for the model, one per line:
//
//	HR: [Which city are you in?]
//	Me: [Shanghai]
func Transcript(msgs []models.ChatMessage, max int) string {
	msgs = window(known(msgs), max)
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Role.Label()+": ["+oneLine(m.Text)+"]")
	}
	return strings.Join(lines, "\n")
}

// Display renders the whole dialogue for logs, unknown authors included.
func Display(msgs []models.ChatMessage) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		prefix := "[" + m.Role.Label() + "]"
		if m.Timestamp != "" {
			prefix = "[" + m.Role.Label() + " | " + m.Timestamp + "]"
		}
		lines = append(lines, prefix+" "+m.Text)
	}
	return strings.Join(lines, "\n")
}

// Messages maps the dialogue onto chat-completions roles: the recruiter is the
// user and the candidate is the assistant.
func Messages(msgs []models.ChatMessage, max int) []ai.Message {
	msgs = window(known(msgs), max)
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleRecruiter:
			out = append(out, ai.Message{Role: "user", Content: m.Text})
		case models.RoleSelf:
			out = append(out, ai.Message{Role: "assistant", Content: m.Text})
		case models.RoleSystem:
			out = append(out, ai.Message{Role: "system", Content: "System: " + m.Text})
		}
	}
	return out
}
