package reply

import "sync"

// InputEvent is a user interaction observed on the chat input.
type InputEvent string

const (
	EventKeyDown          InputEvent = "keydown"
	EventPaste            InputEvent = "paste"
	EventCompositionStart InputEvent = "compositionstart"
	EventCompositionEnd   InputEvent = "compositionend"
)

// Guard tracks whether the user touched the input since the last recruiter
// message. Any keystroke, paste or IME composition blocks auto-fill until the
// next Reset.
type Guard struct {
	mu         sync.Mutex
	typedSince bool
	composing  bool
}

func (g *Guard) Observe(ev InputEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch ev {
	case EventKeyDown, EventPaste:
		g.typedSince = true
	case EventCompositionStart:
		g.typedSince = true
		g.composing = true
	case EventCompositionEnd:
		g.composing = false
	}
}

// Reset is called when a new recruiter message is detected. An ongoing
// composition stays ongoing.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.typedSince = false
}

// Blocked returns a short reason when auto-fill must not happen.
func (g *Guard) Blocked() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.composing:
		return "composition in progress", true
	case g.typedSince:
		return "user typed since last recruiter message", true
	}
	return "", false
}
