// Package watcher turns DOM changes of the chat thread into model calls. All
// state lives in the Run loop; callbacks from the browser only post events.
package watcher

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"go-boss-assistant/internal/assistant"
	"go-boss-assistant/internal/chatdom"
	"go-boss-assistant/internal/dialogue"
	"go-boss-assistant/internal/models"
	"go-boss-assistant/internal/reply"
)

const defaultDebounce = 200 * time.Millisecond

// Page gives access to the live message list.
type Page interface {
	// ListHTML returns the inner HTML of the message list.
	ListHTML(ctx context.Context) (string, error)
}

// Gateway is the part of the model gateway the watcher calls.
type Gateway interface {
	SettingsComplete(ctx context.Context) bool
	ChatReply(ctx context.Context, req assistant.ChatReplyRequest) (models.Decision, error)
}

// Recorder stores every decision the model made.
type Recorder interface {
	RecordReply(ctx context.Context, rec models.ReplyRecord) error
}

// Notifier tells the user about questions they have to answer by hand.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Options struct {
	Debounce time.Duration
	// Window is how many messages the model sees.
	Window int
	// ReplyOnAttach answers the newest recruiter message already present when
	// the watcher starts. Off means the first evaluation only sets a baseline.
	ReplyOnAttach   bool
	MessagesVariant bool
	// Enabled is the initial auto-reply toggle.
	Enabled bool
	// Conversation names the open conversation for audit records.
	Conversation func() string
}

type result struct {
	messageID string
	question  string
	decision  models.Decision
	err       error
}

type Watcher struct {
	page      Page
	structure chatdom.Structure
	gateway   Gateway
	applier   *reply.Applier
	recorder  Recorder
	notifier  Notifier
	opts      Options

	mutations chan struct{}
	toggled   chan struct{}
	results   chan result
	wantOn    atomic.Bool

	// owned by Run
	enabled       bool
	attached      bool
	lastPrinted   string
	lastReactedID string
	// message ids a model call was started for, across conversations;
	// site message ids are unique per account
	called map[string]struct{}
}

func New(page Page, structure chatdom.Structure, gateway Gateway, applier *reply.Applier, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Window <= 0 {
		opts.Window = dialogue.DefaultWindow
	}
	w := &Watcher{
		page:      page,
		structure: structure,
		gateway:   gateway,
		applier:   applier,
		opts:      opts,
		mutations: make(chan struct{}, 1),
		toggled:   make(chan struct{}, 1),
		results:   make(chan result, 8),
		enabled:   opts.Enabled,
		called:    make(map[string]struct{}),
	}
	w.wantOn.Store(opts.Enabled)
	return w
}

func (w *Watcher) WithRecorder(r Recorder) *Watcher {
	w.recorder = r
	return w
}

func (w *Watcher) WithNotifier(n Notifier) *Watcher {
	w.notifier = n
	return w
}

// NotifyMutation re-arms the debounce timer. Safe to call from any goroutine;
// it never blocks.
func (w *Watcher) NotifyMutation() {
	select {
	case w.mutations <- struct{}{}:
	default:
	}
}

// NotifyInput records a user interaction with the chat input.
func (w *Watcher) NotifyInput(ev reply.InputEvent) {
	w.applier.Guard().Observe(ev)
}

// SetEnabled flips auto-reply. Turning it on answers the newest recruiter
// message unless a call was already made for it. Never blocks.
func (w *Watcher) SetEnabled(enabled bool) {
	w.wantOn.Store(enabled)
	select {
	case w.toggled <- struct{}{}:
	default:
	}
}

// Run evaluates once for the attach baseline, then serves events until ctx is
// done.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()
	var fire <-chan time.Time

	w.evaluate(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-w.mutations:
			timer.Reset(w.opts.Debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			w.evaluate(ctx)

		case <-w.toggled:
			on := w.wantOn.Load()
			if on == w.enabled {
				continue
			}
			w.enabled = on
			if !on {
				log.Printf("⏸️ [watcher] Auto-reply disabled")
				continue
			}
			log.Printf("▶️ [watcher] Auto-reply enabled")
			w.replyToLatest(ctx)

		case r := <-w.results:
			w.apply(ctx, r)
		}
	}
}

func (w *Watcher) snapshot(ctx context.Context) ([]models.ChatMessage, string, error) {
	html, err := w.page.ListHTML(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read message list: %w", err)
	}
	doc, err := chatdom.ParseList(html)
	if err != nil {
		return nil, "", err
	}
	return dialogue.Collect(doc, w.structure), dialogue.LastRecruiterID(doc, w.structure), nil
}

func (w *Watcher) evaluate(ctx context.Context) {
	msgs, lastID, err := w.snapshot(ctx)
	if err != nil {
		log.Printf("⚠️ [watcher] %v", err)
		return
	}

	first := !w.attached
	w.attached = true

	if display := dialogue.Display(msgs); display != "" && display != w.lastPrinted {
		w.lastPrinted = display
		log.Printf("💬 [watcher] Dialogue:\n%s", display)
	}

	if lastID == "" || lastID == w.lastReactedID {
		return
	}
	w.applier.Guard().Reset()
	w.lastReactedID = lastID

	if first && !w.opts.ReplyOnAttach {
		log.Printf("📌 [watcher] Baseline recruiter message %s", lastID)
		return
	}
	log.Printf("🆕 [watcher] New recruiter message %s", lastID)
	w.trigger(ctx, lastID, msgs)
}

func (w *Watcher) replyToLatest(ctx context.Context) {
	msgs, lastID, err := w.snapshot(ctx)
	if err != nil {
		log.Printf("⚠️ [watcher] %v", err)
		return
	}
	if lastID == "" {
		return
	}
	if lastID != w.lastReactedID {
		w.applier.Guard().Reset()
		w.lastReactedID = lastID
	}
	w.trigger(ctx, lastID, msgs)
}

// trigger starts one model call for messageID. It never calls twice for the
// same id, even after switching away from a conversation and back.
func (w *Watcher) trigger(ctx context.Context, messageID string, msgs []models.ChatMessage) {
	if !w.enabled {
		log.Printf("⏸️ [watcher] Auto-reply is off, skipping")
		return
	}
	if _, ok := w.called[messageID]; ok {
		return
	}
	if !w.gateway.SettingsComplete(ctx) {
		log.Printf("⚠️ [watcher] Model settings incomplete, skipping auto-reply")
		return
	}

	transcript := dialogue.Transcript(msgs, w.opts.Window)
	if transcript == "" {
		return
	}
	req := assistant.ChatReplyRequest{Dialogue: transcript}
	if w.opts.MessagesVariant {
		req.Messages = dialogue.Messages(msgs, w.opts.Window)
	}
	var question string
	if m, ok := dialogue.LastRecruiterMessage(msgs); ok {
		question = m.Text
	}
	w.called[messageID] = struct{}{}

	go func() {
		d, err := w.gateway.ChatReply(ctx, req)
		select {
		case w.results <- result{messageID: messageID, question: question, decision: d, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (w *Watcher) apply(ctx context.Context, r result) {
	if r.err != nil {
		log.Printf("❌ [watcher] Model call failed for %s: %v", r.messageID, r.err)
		return
	}

	if strings.TrimSpace(r.decision.Reply) == "" {
		r.decision.CanAnswer = false
	}

	applied := false
	switch {
	case !r.decision.CanAnswer:
		log.Printf("🤔 [watcher] Model cannot answer %s", r.messageID)
		w.notify(ctx, fmt.Sprintf("🤔 Recruiter is waiting for a manual answer:\n%s", r.question))
	case r.messageID != w.lastReactedID:
		log.Printf("⏭️ [watcher] Reply for %s arrived after a newer message, dropping", r.messageID)
	default:
		log.Printf("✍️ [watcher] Reply:\n%s", r.decision.Reply)
		ok, err := w.applier.AutoFill(ctx, r.decision.Reply)
		if err != nil {
			log.Printf("⚠️ [watcher] %v", err)
		}
		applied = ok
	}
	w.record(ctx, r, applied)
}

func (w *Watcher) record(ctx context.Context, r result, applied bool) {
	if w.recorder == nil {
		return
	}
	rec := models.ReplyRecord{
		MessageID: r.messageID,
		CanAnswer: r.decision.CanAnswer,
		Reply:     r.decision.Reply,
		Applied:   applied,
		CreatedAt: time.Now(),
	}
	if w.opts.Conversation != nil {
		rec.Conversation = w.opts.Conversation()
	}
	go func() {
		if err := w.recorder.RecordReply(ctx, rec); err != nil {
			log.Printf("⚠️ [watcher] Failed to record reply: %v", err)
		}
	}()
}

func (w *Watcher) notify(ctx context.Context, text string) {
	if w.notifier == nil {
		return
	}
	go func() {
		if err := w.notifier.Notify(ctx, text); err != nil {
			log.Printf("⚠️ [watcher] Failed to notify: %v", err)
		}
	}()
}
