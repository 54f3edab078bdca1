package watcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go-boss-assistant/internal/assistant"
	"go-boss-assistant/internal/chatdom"
	"go-boss-assistant/internal/models"
	"go-boss-assistant/internal/reply"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wait = time.Second
	tick = 5 * time.Millisecond
)

type fakePage struct {
	mu    sync.Mutex
	items []string
	reads int
}

func (p *fakePage) ListHTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	return strings.Join(p.items, "\n"), nil
}

func (p *fakePage) add(class, id, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, fmt.Sprintf(
		`<li class="message-item %s" data-mid="%s"><div class="message-content"><div class="text"><p><span>%s</span></p></div></div></li>`,
		class, id, text))
}

// set replaces the whole list, as when another conversation is opened.
func (p *fakePage) set(items ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = items
}

func friendItem(id, text string) string {
	return fmt.Sprintf(
		`<li class="message-item item-friend" data-mid="%s"><div class="message-content"><div class="text"><p><span>%s</span></p></div></div></li>`,
		id, text)
}

func (p *fakePage) readCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

type fakeGateway struct {
	mu         sync.Mutex
	incomplete bool
	decide     func(dialogue string) models.Decision
	requests   []assistant.ChatReplyRequest
}

func (g *fakeGateway) SettingsComplete(context.Context) bool { return !g.incomplete }

func (g *fakeGateway) ChatReply(_ context.Context, req assistant.ChatReplyRequest) (models.Decision, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	decide := g.decide
	g.mu.Unlock()

	if decide == nil {
		return models.Decision{CanAnswer: true, Reply: "I am in Shanghai."}, nil
	}
	return decide(req.Dialogue), nil
}

func (g *fakeGateway) setDecide(f func(string) models.Decision) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decide = f
}

func (g *fakeGateway) calls() []assistant.ChatReplyRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]assistant.ChatReplyRequest(nil), g.requests...)
}

type fakeInput struct {
	mu      sync.Mutex
	text    string
	written []string
}

func (f *fakeInput) Contents(context.Context) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.text, nil
}

func (f *fakeInput) Write(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.written = append(f.written, text)
	return nil
}

func (f *fakeInput) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.written...)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []models.ReplyRecord
}

func (r *fakeRecorder) RecordReply(_ context.Context, rec models.ReplyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRecorder) all() []models.ReplyRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ReplyRecord(nil), r.records...)
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *fakeNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.texts)
}

type harness struct {
	page    *fakePage
	gateway *fakeGateway
	input   *fakeInput
	w       *Watcher
}

func start(t *testing.T, page *fakePage, opts Options) *harness {
	t.Helper()
	return startWith(t, page, &fakeGateway{}, &fakeInput{}, opts)
}

func startWith(t *testing.T, page *fakePage, gw *fakeGateway, input *fakeInput, opts Options) *harness {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = 20 * time.Millisecond
	}
	h := &harness{page: page, gateway: gw, input: input}
	applier := reply.NewApplier(h.input, nil)
	h.w = New(page, chatdom.NewSiteStructure(chatdom.DefaultSelectors()), h.gateway, applier, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

// waitIdle gives pending debounce timers and model calls time to finish.
func (h *harness) waitIdle() {
	time.Sleep(60 * time.Millisecond)
}

func TestAttachEstablishesBaseline(t *testing.T) {
	page := &fakePage{}
	page.add("item-friend", "1", "Which city are you in?")
	h := start(t, page, Options{Enabled: true})

	require.Eventually(t, func() bool { return page.readCount() >= 1 }, wait, tick)
	h.waitIdle()
	assert.Empty(t, h.gateway.calls(), "history present at attach is not answered")

	page.add("item-friend", "2", "Are you still employed?")
	h.w.NotifyMutation()

	require.Eventually(t, func() bool { return len(h.input.writes()) == 1 }, wait, tick)
	calls := h.gateway.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "HR: [Which city are you in?]\nHR: [Are you still employed?]", calls[0].Dialogue)
	assert.Equal(t, []string{"I am in Shanghai."}, h.input.writes())
}

func TestReplyOnAttach(t *testing.T) {
	page := &fakePage{}
	page.add("item-friend", "1", "Which city are you in?")
	h := start(t, page, Options{Enabled: true, ReplyOnAttach: true})

	require.Eventually(t, func() bool { return len(h.input.writes()) == 1 }, wait, tick)

	// later mutations without a new recruiter message do not call again
	h.w.NotifyMutation()
	h.waitIdle()
	assert.Len(t, h.gateway.calls(), 1)
}

func TestDebounceCollapsesBursts(t *testing.T) {
	page := &fakePage{}
	h := start(t, page, Options{Enabled: true, Debounce: 100 * time.Millisecond})
	require.Eventually(t, func() bool { return page.readCount() == 1 }, wait, tick)

	for i := 0; i < 10; i++ {
		h.w.NotifyMutation()
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 2, page.readCount())
}

func TestNeverCallsTwiceForSameMessage(t *testing.T) {
	page := &fakePage{}
	h := start(t, page, Options{Enabled: true})
	require.Eventually(t, func() bool { return page.readCount() == 1 }, wait, tick)

	page.add("item-friend", "7", "Which city?")
	h.w.NotifyMutation()
	require.Eventually(t, func() bool { return len(h.gateway.calls()) == 1 }, wait, tick)

	page.add("item-myself", "8", "Shanghai")
	h.w.NotifyMutation()
	h.waitIdle()

	h.w.SetEnabled(false)
	h.w.SetEnabled(true)
	h.waitIdle()
	assert.Len(t, h.gateway.calls(), 1)
}

func TestSwitchingBackToConversationDoesNotCallAgain(t *testing.T) {
	page := &fakePage{}
	h := start(t, page, Options{Enabled: true})
	require.Eventually(t, func() bool { return page.readCount() == 1 }, wait, tick)

	page.set(friendItem("1", "Which city?"))
	h.w.NotifyMutation()
	require.Eventually(t, func() bool { return len(h.gateway.calls()) == 1 }, wait, tick)
	h.waitIdle()

	page.set(friendItem("2", "When can you start?"))
	h.w.NotifyMutation()
	require.Eventually(t, func() bool { return len(h.gateway.calls()) == 2 }, wait, tick)
	h.waitIdle()

	reads := page.readCount()
	page.set(friendItem("1", "Which city?"))
	h.w.NotifyMutation()
	require.Eventually(t, func() bool { return page.readCount() > reads }, wait, tick)
	h.waitIdle()

	calls := h.gateway.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "HR: [Which city?]", calls[0].Dialogue)
	assert.Equal(t, "HR: [When can you start?]", calls[1].Dialogue)
}

func TestUserTypingBlocksAutoFill(t *testing.T) {
	page := &fakePage{}
	release := make(chan struct{})
	gw := &fakeGateway{decide: func(string) models.Decision {
		<-release
		return models.Decision{CanAnswer: true, Reply: "Shanghai"}
	}}
	h := startWith(t, page, gw, &fakeInput{}, Options{Enabled: true})
	require.Eventually(t, func() bool { return page.readCount() == 1 }, wait, tick)

	page.add("item-friend", "1", "Which city?")
	h.w.NotifyMutation()
	require.Eventually(t, func() bool { return len(gw.calls()) == 1 }, wait, tick)

	h.w.NotifyInput(reply.EventKeyDown)
	close(release)
	h.waitIdle()
	assert.Empty(t, h.input.writes())

	// a new recruiter message clears the typed flag
	gw.setDecide(nil)
	page.add("item-friend", "2", "When can you start?")
	h.w.NotifyMutation()
	require.Eventually(t, func() bool { return len(h.input.writes()) == 1 }, wait, tick)
}

func TestNonEmptyInputIsNotOverwritten(t *testing.T) {
	page := &fakePage{}
	h := startWith(t, page, &fakeGateway{}, &fakeInput{text: "my own draft"}, Options{Enabled: true})
	require.Eventually(t, func() bool { return page.readCount() == 1 }, wait, tick)

	page.add("item-friend", "1", "Which city?")
	h.w.NotifyMutation()
	require.Eventually(t, func() bool { return len(h.gateway.calls()) == 1 }, wait, tick)
	h.waitIdle()
	assert.Empty(t, h.input.writes())
}

func TestCannotAnswerNotifiesAndRecords(t *testing.T) {
	page := &fakePage{}
	page.add("item-friend", "1", "Hello")
	gw := &fakeGateway{decide: func(string) models.Decision { return models.Decision{} }}
	input := &fakeInput{}
	rec := &fakeRecorder{}
	notifier := &fakeNotifier{}

	w := New(page, chatdom.NewSiteStructure(chatdom.DefaultSelectors()), gw, reply.NewApplier(input, nil), Options{
		Debounce:     20 * time.Millisecond,
		Enabled:      true,
		Conversation: func() string { return "job-1" },
	}).WithRecorder(rec).WithNotifier(notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	require.Eventually(t, func() bool { return page.readCount() == 1 }, wait, tick)

	page.add("item-friend", "2", "What salary do you expect?")
	w.NotifyMutation()

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, wait, tick)
	require.Eventually(t, func() bool { return notifier.count() == 1 }, wait, tick)
	r := rec.all()[0]
	assert.Equal(t, "job-1", r.Conversation)
	assert.Equal(t, "2", r.MessageID)
	assert.False(t, r.CanAnswer)
	assert.False(t, r.Applied)
	assert.Empty(t, input.writes())
}

func TestEmptyReplyIsTreatedAsCannotAnswer(t *testing.T) {
	page := &fakePage{}
	gw := &fakeGateway{decide: func(string) models.Decision {
		return models.Decision{CanAnswer: true, Reply: "  \n"}
	}}
	input := &fakeInput{}
	rec := &fakeRecorder{}
	notifier := &fakeNotifier{}

	w := New(page, chatdom.NewSiteStructure(chatdom.DefaultSelectors()), gw, reply.NewApplier(input, nil), Options{
		Debounce: 20 * time.Millisecond,
		Enabled:  true,
	}).WithRecorder(rec).WithNotifier(notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	require.Eventually(t, func() bool { return page.readCount() == 1 }, wait, tick)

	page.add("item-friend", "1", "Can you relocate?")
	w.NotifyMutation()

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, wait, tick)
	require.Eventually(t, func() bool { return notifier.count() == 1 }, wait, tick)
	r := rec.all()[0]
	assert.False(t, r.CanAnswer)
	assert.False(t, r.Applied)
	assert.Empty(t, input.writes())
}

func TestDisabledThenEnabled(t *testing.T) {
	page := &fakePage{}
	h := start(t, page, Options{Enabled: false})
	require.Eventually(t, func() bool { return page.readCount() == 1 }, wait, tick)

	page.add("item-friend", "1", "Which city?")
	h.w.NotifyMutation()
	h.waitIdle()
	assert.Empty(t, h.gateway.calls())

	h.w.SetEnabled(true)
	require.Eventually(t, func() bool { return len(h.input.writes()) == 1 }, wait, tick)
	assert.Len(t, h.gateway.calls(), 1)
}

func TestIncompleteSettingsSkipsCall(t *testing.T) {
	page := &fakePage{}
	h := startWith(t, page, &fakeGateway{incomplete: true}, &fakeInput{}, Options{Enabled: true})
	require.Eventually(t, func() bool { return page.readCount() == 1 }, wait, tick)

	page.add("item-friend", "1", "Which city?")
	h.w.NotifyMutation()
	h.waitIdle()
	assert.Empty(t, h.gateway.calls())
}
