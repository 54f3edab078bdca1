package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"go-boss-assistant/internal/chatdom"
	"go-boss-assistant/internal/reply"

	"github.com/playwright-community/playwright-go"
)

// Names of the page bindings the observer script calls.
const (
	mutationBinding = "__bossAssistantMutation"
	inputBinding    = "__bossAssistantInput"
)

// observerScript runs in every document of the chat page. It reports changes
// under the message list and user interaction with the chat input. The list
// is looked up on every mutation, so a re-rendered list keeps being observed.
const observerScript = `
(() => {
  if (window.__bossAssistantObserving) return;
  window.__bossAssistantObserving = true;
  const cfg = %s;

  const inList = (node) => {
    const el = node && (node.nodeType === 1 ? node : node.parentElement);
    return !!(el && el.closest && el.closest(cfg.list));
  };
  const start = () => {
    new MutationObserver((records) => {
      if (!document.querySelector(cfg.list)) return;
      const hit = records.some((r) =>
        inList(r.target) || Array.from(r.addedNodes).some((n) =>
          inList(n) || (n.nodeType === 1 && n.querySelector && n.querySelector(cfg.list))));
      if (hit) window[cfg.mutation]();
    }).observe(document.body, { childList: true, subtree: true, characterData: true });

    for (const type of ['keydown', 'paste', 'compositionstart', 'compositionend']) {
      document.addEventListener(type, (e) => {
        if (e.isTrusted && e.target && e.target.closest && e.target.closest(cfg.input)) {
          window[cfg.inputEvent](type);
        }
      }, true);
    }
  };
  if (document.body) start();
  else document.addEventListener('DOMContentLoaded', start);
})();
`

const readInputScript = `(sel) => {
  const el = document.querySelector(sel);
  if (!el) return null;
  return { text: el.innerText || el.textContent || '', html: el.innerHTML || '' };
}`

const clearInputScript = `(sel) => {
  const el = document.querySelector(sel);
  if (!el) return false;
  el.focus();
  el.innerHTML = '';
  return true;
}`

// finishInputScript puts the text in place when InsertText did not reach the
// editor, moves the caret to the end and tells the site's editor about it.
const finishInputScript = `([sel, text]) => {
  const el = document.querySelector(sel);
  if (!el) return false;
  if ((el.innerText || el.textContent || '').trim() === '') el.textContent = text;
  el.focus();
  const range = document.createRange();
  range.selectNodeContents(el);
  range.collapse(false);
  const s = window.getSelection();
  s.removeAllRanges();
  s.addRange(range);
  el.dispatchEvent(new InputEvent('input', { bubbles: true, inputType: 'insertText', data: text }));
  return true;
}`

// Hooks receive page events. Each may be nil.
type Hooks struct {
	OnMutation func()
	OnInput    func(reply.InputEvent)
	// OnResponse gets API responses whose URL contains one of ResponsePaths.
	OnResponse    func(url string, body []byte)
	ResponsePaths []string
}

// ChatPage drives the site's chat page. It implements the message list and
// input access the watcher and the reply applier need.
type ChatPage struct {
	page playwright.Page
	sel  chatdom.Selectors
}

// NewChatPage installs the bindings and observer script on page. Call it
// before navigating so the script runs in the first document.
func NewChatPage(page playwright.Page, sel chatdom.Selectors, hooks Hooks) (*ChatPage, error) {
	cp := &ChatPage{page: page, sel: sel}

	if err := page.ExposeFunction(mutationBinding, func(args ...interface{}) interface{} {
		if hooks.OnMutation != nil {
			hooks.OnMutation()
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to expose mutation binding: %w", err)
	}

	if err := page.ExposeFunction(inputBinding, func(args ...interface{}) interface{} {
		if hooks.OnInput == nil || len(args) == 0 {
			return nil
		}
		if name, ok := args[0].(string); ok {
			hooks.OnInput(reply.InputEvent(name))
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to expose input binding: %w", err)
	}

	script, err := buildObserverScript(sel)
	if err != nil {
		return nil, err
	}
	if err := page.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
		return nil, fmt.Errorf("failed to add observer script: %w", err)
	}

	if hooks.OnResponse != nil {
		page.OnResponse(func(resp playwright.Response) {
			url := resp.URL()
			if !matchesAny(url, hooks.ResponsePaths) {
				return
			}
			body, err := resp.Body()
			if err != nil {
				log.Printf("⚠️ [browser] Failed to read response %s: %v", url, err)
				return
			}
			hooks.OnResponse(url, body)
		})
	}
	return cp, nil
}

func buildObserverScript(sel chatdom.Selectors) (string, error) {
	cfg, err := json.Marshal(map[string]string{
		"list":       sel.List,
		"input":      sel.Input,
		"mutation":   mutationBinding,
		"inputEvent": inputBinding,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(observerScript, cfg), nil
}

func matchesAny(url string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

// Open navigates to the chat page and waits for the message list.
func (c *ChatPage) Open(ctx context.Context, url string) error {
	if _, err := c.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		return fmt.Errorf("failed to open chat page: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.page.WaitForSelector(c.sel.List, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(30000),
	}); err != nil {
		// the list only exists once a conversation is selected
		log.Printf("⚠️ [browser] Message list not found yet (%s), waiting for a conversation", c.sel.List)
	}
	log.Printf("✅ [browser] Chat page ready: %s", c.page.URL())
	return nil
}

// ListHTML returns the message list markup, empty when no conversation is
// open.
func (c *ChatPage) ListHTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, err := c.page.Evaluate(`(sel) => { const el = document.querySelector(sel); return el ? el.innerHTML : ''; }`, c.sel.List)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// Contents returns the chat input's visible text and markup.
func (c *ChatPage) Contents(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	v, err := c.page.Evaluate(readInputScript, c.sel.Input)
	if err != nil {
		return "", "", err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("chat input %s not found", c.sel.Input)
	}
	text, _ := m["text"].(string)
	html, _ := m["html"].(string)
	return text, html, nil
}

// Write replaces the chat input's content with text. It never sends.
func (c *ChatPage) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := c.page.Evaluate(clearInputScript, c.sel.Input)
	if err != nil {
		return err
	}
	if found, _ := v.(bool); !found {
		return fmt.Errorf("chat input %s not found", c.sel.Input)
	}

	if err := c.page.Keyboard().InsertText(text); err != nil {
		log.Printf("⚠️ [browser] InsertText failed, falling back to textContent: %v", err)
	}

	if _, err := c.page.Evaluate(finishInputScript, []interface{}{c.sel.Input, text}); err != nil {
		return fmt.Errorf("failed to finish input: %w", err)
	}
	return nil
}
