package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go-boss-assistant/internal/config"
	"go-boss-assistant/utils"

	"github.com/playwright-community/playwright-go"
)

var ErrEmptyDescription = errors.New("job description is empty")

// DetailFetcher opens the job detail page in a background tab of the logged
// in context and reads the full description.
type DetailFetcher struct {
	bctx     playwright.BrowserContext
	cfg      config.JobDetailConfig
	selector string
	debugger *utils.ScreenShotDebugger
}

func NewDetailFetcher(bctx playwright.BrowserContext, cfg config.JobDetailConfig, selector string) *DetailFetcher {
	return &DetailFetcher{bctx: bctx, cfg: cfg, selector: selector}
}

// WithDebugger saves a screenshot whenever a fetch fails.
func (f *DetailFetcher) WithDebugger(d *utils.ScreenShotDebugger) *DetailFetcher {
	f.debugger = d
	return f
}

func DetailURL(template, encryptJobID, securityID string) string {
	return fmt.Sprintf(template, url.PathEscape(encryptJobID), url.QueryEscape(securityID))
}

func (f *DetailFetcher) FetchJobDetail(ctx context.Context, encryptJobID, securityID string) (string, error) {
	page, err := f.bctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to open detail tab: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Printf("⚠️ [detail] Failed to close tab: %v", err)
		}
	}()

	target := DetailURL(f.cfg.URLTemplate, encryptJobID, securityID)
	log.Printf("🔎 [detail] Fetching %s", target)

	desc, err := f.read(ctx, page, target)
	if err != nil {
		if f.debugger != nil {
			f.debugger.CaptureAndLog(page, "job_detail", fmt.Sprintf("Job detail fetch failed: %v", err))
		}
		return "", err
	}
	log.Printf("✅ [detail] Description loaded (%d chars)", len([]rune(desc)))
	return desc, nil
}

func (f *DetailFetcher) read(ctx context.Context, page playwright.Page, target string) (string, error) {
	timeout := f.cfg.Timeout()
	if _, err := page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateCommit,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return "", fmt.Errorf("failed to open job detail: %w", err)
	}

	if err := f.waitComplete(ctx, page, timeout); err != nil {
		return "", err
	}
	// the description is rendered by script after load
	if err := sleep(ctx, f.cfg.Settle()); err != nil {
		return "", err
	}

	v, err := page.Evaluate(`(sel) => { const el = document.querySelector(sel); return el ? el.innerText : ''; }`, f.selector)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", f.selector, err)
	}
	text, _ := v.(string)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDescription
	}
	return text, nil
}

// waitComplete polls document.readyState until it is complete or timeout
// passes.
func (f *DetailFetcher) waitComplete(ctx context.Context, page playwright.Page, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		v, err := page.Evaluate(`() => document.readyState`)
		if err == nil {
			if state, _ := v.(string); state == "complete" {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("job detail did not finish loading within %s", timeout)
		}
		if err := sleep(ctx, f.cfg.Poll()); err != nil {
			return err
		}
	}
}
