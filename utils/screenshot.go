package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ScreenShotDebugger saves full page screenshots when a browser step fails.
type ScreenShotDebugger struct {
	outputDir string
}

// NewScreenShotDebugger writes into dir, or logs/screenshots when dir is empty.
func NewScreenShotDebugger(dir string) *ScreenShotDebugger {
	if dir == "" {
		dir = filepath.Join(".", "logs", "screenshots")
	}
	os.MkdirAll(dir, 0755)
	return &ScreenShotDebugger{
		outputDir: dir,
	}
}

func (s *ScreenShotDebugger) Dir() string {
	return s.outputDir
}

// FileName builds the screenshot file name for name at t.
func FileName(name string, t time.Time) string {
	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" {
		name = "page"
	}
	return fmt.Sprintf("%s_%s.png", name, t.Format("2006-01-02_15-04-05"))
}

func (s *ScreenShotDebugger) CaptureAndLog(page playwright.Page, name, message string) error {
	path := filepath.Join(s.outputDir, FileName(name, time.Now()))
	log.Printf("📸 %s", message)

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return err
	}

	log.Printf("   Screenshot saved: %s", path)
	return nil
}
