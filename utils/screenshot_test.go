package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileName(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "job_detail_2026-03-04_05-06-07.png", FileName("job_detail", at))
	assert.Equal(t, "chat_page_x_2026-03-04_05-06-07.png", FileName("chat page/x", at))
	assert.Equal(t, "page_2026-03-04_05-06-07.png", FileName("", at))
}

func TestNewScreenShotDebugger(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, NewScreenShotDebugger(dir).Dir())
}
