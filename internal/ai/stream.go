package ai

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	sseDataPrefix = "data:"
	sseDone       = "[DONE]"
	maxSSELine    = 4 << 20
)

// ReadStream aggregates the content deltas of a server-sent-events body.
// Non-data lines, the [DONE] sentinel and malformed payloads are skipped.
func ReadStream(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	var b strings.Builder
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, sseDataPrefix))
		if data == sseDone || !gjson.Valid(data) {
			continue
		}

		fragment := gjson.Get(data, "choices.0.delta.content")
		if fragment.Type == gjson.String {
			b.WriteString(fragment.Str)
		}
	}
	if err := scanner.Err(); err != nil {
		return b.String(), fmt.Errorf("failed to read stream: %w", err)
	}
	return b.String(), nil
}
