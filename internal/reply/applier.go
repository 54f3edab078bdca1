// Package reply writes model output into the chat input without clobbering
// anything the user is writing.
package reply

import (
	"context"
	"fmt"
	"log"
)

// Input is the chat input element of the page.
type Input interface {
	// Contents returns the element's innerText and innerHTML.
	Contents(ctx context.Context) (text, html string, err error)
	// Write replaces the content, moves the caret to the end and fires an
	// input event carrying text.
	Write(ctx context.Context, text string) error
}

type Applier struct {
	input Input
	guard *Guard
	pause func(ctx context.Context) error
}

func NewApplier(input Input, guard *Guard) *Applier {
	if guard == nil {
		guard = &Guard{}
	}
	return &Applier{input: input, guard: guard}
}

func (a *Applier) Guard() *Guard {
	return a.guard
}

// WithPause sets a wait that AutoFill runs before any guard check, so that
// nothing sleeps between the final check and the write.
func (a *Applier) WithPause(pause func(ctx context.Context) error) *Applier {
	a.pause = pause
	return a
}

// AutoFill writes text only when the input is empty and the user has not
// typed since the triggering recruiter message. It reports whether the text
// was written.
func (a *Applier) AutoFill(ctx context.Context, text string) (bool, error) {
	if a.pause != nil {
		if err := a.pause(ctx); err != nil {
			return false, err
		}
	}
	if reason, blocked := a.guard.Blocked(); blocked {
		log.Printf("⏭️ [reply] Skip auto-fill: %s", reason)
		return false, nil
	}

	current, html, err := a.input.Contents(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read chat input: %w", err)
	}
	if !IsInputEmpty(current, html) {
		log.Printf("⏭️ [reply] Skip auto-fill: input is not empty")
		return false, nil
	}

	// the user may have started typing while the input was read
	if reason, blocked := a.guard.Blocked(); blocked {
		log.Printf("⏭️ [reply] Skip auto-fill: %s", reason)
		return false, nil
	}

	if err := a.Fill(ctx, text); err != nil {
		return false, err
	}
	return true, nil
}

// Fill always writes; used by user-initiated flows.
func (a *Applier) Fill(ctx context.Context, text string) error {
	if err := a.input.Write(ctx, text); err != nil {
		return fmt.Errorf("failed to fill chat input: %w", err)
	}
	return nil
}
