// Package notify tells the user about things they have to act on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
)

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Log writes notifications to the process log. It is the fallback when no
// Telegram bot is configured.
type Log struct{}

func (Log) Notify(_ context.Context, text string) error {
	log.Printf("🔔 [notify] %s", text)
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Error reports a failed user action through n.
func Error(ctx context.Context, n Notifier, action string, err error) error {
	return n.Notify(ctx, fmt.Sprintf("❌ %s failed: %v", action, err))
}
