// Package notify sends best-effort desktop notifications for playback
// events. Delivery failures are swallowed after a debug log.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// Notifier delivers a short text message to the user outside the terminal.
type Notifier interface {
	Notify(title, message string)
}

// DesktopNotifier sends notifications through the OS notification service.
type DesktopNotifier struct {
	logger zerolog.Logger
}

// NewDesktopNotifier creates a DesktopNotifier.
func NewDesktopNotifier(logger zerolog.Logger) *DesktopNotifier {
	return &DesktopNotifier{
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

// Notify sends a notification. Failures never propagate.
func (n *DesktopNotifier) Notify(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		n.logger.Debug().Err(err).Str("title", title).Msg("Notification failed")
	}
}

// Nop is a Notifier that does nothing, for tests and non-interactive runs.
type Nop struct{}

func (Nop) Notify(title, message string) {}
