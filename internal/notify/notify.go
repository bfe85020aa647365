// Package notify turns terminal execution transitions into outbound notifications.
// Delivery itself sits behind the Sender port.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/events"
	"go.uber.org/zap"
)

// Channel is an outbound notification medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSlack Channel = "slack"
)

// Notification is one message for one channel.
type Notification struct {
	Channel      Channel
	Execution    domain.Execution
	Text         string
	SlackChannel string
	WebhookURL   string
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Store holds the current notification settings.
type Store struct {
	mu       sync.RWMutex
	settings domain.NotificationSettings
}

// NewStore creates a store with the given initial settings.
func NewStore(initial domain.NotificationSettings) *Store {
	return &Store{settings: initial}
}

// Get returns the current settings.
func (s *Store) Get() domain.NotificationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the settings after validating them.
func (s *Store) Update(next domain.NotificationSettings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.settings = next
	s.mu.Unlock()
	return nil
}

// Plan returns the notifications a terminal execution should produce under the given settings.
// Success follows NotifyOnSuccess; failed and cancelled runs follow NotifyOnFailure.
func Plan(s domain.NotificationSettings, e domain.Execution) []Notification {
	if !e.Status.IsTerminal() {
		return nil
	}
	wanted := s.NotifyOnFailure
	if e.Status == domain.StatusSuccess {
		wanted = s.NotifyOnSuccess
	}
	if !wanted {
		return nil
	}
	text := Message(e)
	var out []Notification
	if s.EmailEnabled {
		out = append(out, Notification{Channel: ChannelEmail, Execution: e, Text: text})
	}
	if s.SlackEnabled && s.SlackWebhookURL != "" {
		out = append(out, Notification{
			Channel:      ChannelSlack,
			Execution:    e,
			Text:         text,
			SlackChannel: s.SlackChannel,
			WebhookURL:   s.SlackWebhookURL,
		})
	}
	return out
}

// Message renders the one-line summary used by every channel.
func Message(e domain.Execution) string {
	var verb string
	switch e.Status {
	case domain.StatusSuccess:
		verb = "passed"
	case domain.StatusFailed:
		verb = "failed"
	case domain.StatusCancelled:
		verb = "was cancelled"
	default:
		verb = string(e.Status)
	}
	msg := fmt.Sprintf("%s %s", e.PipelineName, verb)
	if e.Duration != nil {
		msg += " after " + domain.FormatSeconds(*e.Duration)
	}
	if e.Result != nil {
		msg += fmt.Sprintf(" (%d passed, %d failed, %d skipped of %d)",
			e.Result.Passed, e.Result.Failed, e.Result.Skipped, e.Result.Total)
	}
	return msg + ", triggered by " + e.TriggeredBy
}

// LogSender records notifications in the log instead of delivering them.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.log.Info("notification",
		zap.String("channel", string(n.Channel)),
		zap.String("execution_id", n.Execution.ID),
		zap.String("slack_channel", n.SlackChannel),
		zap.String("text", n.Text))
	return nil
}

// Dispatcher routes completed executions from the event stream to the sender.
type Dispatcher struct {
	store  *Store
	sender Sender
	log    *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(store *Store, sender Sender, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{store: store, sender: sender, log: log}
}

// Run consumes events until ctx is done or the channel is closed.
func (d *Dispatcher) Run(ctx context.Context, in <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			d.Handle(ctx, ev)
		}
	}
}

// Handle processes one event. Send failures are logged, never propagated.
func (d *Dispatcher) Handle(ctx context.Context, ev events.Event) {
	if ev.Type != events.ExecutionCompleted || ev.Execution == nil {
		return
	}
	for _, n := range Plan(d.store.Get(), *ev.Execution) {
		if err := d.sender.Send(ctx, n); err != nil {
			d.log.Warn("notification failed",
				zap.String("channel", string(n.Channel)),
				zap.String("execution_id", n.Execution.ID),
				zap.Error(err))
		}
	}
}
