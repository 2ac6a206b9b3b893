// README: Notification dispatcher; sends out-of-band SMS without blocking the conversation.
package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"ridesafe/internal/types"
)

const DefaultSendTimeout = 10 * time.Second

// Sender delivers one SMS.
type Sender interface {
	Send(ctx context.Context, to types.Phone, body string) error
}

// Dispatcher sends notifications in the background. Failures are logged and
// never reach the caller.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{sender: sender, timeout: timeout, logger: logger}
}

// Dispatch queues body for phone and returns immediately. The send outlives
// ctx's cancellation (the webhook request usually finishes first) but keeps
// its values.
func (d *Dispatcher) Dispatch(ctx context.Context, phone types.Phone, body string) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		if err := d.sender.Send(ctx, phone, body); err != nil {
			d.logger.Error("notification failed", "phone", phone, "error", err)
			return
		}
		d.logger.Debug("notification sent", "phone", phone)
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender only logs; used when no SMS provider is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, to types.Phone, body string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "sms (not sent)", "to", to, "body", body)
	return nil
}
