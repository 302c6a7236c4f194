package suvclient

import (
	"context"
	"time"

	internalnotify "github.com/MrEthical07/suvclient/internal/notify"
	"go.uber.org/zap"
)

// NewZapSink returns a [NotifySink] that logs each toast.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalnotify.NewZapSink(logger)
}

// NotifyStale returns how many toasts expired in the buffer before the sink
// could show them.
func (c *Client) NotifyStale() uint64 {
	if c == nil {
		return 0
	}
	return c.notify.Stale()
}

// Toast shows message to the user through the configured sink. An empty level
// means success; error and warning toasts carry their configured prefix.
// Delivery is asynchronous and, with Notify.DropIfFull, lossy. A toast still
// queued when Notify.DisplayFor has passed is discarded.
func (c *Client) Toast(ctx context.Context, message string, level NoticeLevel) {
	if c == nil || c.notify == nil {
		return
	}
	if level == "" {
		level = NoticeSuccess
	}

	text := message
	switch level {
	case NoticeError:
		text = c.config.Notify.ErrorPrefix + message
	case NoticeWarning:
		text = c.config.Notify.WarningPrefix + message
	}

	now := time.Now().UTC()
	n := Notice{
		Timestamp: now,
		Level:     level,
		Message:   message,
		Text:      text,
	}
	if d := c.config.Notify.DisplayFor; d > 0 {
		n.Expires = now.Add(d)
	}

	c.metrics.Inc(MetricNotification)
	c.notify.Emit(ctx, n)
}
