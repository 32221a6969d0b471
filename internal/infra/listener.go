package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IdentityChannel is the NOTIFY channel fired by the accounts and profiles
// triggers. Payloads look like "profiles:<id>".
const IdentityChannel = "identity_changed"

// ChangeListener turns Postgres NOTIFY messages into change signals. It
// holds one pooled connection and reconnects with backoff when it drops.
type ChangeListener struct {
	pool    *pgxpool.Pool
	channel string
	logger  *slog.Logger
	backoff time.Duration
}

// NewChangeListener creates a listener on channel.
func NewChangeListener(pool *pgxpool.Pool, channel string, logger *slog.Logger) *ChangeListener {
	return &ChangeListener{pool: pool, channel: channel, logger: logger, backoff: time.Second}
}

// Start listens until ctx is cancelled. The returned channel is closed on
// shutdown. A signal is also emitted after every reconnect, since changes
// made while disconnected were missed.
func (l *ChangeListener) Start(ctx context.Context) <-chan string {
	out := make(chan string, 64)
	go func() {
		defer close(out)
		b := &reconnectBackoff{base: l.backoff, max: 30 * time.Second}
		for {
			connected, err := l.listen(ctx, out)
			if ctx.Err() != nil {
				return
			}
			wait := b.next(connected)
			l.logger.Warn("change listener disconnected, reconnecting", "channel", l.channel, "error", err, "backoff", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			send(ctx, out, "reconnect")
		}
	}()
	return out
}

// reconnectBackoff doubles the wait after each failed attempt up to max,
// and starts over from base once a LISTEN has succeeded.
type reconnectBackoff struct {
	base, max time.Duration
	cur       time.Duration
}

func (b *reconnectBackoff) next(connected bool) time.Duration {
	switch {
	case connected || b.cur == 0:
		b.cur = b.base
	case b.cur < b.max:
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	return b.cur
}

// listen reports whether LISTEN was established before the error.
func (l *ChangeListener) listen(ctx context.Context, out chan<- string) (bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire listener conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+l.channel); err != nil {
		return false, fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("change listener started", "channel", l.channel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return true, fmt.Errorf("wait for notification: %w", err)
		}
		send(ctx, out, n.Payload)
	}
}

func send(ctx context.Context, out chan<- string, payload string) {
	select {
	case out <- payload:
	case <-ctx.Done():
	}
}
