package directory

import (
	"context"
	"log/slog"
	"time"
)

const (
	// StreamRoom is the hub room admin observers join.
	StreamRoom = "admin:directory"
	// EventUpdated is published after every rebuild.
	EventUpdated = "directory.updated"

	defaultCoalesce = 200 * time.Millisecond
)

// Publisher fans a message out to everyone in a room.
type Publisher interface {
	Publish(room string, event string, data interface{})
}

// Syncer rebuilds the directory on identity change signals and publishes
// the new snapshot. Every rebuild re-reads both sources in full.
type Syncer struct {
	dir      *Directory
	pub      Publisher
	logger   *slog.Logger
	coalesce time.Duration
}

// NewSyncer creates a Syncer. coalesce <= 0 uses the default window.
func NewSyncer(dir *Directory, pub Publisher, coalesce time.Duration, logger *slog.Logger) *Syncer {
	if coalesce <= 0 {
		coalesce = defaultCoalesce
	}
	return &Syncer{dir: dir, pub: pub, logger: logger, coalesce: coalesce}
}

// Run consumes signals until ctx is cancelled or signals is closed. Signals
// arriving within the coalesce window of the first are folded into a single
// rebuild.
func (s *Syncer) Run(ctx context.Context, signals <-chan string) {
	s.logger.Info("directory syncer started", "coalesce", s.coalesce)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("directory syncer stopped")
			return
		case sig, ok := <-signals:
			if !ok {
				s.logger.Info("directory signal channel closed")
				return
			}
			pending++
			s.logger.Debug("identity change signal", "signal", sig)
			if fire == nil {
				timer = time.NewTimer(s.coalesce)
				fire = timer.C
			}
		case <-fire:
			fire = nil
			s.logger.Debug("rebuilding directory", "signals", pending)
			pending = 0
			s.Rebuild(ctx)
		}
	}
}

// Rebuild invalidates the cache, reconciles from scratch and publishes the
// result. Failures are logged; the next signal retries.
func (s *Syncer) Rebuild(ctx context.Context) {
	if err := s.dir.Invalidate(ctx); err != nil {
		s.logger.Warn("directory invalidate failed", "error", err)
	}
	snap, err := s.dir.Snapshot(ctx)
	if err != nil {
		s.logger.Error("directory rebuild failed", "error", err)
		return
	}
	s.pub.Publish(StreamRoom, EventUpdated, snap)
}
