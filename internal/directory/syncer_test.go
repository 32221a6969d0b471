package directory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentlover/platform/internal/domain"
	"github.com/rentlover/platform/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*Snapshot
}

func (p *recordingPublisher) Publish(room, event string, data interface{}) {
	if room != StreamRoom || event != EventUpdated {
		return
	}
	p.mu.Lock()
	p.messages = append(p.messages, data.(*Snapshot))
	p.mu.Unlock()
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func (p *recordingPublisher) last() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messages[len(p.messages)-1]
}

func TestSyncer_PublishesOnSignal(t *testing.T) {
	src, _ := seeded()
	pub := &recordingPublisher{}
	s := NewSyncer(New(src, projection.NewInMemoryStore(), time.Minute, testLogger()), pub, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan string, 8)
	go s.Run(ctx, signals)

	src.addProfile(domain.ProfileRecord{ID: uuid.New(), Email: "x@example.com", VerificationStatus: domain.VerificationPending})
	signals <- "profiles:x"

	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, pub.last().Users, 2)
}

func TestSyncer_CoalescesBursts(t *testing.T) {
	src, _ := seeded()
	pub := &recordingPublisher{}
	s := NewSyncer(New(src, nil, 0, testLogger()), pub, 50*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan string, 16)
	go s.Run(ctx, signals)

	for i := 0; i < 10; i++ {
		signals <- "accounts:burst"
	}

	require.Eventually(t, func() bool { return pub.count() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, pub.count())
}

func TestSyncer_StopsOnClosedChannel(t *testing.T) {
	src, _ := seeded()
	s := NewSyncer(New(src, nil, 0, testLogger()), &recordingPublisher{}, 0, testLogger())

	signals := make(chan string)
	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), signals)
		close(done)
	}()
	close(signals)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("syncer did not stop")
	}
}
