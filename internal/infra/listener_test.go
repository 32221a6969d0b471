package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconnectBackoff_GrowsAndCaps(t *testing.T) {
	b := &reconnectBackoff{base: time.Second, max: 30 * time.Second}

	var got []time.Duration
	for i := 0; i < 7; i++ {
		got = append(got, b.next(false))
	}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}, got)
}

func TestReconnectBackoff_ResetsAfterSuccessfulListen(t *testing.T) {
	b := &reconnectBackoff{base: time.Second, max: 30 * time.Second}
	for i := 0; i < 10; i++ {
		b.next(false)
	}
	require.Equal(t, 30*time.Second, b.cur)

	assert.Equal(t, time.Second, b.next(true), "a drop after a healthy connection retries quickly")
	assert.Equal(t, 2*time.Second, b.next(false))
}

func TestSend_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan string)
	done := make(chan struct{})
	go func() {
		send(ctx, out, "profiles:1")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked after cancel")
	}
}
