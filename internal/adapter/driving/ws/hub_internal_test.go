package ws

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DropsClientWithFullBuffer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(slog.Default())
	go h.Run(ctx)

	// Neither client has a write pump; slow never drains its buffer.
	slow := &client{hub: h, send: make(chan []byte, sendBuffer)}
	roomy := &client{hub: h, send: make(chan []byte, sendBuffer+1)}
	h.register <- slow
	h.register <- roomy
	require.Eventually(t, func() bool { return h.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	for range sendBuffer + 1 {
		h.Broadcast([]byte(`{"state":"Florida"}`))
	}

	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	// The slow client's channel is closed after the messages it did queue.
	queued := 0
	for range slow.send {
		queued++
	}
	assert.Equal(t, sendBuffer, queued)
	assert.Len(t, roomy.send, sendBuffer+1)
}
