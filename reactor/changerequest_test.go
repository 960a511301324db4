package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsock/eventsock/errs"
)

func TestChangeQueueFIFO(t *testing.T) {
	cq := newChangeQueue(16)

	for fd := 1; fd <= 5; fd++ {
		require.NoError(t, cq.enqueue(changeRequest{kind: changeRead, fd: fd}))
	}
	assert.Equal(t, 5, cq.length())

	for fd := 1; fd <= 5; fd++ {
		cr, ok := cq.dequeue()
		require.True(t, ok)
		assert.Equal(t, fd, cr.fd)
	}
	_, ok := cq.dequeue()
	assert.False(t, ok)
}

func TestChangeQueueBounded(t *testing.T) {
	cq := newChangeQueue(2)

	require.NoError(t, cq.enqueue(changeRequest{kind: changeWrite, fd: 1}))
	require.NoError(t, cq.enqueue(changeRequest{kind: changeWrite, fd: 2}))
	assert.Equal(t, errs.ErrQueueFull, cq.enqueue(changeRequest{kind: changeWrite, fd: 3}))
	assert.Equal(t, 2, cq.length())

	// dequeueing frees capacity again
	_, ok := cq.dequeue()
	require.True(t, ok)
	assert.NoError(t, cq.enqueue(changeRequest{kind: changeWrite, fd: 3}))
}

func TestChangeQueueUnbounded(t *testing.T) {
	cq := newChangeQueue(0)
	for fd := 0; fd < 10000; fd++ {
		require.NoError(t, cq.enqueue(changeRequest{kind: changeClose, fd: fd}))
	}
	assert.Equal(t, 10000, cq.length())
}

func TestChangeKindString(t *testing.T) {
	kinds := map[changeKind]string{
		changeAccept:  "accept",
		changeConnect: "connect",
		changeRead:    "read",
		changeWrite:   "write",
		changeClose:   "close",
	}
	for kind, want := range kinds {
		assert.Equal(t, want, kind.String())
	}
}
