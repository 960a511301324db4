package reactor

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/eventsock/eventsock/errs"
	"github.com/eventsock/eventsock/transport"
)

type (
	changeKind int

	// changeRequest is a queued instruction to mutate a descriptor's
	// registration. Requests are pure data; they live in the pending
	// queue until the reactor goroutine applies them and are discarded
	// afterwards.
	changeRequest struct {
		kind changeKind
		fd   int
		// c is the connection attachment; nil for accept entries.
		c *Conn
		// ln and factory are only set for accept registrations.
		ln      transport.Listener
		factory func() Handler
	}

	// changeQueue is the multi-producer/single-consumer queue feeding
	// the reactor. Producers are arbitrary caller goroutines; the sole
	// consumer is the reactor goroutine, which fully drains it before
	// every blocking wait.
	changeQueue struct {
		sync.Mutex
		q   *queue.Queue
		cap int
	}
)

const (
	changeAccept changeKind = iota
	changeConnect
	changeRead
	changeWrite
	changeClose
)

func (k changeKind) String() string {
	switch k {
	case changeAccept:
		return "accept"
	case changeConnect:
		return "connect"
	case changeRead:
		return "read"
	case changeWrite:
		return "write"
	case changeClose:
		return "close"
	}
	return "unknown"
}

func newChangeQueue(cap int) *changeQueue {
	return &changeQueue{
		q:   queue.New(),
		cap: cap,
	}
}

func (cq *changeQueue) enqueue(cr changeRequest) error {
	cq.Lock()
	defer cq.Unlock()
	if cq.cap > 0 && cq.q.Length() >= cq.cap {
		return errs.ErrQueueFull
	}
	cq.q.Add(cr)
	return nil
}

func (cq *changeQueue) dequeue() (cr changeRequest, ok bool) {
	cq.Lock()
	defer cq.Unlock()
	if cq.q.Length() == 0 {
		return
	}
	return cq.q.Remove().(changeRequest), true
}

func (cq *changeQueue) length() int {
	cq.Lock()
	defer cq.Unlock()
	return cq.q.Length()
}
