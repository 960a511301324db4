package reactor

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/eventsock/eventsock/errs"
	"github.com/eventsock/eventsock/utils"
)

type (
	// Handler receives the lifecycle callbacks of one connection. All
	// callbacks run synchronously on the reactor goroutine; they must
	// not block.
	Handler interface {
		// OnEstablish is invoked exactly once, immediately after the
		// connection becomes usable.
		OnEstablish(c *Conn)
		// OnMessageReception is invoked once per completed read event
		// with exactly the bytes read in that event. No framing is
		// applied; a logical message may span several events.
		OnMessageReception(c *Conn, payload []byte)
		// OnClose is invoked exactly once, regardless of cause. It
		// carries no reason; peer EOF, local close and I/O errors are
		// indistinguishable here.
		OnClose(c *Conn)
	}

	// Conn is a duplex endpoint registered with a reactor. Its only
	// shared mutable state is the outbound buffer queue, fed by
	// arbitrary caller goroutines and drained by the reactor.
	Conn struct {
		id      uint32
		fd      int
		r       *Reactor
		handler Handler

		sync.Mutex
		outq *queue.Queue
		// head is the remainder of a partially written buffer; it is
		// flushed before the queue advances so order is preserved.
		head        []byte
		established bool
		closed      bool
	}
)

var connID = utils.NewRecyclableIDGenerator()

// NewConn binds a non-blocking descriptor and its handler to the
// reactor. The connection is inert until registered.
func (r *Reactor) NewConn(fd int, h Handler) *Conn {
	return &Conn{
		id:      connID.NextID(),
		fd:      fd,
		r:       r,
		handler: h,
		outq:    queue.New(),
	}
}

// ID returns the connection id, unique among live connections.
func (c *Conn) ID() uint32 {
	return c.id
}

// Fd returns the underlying descriptor.
func (c *Conn) Fd() int {
	return c.fd
}

// Established reports whether the connection has completed its
// handshake and is registered for reading.
func (c *Conn) Established() bool {
	c.Lock()
	defer c.Unlock()
	return c.established
}

// SendMessage enqueues msg on the outbound queue and requests write
// interest. Buffers are written in enqueue order; delivery is
// asynchronous. Returns errs.ErrClosed after the connection closed.
func (c *Conn) SendMessage(msg []byte) error {
	c.Lock()
	if c.closed {
		c.Unlock()
		return errs.ErrClosed
	}
	c.outq.Add(msg)
	c.Unlock()

	c.r.addChange(changeRequest{kind: changeWrite, fd: c.fd, c: c})
	return nil
}

// Close requests an asynchronous closure and returns immediately.
// Actual closure is confirmed by the OnClose callback.
func (c *Conn) Close() error {
	c.Lock()
	if c.closed {
		c.Unlock()
		return errs.ErrClosed
	}
	c.Unlock()

	c.r.addChange(changeRequest{kind: changeClose, fd: c.fd, c: c})
	return nil
}

func (c *Conn) markEstablished() {
	c.Lock()
	c.established = true
	c.Unlock()
}

func (c *Conn) isClosed() bool {
	c.Lock()
	defer c.Unlock()
	return c.closed
}

// markClosed flips the closed flag; it reports false if the connection
// was closed before, guaranteeing the close path runs once.
func (c *Conn) markClosed() bool {
	c.Lock()
	defer c.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}

// nextOutbound returns the buffer to write next, keeping it at the
// head until consumeOutbound drops it. nil means the queue is empty.
func (c *Conn) nextOutbound() []byte {
	c.Lock()
	defer c.Unlock()
	if c.head == nil {
		if c.outq.Length() == 0 {
			return nil
		}
		c.head = c.outq.Remove().([]byte)
	}
	return c.head
}

// consumeOutbound drops n written bytes from the head buffer.
func (c *Conn) consumeOutbound(n int) {
	c.Lock()
	defer c.Unlock()
	if n >= len(c.head) {
		c.head = nil
		return
	}
	c.head = c.head[n:]
}

func (c *Conn) recycle() {
	connID.Recycle(c.id)
}
