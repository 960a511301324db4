// Package reactor implements the event loop at the core of eventsock:
// a single goroutine owning the readiness poller and the descriptor
// registration table. All other goroutines mutate registration state
// exclusively through the pending change request queue; this single
// discipline is what keeps the poller state race free.
package reactor

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/eventsock/eventsock/options"
	"github.com/eventsock/eventsock/poller"
	"github.com/eventsock/eventsock/transport"
)

type (
	// registration binds a descriptor to exactly one interest kind and
	// one attachment. Re-registering a descriptor replaces the entry;
	// interests never accumulate.
	registration struct {
		kind    changeKind
		c       *Conn
		ln      transport.Listener
		factory func() Handler
	}

	// Reactor drives the poller. Run executes on exactly one goroutine;
	// the table, open set and pending interest map are private to it.
	Reactor struct {
		p       poller.Poller
		pending *changeQueue

		table            map[int]*registration
		open             map[int]struct{}
		pendingInterests map[int]changeRequest
		readBuf          []byte

		sendBufSize int

		active atomic.Bool
		doneCh chan struct{}
	}
)

// New creates a reactor on the platform poller.
func New(opts options.Options) (*Reactor, error) {
	p, err := poller.New()
	if err != nil {
		return nil, err
	}
	return newWithPoller(p, opts), nil
}

func newWithPoller(p poller.Poller, opts options.Options) *Reactor {
	readBufSize := OptionReadBufSize.Value(opts.GetOptionDefault(OptionReadBufSize, DefaultReadBufSize))
	queueSize := OptionChangeQueueSize.Value(opts.GetOptionDefault(OptionChangeQueueSize, DefaultChangeQueueSize))
	r := &Reactor{
		p:                p,
		pending:          newChangeQueue(queueSize),
		table:            make(map[int]*registration),
		open:             make(map[int]struct{}),
		pendingInterests: make(map[int]changeRequest),
		readBuf:          make([]byte, readBufSize),
		sendBufSize:      OptionSendBufSize.Value(opts.GetOptionDefault(OptionSendBufSize, DefaultSendBufSize)),
		doneCh:           make(chan struct{}),
	}
	r.active.Store(true)
	return r
}

// Run is the reactor loop: drain the change queue, block on readiness,
// dispatch. It returns after Stop. A fault in one entry never ends the
// loop.
func (r *Reactor) Run() {
	defer close(r.doneCh)
	defer r.p.Close()

	events := make([]poller.Event, eventBatch)
	for r.active.Load() {
		r.applyChanges()
		n, err := r.p.Wait(events)
		if err != nil {
			log.WithField("domain", "reactor").
				WithError(err).
				Error("wait")
			continue
		}
		for i := 0; i < n; i++ {
			r.process(events[i])
		}
	}
	// Closures requested while shutting down still take effect, so
	// descriptors and filesystem bind paths are released.
	r.applyChanges()
}

// Stop requests loop termination and wakes a blocked wait.
func (r *Reactor) Stop() {
	r.active.Store(false)
	if err := r.p.Wake(); err != nil {
		log.WithField("domain", "reactor").
			WithError(err).
			Error("wake")
	}
}

// Done is closed once Run has returned.
func (r *Reactor) Done() <-chan struct{} {
	return r.doneCh
}

// RegisterAcceptor registers a listening descriptor. factory produces
// one fresh Handler per accepted connection.
func (r *Reactor) RegisterAcceptor(ln transport.Listener, factory func() Handler) {
	r.addChange(changeRequest{kind: changeAccept, fd: ln.Fd(), ln: ln, factory: factory})
}

// DeregisterAcceptor cancels the listening registration and closes the
// listener. Already accepted connections are untouched.
func (r *Reactor) DeregisterAcceptor(ln transport.Listener) {
	r.addChange(changeRequest{kind: changeClose, fd: ln.Fd(), ln: ln})
}

// RegisterConnect watches c's descriptor for connect completion.
func (r *Reactor) RegisterConnect(c *Conn) {
	r.addChange(changeRequest{kind: changeConnect, fd: c.fd, c: c})
}

// addChange enqueues a change request and wakes the loop. A full queue
// drops the request; the drop is logged, never retried.
func (r *Reactor) addChange(cr changeRequest) {
	if err := r.pending.enqueue(cr); err != nil {
		log.WithField("domain", "reactor").
			WithFields(log.Fields{"kind": cr.kind.String(), "fd": cr.fd}).
			WithError(err).
			Error("change request dropped")
		return
	}
	if err := r.p.Wake(); err != nil {
		log.WithField("domain", "reactor").
			WithError(err).
			Error("wake")
	}
}

// applyChanges fully drains the queue. Draining completely before the
// next wait means a request enqueued in between cannot be missed: its
// wake-up is still pending.
func (r *Reactor) applyChanges() {
	for {
		cr, ok := r.pending.dequeue()
		if !ok {
			return
		}
		if err := r.applyChange(cr); err != nil {
			log.WithField("domain", "reactor").
				WithFields(log.Fields{"kind": cr.kind.String(), "fd": cr.fd}).
				WithError(err).
				Error("apply change")
		}
	}
}

func (r *Reactor) applyChange(cr changeRequest) error {
	switch cr.kind {
	case changeAccept:
		return r.register(cr.fd, poller.InterestRead, &registration{kind: changeAccept, ln: cr.ln, factory: cr.factory})

	case changeConnect:
		return r.register(cr.fd, poller.InterestWrite, &registration{kind: changeConnect, c: cr.c})

	case changeRead:
		if cr.c.isClosed() {
			return nil
		}
		if !cr.c.Established() {
			r.pendingInterests[cr.fd] = cr
			return nil
		}
		return r.register(cr.fd, poller.InterestRead, &registration{kind: changeRead, c: cr.c})

	case changeWrite:
		if cr.c.isClosed() {
			return nil
		}
		if !cr.c.Established() {
			r.pendingInterests[cr.fd] = cr
			return nil
		}
		if err := fdSetSendBuf(cr.fd, r.sendBufSize); err != nil {
			log.WithField("domain", "reactor").
				WithField("fd", cr.fd).
				WithError(err).
				Warn("set send buffer")
		}
		return r.register(cr.fd, poller.InterestWrite, &registration{kind: changeWrite, c: cr.c})

	case changeClose:
		r.closeEntry(cr.fd, cr.c, cr.ln)
	}
	return nil
}

func (r *Reactor) register(fd int, interest poller.Interest, reg *registration) error {
	var err error
	if _, ok := r.table[fd]; ok {
		err = r.p.Mod(fd, interest)
	} else {
		err = r.p.Add(fd, interest)
	}
	if err != nil {
		return err
	}
	r.table[fd] = reg
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("domain", "reactor").
			WithFields(log.Fields{"fd": fd, "kind": reg.kind.String(), "interest": interest.String()}).
			Debug("register")
	}
	return nil
}

// process dispatches one ready entry by its registered interest kind.
// Each ready entry is consumed once per wait cycle.
func (r *Reactor) process(ev poller.Event) {
	reg, ok := r.table[ev.Fd]
	if !ok {
		// stale event: the entry was consumed or closed earlier in
		// this pass
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.WithField("domain", "reactor").
				WithFields(log.Fields{"fd": ev.Fd, "kind": reg.kind.String()}).
				Errorf("dispatch panic: %v", p)
		}
	}()

	switch reg.kind {
	case changeAccept:
		r.handleAccept(reg)
	case changeConnect:
		r.handleConnect(ev.Fd, reg.c)
	case changeRead:
		r.handleRead(ev.Fd, reg.c)
	case changeWrite:
		r.handleWrite(ev.Fd, reg.c)
	}
}

// handleAccept takes at most one pending connection per ready event,
// keeping accept latency fair across multiple listening servers.
func (r *Reactor) handleAccept(reg *registration) {
	nfd, err := reg.ln.Accept()
	if err != nil {
		if !fdIsAgain(err) {
			log.WithField("domain", "reactor").
				WithField("listener", reg.ln.Address()).
				WithError(err).
				Error("accept")
		}
		return
	}

	var c *Conn
	defer func() {
		// a handler fault closes the new channel; the listening
		// registration stays
		if p := recover(); p != nil {
			log.WithField("domain", "reactor").
				WithFields(log.Fields{"fd": nfd, "listener": reg.ln.Address()}).
				Errorf("accept handler panic: %v", p)
			delete(r.open, nfd)
			fdClose(nfd)
		}
	}()

	c = r.NewConn(nfd, reg.factory())
	r.open[nfd] = struct{}{}
	c.markEstablished()
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("domain", "reactor").
			WithFields(log.Fields{"id": c.ID(), "fd": nfd, "listener": reg.ln.Address()}).
			Debug("accepted")
	}
	c.handler.OnEstablish(c)
	r.addChange(changeRequest{kind: changeRead, fd: nfd, c: c})
}

// handleConnect checks whether the handshake finished. Not yet finished
// is not an error; the registration stays armed and is retried on a
// later readiness event.
func (r *Reactor) handleConnect(fd int, c *Conn) {
	done, err := fdConnectCheck(fd)
	if !done {
		return
	}
	if err != nil {
		log.WithField("domain", "reactor").
			WithFields(log.Fields{"id": c.ID(), "fd": fd}).
			WithError(err).
			Error("connect")
		r.closeEntry(fd, c, nil)
		return
	}

	r.open[fd] = struct{}{}
	c.markEstablished()
	r.addChange(changeRequest{kind: changeRead, fd: fd, c: c})
	// replay an interest parked while the handshake was in flight; it
	// is applied after the read registration above and so takes
	// precedence
	if parked, ok := r.pendingInterests[fd]; ok {
		delete(r.pendingInterests, fd)
		r.addChange(parked)
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("domain", "reactor").
			WithFields(log.Fields{"id": c.ID(), "fd": fd}).
			Debug("connected")
	}
	c.handler.OnEstablish(c)
}

// handleRead performs exactly one bounded read per ready event and
// delivers the bytes as-is: no coalescing, no framing.
func (r *Reactor) handleRead(fd int, c *Conn) {
	n, again, err := fdRead(fd, r.readBuf)
	if again {
		return
	}
	if err != nil {
		if log.IsLevelEnabled(log.DebugLevel) {
			log.WithField("domain", "reactor").
				WithFields(log.Fields{"id": c.ID(), "fd": fd}).
				WithError(err).
				Debug("read")
		}
		r.closeEntry(fd, c, nil)
		return
	}
	if n == 0 {
		// end of stream
		r.closeEntry(fd, c, nil)
		return
	}
	payload := make([]byte, n)
	copy(payload, r.readBuf[:n])
	c.handler.OnMessageReception(c, payload)
}

// handleWrite flushes at most one buffer per ready event. An empty
// queue reverts the registration to read interest; a partial write
// keeps the remainder at the queue head for the next event.
func (r *Reactor) handleWrite(fd int, c *Conn) {
	buf := c.nextOutbound()
	if buf == nil {
		r.addChange(changeRequest{kind: changeRead, fd: fd, c: c})
		return
	}
	n, again, err := fdWrite(fd, buf)
	if again {
		return
	}
	if err != nil {
		log.WithField("domain", "reactor").
			WithFields(log.Fields{"id": c.ID(), "fd": fd}).
			WithError(err).
			Error("write")
		r.closeEntry(fd, c, nil)
		return
	}
	c.consumeOutbound(n)
}

// closeEntry cancels the registration, removes the descriptor from the
// open set, closes it if still open, and invokes OnClose exactly once.
func (r *Reactor) closeEntry(fd int, c *Conn, ln transport.Listener) {
	if _, ok := r.table[fd]; ok {
		if err := r.p.Del(fd); err != nil && log.IsLevelEnabled(log.DebugLevel) {
			log.WithField("domain", "reactor").
				WithField("fd", fd).
				WithError(err).
				Debug("poller del")
		}
		delete(r.table, fd)
	}
	delete(r.pendingInterests, fd)
	delete(r.open, fd)

	if ln != nil {
		if err := ln.Close(); err != nil {
			log.WithField("domain", "reactor").
				WithField("listener", ln.Address()).
				WithError(err).
				Error("close listener")
		}
		return
	}
	if c == nil {
		fdClose(fd)
		return
	}
	if !c.markClosed() {
		return
	}
	fdClose(fd)
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("domain", "reactor").
			WithFields(log.Fields{"id": c.ID(), "fd": fd}).
			Debug("closed")
	}
	c.handler.OnClose(c)
	c.recycle()
}
