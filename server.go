package eventsock

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/eventsock/eventsock/errs"
	"github.com/eventsock/eventsock/options"
	"github.com/eventsock/eventsock/reactor"
	"github.com/eventsock/eventsock/transport"
)

// Server binds and listens at a scheme address ("ipc:///run/app.sock",
// "tcp://127.0.0.1:7070") and produces one fresh Handler per accepted
// connection via its factory.
type Server struct {
	reg     *Registry
	addr    string
	factory func() Handler
	opts    options.Options

	sync.Mutex
	ln      transport.Listener
	reactor *reactor.Reactor
	started bool
}

// NewServer creates a server; nothing happens until Start.
func NewServer(reg *Registry, addr string, factory func() Handler, ovs options.OptionValues) *Server {
	return &Server{
		reg:     reg,
		addr:    addr,
		factory: factory,
		opts:    options.NewOptionsWithValues(ovs),
	}
}

// Start binds, listens and registers for accept events. Bind and
// listen failures are returned synchronously.
func (s *Server) Start() error {
	s.Lock()
	defer s.Unlock()
	if s.started {
		return errs.ErrBadOperateState
	}

	t := transport.GetTransportFromAddr(s.addr)
	if t == nil {
		return errs.ErrBadTransport
	}
	ln, err := t.NewListener(s.addr)
	if err != nil {
		return err
	}
	if err = ln.Listen(s.opts); err != nil {
		return err
	}

	r, err := s.reg.registerServer(s)
	if err != nil {
		ln.Close()
		return err
	}
	r.RegisterAcceptor(ln, s.factory)

	s.ln = ln
	s.reactor = r
	s.started = true
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("domain", "server").
			WithField("addr", s.addr).
			Debug("start")
	}
	return nil
}

// Stop deregisters from the reactor. The listening descriptor and any
// filesystem bind path are released by the reactor's close handling;
// accepted connections stay open.
func (s *Server) Stop() error {
	s.Lock()
	defer s.Unlock()
	if !s.started {
		return errs.ErrBadOperateState
	}

	s.reactor.DeregisterAcceptor(s.ln)
	s.reg.deregisterServer(s)

	s.ln = nil
	s.reactor = nil
	s.started = false
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("domain", "server").
			WithField("addr", s.addr).
			Debug("stop")
	}
	return nil
}

// Address returns the configured bind address.
func (s *Server) Address() string {
	return s.addr
}
