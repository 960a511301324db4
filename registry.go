package eventsock

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/eventsock/eventsock/options"
	"github.com/eventsock/eventsock/reactor"
)

// Registry coordinates the reactor lifecycle for a set of Servers and
// Clients. The reactor goroutine starts lazily with the first active
// entity and stops when the last one deregisters, so an idle registry
// holds no goroutine and no poller.
type Registry struct {
	opts options.Options

	sync.Mutex
	servers map[*Server]struct{}
	clients map[*Client]struct{}
	reactor *reactor.Reactor
	running bool
	done    <-chan struct{}
}

// NewRegistry creates a registry. No goroutine is started until the
// first Server.Start or Client.Establish.
func NewRegistry(ovs options.OptionValues) *Registry {
	return &Registry{
		opts:    options.NewOptionsWithValues(ovs),
		servers: make(map[*Server]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// Active returns the number of registered servers and clients.
func (g *Registry) Active() int {
	g.Lock()
	defer g.Unlock()
	return len(g.servers) + len(g.clients)
}

// Close deregisters everything and stops the reactor immediately.
func (g *Registry) Close() {
	g.Lock()
	defer g.Unlock()
	g.servers = make(map[*Server]struct{})
	g.clients = make(map[*Client]struct{})
	g.stopReactor()
}

func (g *Registry) registerServer(s *Server) (*reactor.Reactor, error) {
	g.Lock()
	defer g.Unlock()
	r, err := g.ensureReactor()
	if err != nil {
		return nil, err
	}
	g.servers[s] = struct{}{}
	return r, nil
}

func (g *Registry) deregisterServer(s *Server) {
	g.Lock()
	delete(g.servers, s)
	g.checkReactorDown()
	g.Unlock()
}

func (g *Registry) registerClient(c *Client) (*reactor.Reactor, error) {
	g.Lock()
	defer g.Unlock()
	r, err := g.ensureReactor()
	if err != nil {
		return nil, err
	}
	g.clients[c] = struct{}{}
	return r, nil
}

func (g *Registry) deregisterClient(c *Client) {
	g.Lock()
	delete(g.clients, c)
	g.checkReactorDown()
	g.Unlock()
}

// ensureReactor starts the reactor goroutine if it is not running.
// Callers hold the registry lock, so at most one start occurs per
// idle-to-active transition.
func (g *Registry) ensureReactor() (*reactor.Reactor, error) {
	if g.running {
		return g.reactor, nil
	}
	r, err := reactor.New(g.opts)
	if err != nil {
		return nil, err
	}
	g.reactor = r
	g.running = true
	g.done = r.Done()
	go r.Run()
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("domain", "registry").Debug("reactor started")
	}
	return r, nil
}

// checkReactorDown stops the reactor once the last entity is gone.
// Callers hold the registry lock.
func (g *Registry) checkReactorDown() {
	if len(g.servers)+len(g.clients) != 0 {
		return
	}
	g.stopReactor()
}

func (g *Registry) stopReactor() {
	if !g.running {
		return
	}
	g.reactor.Stop()
	g.running = false
	g.reactor = nil
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("domain", "registry").Debug("reactor stopped")
	}
}
