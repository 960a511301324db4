// Package transport provides scheme-addressed stream-socket transports.
// Unlike a net.Conn based transport, dialers and listeners here hand out
// raw non-blocking file descriptors so that connections can be driven by
// the reactor's readiness multiplexer.
package transport

import (
	"strings"
	"sync"

	"github.com/eventsock/eventsock/options"
)

type (
	// Transport is a stream-socket address family, looked up by its
	// address scheme (e.g. "ipc", "tcp").
	Transport interface {
		Scheme() string
		NewDialer(address string) (Dialer, error)
		NewListener(address string) (Listener, error)
	}

	// Listener binds and listens at an address and accepts incoming
	// connections as non-blocking descriptors.
	Listener interface {
		Listen(opts options.Options) error
		// Fd returns the listening descriptor, valid after Listen.
		Fd() int
		// Accept takes one pending connection and returns its
		// non-blocking descriptor.
		Accept() (fd int, err error)
		// Close closes the listening descriptor and removes any
		// filesystem bind path.
		Close() error
		Address() string
	}

	// Dialer opens a non-blocking descriptor and initiates a connect.
	// pending reports whether the handshake is still in flight and the
	// descriptor must be watched for connect completion.
	Dialer interface {
		Dial(opts options.Options) (fd int, pending bool, err error)
		Address() string
	}

	optionName int
)

const (
	optionNameListenBacklog optionName = iota
)

// Options
var (
	// OptionListenBacklog is the listen(2) backlog.
	OptionListenBacklog = options.NewIntOption(optionNameListenBacklog)
)

// DefaultListenBacklog is used when OptionListenBacklog is not set.
const DefaultListenBacklog = 128

// StripScheme removes the leading scheme (such as "ipc://") from an
// address string. This is mostly a utility for benefit of transport
// providers.
func StripScheme(t Transport, addr string) (string, error) {
	if !strings.HasPrefix(addr, t.Scheme()+"://") {
		return addr, ErrBadTran
	}
	return addr[len(t.Scheme()+"://"):], nil
}

// ParseScheme parse scheme from address
func ParseScheme(addr string) (scheme string) {
	var i int

	if i = strings.Index(addr, "://"); i < 0 {
		return
	}

	scheme = addr[:i]
	return
}

var (
	lock       sync.RWMutex
	transports = map[string]Transport{}
)

// GetTransportFromAddr get transport for the address scheme
func GetTransportFromAddr(addr string) Transport {
	return GetTransport(ParseScheme(addr))
}

// RegisterTransport is used to register the transport globally,
// after which it will be available to all registries. The transport
// will override any others registered for the same scheme.
func RegisterTransport(t Transport) {
	lock.Lock()
	transports[t.Scheme()] = t
	lock.Unlock()
}

// GetTransport is used to lookup the transport for a given scheme.
func GetTransport(scheme string) Transport {
	lock.RLock()
	t := transports[scheme]
	lock.RUnlock()
	return t
}
