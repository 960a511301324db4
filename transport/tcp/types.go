// Package tcp implements the TCP transport. To enable it simply import it.
package tcp

import (
	"github.com/eventsock/eventsock/options"
	"github.com/eventsock/eventsock/transport"
)

type (
	tcpTran    string
	optionName int
)

const (
	// Transport is a transport.Transport for TCP.
	Transport = tcpTran("tcp")
)

const (
	optionNameNoDelay optionName = iota
	optionNameKeepAlive
)

// Options
var (
	// OptionNoDelay sets TCP_NODELAY on new connections.
	OptionNoDelay = options.NewBoolOption(optionNameNoDelay)
	// OptionKeepAlive sets SO_KEEPALIVE on new connections.
	OptionKeepAlive = options.NewBoolOption(optionNameKeepAlive)
)

func init() {
	transport.RegisterTransport(Transport)
}

// Scheme implements the Transport Scheme method.
func (t tcpTran) Scheme() string {
	return string(t)
}
