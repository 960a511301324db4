// Package eventsock is an event-driven inter-process communication
// library over non-blocking stream sockets, primarily filesystem
// addressed unix domain sockets ("ipc://" addresses).
//
// A single reactor goroutine multiplexes readiness across all
// connections and invokes the per-connection Handler callbacks
// (OnEstablish, OnMessageReception, OnClose) synchronously on its own
// goroutine. Servers accept connections passively, Clients connect
// actively; both register with a Registry that lazily starts the
// reactor with the first active entity and stops it with the last.
//
// The wire contract is a raw byte stream: whatever bytes one read
// event returns is the exact unit handed to OnMessageReception. There
// is no framing, no encryption and no deadline handling.
package eventsock

import (
	"github.com/eventsock/eventsock/reactor"
)

type (
	// Handler receives the lifecycle callbacks of one connection.
	Handler = reactor.Handler
	// Conn is a duplex endpoint registered with the reactor.
	Conn = reactor.Conn
)
