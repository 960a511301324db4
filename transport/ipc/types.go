// Package ipc implements the IPC transport on top of UNIX domain sockets.
package ipc

import (
	"github.com/eventsock/eventsock/transport"
)

type (
	ipcTran string
)

const (
	// Transport is a transport.Transport for IPC.
	Transport = ipcTran("ipc")
)

func init() {
	transport.RegisterTransport(Transport)
}

// Scheme implements the Transport Scheme method.
func (t ipcTran) Scheme() string {
	return string(t)
}
