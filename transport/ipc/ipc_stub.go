//go:build !linux

package ipc

import (
	"github.com/eventsock/eventsock/errs"
	"github.com/eventsock/eventsock/transport"
)

// NewDialer implements the Transport NewDialer method.
func (t ipcTran) NewDialer(address string) (transport.Dialer, error) {
	return nil, errs.ErrOperationNotSupported
}

// NewListener implements the Transport NewListener method.
func (t ipcTran) NewListener(address string) (transport.Listener, error) {
	return nil, errs.ErrOperationNotSupported
}
