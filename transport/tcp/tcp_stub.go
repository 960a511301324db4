//go:build !linux

package tcp

import (
	"github.com/eventsock/eventsock/errs"
	"github.com/eventsock/eventsock/transport"
)

// NewDialer implements the Transport NewDialer method.
func (t tcpTran) NewDialer(address string) (transport.Dialer, error) {
	return nil, errs.ErrOperationNotSupported
}

// NewListener implements the Transport NewListener method.
func (t tcpTran) NewListener(address string) (transport.Listener, error) {
	return nil, errs.ErrOperationNotSupported
}
