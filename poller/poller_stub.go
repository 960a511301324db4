//go:build !linux

package poller

import (
	"github.com/eventsock/eventsock/errs"
)

// New creates the platform poller. Platforms without an fd readiness
// multiplexer are not supported.
func New() (Poller, error) {
	return nil, errs.ErrOperationNotSupported
}
