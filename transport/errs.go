package transport

import (
	"github.com/eventsock/eventsock/errs"
)

// errors
const (
	ErrBadTran = errs.Err("invalid or unsupported transport")
)
