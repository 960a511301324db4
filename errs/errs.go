package errs

type Err string

func (e Err) Error() string {
	return string(e)
}

// errors
const (
	ErrClosed                = Err("object is closed")
	ErrBadOperateState       = Err("bad operation state")
	ErrAddrInUse             = Err("address already in use")
	ErrOperationNotSupported = Err("operation not supported")
	ErrBadTransport          = Err("invalid or unsupported transport")
	ErrQueueFull             = Err("change queue is full")
	ErrNotEstablished        = Err("connection is not established")
)
