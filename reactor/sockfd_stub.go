//go:build !linux

package reactor

import (
	"github.com/eventsock/eventsock/errs"
)

func fdRead(fd int, p []byte) (n int, again bool, err error) {
	return 0, false, errs.ErrOperationNotSupported
}

func fdWrite(fd int, p []byte) (n int, again bool, err error) {
	return 0, false, errs.ErrOperationNotSupported
}

func fdClose(fd int) error {
	return errs.ErrOperationNotSupported
}

func fdIsAgain(err error) bool {
	return false
}

func fdSetSendBuf(fd, size int) error {
	return errs.ErrOperationNotSupported
}

func fdConnectCheck(fd int) (done bool, err error) {
	return true, errs.ErrOperationNotSupported
}
