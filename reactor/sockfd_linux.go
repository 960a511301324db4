//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// Raw descriptor operations used by the dispatch paths. Only the
// reactor goroutine calls these.

func fdRead(fd int, p []byte) (n int, again bool, err error) {
	for {
		n, err = unix.Read(fd, p)
		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, true, nil
		default:
			if n < 0 {
				n = 0
			}
			return n, false, err
		}
	}
}

func fdWrite(fd int, p []byte) (n int, again bool, err error) {
	for {
		n, err = unix.Write(fd, p)
		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, true, nil
		default:
			if n < 0 {
				n = 0
			}
			return n, false, err
		}
	}
}

func fdClose(fd int) error {
	return unix.Close(fd)
}

func fdIsAgain(err error) bool {
	return err == unix.EAGAIN
}

func fdSetSendBuf(fd, size int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, size)
}

// fdConnectCheck inspects a connecting descriptor after a readiness
// event. done=false means the handshake is still in flight and the
// registration should stay armed.
func fdConnectCheck(fd int) (done bool, err error) {
	soerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return true, err
	}
	switch unix.Errno(soerr) {
	case 0, unix.EISCONN:
		return true, nil
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		return false, nil
	default:
		return true, unix.Errno(soerr)
	}
}
