//go:build linux

package ipc

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/eventsock/eventsock/errs"
	"github.com/eventsock/eventsock/options"
	"github.com/eventsock/eventsock/transport"
)

type (
	dialer struct {
		path string
	}

	listener struct {
		path string
		fd   int
	}
)

// NewDialer implements the Transport NewDialer method.
func (t ipcTran) NewDialer(address string) (transport.Dialer, error) {
	path, err := transport.StripScheme(t, address)
	if err != nil {
		return nil, err
	}
	return &dialer{path: path}, nil
}

// NewListener implements the Transport NewListener method.
func (t ipcTran) NewListener(address string) (transport.Listener, error) {
	path, err := transport.StripScheme(t, address)
	if err != nil {
		return nil, err
	}
	return &listener{path: path, fd: -1}, nil
}

func (d *dialer) Dial(opts options.Options) (fd int, pending bool, err error) {
	fd, err = unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, false, err
	}
	sa := &unix.SockaddrUnix{Name: d.path}
	switch err = unix.Connect(fd, sa); err {
	case nil:
		return fd, false, nil
	case unix.EINPROGRESS:
		return fd, true, nil
	default:
		unix.Close(fd)
		return -1, false, err
	}
}

func (d *dialer) Address() string {
	return Transport.Scheme() + "://" + d.path
}

func (l *listener) Listen(opts options.Options) error {
	// remove exists socket file
	if stat, err := os.Stat(l.path); err == nil {
		if stat.Mode()&os.ModeSocket != 0 {
			if err := os.Remove(l.path); err != nil {
				return errs.ErrAddrInUse
			}
		} else {
			return errs.ErrAddrInUse
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return err
	}
	if err = unix.Bind(fd, &unix.SockaddrUnix{Name: l.path}); err != nil {
		unix.Close(fd)
		return err
	}
	backlog := transport.OptionListenBacklog.Value(opts.GetOptionDefault(transport.OptionListenBacklog, transport.DefaultListenBacklog))
	if err = unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		os.Remove(l.path)
		return err
	}
	l.fd = fd
	return nil
}

func (l *listener) Fd() int {
	return l.fd
}

func (l *listener) Accept() (int, error) {
	if l.fd < 0 {
		return -1, errs.ErrBadOperateState
	}
	nfd, _, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, err
	}
	return nfd, nil
}

// Close closes the listening descriptor and best-effort removes the
// filesystem bind path.
func (l *listener) Close() error {
	if l.fd < 0 {
		return nil
	}
	err := unix.Close(l.fd)
	l.fd = -1
	os.Remove(l.path)
	return err
}

func (l *listener) Address() string {
	return Transport.Scheme() + "://" + l.path
}
