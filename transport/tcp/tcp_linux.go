//go:build linux

package tcp

import (
	"net"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/eventsock/eventsock/errs"
	"github.com/eventsock/eventsock/options"
	"github.com/eventsock/eventsock/transport"
)

type (
	dialer struct {
		addr *net.TCPAddr
	}

	listener struct {
		addr *net.TCPAddr
		fd   int
	}
)

// resolveTCPAddr is like net.ResolveTCPAddr, but it handles the wildcard
// used in nanomsg-style URLs, replacing it with an empty string to
// indicate that all local interfaces be used.
func resolveTCPAddr(addr string) (*net.TCPAddr, error) {
	if strings.HasPrefix(addr, "*") {
		addr = addr[1:]
	}
	return net.ResolveTCPAddr("tcp", addr)
}

// NewDialer implements the Transport NewDialer method.
func (t tcpTran) NewDialer(address string) (transport.Dialer, error) {
	address, err := transport.StripScheme(t, address)
	if err != nil {
		return nil, err
	}
	addr, err := resolveTCPAddr(address)
	if err != nil {
		return nil, err
	}
	return &dialer{addr: addr}, nil
}

// NewListener implements the Transport NewListener method.
func (t tcpTran) NewListener(address string) (transport.Listener, error) {
	address, err := transport.StripScheme(t, address)
	if err != nil {
		return nil, err
	}
	addr, err := resolveTCPAddr(address)
	if err != nil {
		return nil, err
	}
	return &listener{addr: addr, fd: -1}, nil
}

func sockaddr(a *net.TCPAddr) (int, unix.Sockaddr, error) {
	if ip4 := a.IP.To4(); ip4 != nil || len(a.IP) == 0 {
		sa := &unix.SockaddrInet4{Port: a.Port}
		copy(sa.Addr[:], ip4)
		return unix.AF_INET, sa, nil
	}
	if ip6 := a.IP.To16(); ip6 != nil {
		sa := &unix.SockaddrInet6{Port: a.Port}
		copy(sa.Addr[:], ip6)
		return unix.AF_INET6, sa, nil
	}
	return 0, nil, errs.Err("invalid address")
}

func newSocket(a *net.TCPAddr, opts options.Options) (int, unix.Sockaddr, error) {
	family, sa, err := sockaddr(a)
	if err != nil {
		return -1, nil, err
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, nil, err
	}
	if err = configTCP(fd, opts); err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	return fd, sa, nil
}

func configTCP(fd int, opts options.Options) error {
	if val, ok := opts.GetOption(OptionNoDelay); ok && OptionNoDelay.Value(val) {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			return err
		}
	}
	if val, ok := opts.GetOption(OptionKeepAlive); ok && OptionKeepAlive.Value(val) {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
			return err
		}
	}
	return nil
}

func (d *dialer) Dial(opts options.Options) (fd int, pending bool, err error) {
	fd, sa, err := newSocket(d.addr, opts)
	if err != nil {
		return -1, false, err
	}
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
	return Transport.Scheme() + "://" + d.addr.String()
}

func (l *listener) Listen(opts options.Options) error {
	fd, sa, err := newSocket(l.addr, opts)
	if err != nil {
		return err
	}
	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return err
	}
	if err = unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		if err == unix.EADDRINUSE {
			return errs.ErrAddrInUse
		}
		return err
	}
	backlog := transport.OptionListenBacklog.Value(opts.GetOptionDefault(transport.OptionListenBacklog, transport.DefaultListenBacklog))
	if err = unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
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

func (l *listener) Close() error {
	if l.fd < 0 {
		return nil
	}
	err := unix.Close(l.fd)
	l.fd = -1
	return err
}

func (l *listener) Address() string {
	return Transport.Scheme() + "://" + l.addr.String()
}
