//go:build linux

package ipc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/eventsock/eventsock/errs"
	"github.com/eventsock/eventsock/options"
)

func newListener(t *testing.T, path string) *listener {
	t.Helper()
	l, err := Transport.NewListener("ipc://" + path)
	require.NoError(t, err)
	return l.(*listener)
}

func TestListenReplacesStaleSocketFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")

	// leave a socket file behind without a listening process
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.Bind(fd, &unix.SockaddrUnix{Name: path}))
	unix.Close(fd)
	_, err = os.Stat(path)
	require.NoError(t, err)

	l := newListener(t, path)
	require.NoError(t, l.Listen(options.NewOptions()))
	defer l.Close()
	assert.GreaterOrEqual(t, l.Fd(), 0)
}

func TestListenRefusesNonSocketPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	l := newListener(t, path)
	assert.Equal(t, errs.ErrAddrInUse, l.Listen(options.NewOptions()))
}

func TestCloseRemovesBindPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.sock")

	l := newListener(t, path)
	require.NoError(t, l.Listen(options.NewOptions()))
	_, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, l.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDialAndAccept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pair.sock")

	l := newListener(t, path)
	require.NoError(t, l.Listen(options.NewOptions()))
	defer l.Close()

	d, err := Transport.NewDialer("ipc://" + path)
	require.NoError(t, err)
	fd, _, err := d.Dial(options.NewOptions())
	require.NoError(t, err)
	defer unix.Close(fd)

	nfd, err := l.Accept()
	require.NoError(t, err)
	defer unix.Close(nfd)

	// both descriptors are non-blocking
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	require.NoError(t, err)
	assert.NotZero(t, flags&unix.O_NONBLOCK)
	flags, err = unix.FcntlInt(uintptr(nfd), unix.F_GETFL, 0)
	require.NoError(t, err)
	assert.NotZero(t, flags&unix.O_NONBLOCK)

	n, err := unix.Write(fd, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	buf := make([]byte, 16)
	n, err = unix.Read(nfd, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
}

func TestDialWithoutListener(t *testing.T) {
	d, err := Transport.NewDialer("ipc://" + filepath.Join(t.TempDir(), "nobody.sock"))
	require.NoError(t, err)
	fd, _, err := d.Dial(options.NewOptions())
	assert.Error(t, err)
	assert.Equal(t, -1, fd)
}
