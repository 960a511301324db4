//go:build linux

package eventsock

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eventsock/eventsock/errs"
	_ "github.com/eventsock/eventsock/transport/all"
)

const testTimeout = 5 * time.Second

func ipcAddr(t *testing.T, name string) string {
	return "ipc://" + filepath.Join(t.TempDir(), name)
}

// echoHandler returns every payload to its sender.
type echoHandler struct{}

func (h *echoHandler) OnEstablish(c *Conn)                      {}
func (h *echoHandler) OnMessageReception(c *Conn, payload []byte) { c.SendMessage(payload) }
func (h *echoHandler) OnClose(c *Conn)                          {}

// closeOnEstablish drops every connection as soon as it is usable.
type closeOnEstablish struct{}

func (h *closeOnEstablish) OnEstablish(c *Conn)                        { c.Close() }
func (h *closeOnEstablish) OnMessageReception(c *Conn, payload []byte) {}
func (h *closeOnEstablish) OnClose(c *Conn)                            {}

// clientProbe records the lifecycle of one client connection.
type clientProbe struct {
	sendOnEstablish []byte
	closeOnMessage  bool

	sync.Mutex
	established int
	closed      int
	received    [][]byte

	msgCh    chan []byte
	closedCh chan struct{}
}

func newClientProbe(send []byte, closeOnMessage bool) *clientProbe {
	return &clientProbe{
		sendOnEstablish: send,
		closeOnMessage:  closeOnMessage,
		msgCh:           make(chan []byte, 16),
		closedCh:        make(chan struct{}),
	}
}

func (p *clientProbe) OnEstablish(c *Conn) {
	p.Lock()
	p.established++
	p.Unlock()
	if p.sendOnEstablish != nil {
		c.SendMessage(p.sendOnEstablish)
	}
}

func (p *clientProbe) OnMessageReception(c *Conn, payload []byte) {
	p.Lock()
	p.received = append(p.received, payload)
	p.Unlock()
	p.msgCh <- payload
	if p.closeOnMessage {
		c.Close()
	}
}

func (p *clientProbe) OnClose(c *Conn) {
	p.Lock()
	p.closed++
	p.Unlock()
	// a second OnClose would panic here, failing the test loudly
	close(p.closedCh)
}

func (p *clientProbe) counts() (established, closed int) {
	p.Lock()
	defer p.Unlock()
	return p.established, p.closed
}

func waitMsg(t *testing.T, p *clientProbe) []byte {
	t.Helper()
	select {
	case payload := <-p.msgCh:
		return payload
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func waitClosed(t *testing.T, p *clientProbe) {
	t.Helper()
	select {
	case <-p.closedCh:
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for close")
	}
}

func reactorRunning(g *Registry) (bool, <-chan struct{}) {
	g.Lock()
	defer g.Unlock()
	return g.running, g.done
}

func waitReactorDown(t *testing.T, g *Registry) {
	t.Helper()
	_, done := reactorRunning(g)
	if done == nil {
		t.Fatal("reactor never started")
	}
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("timeout waiting for reactor exit")
	}
}

func TestEchoRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	addr := ipcAddr(t, "echo.sock")

	srv := NewServer(reg, addr, func() Handler { return &echoHandler{} }, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start error: %s", err)
	}

	probe := newClientProbe([]byte("Test0"), true)
	cli := NewClient(reg, addr, probe, nil)
	if err := cli.Establish(); err != nil {
		t.Fatalf("establish error: %s", err)
	}

	if payload := waitMsg(t, probe); !bytes.Equal(payload, []byte("Test0")) {
		t.Errorf("echo mismatch: %q", payload)
	}
	waitClosed(t, probe)

	if established, closed := probe.counts(); established != 1 || closed != 1 {
		t.Errorf("expected exactly-once lifecycle, got established=%d closed=%d", established, closed)
	}
	if n := reg.Active(); n != 1 {
		t.Errorf("expected the server to remain registered, active=%d", n)
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("stop error: %s", err)
	}
	waitReactorDown(t, reg)

	// the bind path is removed with the listener
	path := strings.TrimPrefix(addr, "ipc://")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("bind path still present: %v", err)
	}
}

func TestHundredClientsNoCrossTalk(t *testing.T) {
	reg := NewRegistry(nil)
	addr := ipcAddr(t, "many.sock")

	srv := NewServer(reg, addr, func() Handler { return &echoHandler{} }, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start error: %s", err)
	}
	defer srv.Stop()

	const n = 100
	probes := make([]*clientProbe, n)
	for i := 0; i < n; i++ {
		probes[i] = newClientProbe([]byte(fmt.Sprintf("Test%d", i)), true)
		cli := NewClient(reg, addr, probes[i], nil)
		if err := cli.Establish(); err != nil {
			t.Fatalf("establish %d error: %s", i, err)
		}
	}

	for i, p := range probes {
		waitClosed(t, p)
		p.Lock()
		if len(p.received) != 1 {
			t.Errorf("client %d: got %d messages", i, len(p.received))
		} else if want := fmt.Sprintf("Test%d", i); string(p.received[0]) != want {
			t.Errorf("client %d: got %q, want %q", i, p.received[0], want)
		}
		p.Unlock()
	}
}

func TestPeerEOFTriggersClose(t *testing.T) {
	reg := NewRegistry(nil)
	addr := ipcAddr(t, "eof.sock")

	srv := NewServer(reg, addr, func() Handler { return &closeOnEstablish{} }, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start error: %s", err)
	}
	defer srv.Stop()

	probe := newClientProbe(nil, false)
	cli := NewClient(reg, addr, probe, nil)
	if err := cli.Establish(); err != nil {
		t.Fatalf("establish error: %s", err)
	}

	// no local Close; the peer's EOF must close us
	waitClosed(t, probe)
	if _, closed := probe.counts(); closed != 1 {
		t.Errorf("expected one close, got %d", closed)
	}
}

func TestLazyReactorLifecycle(t *testing.T) {
	reg := NewRegistry(nil)
	if running, _ := reactorRunning(reg); running {
		t.Fatal("reactor running before any registration")
	}

	srv := NewServer(reg, ipcAddr(t, "lazy1.sock"), func() Handler { return &echoHandler{} }, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start error: %s", err)
	}
	running, done1 := reactorRunning(reg)
	if !running {
		t.Fatal("reactor not running after first registration")
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("stop error: %s", err)
	}
	waitReactorDown(t, reg)
	if running, _ := reactorRunning(reg); running {
		t.Fatal("reactor still marked running after last deregistration")
	}

	// a later registration starts a fresh reactor
	srv2 := NewServer(reg, ipcAddr(t, "lazy2.sock"), func() Handler { return &echoHandler{} }, nil)
	if err := srv2.Start(); err != nil {
		t.Fatalf("restart error: %s", err)
	}
	running, done2 := reactorRunning(reg)
	if !running {
		t.Fatal("reactor not running after re-registration")
	}
	if done1 == done2 {
		t.Fatal("expected a fresh reactor goroutine")
	}
	srv2.Stop()
	waitReactorDown(t, reg)
}

func TestSetupFailures(t *testing.T) {
	reg := NewRegistry(nil)

	t.Run("bad scheme", func(t *testing.T) {
		srv := NewServer(reg, "foo://nowhere", func() Handler { return &echoHandler{} }, nil)
		if err := srv.Start(); err != errs.ErrBadTransport {
			t.Errorf("got %v, want %v", err, errs.ErrBadTransport)
		}
		cli := NewClient(reg, "foo://nowhere", newClientProbe(nil, false), nil)
		if err := cli.Establish(); err != errs.ErrBadTransport {
			t.Errorf("got %v, want %v", err, errs.ErrBadTransport)
		}
	})

	t.Run("bind path is a regular file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "occupied")
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		srv := NewServer(reg, "ipc://"+path, func() Handler { return &echoHandler{} }, nil)
		if err := srv.Start(); err != errs.ErrAddrInUse {
			t.Errorf("got %v, want %v", err, errs.ErrAddrInUse)
		}
	})

	t.Run("dial without listener", func(t *testing.T) {
		cli := NewClient(reg, ipcAddr(t, "nobody.sock"), newClientProbe(nil, false), nil)
		if err := cli.Establish(); err == nil {
			t.Error("expected a synchronous dial error")
		}
		if n := reg.Active(); n != 0 {
			t.Errorf("failed establish left %d registrations", n)
		}
	})
}

func TestClientMisuse(t *testing.T) {
	reg := NewRegistry(nil)
	cli := NewClient(reg, ipcAddr(t, "misuse.sock"), newClientProbe(nil, false), nil)

	if err := cli.SendMessage([]byte("x")); err != errs.ErrNotEstablished {
		t.Errorf("send before establish: got %v", err)
	}
	if err := cli.Close(); err != errs.ErrNotEstablished {
		t.Errorf("close before establish: got %v", err)
	}
}

func TestServerMisuse(t *testing.T) {
	reg := NewRegistry(nil)
	addr := ipcAddr(t, "double.sock")
	srv := NewServer(reg, addr, func() Handler { return &echoHandler{} }, nil)

	if err := srv.Stop(); err != errs.ErrBadOperateState {
		t.Errorf("stop before start: got %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start error: %s", err)
	}
	if err := srv.Start(); err != errs.ErrBadOperateState {
		t.Errorf("double start: got %v", err)
	}
	if err := srv.Stop(); err != nil {
		t.Fatalf("stop error: %s", err)
	}
	waitReactorDown(t, reg)
}
