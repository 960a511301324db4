package eventsock

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/eventsock/eventsock/errs"
	"github.com/eventsock/eventsock/options"
	"github.com/eventsock/eventsock/transport"
)

// Client is an actively connecting endpoint. It is itself the
// connection handler: the reactor callbacks are delegated to the
// wrapped Handler, with the registry deregistration hooked into
// OnClose. A Client lives from Establish to the OnClose invocation.
type Client struct {
	reg     *Registry
	addr    string
	handler Handler
	opts    options.Options

	sync.Mutex
	conn *Conn
}

// NewClient creates a client for the given target address; nothing
// happens until Establish.
func NewClient(reg *Registry, addr string, h Handler, ovs options.OptionValues) *Client {
	return &Client{
		reg:     reg,
		addr:    addr,
		handler: h,
		opts:    options.NewOptionsWithValues(ovs),
	}
}

// Establish opens a non-blocking descriptor, initiates the connect and
// registers for connect completion. Dial failures are returned
// synchronously; successful establishment is confirmed via the
// handler's OnEstablish.
func (c *Client) Establish() error {
	c.Lock()
	defer c.Unlock()
	if c.conn != nil {
		return errs.ErrBadOperateState
	}

	t := transport.GetTransportFromAddr(c.addr)
	if t == nil {
		return errs.ErrBadTransport
	}
	d, err := t.NewDialer(c.addr)
	if err != nil {
		return err
	}

	r, err := c.reg.registerClient(c)
	if err != nil {
		return err
	}
	fd, pending, err := d.Dial(c.opts)
	if err != nil {
		c.reg.deregisterClient(c)
		return err
	}

	conn := r.NewConn(fd, c)
	c.conn = conn
	r.RegisterConnect(conn)
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithField("domain", "client").
			WithFields(log.Fields{"addr": c.addr, "id": conn.ID(), "pending": pending}).
			Debug("establish")
	}
	return nil
}

// SendMessage enqueues msg for delivery. Messages sent before the
// connect completes are parked and flushed once established.
func (c *Client) SendMessage(msg []byte) error {
	c.Lock()
	conn := c.conn
	c.Unlock()
	if conn == nil {
		return errs.ErrNotEstablished
	}
	return conn.SendMessage(msg)
}

// Close requests an asynchronous closure, confirmed via OnClose.
func (c *Client) Close() error {
	c.Lock()
	conn := c.conn
	c.Unlock()
	if conn == nil {
		return errs.ErrNotEstablished
	}
	return conn.Close()
}

// Address returns the configured target address.
func (c *Client) Address() string {
	return c.addr
}

// OnEstablish implements Handler by delegation.
func (c *Client) OnEstablish(conn *Conn) {
	c.handler.OnEstablish(conn)
}

// OnMessageReception implements Handler by delegation.
func (c *Client) OnMessageReception(conn *Conn, payload []byte) {
	c.handler.OnMessageReception(conn, payload)
}

// OnClose deregisters the client, then notifies the wrapped handler.
// It also fires when a connect attempt fails outright, so a client
// lifecycle always terminates observably.
func (c *Client) OnClose(conn *Conn) {
	c.reg.deregisterClient(c)
	c.handler.OnClose(conn)
}
