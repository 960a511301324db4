package transport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventsock/eventsock/transport"
	_ "github.com/eventsock/eventsock/transport/all"
)

func TestParseScheme(t *testing.T) {
	assert.Equal(t, "ipc", transport.ParseScheme("ipc:///tmp/app.sock"))
	assert.Equal(t, "tcp", transport.ParseScheme("tcp://127.0.0.1:7070"))
	assert.Equal(t, "", transport.ParseScheme("no-scheme-here"))
}

func TestGetTransport(t *testing.T) {
	assert.NotNil(t, transport.GetTransport("ipc"))
	assert.NotNil(t, transport.GetTransport("tcp"))
	assert.Nil(t, transport.GetTransport("carrier-pigeon"))

	assert.NotNil(t, transport.GetTransportFromAddr("ipc:///tmp/app.sock"))
	assert.Nil(t, transport.GetTransportFromAddr("foo://nowhere"))
}

func TestStripScheme(t *testing.T) {
	ipc := transport.GetTransport("ipc")

	path, err := transport.StripScheme(ipc, "ipc:///tmp/app.sock")
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/app.sock", path)

	_, err = transport.StripScheme(ipc, "tcp://127.0.0.1:7070")
	assert.Equal(t, transport.ErrBadTran, err)
}
