package relay_test

import (
	"bufio"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onyxnet/internal/relay"
)

func TestStreamConnFraming(t *testing.T) {
	client, server := net.Pipe()
	conn := relay.NewStreamConn(client, relay.Options{})
	defer conn.Close()

	go func() {
		_ = conn.Send([]byte(`{"type":"handshake"}`))
	}()
	line, err := bufio.NewReader(server).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, `{"type":"handshake"}`+"\n", line)

	go func() {
		_, _ = server.Write([]byte("first\r\nsecond"))
		_ = server.Close()
	}()
	got, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	got, err = conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	_, err = conn.Receive()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamConnSkipsOversizedLine(t *testing.T) {
	client, server := net.Pipe()
	conn := relay.NewStreamConn(client, relay.Options{MaxMessageSize: 8})
	defer conn.Close()

	go func() {
		_, _ = server.Write([]byte("0123456789abcdef\nshort\n"))
		_ = server.Close()
	}()
	got, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))

	_, err = conn.Receive()
	assert.ErrorIs(t, err, io.EOF)
}
