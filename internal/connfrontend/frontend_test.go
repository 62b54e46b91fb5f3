package connfrontend

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/cluster"
)

func newTestManager(t *testing.T) *cluster.Manager {
	t.Helper()
	m, err := cluster.New(1, false, t.TempDir(), aof.SyncNo, nil, nil)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	return m
}

func TestFrontendRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	fe := New(Config{Addr: "127.0.0.1:0"}, manager)
	require.NoError(t, fe.Start(context.Background()))
	defer fe.Shutdown(time.Second)

	conn, err := net.Dial("tcp", fe.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("*3\r\n$3\r\nSET\r\n$5\r\nhello\r\n$5\r\nworld\r\n"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "+OK\r\n", string(buf[:n]))

	_, err = conn.Write([]byte("*2\r\n$3\r\nGET\r\n$5\r\nhello\r\n"))
	require.NoError(t, err)
	n, err = conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "$5\r\nworld\r\n", string(buf[:n]))
}

func TestFrontendPartialWrite(t *testing.T) {
	manager := newTestManager(t)
	fe := New(Config{Addr: "127.0.0.1:0"}, manager)
	require.NoError(t, fe.Start(context.Background()))
	defer fe.Shutdown(time.Second)

	conn, err := net.Dial("tcp", fe.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("*2\r\n$4\r\nPING\r\n$2\r\nhi"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, err = conn.Read(buf)
	assert.Error(t, err, "server must not reply until the frame completes")

	_, err = conn.Write([]byte("\r\n"))
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "$2\r\nhi\r\n", string(buf[:n]))
}

func TestFrontendMalformedFrameReportsErrorWithoutClosing(t *testing.T) {
	manager := newTestManager(t)
	fe := New(Config{Addr: "127.0.0.1:0"}, manager)
	require.NoError(t, fe.Start(context.Background()))
	defer fe.Shutdown(time.Second)

	conn, err := net.Dial("tcp", fe.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("!nope\r\n"))
	require.NoError(t, err)

	buf := make([]byte, 128)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "-ERR")

	// The connection must still be open: a well-formed command sent right
	// after the malformed frame gets a normal reply, not a reset.
	_, err = conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err = conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "+PONG\r\n", string(buf[:n]))
}

func TestFrontendUnrecoverableLengthClosesConnection(t *testing.T) {
	manager := newTestManager(t)
	fe := New(Config{Addr: "127.0.0.1:0"}, manager)
	require.NoError(t, fe.Start(context.Background()))
	defer fe.Shutdown(time.Second)

	conn, err := net.Dial("tcp", fe.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("$99999999999\r\n"))
	require.NoError(t, err)

	buf := make([]byte, 128)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "-ERR")

	// The connection is closed after an unrecoverable length field: the
	// next read observes EOF rather than a normal reply.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Read(buf)
	assert.Error(t, err)
}
