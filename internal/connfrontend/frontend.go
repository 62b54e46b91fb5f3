// Package connfrontend accepts RESP2 TCP connections, drives the codec,
// and forwards decoded frames to the cluster manager, mirroring the
// teacher's accept/handle/shutdown shape in internal/server but speaking
// the codec directly instead of going through a bufio.Reader-based
// command parser (spec.md §4.9).
package connfrontend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shardkv/shardkv/internal/cluster"
	"github.com/shardkv/shardkv/internal/protocol"
)

// Config configures the frontend listener.
type Config struct {
	Addr           string
	MaxConnections int
	ReadBufferSize int

	Warnf func(format string, args ...interface{})
	Infof func(format string, args ...interface{})
}

// Frontend accepts TCP connections and dispatches their frames into a
// cluster.Manager, one goroutine per connection.
type Frontend struct {
	config   Config
	manager  *cluster.Manager
	listener net.Listener

	connIDCounter   atomic.Int64
	activeConnCount atomic.Int64

	connMu      sync.Mutex
	connections map[int64]net.Conn

	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New builds a Frontend that routes through manager. It does not start
// listening until Start is called.
func New(config Config, manager *cluster.Manager) *Frontend {
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = 4096
	}
	if config.Warnf == nil {
		config.Warnf = func(string, ...interface{}) {}
	}
	if config.Infof == nil {
		config.Infof = func(string, ...interface{}) {}
	}
	return &Frontend{
		config:      config,
		manager:     manager,
		connections: make(map[int64]net.Conn),
		shutdownCh:  make(chan struct{}),
	}
}

// Start binds the listener and begins accepting connections in the
// background. It returns once the listener is bound.
func (f *Frontend) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", f.config.Addr)
	if err != nil {
		return fmt.Errorf("connfrontend: listen %s: %w", f.config.Addr, err)
	}
	f.listener = listener
	f.config.Infof("connfrontend: listening on %s", f.config.Addr)

	go f.acceptLoop(ctx)
	return nil
}

// Addr reports the bound listener address, useful in tests that bind to
// port 0.
func (f *Frontend) Addr() net.Addr {
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

func (f *Frontend) acceptLoop(ctx context.Context) {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			select {
			case <-f.shutdownCh:
				return
			default:
			}
			select {
			case <-ctx.Done():
				return
			default:
				f.config.Warnf("connfrontend: accept: %v", err)
				continue
			}
		}

		if f.config.MaxConnections > 0 && f.activeConnCount.Load() >= int64(f.config.MaxConnections) {
			f.config.Warnf("connfrontend: max connections reached, rejecting %s", conn.RemoteAddr())
			conn.Close()
			continue
		}

		f.wg.Add(1)
		go f.handleConn(ctx, conn)
	}
}

func (f *Frontend) handleConn(ctx context.Context, conn net.Conn) {
	defer f.wg.Done()

	connID := f.connIDCounter.Add(1)
	f.activeConnCount.Add(1)
	defer f.activeConnCount.Add(-1)

	f.connMu.Lock()
	f.connections[connID] = conn
	f.connMu.Unlock()
	defer func() {
		f.connMu.Lock()
		delete(f.connections, connID)
		f.connMu.Unlock()
		conn.Close()
	}()

	remoteAddr := conn.RemoteAddr().String()

	readBuf := make([]byte, 0, f.config.ReadBufferSize)
	chunk := make([]byte, f.config.ReadBufferSize)

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.shutdownCh:
			return
		default:
		}

		n, err := conn.Read(chunk)
		if n > 0 {
			readBuf = append(readBuf, chunk[:n]...)
		}

		var fatal bool
		readBuf, fatal = f.drainFrames(conn, connID, remoteAddr, readBuf)
		if fatal {
			return
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(readBuf) > 0 {
					f.config.Warnf("connfrontend: connection %d from %s reset with %d unconsumed bytes", connID, remoteAddr, len(readBuf))
				}
				return
			}
			f.config.Warnf("connfrontend: connection %d read error: %v", connID, err)
			return
		}
	}
}

// drainFrames decodes and dispatches every complete frame at the head of
// buf, returning whatever incomplete tail remains. An ordinary malformed
// frame gets its error reply on this connection without closing it (spec.md
// §7): its position can't be trusted to resync from, so decoding stops for
// this read and the buffered bytes are discarded, leaving the connection
// ready for the next request. Only a provably unrecoverable frame — a length
// field beyond protocol.maxBulkLen/maxArrayLen, which no amount of
// additional buffering could ever satisfy — closes the connection.
func (f *Frontend) drainFrames(conn net.Conn, connID int64, remoteAddr string, buf []byte) (tail []byte, fatal bool) {
	var out bytes.Buffer
	for {
		frame, n, err := protocol.Decode(buf)
		if err != nil {
			if err == protocol.ErrIncomplete {
				break
			}
			reply := protocol.ErrorReply(fmt.Sprintf("ERR %v", err))
			out.Write(reply.Encode())
			var perr *protocol.ProtocolError
			if errors.As(err, &perr) && perr.Unrecoverable {
				fatal = true
			}
			buf = buf[len(buf):]
			break
		}

		reply := f.manager.Execute(frame, connID, remoteAddr)
		out.Write(reply.Encode())
		buf = buf[n:]
	}

	if out.Len() > 0 {
		if _, err := conn.Write(out.Bytes()); err != nil {
			f.config.Warnf("connfrontend: connection %d write error: %v", connID, err)
		}
	}

	// Copy the remaining tail into a fresh slice so its backing array isn't
	// shared with the chunk buffer read on the next iteration.
	tail = make([]byte, len(buf))
	copy(tail, buf)
	return tail, fatal
}

// Shutdown closes the listener and every open connection, then waits (up
// to the given timeout) for handler goroutines to exit.
func (f *Frontend) Shutdown(timeout time.Duration) {
	f.shutdownOnce.Do(func() {
		close(f.shutdownCh)
	})

	if f.listener != nil {
		f.listener.Close()
	}

	f.connMu.Lock()
	for _, conn := range f.connections {
		conn.Close()
	}
	f.connMu.Unlock()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.config.Infof("connfrontend: all connections closed")
	case <-time.After(timeout):
		f.config.Warnf("connfrontend: shutdown timeout reached")
	}
}
