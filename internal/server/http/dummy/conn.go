// Package dummy provides a mock connection replaying predefined pieces of data.
package dummy

import (
	"io"
	"net"
	"sync"
	"time"
)

var _ net.Conn = new(Conn)

// Conn returns its pieces one per Read call, in order, and io.EOF afterwards. Everything
// written is journaled.
type Conn struct {
	mu       sync.Mutex
	pieces   [][]byte
	pointer  int
	written  []byte
	closed   bool
	readErr  error
	remote   net.Addr
	deadline time.Time
}

func NewConn(pieces ...[]byte) *Conn {
	return &Conn{
		pieces: pieces,
		remote: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 31337},
	}
}

// NewConnString does the same as NewConn does, but accepts strings.
func NewConnString(pieces ...string) *Conn {
	bytePieces := make([][]byte, len(pieces))
	for i, piece := range pieces {
		bytePieces[i] = []byte(piece)
	}

	return NewConn(bytePieces...)
}

// FailWith makes reads return the error instead of io.EOF once the pieces are exhausted.
func (c *Conn) FailWith(err error) *Conn {
	c.readErr = err
	return c
}

func (c *Conn) Read(b []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, net.ErrClosed
	}

	if c.pointer >= len(c.pieces) {
		if c.readErr != nil {
			return 0, c.readErr
		}

		return 0, io.EOF
	}

	piece := c.pieces[c.pointer]
	n = copy(b, piece)
	if n < len(piece) {
		c.pieces[c.pointer] = piece[n:]
	} else {
		c.pointer++
	}

	return n, nil
}

func (c *Conn) Write(b []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, net.ErrClosed
	}

	c.written = append(c.written, b...)
	return len(b), nil
}

// Written returns everything written so far.
func (c *Conn) Written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.written)
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5050}
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.remote
}

func (c *Conn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return nil
}

func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.SetDeadline(t)
}

func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.SetDeadline(t)
}
