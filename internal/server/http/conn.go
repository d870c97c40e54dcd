package http

import (
	"bytes"
	"net"
	"slices"
	"time"

	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/status"
)

var _ http.Conn = new(conn)

var headTerminator = []byte("\r\n\r\n")

// conn accumulates data read from the socket. Bytes which don't belong to the current
// request stay in the buffer for the next one.
type conn struct {
	net.Conn
	buff        []byte
	data        []byte
	readTimeout time.Duration
}

func newConn(c net.Conn, buffSize int, readTimeout time.Duration) *conn {
	return &conn{
		Conn:        c,
		buff:        make([]byte, 0, buffSize),
		readTimeout: readTimeout,
	}
}

// Pending returns bytes read from the socket, but not consumed yet.
func (c *conn) Pending() []byte {
	return c.data
}

// readHead returns the request line and header fields, excluding the terminating empty
// line. The returned slice is valid until the next read.
func (c *conn) readHead(maxSize int) ([]byte, error) {
	scanned, skipped := 0, 0

	for {
		if n := leadingEmptyLines(c.data); n > 0 {
			// stray line breaks between requests are ignored (RFC 9112, 2.2)
			c.data = c.data[n:]
			scanned = max(0, scanned-n)
			if skipped += n; skipped > maxSize {
				return nil, status.ErrHeaderFieldsTooLarge
			}
		}

		if i := bytes.Index(c.data[scanned:], headTerminator); i != -1 {
			end := scanned + i
			if end > maxSize {
				return nil, status.ErrHeaderFieldsTooLarge
			}

			head := c.data[:end]
			c.data = c.data[end+len(headTerminator):]
			return head, nil
		}

		if len(c.data) > maxSize {
			return nil, status.ErrHeaderFieldsTooLarge
		}

		// the terminator might be split between reads
		scanned = max(0, len(c.data)-len(headTerminator)+1)

		if err := c.fill(); err != nil {
			return nil, err
		}
	}
}

// leadingEmptyLines returns the number of bytes taken by CRLF or LF sequences at the
// beginning of data. A trailing lone CR isn't counted, as it may be followed by LF.
func leadingEmptyLines(data []byte) (n int) {
	for n < len(data) {
		switch {
		case data[n] == '\n':
			n++
		case data[n] == '\r' && n+1 < len(data) && data[n+1] == '\n':
			n += 2
		default:
			return n
		}
	}

	return n
}

// readBody returns exactly n bytes in a newly allocated slice.
func (c *conn) readBody(n int) ([]byte, error) {
	for len(c.data) < n {
		if err := c.fill(); err != nil {
			return nil, err
		}
	}

	body := make([]byte, n)
	copy(body, c.data)
	c.data = c.data[n:]

	return body, nil
}

// fill reads at least once from the socket, appending to the pending data.
func (c *conn) fill() error {
	if len(c.data) == 0 {
		c.data = c.buff[:0]
	} else if offset := cap(c.buff) - cap(c.data); offset > 0 && len(c.data) < cap(c.buff)/2 {
		// move the pending data to the beginning, as there's no need to grow yet
		n := copy(c.buff[:cap(c.buff)], c.data)
		c.data = c.buff[:n]
	}

	if len(c.data) == cap(c.data) {
		c.data = slices.Grow(c.data, cap(c.data))
		c.buff = c.data[:0]
	}

	if c.readTimeout > 0 {
		if err := c.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return err
		}
	}

	n, err := c.Read(c.data[len(c.data):cap(c.data)])
	c.data = c.data[:len(c.data)+n]
	if n > 0 {
		return nil
	}

	return err
}

func (c *conn) empty() bool {
	return len(c.data) == 0
}
