package http

import (
	"net"
	"time"

	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/http/proto"
	"github.com/indigo-web/feather/internal/query"
	"github.com/indigo-web/feather/kv"
	json "github.com/json-iterator/go"
)

type (
	Headers = *kv.Storage
	Header  = kv.Pair
	Params  = *kv.Storage
)

// ConnectionState tells whether the connection must be kept after the response is sent.
type ConnectionState uint8

const (
	KeepAlive ConnectionState = iota
	Close
)

func (c ConnectionState) String() string {
	if c == Close {
		return "close"
	}

	return "keep-alive"
}

// Conn is the connection a request arrived from. Pending returns bytes that were already
// read from the socket but don't belong to the current request.
type Conn interface {
	net.Conn
	Pending() []byte
}

// Request represents HTTP request
type Request struct {
	// Method is an enum representing the request method.
	Method method.Method
	// Target is the request target exactly as it was received.
	Target string
	// Path is the decoded path part of the target.
	Path string
	// RawQuery is the query part of the target without the leading question mark, not decoded.
	RawQuery string
	Protocol proto.Protocol
	// Headers holds non-normalized header pairs, even though lookup is case-insensitive.
	Headers Headers
	// Body is fully read before the request reaches any handler. It's owned by the request.
	Body []byte
	// Params are dynamic routing segments. They're populated only after a route matched.
	Params Params
	// Extensions carry typed values attached by middlewares. See SetExtension and Extension.
	Extensions Extensions
	// Remote holds the remote address. Please note that this is generally not a good parameter
	// to identify a user, because there might be proxies in the middle.
	Remote net.Addr
	// State is decided by the engine from the protocol version and the Connection header.
	// Setting it to Close makes the engine close the connection after the response.
	State    ConnectionState
	conn     Conn
	taken    bool
	query    *kv.Storage
	queryErr error
	parsed   bool
}

func NewRequest(conn Conn) *Request {
	req := &Request{
		Protocol: proto.HTTP11,
		Headers:  kv.NewPrealloc(16),
		Params:   kv.New(),
		conn:     conn,
	}

	if conn != nil {
		req.Remote = conn.RemoteAddr()
	}

	return req
}

// Query returns parsed query parameters. The query is parsed once per request on the
// first call, subsequent calls return the same storage and error.
func (r *Request) Query() (*kv.Storage, error) {
	if !r.parsed {
		r.parsed = true
		if r.query == nil {
			r.query = kv.New()
		}

		r.queryErr = query.Parse([]byte(r.RawQuery), r.query)
	}

	return r.query, r.queryErr
}

// Param returns the value of a dynamic path segment, bound by the matched route.
func (r *Request) Param(name string) string {
	return r.Params.Value(name)
}

// JSON decodes the body into the model.
func (r *Request) JSON(model any) error {
	return json.ConfigCompatibleWithStandardLibrary.Unmarshal(r.Body, model)
}

// TakeConn transfers the ownership over the connection to the caller. It succeeds at most
// once per connection. Bytes already read by the engine past the current request are
// returned first by the connection's Read. After the connection was taken, the engine
// never touches it again, including closing it.
func (r *Request) TakeConn() (net.Conn, bool) {
	if r.taken || r.conn == nil {
		return nil, false
	}

	r.taken = true
	conn := r.conn
	r.conn = nil
	// deadlines set while the request was read mustn't affect the new owner
	_ = conn.SetDeadline(time.Time{})

	return newReplayConn(conn, conn.Pending()), true
}

// Hijacked tells whether the connection was taken.
func (r *Request) Hijacked() bool {
	return r.taken
}

// Reset prepares the request for the next exchange on the same connection.
func (r *Request) Reset() {
	r.Method = method.Unknown
	r.Target, r.Path, r.RawQuery = "", "", ""
	r.Headers.Clear()
	r.Params.Clear()
	r.Body = nil
	r.State = KeepAlive
	clear(r.Extensions)
	if r.query != nil {
		r.query.Clear()
	}
	r.queryErr = nil
	r.parsed = false
}

type replayConn struct {
	net.Conn
	pending []byte
}

func newReplayConn(conn net.Conn, pending []byte) net.Conn {
	if len(pending) == 0 {
		return conn
	}

	return &replayConn{
		Conn:    conn,
		pending: append([]byte(nil), pending...),
	}
}

func (r *replayConn) Read(b []byte) (int, error) {
	if len(r.pending) > 0 {
		n := copy(b, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}

	return r.Conn.Read(b)
}
