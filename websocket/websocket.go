// Package websocket upgrades HTTP/1.1 requests to WebSocket sessions. The session takes
// over the connection and runs synchronously on the worker that served the upgrade
// request, until either side closes it.
package websocket

import (
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"github.com/indigo-web/feather/appctx"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/internal/protocol/http1"
	"github.com/indigo-web/feather/router"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

var (
	ErrNotUpgrade       = errors.New("not a websocket upgrade request")
	ErrBadHandshake     = errors.New("malformed websocket handshake")
	ErrConnNotAvailable = errors.New("connection is not available")
)

type (
	OpenHandler    func(client *Client)
	MessageHandler func(client *Client, op ws.OpCode, payload []byte)
	CloseHandler   func(client *Client, err error)
)

// Client is a single WebSocket session. Writes are safe for concurrent use, reads are
// done by the session loop only.
type Client struct {
	ID   uuid.UUID
	conn net.Conn
	mu   sync.Mutex
}

// Send writes a text message.
func (c *Client) Send(text string) error {
	return c.write(ws.OpText, []byte(text))
}

// SendBinary writes a binary message.
func (c *Client) SendBinary(data []byte) error {
	return c.write(ws.OpBinary, data)
}

// Close sends the normal closure frame and closes the connection. The session loop
// notices it on its next read.
func (c *Client) Close() error {
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	return multierr.Append(c.write(ws.OpClose, body), c.conn.Close())
}

func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Client) write(op ws.OpCode, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return wsutil.WriteServerMessage(c.conn, op, payload)
}

// Socket groups the sessions of one endpoint and dispatches their events to the
// registered handlers.
type Socket struct {
	mu        sync.RWMutex
	clients   map[uuid.UUID]*Client
	onOpen    OpenHandler
	onMessage []MessageHandler
	onClose   CloseHandler
	logger    *zap.Logger
}

func NewSocket(logger *zap.Logger) *Socket {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Socket{
		clients: make(map[uuid.UUID]*Client),
		logger:  logger,
	}
}

func (s *Socket) OnOpen(handler OpenHandler) *Socket {
	s.onOpen = handler
	return s
}

// OnMessage adds a handler for data messages. Handlers are called in the order they
// were added.
func (s *Socket) OnMessage(handler MessageHandler) *Socket {
	s.onMessage = append(s.onMessage, handler)
	return s
}

func (s *Socket) OnClose(handler CloseHandler) *Socket {
	s.onClose = handler
	return s
}

// Clients returns the number of currently open sessions.
func (s *Socket) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.clients)
}

// Broadcast sends the text message to every open session.
func (s *Socket) Broadcast(text string) (err error) {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		err = multierr.Append(err, client.Send(text))
	}

	return err
}

// Handler returns a route middleware upgrading the request. Requests that aren't
// upgrades are answered with 426 Upgrade Required.
func (s *Socket) Handler() router.Middleware {
	return router.Func(func(req *http.Request, resp *http.Response, _ *appctx.Context) (router.Result, error) {
		accept, err := handshake(req)
		switch {
		case errors.Is(err, ErrNotUpgrade):
			resp.SetHeader("Upgrade", "websocket")
			return router.FinishStatus(resp, status.UpgradeRequired, "426 Upgrade Required")
		case err != nil:
			return router.FinishStatus(resp, status.BadRequest, "400 Bad Request")
		}

		conn, ok := req.TakeConn()
		if !ok {
			return router.End, ErrConnNotAvailable
		}

		switching := http.NewResponse().
			Code(status.SwitchingProtocols).
			SetHeader("Upgrade", "websocket").
			SetHeader("Connection", "Upgrade").
			SetHeader("Sec-WebSocket-Accept", accept)

		if _, err = conn.Write(http1.NewSerializer(nil).Serialize(req.Method, switching)); err != nil {
			_ = conn.Close()
			return router.End, nil
		}

		s.serve(conn)
		return router.End, nil
	})
}

func (s *Socket) serve(conn net.Conn) {
	client := &Client{
		ID:   uuid.New(),
		conn: conn,
	}

	s.mu.Lock()
	s.clients[client.ID] = client
	s.mu.Unlock()

	if s.onOpen != nil {
		s.onOpen(client)
	}

	err := s.session(client)

	s.mu.Lock()
	delete(s.clients, client.ID)
	s.mu.Unlock()
	_ = conn.Close()

	if s.onClose != nil {
		s.onClose(client, err)
	}
}

// session reads messages until the connection is closed. Control frames are answered
// under the client's write lock, so replies never interleave with messages sent by other
// goroutines. A clean closure results in a nil error.
func (s *Socket) session(client *Client) error {
	control := client.controlHandler()
	reader := &wsutil.Reader{
		Source:         client.conn,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		OnIntermediate: control,
	}

	for {
		payload, op, err := readMessage(reader, control)
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				return nil
			}

			s.logger.Debug("websocket session ended",
				zap.Stringer("client", client.ID), zap.Error(err))
			return err
		}

		for _, handler := range s.onMessage {
			handler(client, op, payload)
		}
	}
}

func readMessage(reader *wsutil.Reader, control wsutil.FrameHandlerFunc) ([]byte, ws.OpCode, error) {
	for {
		header, err := reader.NextFrame()
		if err != nil {
			return nil, 0, err
		}

		if header.OpCode.IsControl() {
			if err = control(header, reader); err != nil {
				return nil, 0, err
			}

			continue
		}

		if header.OpCode&(ws.OpText|ws.OpBinary) == 0 {
			if err = reader.Discard(); err != nil {
				return nil, 0, err
			}

			continue
		}

		payload, err := io.ReadAll(reader)
		return payload, header.OpCode, err
	}
}

func (c *Client) controlHandler() wsutil.FrameHandlerFunc {
	handle := wsutil.ControlFrameHandler(c.conn, ws.StateServerSide)

	return func(header ws.Header, r io.Reader) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		return handle(header, r)
	}
}

func handshake(req *http.Request) (accept string, err error) {
	if req.Method != method.GET ||
		!http.HasToken(req.Headers.Value("Connection"), "upgrade") ||
		!http.HasToken(req.Headers.Value("Upgrade"), "websocket") {
		return "", ErrNotUpgrade
	}

	if req.Headers.Value("Sec-WebSocket-Version") != "13" {
		return "", ErrBadHandshake
	}

	key := req.Headers.Value("Sec-WebSocket-Key")
	if decoded, err := base64.StdEncoding.DecodeString(key); err != nil || len(decoded) != 16 {
		return "", ErrBadHandshake
	}

	return acceptKey(key), nil
}

func acceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}
