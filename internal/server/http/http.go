// Package http implements the per-connection HTTP/1.x state machine.
package http

import (
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/indigo-web/feather/config"
	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/proto"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/internal/metrics"
	"github.com/indigo-web/feather/internal/protocol/http1"
	"github.com/indigo-web/feather/service"
	"go.uber.org/zap"
)

// Handler serves connections, one request at a time per connection. A single Handler
// is shared by all connections.
type Handler struct {
	cfg     *config.Config
	service service.Service
	parser  *http1.Parser
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(cfg *config.Config, svc service.Service, logger *zap.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if m == nil {
		m = metrics.Nop()
	}

	return &Handler{
		cfg:     cfg,
		service: svc,
		parser:  http1.NewParser(cfg.Headers.MaxNumber),
		logger:  logger,
		metrics: m,
	}
}

// Serve runs the connection until it must be closed or was consumed by the application.
// It never closes the connection itself: true is returned if the connection was consumed
// and thereby must not be closed by the caller either.
func (h *Handler) Serve(netConn net.Conn) (consumed bool) {
	var (
		c          = newConn(netConn, h.cfg.NET.ReadBufferSize, h.cfg.NET.ReadTimeout)
		request    = http.NewRequest(c)
		serializer = http1.NewSerializer(make([]byte, 0, h.cfg.NET.ReadBufferSize))
		logger     = h.logger.With(zap.Stringer("remote", netConn.RemoteAddr()))
	)

	for {
		state := h.serveRequest(c, request, serializer, logger)
		logger.Debug("transition", zap.Stringer("state", state))

		switch state {
		case eKeepAlive:
			request.Reset()
		case eConsumed:
			return true
		default:
			return false
		}
	}
}

func (h *Handler) serveRequest(
	c *conn, request *http.Request, serializer *http1.Serializer, logger *zap.Logger,
) connState {
	head, err := c.readHead(h.cfg.Body.MaxSize)
	if err != nil {
		if (errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)) && c.empty() {
			return eClose
		}

		return h.fail(c, serializer, logger, err)
	}

	framing, err := h.parser.Parse(head, request)
	if err != nil {
		return h.fail(c, serializer, logger, err)
	}

	logger.Debug(
		"transition",
		zap.Stringer("state", eReadingBody),
		zap.Stringer("method", request.Method),
		zap.String("path", request.Path),
	)

	if framing.Chunked {
		return h.fail(c, serializer, logger, status.ErrNotImplemented)
	}

	request.State = connectionState(request)

	if framing.ContentLength > h.cfg.Body.MaxSize {
		return h.fail(c, serializer, logger, status.ErrPayloadTooLarge)
	}

	if framing.ContentLength > 0 {
		if request.Body, err = c.readBody(framing.ContentLength); err != nil {
			return h.fail(c, serializer, logger, err)
		}
	}

	logger.Debug("transition", zap.Stringer("state", eDispatching))
	start := time.Now()
	result, err := h.service.Handle(request)
	if request.Hijacked() || (err == nil && result.Kind == service.KindConsumed) {
		h.metrics.ConsumedConns.Inc()
		return eConsumed
	}

	if err != nil {
		logger.Error("service failed", zap.Error(err))
		return h.fail(c, serializer, logger, status.ErrInternalServerError)
	}

	response := result.Response
	if response == nil {
		response = http.NewResponse()
	}

	h.metrics.ObserveRequest(request.Method.String(), int(response.Status), time.Since(start))
	setConnectionHeader(request, response)

	logger.Debug("transition", zap.Stringer("state", eWriting))
	if err = h.write(c, serializer.Serialize(request.Method, response)); err != nil {
		h.ioError(logger, err)
		return eClose
	}

	if request.State == http.Close || response.ConnectionClose() {
		return eClose
	}

	return eKeepAlive
}

// connectionState decides whether the connection persists after the exchange
// (RFC 9112, 9.3).
func connectionState(request *http.Request) http.ConnectionState {
	connection := request.Headers.Values("Connection")

	if request.Protocol == proto.HTTP11 {
		for _, value := range connection {
			if http.HasToken(value, "close") {
				return http.Close
			}
		}

		return http.KeepAlive
	}

	for _, value := range connection {
		if http.HasToken(value, "keep-alive") {
			return http.KeepAlive
		}
	}

	return http.Close
}

func setConnectionHeader(request *http.Request, response *http.Response) {
	if response.Headers.Has("Connection") {
		return
	}

	switch {
	case request.State == http.Close:
		response.Headers.Add("Connection", "close")
	case request.Protocol == proto.HTTP10:
		response.Headers.Add("Connection", "keep-alive")
	}
}

// fail answers with an error response if the error is a status.HTTPError. The connection
// must be closed afterwards in any case.
func (h *Handler) fail(c *conn, serializer *http1.Serializer, logger *zap.Logger, err error) connState {
	var httpErr status.HTTPError
	if !errors.As(err, &httpErr) {
		h.ioError(logger, err)
		return eClose
	}

	logger.Debug("request rejected", zap.Int("code", int(httpErr.Code)), zap.Error(err))
	h.metrics.EngineErrors.WithLabelValues(strconv.Itoa(int(httpErr.Code))).Inc()

	if werr := h.write(c, serializer.Error(httpErr.Code, httpErr.Message)); werr != nil {
		h.ioError(logger, werr)
	}

	return eClose
}

func (h *Handler) write(c *conn, data []byte) error {
	if timeout := h.cfg.NET.WriteTimeout; timeout > 0 {
		if err := c.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}

	_, err := c.Write(data)
	return err
}

func (h *Handler) ioError(logger *zap.Logger, err error) {
	if errors.Is(err, io.EOF) {
		logger.Debug("connection closed by peer")
		return
	}

	kind := http.ClassifyIOError(err)
	h.metrics.IOErrors.WithLabelValues(kind.String()).Inc()
	logger.Debug("connection error", zap.Stringer("kind", kind), zap.Error(err))
}
