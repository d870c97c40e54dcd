package http1

import (
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/http/proto"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/kv"
	"github.com/indigo-web/utils/strcomp"
)

// Serializer renders responses into a reusable buffer. Not safe for concurrent use.
type Serializer struct {
	buff []byte
	now  func() time.Time
}

func NewSerializer(buff []byte) *Serializer {
	return &Serializer{
		buff: buff[:0],
		now:  time.Now,
	}
}

// Serialize renders the response to the request of the given method. The returned
// slice is valid until the next call.
func (s *Serializer) Serialize(requestMethod method.Method, response *http.Response) []byte {
	s.buff = s.buff[:0]
	s.appendProtocol(response.Protocol)
	s.appendStatus(response.Status)

	var hasDate, hasLength bool

	for _, header := range response.Headers.Expose() {
		if !isSafeHeader(header) {
			continue
		}

		switch {
		case strcomp.EqualFold(header.Key, "date"):
			hasDate = true
		case strcomp.EqualFold(header.Key, "content-length"):
			hasLength = true
		}

		s.appendHeader(header)
	}

	if !hasDate {
		s.appendDate()
	}

	bodyAllowed := status.AllowsBody(response.Status)
	if !hasLength && bodyAllowed {
		s.appendContentLength(len(response.Body))
	}

	s.crlf()

	if requestMethod != method.HEAD && bodyAllowed {
		s.buff = append(s.buff, response.Body...)
	}

	return s.buff
}

// Error renders a response for errors occurred before the request reached the
// application. The connection is always closed afterwards.
func (s *Serializer) Error(code status.Code, message string) []byte {
	s.buff = s.buff[:0]
	s.appendProtocol(proto.HTTP11)
	s.appendStatus(code)
	s.appendKnownHeader("Connection: ", "close")
	s.appendKnownHeader("Content-Type: ", "text/plain")
	s.appendKnownHeader("X-Content-Type-Options: ", "nosniff")
	s.appendKnownHeader("X-Frame-Options: ", "DENY")
	s.appendDate()
	s.appendContentLength(len(message))
	s.crlf()
	s.buff = append(s.buff, message...)

	return s.buff
}

func (s *Serializer) appendProtocol(protocol proto.Protocol) {
	if protocol == proto.Unknown {
		protocol = proto.HTTP11
	}

	s.buff = append(s.buff, protocol.String()...)
	s.sp()
}

func (s *Serializer) appendStatus(code status.Code) {
	s.buff = status.AppendCode(s.buff, code)
	s.sp()
	s.buff = append(s.buff, status.Text(code)...)
	s.crlf()
}

// appendHeader writes a complete header field line.
func (s *Serializer) appendHeader(header kv.Pair) {
	s.buff = append(s.buff, header.Key...)
	s.colonsp()
	s.buff = append(s.buff, header.Value...)
	s.crlf()
}

// isSafeHeader rejects fields which would break the message framing, as they may carry
// values echoed from the request.
func isSafeHeader(header kv.Pair) bool {
	return isToken(header.Key) && !strings.ContainsAny(header.Value, "\r\n")
}

// appendKnownHeader differs from appendHeader only by the fact that the key is known to already
// have a colon and a space included.
func (s *Serializer) appendKnownHeader(key, value string) {
	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, value...)
	s.crlf()
}

func (s *Serializer) appendDate() {
	s.buff = append(s.buff, "Date: "...)
	s.buff = s.now().UTC().AppendFormat(s.buff, http.DateFormat)
	s.crlf()
}

func (s *Serializer) appendContentLength(value int) {
	s.buff = append(s.buff, "Content-Length: "...)
	s.buff = strconv.AppendInt(s.buff, int64(value), 10)
	s.crlf()
}

func (s *Serializer) sp() {
	s.buff = append(s.buff, ' ')
}

func (s *Serializer) colonsp() {
	s.buff = append(s.buff, ':', ' ')
}

const crlf = "\r\n"

func (s *Serializer) crlf() {
	s.buff = append(s.buff, crlf...)
}
