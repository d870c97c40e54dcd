package http1

import (
	"strconv"
	"strings"

	"github.com/indigo-web/feather/http"
	"github.com/indigo-web/feather/http/method"
	"github.com/indigo-web/feather/http/proto"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/internal/uridecode"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// Framing describes how the message body is delimited.
type Framing struct {
	// ContentLength is 0 if the header wasn't presented.
	ContentLength int
	// Chunked is set if any of Transfer-Encoding values contains the chunked token.
	Chunked bool
}

// Parser parses complete request header blocks. It holds nothing but limits, so a single
// instance is shared by all connections.
type Parser struct {
	maxHeaders int
}

func NewParser(maxHeaders int) *Parser {
	return &Parser{maxHeaders: maxHeaders}
}

// Parse fills the request from the header block. The block must contain the request line
// and the header fields, excluding the empty line terminating them. The block is copied
// once, so the request never refers to the connection's buffer.
func (p *Parser) Parse(block []byte, request *http.Request) (framing Framing, err error) {
	data := string(block)

	line, data := cutLine(data)
	// empty lines preceding the request line are ignored (RFC 9112, 2.2)
	for len(line) == 0 && len(data) > 0 {
		line, data = cutLine(data)
	}

	if err = parseRequestLine(line, request); err != nil {
		return framing, err
	}

	var (
		headersNumber int
		metLength     bool
	)

	for len(data) > 0 {
		line, data = cutLine(data)
		if len(line) == 0 {
			continue
		}

		if headersNumber++; headersNumber > p.maxHeaders {
			return framing, status.ErrTooManyHeaders
		}

		key, value, err := parseHeader(line)
		if err != nil {
			return framing, err
		}

		request.Headers.Add(key, value)

		switch {
		case strcomp.EqualFold(key, "content-length"):
			length, err := parseContentLength(value)
			if err != nil {
				return framing, err
			}

			if metLength && length != framing.ContentLength {
				return framing, status.ErrBadContentLength
			}

			metLength = true
			framing.ContentLength = length
		case strcomp.EqualFold(key, "transfer-encoding"):
			framing.Chunked = framing.Chunked || http.HasToken(value, "chunked")
		}
	}

	return framing, nil
}

func parseRequestLine(line string, request *http.Request) error {
	rawMethod, rest, found := strings.Cut(line, " ")
	if !found {
		return status.ErrBadRequestLine
	}

	target, protocol, found := strings.Cut(rest, " ")
	if !found || len(target) == 0 || strings.IndexByte(protocol, ' ') != -1 {
		return status.ErrBadRequestLine
	}

	if request.Method = method.Parse(rawMethod); request.Method == method.Unknown {
		return status.ErrMethodNotImplemented
	}

	if request.Protocol = proto.FromBytes(uf.S2B(protocol)); request.Protocol == proto.Unknown {
		return status.ErrBadRequestLine
	}

	request.Target = target
	path, query, _ := strings.Cut(target, "?")
	switch {
	case path == "*" && request.Method == method.OPTIONS:
	case len(path) > 0 && path[0] == '/':
	default:
		return status.ErrBadRequestLine
	}

	decoded, err := uridecode.Decode([]byte(path), nil)
	if err != nil {
		return err
	}

	request.Path = uf.B2S(decoded)
	request.RawQuery = query

	return nil
}

func parseHeader(line string) (key, value string, err error) {
	if line[0] == ' ' || line[0] == '\t' {
		// obsolete line folding (RFC 9112, 5.2)
		return "", "", status.ErrBadHeader
	}

	key, value, found := strings.Cut(line, ":")
	if !found || !isToken(key) {
		return "", "", status.ErrBadHeader
	}

	value = strings.Trim(value, " \t")
	if !isFieldValue(value) {
		return "", "", status.ErrBadHeader
	}

	return key, value, nil
}

// tchar as defined by RFC 9110, 5.6.2.
var tchars = func() (table [256]bool) {
	for c := '0'; c <= '9'; c++ {
		table[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		table[c] = true
		table[c-'a'+'A'] = true
	}
	for _, c := range []byte("!#$%&'*+-.^_`|~") {
		table[c] = true
	}

	return table
}()

func isToken(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		if !tchars[str[i]] {
			return false
		}
	}

	return true
}

// isFieldValue rejects control characters except horizontal tab (RFC 9110, 5.5).
func isFieldValue(str string) bool {
	for i := 0; i < len(str); i++ {
		if c := str[i]; (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}

	return true
}

func parseContentLength(value string) (int, error) {
	if len(value) == 0 || len(value) > 18 {
		return 0, status.ErrBadContentLength
	}

	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, status.ErrBadContentLength
		}
	}

	length, err := strconv.Atoi(value)
	if err != nil {
		return 0, status.ErrBadContentLength
	}

	return length, nil
}

// cutLine returns the first line, stripping either CRLF or bare LF.
func cutLine(data string) (line, rest string) {
	line, rest, _ = strings.Cut(data, "\n")
	return strings.TrimSuffix(line, "\r"), rest
}
