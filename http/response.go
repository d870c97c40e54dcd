package http

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/indigo-web/feather/http/mime"
	"github.com/indigo-web/feather/http/proto"
	"github.com/indigo-web/feather/http/status"
	"github.com/indigo-web/feather/kv"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// DateFormat is the IMF-fixdate layout used by the Date header.
const DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

const preallocRespHeaders = 7

type Response struct {
	Protocol proto.Protocol
	Status   status.Code
	Headers  Headers
	// Body is nil for responses without a body. Prefer body setters to writing it directly,
	// as they keep Content-Length in sync.
	Body []byte
}

// NewResponse returns a new instance of the Response object with status code set to 200 OK
// and no body.
func NewResponse() *Response {
	return &Response{
		Protocol: proto.HTTP11,
		Status:   status.OK,
		Headers:  kv.NewPrealloc(preallocRespHeaders),
	}
}

// Code sets the response status code.
func (r *Response) Code(code status.Code) *Response {
	r.Status = code
	return r
}

// Header adds the values to the key. Already existing values are kept.
func (r *Response) Header(key string, values ...string) *Response {
	for _, value := range values {
		r.Headers.Add(key, value)
	}

	return r
}

// SetHeader replaces all values of the key with the value.
func (r *Response) SetHeader(key, value string) *Response {
	r.Headers.Set(key, value)
	return r
}

// ContentType overrides the Content-Type header.
func (r *Response) ContentType(value mime.MIME) *Response {
	return r.SetHeader("Content-Type", value)
}

// String sets the body to the passed string as plain text.
func (r *Response) String(body string) *Response {
	return r.setBody(uf.S2B(body), mime.Plain)
}

// HTML sets the body to the passed string as html.
func (r *Response) HTML(body string) *Response {
	return r.setBody(uf.S2B(body), mime.HTML)
}

// Bytes sets the body to the passed slice WITHOUT COPYING. Changing the passed slice
// later will affect the response by itself
func (r *Response) Bytes(body []byte) *Response {
	return r.setBody(body, mime.OctetStream)
}

// Write implements io.Writer interface. It always returns n=len(b) and err=nil
func (r *Response) Write(b []byte) (n int, err error) {
	r.setBody(append(r.Body, b...), mime.OctetStream)
	return len(b), nil
}

// TryJSON serializes the model into the body.
func (r *Response) TryJSON(model any) (*Response, error) {
	data, err := json.ConfigCompatibleWithStandardLibrary.Marshal(model)
	if err != nil {
		return r, err
	}

	return r.setBody(data, mime.JSON), nil
}

// JSON does the same as TryJSON does, except returned error is being implicitly wrapped
// by Error
func (r *Response) JSON(model any) *Response {
	resp, err := r.TryJSON(model)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// TryFile reads the whole file into the body. Content-Type is guessed by the extension.
func (r *Response) TryFile(path string) (*Response, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return r, status.ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return r, status.ErrForbidden
	case err != nil:
		return r, status.ErrInternalServerError
	case info.IsDir():
		return r, status.ErrNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return r, status.ErrInternalServerError
	}

	return r.setBody(data, mime.ByExtension(filepath.Ext(path))), nil
}

// File does the same as TryFile does, except returned error is being implicitly wrapped
// by Error
func (r *Response) File(path string) *Response {
	resp, err := r.TryFile(path)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// Reader drains the reader into the body.
func (r *Response) Reader(reader io.Reader) (*Response, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return r, err
	}

	return r.Bytes(data), nil
}

// Error sets the code and the message of the error, if it's a status.HTTPError. Otherwise,
// 500 Internal Server Error is used. If err is nil, nothing happens.
func (r *Response) Error(err error) *Response {
	if err == nil {
		return r
	}

	var httpErr status.HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = status.ErrInternalServerError.(status.HTTPError)
	}

	return r.Code(httpErr.Code).String(httpErr.Message)
}

// Clear resets the response to its initial state, keeping allocated memory.
func (r *Response) Clear() *Response {
	r.Protocol = proto.HTTP11
	r.Status = status.OK
	r.Headers.Clear()
	r.Body = nil
	return r
}

// ConnectionClose tells whether the response asks to close the connection.
func (r *Response) ConnectionClose() bool {
	for _, value := range r.Headers.Values("Connection") {
		if hasToken(value, "close") {
			return true
		}
	}

	return false
}

func (r *Response) setBody(body []byte, contentType mime.MIME) *Response {
	if body == nil {
		body = []byte{}
	}

	r.Body = body
	r.Headers.Set("Content-Length", strconv.Itoa(len(body)))
	if !r.Headers.Has("Content-Type") {
		r.Headers.Add("Content-Type", contentType)
	}
	if !r.Headers.Has("Date") {
		r.Headers.Add("Date", time.Now().UTC().Format(DateFormat))
	}

	return r
}
