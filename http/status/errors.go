package status

// HTTPError is an error carrying the status code it must be answered with.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// Errors produced by the connection engine itself. Framing errors are always
// answered with the error's code and a closed connection.
var (
	ErrBadRequest           = NewError(BadRequest, "bad request")
	ErrBadRequestLine       = NewError(BadRequest, "malformed request line")
	ErrMethodNotImplemented = NewError(BadRequest, "unrecognized request method")
	ErrBadHeader            = NewError(BadRequest, "malformed header field")
	ErrTooManyHeaders       = NewError(BadRequest, "too many header fields")
	ErrBadContentLength     = NewError(BadRequest, "invalid content-length")
	ErrURIDecoding          = NewError(BadRequest, "invalid urlencoded sequence")
	ErrBadQuery             = NewError(BadRequest, "bad URI query")
	ErrHeaderFieldsTooLarge = NewError(RequestEntityTooLarge, "headers too large")
	ErrPayloadTooLarge      = NewError(RequestEntityTooLarge, "request body too large")
	ErrNotImplemented       = NewError(NotImplemented, "chunked transfer encoding not supported")
	ErrNotFound             = NewError(NotFound, "not found")
	ErrForbidden            = NewError(Forbidden, "forbidden")
	ErrUnauthorized         = NewError(Unauthorized, "unauthorized")
	ErrInternalServerError  = NewError(InternalServerError, "internal server error")
)
