// Package service defines the contract between the connection engine and the application.
package service

import "github.com/indigo-web/feather/http"

type Kind uint8

const (
	// KindResponse means the response must be written back to the connection.
	KindResponse Kind = iota
	// KindConsumed means the application took the connection over. The engine must
	// never touch it again.
	KindConsumed
)

func (k Kind) String() string {
	if k == KindConsumed {
		return "consumed"
	}

	return "response"
}

// Result is what the application decided to do with the request.
type Result struct {
	Kind     Kind
	Response *http.Response
}

func Response(resp *http.Response) Result {
	return Result{Kind: KindResponse, Response: resp}
}

func Consumed() Result {
	return Result{Kind: KindConsumed}
}

// Service handles a single fully read request. It's called sequentially per connection,
// but concurrently across connections. Returned error makes the engine respond with
// 500 Internal Server Error and close the connection.
type Service interface {
	Handle(req *http.Request) (Result, error)
}

// Func adapts an ordinary function to the Service interface.
type Func func(req *http.Request) (Result, error)

func (f Func) Handle(req *http.Request) (Result, error) {
	return f(req)
}
