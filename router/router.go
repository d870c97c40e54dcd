package router

import (
	"github.com/indigo-web/feather/http/method"
)

type entry struct {
	owner   *Router
	method  method.Method
	path    string
	handler Middleware
}

// Router collects routes under a common prefix with middlewares scoped to them. Groups
// share the route table with their parent, so the registration order is preserved
// across all of them.
type Router struct {
	parent     *Router
	prefix     string
	middleware []Middleware
	table      *[]entry
}

func New(prefix string) *Router {
	return &Router{
		prefix: prefix,
		table:  new([]entry),
	}
}

// Use adds scoped middlewares. They're run before the handler of every route of the
// router and its groups, including routes registered before the call.
func (r *Router) Use(middlewares ...Middleware) *Router {
	r.middleware = append(r.middleware, middlewares...)
	return r
}

// Group returns a child router with the prefix appended to the current one. The child
// inherits the scoped middlewares of the parent, but its own ones don't affect the parent.
func (r *Router) Group(prefix string) *Router {
	return &Router{
		parent: r,
		prefix: prefix,
		table:  r.table,
	}
}

// Route registers the handler for the method and the path pattern.
func (r *Router) Route(m method.Method, path string, handler Middleware) *Router {
	*r.table = append(*r.table, entry{
		owner:   r,
		method:  m,
		path:    path,
		handler: handler,
	})

	return r
}

func (r *Router) Get(path string, handler Middleware) *Router {
	return r.Route(method.GET, path, handler)
}

func (r *Router) Head(path string, handler Middleware) *Router {
	return r.Route(method.HEAD, path, handler)
}

func (r *Router) Post(path string, handler Middleware) *Router {
	return r.Route(method.POST, path, handler)
}

func (r *Router) Put(path string, handler Middleware) *Router {
	return r.Route(method.PUT, path, handler)
}

func (r *Router) Delete(path string, handler Middleware) *Router {
	return r.Route(method.DELETE, path, handler)
}

func (r *Router) Patch(path string, handler Middleware) *Router {
	return r.Route(method.PATCH, path, handler)
}

func (r *Router) Options(path string, handler Middleware) *Router {
	return r.Route(method.OPTIONS, path, handler)
}

// Routes flattens the route table, resolving full paths and chaining scoped middlewares
// before each handler. The extra prefix is prepended to every path.
func (r *Router) Routes(prefix string) []Route {
	routes := make([]Route, 0, len(*r.table))

	for _, e := range *r.table {
		var (
			path        = e.path
			middlewares []Middleware
		)

		for owner := e.owner; owner != nil; owner = owner.parent {
			path = joinPath(owner.prefix, path)
			middlewares = append(owner.middleware[:len(owner.middleware):len(owner.middleware)], middlewares...)
		}

		routes = append(routes, NewRoute(
			e.method,
			joinPath(prefix, path),
			Chain(append(middlewares, e.handler)...),
		))
	}

	return routes
}

func joinPath(prefix, path string) string {
	switch {
	case len(prefix) == 0:
		return path
	case len(path) == 0:
		return prefix
	case prefix[len(prefix)-1] == '/' && path[0] == '/':
		return prefix + path[1:]
	case prefix[len(prefix)-1] != '/' && path[0] != '/':
		return prefix + "/" + path
	default:
		return prefix + path
	}
}
