// Package router maps request paths to services and dispatches each request to the
// handler of the mounted resource that matches its method.
package router

import (
	"context"
	"fmt"
	"sort"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/wire"
)

// Service identifies a family of handlers mounted at one path.
type Service uint8

const (
	ServiceUnknown Service = iota
	ServiceAuth
)

func (s Service) String() string {
	switch s {
	case ServiceAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// HandlerFunc handles one request, filling in resp.
type HandlerFunc func(ctx context.Context, req *wire.Request, resp *wire.Response) error

// Resource is the set of method handlers a service provides.
type Resource interface {
	Get(ctx context.Context, req *wire.Request, resp *wire.Response) error
	Post(ctx context.Context, req *wire.Request, resp *wire.Response) error
	Put(ctx context.Context, req *wire.Request, resp *wire.Response) error
	Delete(ctx context.Context, req *wire.Request, resp *wire.Response) error
	Options(ctx context.Context, req *wire.Request, resp *wire.Response) error
}

var methodTable = map[wire.Method]func(Resource) HandlerFunc{
	wire.MethodGet:     func(r Resource) HandlerFunc { return r.Get },
	wire.MethodPost:    func(r Resource) HandlerFunc { return r.Post },
	wire.MethodPut:     func(r Resource) HandlerFunc { return r.Put },
	wire.MethodDelete:  func(r Resource) HandlerFunc { return r.Delete },
	wire.MethodOptions: func(r Resource) HandlerFunc { return r.Options },
}

// Router is built once at startup and only read afterwards, so it is safe for
// concurrent use once Mount calls are done.
type Router struct {
	routes    map[string]Service
	resources map[Service]Resource
}

// New returns an empty router.
func New() *Router {
	return &Router{
		routes:    make(map[string]Service),
		resources: make(map[Service]Resource),
	}
}

// Mount binds path to svc and svc to res. Paths match exactly, query excluded.
func (r *Router) Mount(path string, svc Service, res Resource) error {
	if svc == ServiceUnknown {
		return fmt.Errorf("mount %s: service must be set", path)
	}
	if res == nil {
		return fmt.Errorf("mount %s: resource for %s is nil", path, svc)
	}
	if path == "" || path[0] != '/' {
		return fmt.Errorf("mount %q: path must start with '/'", path)
	}
	if existing, ok := r.routes[path]; ok {
		return fmt.Errorf("mount %s: path already bound to %s", path, existing)
	}
	r.routes[path] = svc
	r.resources[svc] = res
	return nil
}

// Lookup resolves path to its service. An unbound path yields hanabi.ErrNotFound.
func (r *Router) Lookup(path string) (Service, error) {
	svc, ok := r.routes[path]
	if !ok {
		return ServiceUnknown, fmt.Errorf("lookup %s: %w", path, hanabi.ErrNotFound)
	}
	return svc, nil
}

// Dispatch invokes the handler for req.Method on the resource mounted for svc.
// Methods outside the handler table yield hanabi.ErrMalformedInput.
func (r *Router) Dispatch(ctx context.Context, svc Service, req *wire.Request, resp *wire.Response) error {
	res, ok := r.resources[svc]
	if !ok {
		return fmt.Errorf("dispatch %s: %w: no resource mounted", svc, hanabi.ErrNotFound)
	}
	handler, ok := methodTable[req.Method]
	if !ok {
		return fmt.Errorf("dispatch %s: %w: method %s not supported", svc, hanabi.ErrMalformedInput, req.Method)
	}
	return handler(res)(ctx, req, resp)
}

// Serve routes req by path and dispatches it.
func (r *Router) Serve(ctx context.Context, req *wire.Request, resp *wire.Response) error {
	svc, err := r.Lookup(req.Path)
	if err != nil {
		return err
	}
	return r.Dispatch(ctx, svc, req, resp)
}

// Paths returns the mounted paths in lexical order.
func (r *Router) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
