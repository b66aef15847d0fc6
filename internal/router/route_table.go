// internal/router/route_table.go
package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"mvc-server/internal/component"
	"mvc-server/internal/container"
	"mvc-server/internal/handler"
	"mvc-server/internal/protocol"
)

type ParamRole int

const (
	ParamBound ParamRole = iota
	ParamRequest
	ParamResponse
	ParamContext
)

var (
	requestType  = reflect.TypeFor[*http.Request]()
	responseType = reflect.TypeFor[http.ResponseWriter]()
	contextType  = reflect.TypeFor[context.Context]()
	errorType    = reflect.TypeFor[error]()
)

// Param is one argument of a handler method, receiver excluded.
type Param struct {
	Index int
	Type  reflect.Type
	Role  ParamRole
	// Name is the request parameter a bound argument reads from.
	Name string
}

// Route binds a normalised path to one controller method. The route keeps
// the bean name only; the instance stays owned by the container.
type Route struct {
	Path   string
	Bean   string
	Type   reflect.Type
	Method reflect.Method
	Params []Param
	// ReturnsError is set when the method's single result is an error.
	ReturnsError bool
}

// HandlerRef renders the route target for listings and logs.
func (r *Route) HandlerRef() string {
	return fmt.Sprintf("%s.%s", r.Type.Elem().Name(), r.Method.Name)
}

// Table is the immutable path -> route map produced at bootstrap.
type Table struct {
	routes *handler.Registry[string, *Route]
}

// Match looks up an already normalised path.
func (t *Table) Match(path string) (*Route, bool) {
	return t.routes.Get(path)
}

func (t *Table) Len() int {
	return t.routes.Len()
}

// Routes returns all routes ordered by path.
func (t *Table) Routes() []*Route {
	keys := t.routes.Keys()
	out := make([]*Route, 0, len(keys))
	for _, k := range keys {
		r, _ := t.routes.Get(k)
		out = append(out, r)
	}
	return out
}

// Build walks every controller bean in c and maps its handler markers.
func Build(c *container.Container, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Table{routes: handler.NewRegistry[string, *Route]()}

	for _, bean := range c.Beans() {
		d := bean.Descriptor
		if d == nil || d.Role != component.RoleController {
			continue
		}
		typ := reflect.TypeOf(bean.Instance)
		for _, marker := range d.Handlers {
			route, err := newRoute(typ, *d, marker)
			if err != nil {
				return nil, err
			}
			if err := t.routes.Register(route.Path, route); err != nil {
				if !errors.Is(err, handler.ErrDuplicate) {
					return nil, err
				}
				prev, _ := t.routes.Get(route.Path)
				return nil, fmt.Errorf("%w: %s mapped by both %s and %s",
					protocol.ErrDuplicateRoute, route.Path, prev.HandlerRef(), route.HandlerRef())
			}
			logger.Info("mapped",
				zap.String("path", route.Path),
				zap.String("handler", route.HandlerRef()),
			)
		}
	}
	return t, nil
}

func newRoute(typ reflect.Type, d component.Descriptor, marker component.HandlerMarker) (*Route, error) {
	ref := d.ID() + "." + marker.Method
	m, ok := typ.MethodByName(marker.Method)
	if !ok {
		return nil, fmt.Errorf("%w: %s", protocol.ErrHandlerNotFound, ref)
	}

	mt := m.Type
	if mt.IsVariadic() {
		return nil, fmt.Errorf("%w: %s is variadic", protocol.ErrInvalidHandler, ref)
	}
	returnsError := false
	switch {
	case mt.NumOut() == 0:
	case mt.NumOut() == 1 && mt.Out(0) == errorType:
		returnsError = true
	default:
		return nil, fmt.Errorf("%w: %s must return nothing or a single error", protocol.ErrInvalidHandler, ref)
	}

	params := make([]Param, 0, mt.NumIn()-1)
	bound := 0
	for i := 1; i < mt.NumIn(); i++ {
		p := Param{Index: i - 1, Type: mt.In(i)}
		switch p.Type {
		case requestType:
			p.Role = ParamRequest
		case responseType:
			p.Role = ParamResponse
		case contextType:
			p.Role = ParamContext
		default:
			p.Role = ParamBound
			p.Name = bindingName(marker.Params, bound)
			bound++
		}
		params = append(params, p)
	}
	if len(marker.Params) > bound {
		return nil, fmt.Errorf("%w: %s names %d parameters but binds %d",
			protocol.ErrInvalidHandler, ref, len(marker.Params), bound)
	}

	return &Route{
		Path:         Join(d.Path, marker.Path),
		Bean:         component.LowerFirst(d.Name),
		Type:         typ,
		Method:       m,
		Params:       params,
		ReturnsError: returnsError,
	}, nil
}

// bindingName picks the declared name of the n-th bound parameter. Without
// one the positional name argN is used.
func bindingName(names []string, n int) string {
	if n < len(names) {
		if name := strings.TrimSpace(names[n]); name != "" {
			return name
		}
	}
	return fmt.Sprintf("arg%d", n)
}
