package dispatch

import (
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mvc-server/internal/container"
	"mvc-server/internal/protocol"
	"mvc-server/internal/router"
)

// State is the terminal state a dispatch ended in.
type State string

const (
	StateNotFound State = "not_found"
	StateMatched  State = "matched"
	StateInvoked  State = "invoked"
	StateError    State = "error"
)

const TraceHeader = "X-Request-Id"

// Observer receives one call per finished dispatch.
type Observer interface {
	ObserveDispatch(route string, state string, elapsed time.Duration)
}

type Dispatcher struct {
	routes      *router.Table
	beans       *container.Container
	contextPath string
	logger      *zap.Logger
	observer    Observer
}

func NewDispatcher(routes *router.Table, beans *container.Container, contextPath string, logger *zap.Logger, observer Observer) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		routes:      routes,
		beans:       beans,
		contextPath: contextPath,
		logger:      logger,
		observer:    observer,
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.Dispatch(w, r)
}

// Dispatch resolves r to a handler, binds its arguments and invokes it.
// Failures are confined to this request and rendered as a 500 body.
func (d *Dispatcher) Dispatch(w http.ResponseWriter, r *http.Request) State {
	start := time.Now()
	traceID := r.Header.Get(TraceHeader)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	path := router.StripContext(d.contextPath, r.URL.Path)

	route, ok := d.routes.Match(path)
	if !ok {
		writeText(w, http.StatusNotFound, protocol.NotFoundBody)
		d.logger.Debug("no handler for path",
			zap.String("path", path),
			zap.String("method", r.Method),
			zap.Error(protocol.ErrRouteMiss),
			zap.String("trace_id", traceID),
		)
		d.observe("", StateNotFound, start)
		return StateNotFound
	}

	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	err := d.invoke(ww, r, route)
	if err != nil {
		if ww.Status() == 0 {
			writeText(ww, http.StatusInternalServerError, protocol.FailureBody(err))
		} else {
			_, _ = io.WriteString(ww, protocol.FailureBody(err))
		}
		d.logger.Warn("handler error",
			zap.String("path", path),
			zap.String("handler", route.HandlerRef()),
			zap.String("reason", err.Error()),
			zap.String("trace_id", traceID),
		)
		d.observe(route.Path, StateError, start)
		return StateError
	}

	d.logger.Debug("handler invoked",
		zap.String("path", path),
		zap.String("handler", route.HandlerRef()),
		zap.Int("status", ww.Status()),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("trace_id", traceID),
	)
	d.observe(route.Path, StateInvoked, start)
	return StateInvoked
}

func (d *Dispatcher) invoke(w http.ResponseWriter, r *http.Request, route *router.Route) (err error) {
	instance, ok := d.beans.Bean(route.Bean)
	if !ok {
		return fmt.Errorf("%w: %s", protocol.ErrBeanNotFound, route.Bean)
	}

	args := make([]reflect.Value, 0, len(route.Params)+1)
	args = append(args, reflect.ValueOf(instance))
	formParsed := false
	for _, p := range route.Params {
		switch p.Role {
		case router.ParamRequest:
			args = append(args, reflect.ValueOf(r))
		case router.ParamResponse:
			args = append(args, reflect.ValueOf(w))
		case router.ParamContext:
			args = append(args, reflect.ValueOf(r.Context()))
		default:
			if !formParsed {
				if err := r.ParseForm(); err != nil {
					return &protocol.BindError{Param: p.Name, Err: err}
				}
				formParsed = true
			}
			raw := strings.Join(r.Form[p.Name], ",")
			v, err := Bind(p.Type, raw)
			if err != nil {
				return &protocol.BindError{Param: p.Name, Value: raw, Err: err}
			}
			args = append(args, v)
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = &protocol.InvokeError{Route: route.Path, Err: &protocol.PanicError{Value: rec}}
		}
	}()

	out := route.Method.Func.Call(args)
	if route.ReturnsError && !out[0].IsNil() {
		return &protocol.InvokeError{Route: route.Path, Err: out[0].Interface().(error)}
	}
	return nil
}

func (d *Dispatcher) observe(route string, state State, start time.Time) {
	if d.observer == nil {
		return
	}
	d.observer.ObserveDispatch(route, string(state), time.Since(start))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
