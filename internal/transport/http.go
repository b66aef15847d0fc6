package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mvc-server/internal/dispatch"
	"mvc-server/internal/router"
)

const shutdownTimeout = 5 * time.Second

var ErrPathCollision = errors.New("websocket path collides with a route")

type RouterOptions struct {
	// WebsocketPath enables the frame transport when non-empty.
	WebsocketPath string
	Frames        FrameObserver
	Logger        *zap.Logger
}

// NewRouter funnels every GET and POST request into the dispatcher of app.
func NewRouter(app *dispatch.Server, opts RouterOptions) (*chi.Mux, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(opts.Logger))

	if opts.WebsocketPath != "" {
		wsPath := router.Normalize(opts.WebsocketPath)
		stripped := router.StripContext(app.Config().ContextPath, wsPath)
		for _, route := range app.Routes() {
			if route.Path == stripped {
				return nil, fmt.Errorf("%w: %s is mapped by %s", ErrPathCollision, wsPath, route.HandlerRef())
			}
		}
		r.Get(wsPath, NewWSHandler(app.Dispatcher(), opts.Logger.Named("ws"), opts.Frames).ServeHTTP)
	}

	r.Get("/*", app.Dispatcher().ServeHTTP)
	r.Post("/*", app.Dispatcher().ServeHTTP)
	return r, nil
}

// RequestLogger tags each request with a trace id and logs it once the
// handler returns.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(dispatch.TraceHeader)
			if traceID == "" {
				traceID = uuid.NewString()
				r.Header.Set(dispatch.TraceHeader, traceID)
			}
			w.Header().Set(dispatch.TraceHeader, traceID)

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("addr", r.RemoteAddr),
				zap.String("trace_id", traceID),
			)
		})
	}
}

// NewServer builds an http.Server whose request contexts end with ctx, so
// hijacked websocket connections are closed on shutdown too.
func NewServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}
	return ServeListener(ctx, srv, ln, logger)
}

func ServeListener(ctx context.Context, srv *http.Server, ln net.Listener, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		logger.Info("stopped", zap.String("addr", ln.Addr().String()))
		return err
	}
}
