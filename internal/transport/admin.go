package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mvc-server/internal/router"
)

const healthTimeout = 2 * time.Second

type AdminOptions struct {
	Metrics http.Handler
	Routes  func() []*router.Route
	// Health is probed by /healthz when set, typically a redis ping.
	Health func(ctx context.Context) error
	Logger *zap.Logger
}

type routeListing struct {
	Path    string   `json:"path"`
	Handler string   `json:"handler"`
	Bean    string   `json:"bean"`
	Params  []string `json:"params,omitempty"`
}

// NewAdminRouter serves /metrics, /healthz and /routes.
func NewAdminRouter(opts AdminOptions) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := chi.NewRouter()

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Health != nil {
			ctx, cancel := context.WithTimeout(req.Context(), healthTimeout)
			defer cancel()
			if err := opts.Health(ctx); err != nil {
				opts.Logger.Warn("health check failed", zap.String("reason", err.Error()))
				http.Error(w, "UNAVAILABLE: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/routes", func(w http.ResponseWriter, req *http.Request) {
		out := []routeListing{}
		if opts.Routes != nil {
			for _, route := range opts.Routes() {
				out = append(out, listRoute(route))
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			opts.Logger.Warn("encode routes", zap.Error(err))
		}
	})
	return r
}

func listRoute(route *router.Route) routeListing {
	l := routeListing{
		Path:    route.Path,
		Handler: route.HandlerRef(),
		Bean:    route.Bean,
	}
	for _, p := range route.Params {
		if p.Role == router.ParamBound {
			l.Params = append(l.Params, p.Name)
		}
	}
	return l
}
