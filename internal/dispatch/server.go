// internal/dispatch/server.go
package dispatch

import (
	"maps"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mvc-server/internal/component"
	"mvc-server/internal/config"
	"mvc-server/internal/container"
	"mvc-server/internal/protocol"
	"mvc-server/internal/router"
)

// ConfigBean is the bean name the loaded configuration is exposed under.
const ConfigBean = "appConfig"

type options struct {
	logger    *zap.Logger
	externals map[string]any
	observer  Observer
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBean exposes an object built outside the catalog, such as a redis
// client, so components can inject it by name.
func WithBean(name string, instance any) Option {
	return func(o *options) { o.externals[name] = instance }
}

func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}

// Server owns the bean container and the route table built from one
// configuration. It is immutable after Bootstrap returns.
type Server struct {
	cfg        *config.AppConfig
	beans      *container.Container
	routes     *router.Table
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// Bootstrap scans the catalog under cfg.ScanPackage, builds and wires every
// component, then maps controller handlers. A scan that finds nothing is
// logged and yields a server that answers 404 to everything.
func Bootstrap(cfg *config.AppConfig, catalog *component.Catalog, opts ...Option) (*Server, error) {
	o := options{externals: map[string]any{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = component.Default
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	externals := maps.Clone(o.externals)
	externals[ConfigBean] = cfg

	descs := catalog.Scan(cfg.ScanPackage)
	if len(descs) == 0 {
		o.logger.Warn("scan package resolves to nothing",
			zap.String("scan_package", cfg.ScanPackage),
			zap.Error(protocol.ErrScanMiss),
		)
	}

	beans, err := container.New(descs, container.Options{
		Strict:    cfg.StrictWiring,
		Externals: externals,
		Logger:    o.logger.Named("container"),
	})
	if err != nil {
		return nil, err
	}

	routes, err := router.Build(beans, o.logger.Named("router"))
	if err != nil {
		return nil, multierr.Append(err, beans.Close())
	}

	o.logger.Info("bootstrap complete",
		zap.String("scan_package", cfg.ScanPackage),
		zap.Int("components", len(descs)),
		zap.Int("beans", len(beans.Names())),
		zap.Int("routes", routes.Len()),
	)

	return &Server{
		cfg:        cfg,
		beans:      beans,
		routes:     routes,
		dispatcher: NewDispatcher(routes, beans, cfg.ContextPath, o.logger.Named("dispatch"), o.observer),
		logger:     o.logger,
	}, nil
}

func (s *Server) Config() *config.AppConfig { return s.cfg }

func (s *Server) Dispatcher() *Dispatcher { return s.dispatcher }

func (s *Server) Beans() *container.Container { return s.beans }

func (s *Server) Routes() []*router.Route { return s.routes.Routes() }

// Close releases every closable bean in reverse initialisation order.
func (s *Server) Close() error {
	return s.beans.Close()
}
