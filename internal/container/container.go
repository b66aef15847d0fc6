// Package container instantiates scanned components, wires their tagged
// fields and runs their lifecycle hooks. A Container is built once during
// bootstrap and is read-only afterwards; concurrent lookups need no locking.
package container

import (
	"fmt"
	"io"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mvc-server/internal/component"
)

// Initializer is implemented by beans that need work after injection.
// Init runs dependencies first.
type Initializer interface {
	Init() error
}

type Options struct {
	// Strict turns missing non-optional dependencies into a startup error.
	Strict bool
	// Externals are host provided beans registered before any component.
	Externals map[string]any
	Logger    *zap.Logger
}

type Container struct {
	table *beanTable
	order []*Bean
	deps  []Dependency
}

// New instantiates, wires and initialises the given components.
func New(descs []component.Descriptor, opts Options) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	table := newBeanTable(logger)

	names := make([]string, 0, len(opts.Externals))
	for name := range opts.Externals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := table.addExternal(name, opts.Externals[name]); err != nil {
			return nil, err
		}
	}

	for _, d := range descs {
		if err := table.instantiate(d); err != nil {
			return nil, err
		}
	}

	deps, err := table.wire(opts.Strict)
	if err != nil {
		return nil, err
	}

	order, err := initOrder(table.owned, deps)
	if err != nil {
		return nil, err
	}

	c := &Container{table: table, order: order, deps: deps}
	for i, b := range order {
		initializer, ok := b.Instance.(Initializer)
		if !ok {
			continue
		}
		if err := initializer.Init(); err != nil {
			// Release what was already initialised before giving up.
			closeErr := closeBeans(order[:i])
			return nil, multierr.Append(fmt.Errorf("init bean %s: %w", b.Name, err), closeErr)
		}
		logger.Debug("bean initialised", zap.String("bean", b.Name))
	}

	logger.Info("container ready",
		zap.Int("beans", len(order)),
		zap.Int("dependencies", len(deps)),
	)
	return c, nil
}

// Bean returns the instance registered under name or interface alias.
func (c *Container) Bean(name string) (any, bool) {
	b, ok := c.table.names.Get(name)
	if !ok {
		return nil, false
	}
	return b.Instance, true
}

// Lookup returns the bean record registered under name or alias.
func (c *Container) Lookup(name string) (*Bean, bool) {
	return c.table.names.Get(name)
}

// Beans returns the beans in initialisation order.
func (c *Container) Beans() []*Bean {
	out := make([]*Bean, len(c.order))
	copy(out, c.order)
	return out
}

// Names returns every registered name, aliases included, sorted.
func (c *Container) Names() []string {
	return c.table.names.Keys()
}

func (c *Container) Dependencies() []Dependency {
	out := make([]Dependency, len(c.deps))
	copy(out, c.deps)
	return out
}

// Close closes io.Closer beans in reverse initialisation order.
func (c *Container) Close() error {
	return closeBeans(c.order)
}

func closeBeans(beans []*Bean) error {
	var err error
	for i := len(beans) - 1; i >= 0; i-- {
		if beans[i].Descriptor == nil {
			// host owned
			continue
		}
		closer, ok := beans[i].Instance.(io.Closer)
		if !ok {
			continue
		}
		if cerr := closer.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close bean %s: %w", beans[i].Name, cerr))
		}
	}
	return err
}
