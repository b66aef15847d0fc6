package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"mvc-server/internal/component"
	"mvc-server/internal/handler"
	"mvc-server/internal/protocol"
)

// Bean is a named, container owned component instance.
type Bean struct {
	Name     string
	Instance any
	// Descriptor is nil for beans handed in by the host.
	Descriptor *component.Descriptor
}

// beanTable maps bean names and interface aliases to beans. Aliases point at
// the same *Bean as the primary name.
type beanTable struct {
	names  *handler.Registry[string, *Bean]
	owned  []*Bean
	logger *zap.Logger
}

func newBeanTable(logger *zap.Logger) *beanTable {
	return &beanTable{
		names:  handler.NewRegistry[string, *Bean](),
		logger: logger,
	}
}

func (t *beanTable) addExternal(name string, instance any) error {
	if instance == nil {
		return fmt.Errorf("%w: external bean %q is nil", protocol.ErrInstantiation, name)
	}
	return t.add(&Bean{Name: name, Instance: instance})
}

func (t *beanTable) add(b *Bean) error {
	if err := t.names.Register(b.Name, b); err != nil {
		return fmt.Errorf("%w: %s", protocol.ErrDuplicateBean, err)
	}
	t.owned = append(t.owned, b)
	return nil
}

// instantiate creates and registers one scanned component.
func (t *beanTable) instantiate(d component.Descriptor) error {
	var name string
	switch d.Role {
	case component.RoleController:
		name = component.LowerFirst(d.Name)
	case component.RoleService:
		name = strings.TrimSpace(d.BeanName)
		if name == "" {
			name = component.LowerFirst(d.Name)
		}
	default:
		t.logger.Debug("skip component without role", zap.String("component", d.ID()))
		return nil
	}

	instance, err := construct(d)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", protocol.ErrInstantiation, d.ID(), err)
	}

	desc := d
	bean := &Bean{Name: name, Instance: instance, Descriptor: &desc}
	if err := t.add(bean); err != nil {
		return err
	}
	t.logger.Debug("bean registered",
		zap.String("bean", name),
		zap.String("component", d.ID()),
		zap.Stringer("role", d.Role),
	)

	if d.Role != component.RoleService {
		return nil
	}
	for _, iface := range d.Implements {
		if iface == nil || iface.Kind() != reflect.Interface {
			return fmt.Errorf("%w: %s: implements entry %v is not an interface", protocol.ErrInstantiation, d.ID(), iface)
		}
		if !reflect.TypeOf(instance).Implements(iface) {
			return fmt.Errorf("%w: %s does not implement %s", protocol.ErrInstantiation, d.ID(), iface)
		}
		alias := component.AliasName(iface)
		if err := t.names.Register(alias, bean); err != nil {
			return fmt.Errorf("%w: %q claimed by %s: %s", protocol.ErrDuplicateAliasBinding, alias, d.ID(), err)
		}
		t.logger.Debug("alias registered", zap.String("alias", alias), zap.String("bean", name))
	}
	return nil
}

var errNoConstructor = errors.New("no constructor")

func construct(d component.Descriptor) (instance any, err error) {
	if d.New == nil {
		return nil, errNoConstructor
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructor panicked: %v", r)
		}
	}()

	instance = d.New()
	v := reflect.ValueOf(instance)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, fmt.Errorf("constructor returned %T, want a non-nil pointer", instance)
	}
	return instance, nil
}
