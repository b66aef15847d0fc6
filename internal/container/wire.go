package container

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mvc-server/internal/component"
	"mvc-server/internal/protocol"
)

// InjectTag is the struct tag marking an injectable field.
const InjectTag = "autowired"

// Dependency is one resolved or unresolved field injection.
type Dependency struct {
	Owner    string
	Field    string
	Target   string
	Optional bool
	// Resolved is the primary name of the injected bean; empty when the
	// target was missing.
	Resolved string
}

// parseInjectTag splits `autowired:"name,optional"`.
func parseInjectTag(tag string) (name string, optional bool) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "optional" {
			optional = true
		}
	}
	return name, optional
}

// wire injects every tagged field of every scanned bean. Missing targets
// leave the field at its zero value; with strict set they are collected and
// returned as one error.
func (t *beanTable) wire(strict bool) ([]Dependency, error) {
	var (
		deps    []Dependency
		missing error
	)
	for _, bean := range t.owned {
		if bean.Descriptor == nil {
			continue
		}
		v := reflect.ValueOf(bean.Instance).Elem()
		if v.Kind() != reflect.Struct {
			continue
		}
		typ := v.Type()
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			tag, ok := field.Tag.Lookup(InjectTag)
			if !ok {
				continue
			}
			if !field.IsExported() {
				return nil, fmt.Errorf("%w: %s.%s", protocol.ErrUnexportedField, typ.Name(), field.Name)
			}

			target, optional := parseInjectTag(tag)
			if target == "" {
				target = component.LowerFirst(field.Name)
			}
			dep := Dependency{Owner: bean.Name, Field: field.Name, Target: target, Optional: optional}

			ref, ok := t.names.Get(target)
			if !ok {
				deps = append(deps, dep)
				switch {
				case optional:
					t.logger.Debug("optional dependency absent",
						zap.String("bean", bean.Name),
						zap.String("field", field.Name),
						zap.String("target", target),
					)
				case strict:
					missing = multierr.Append(missing,
						fmt.Errorf("%w: %s.%s wants %q", protocol.ErrMissingDependency, bean.Name, field.Name, target))
				default:
					t.logger.Warn("dependency not found, field left unset",
						zap.String("bean", bean.Name),
						zap.String("field", field.Name),
						zap.String("target", target),
					)
				}
				continue
			}

			value := reflect.ValueOf(ref.Instance)
			if !value.Type().AssignableTo(field.Type) {
				return nil, fmt.Errorf("%w: %s.%s has type %s, bean %q is %s",
					protocol.ErrWiringTypeMismatch, bean.Name, field.Name, field.Type, target, value.Type())
			}
			v.Field(i).Set(value)

			dep.Resolved = ref.Name
			deps = append(deps, dep)
			t.logger.Debug("dependency injected",
				zap.String("bean", bean.Name),
				zap.String("field", field.Name),
				zap.String("target", ref.Name),
			)
		}
	}
	if missing != nil {
		return nil, missing
	}
	return deps, nil
}
