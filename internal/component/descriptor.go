// Package component describes the business types the container manages.
//
// Go has no runtime annotations or classpath, so each component type is
// described once by a Descriptor and registered into a Catalog at process
// start, usually from a generated zz_components.go file (see cmd/mvcgen).
// Field level injection markers stay on the type itself as struct tags:
//
//	type DemoAction struct {
//		DemoService service.IDemoService `autowired:""`
//		Counter     *store.VisitCounter  `autowired:"visitCounter,optional"`
//	}
package component

import (
	"reflect"
	"unicode"
	"unicode/utf8"
)

// Role is the class level marker of a component.
type Role int

const (
	RoleNone Role = iota
	RoleController
	RoleService
)

func (r Role) String() string {
	switch r {
	case RoleController:
		return "controller"
	case RoleService:
		return "service"
	default:
		return "none"
	}
}

// Descriptor is the registration record of one component type.
type Descriptor struct {
	// Package is the dotted package the type lives in, e.g. "demo.mvc.action".
	Package string
	// Name is the simple type name, e.g. "DemoAction".
	Name string
	Role Role
	// BeanName is the explicit service name; empty means derived.
	BeanName string
	// Path is the class level route prefix of a controller.
	Path string
	// Implements lists the interfaces a service is additionally
	// registered under.
	Implements []reflect.Type
	// New is the no-argument constructor. It must return a non-nil pointer.
	New      func() any
	Handlers []HandlerMarker
}

// ID is the fully qualified identity of the type.
func (d Descriptor) ID() string {
	if d.Package == "" {
		return d.Name
	}
	return d.Package + "." + d.Name
}

// HandlerMarker is the method level route marker of a controller.
type HandlerMarker struct {
	// Method is the exported method name on the controller's pointer type.
	Method string
	Path   string
	// Params are the binding names of the method's bound parameters in
	// declaration order. Raw request/response parameters are not listed.
	Params []string
}

// AliasName is the fully qualified name an interface alias is registered
// under.
func AliasName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// LowerFirst lower-cases the first letter of a camel-case identifier.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
