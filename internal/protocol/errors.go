package protocol

import (
	"errors"
	"fmt"
)

// Bootstrap failures. Anything below except ErrScanMiss aborts startup.
var (
	ErrScanMiss              = errors.New("scan package resolves to nothing")
	ErrInstantiation         = errors.New("instantiation failure")
	ErrDuplicateAliasBinding = errors.New("duplicate alias binding")
	ErrDuplicateBean         = errors.New("duplicate bean name")
	ErrMissingDependency     = errors.New("missing dependency")
	ErrWiringTypeMismatch    = errors.New("wiring type mismatch")
	ErrUnexportedField       = errors.New("autowired field is not exported")
	ErrDependencyCycle       = errors.New("dependency cycle")
	ErrHandlerNotFound       = errors.New("handler method not found")
	ErrInvalidHandler        = errors.New("invalid handler signature")
	ErrDuplicateRoute        = errors.New("duplicate route")
	ErrBeanNotFound          = errors.New("bean not found")
)

// Request failures.
var (
	ErrRouteMiss = errors.New("route not found")
)

// BindError reports a request parameter that could not be coerced into the
// handler's declared argument type.
type BindError struct {
	Param string
	Value string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind parameter %q from %q: %v", e.Param, e.Value, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// InvokeError reports a handler that returned an error or panicked.
type InvokeError struct {
	Route string
	Err   error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Route, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// PanicError carries a value recovered from a panicking handler.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
