package container

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrBadClassCall       = errors.New("container: bad class call")
	ErrBadDefinitionCall  = errors.New("container: bad definition call")
	ErrBadMethodCall      = errors.New("container: bad method call")
	ErrCircularDependency = errors.New("container: circular dependency")
)

// Error is a container configuration error. Its message is meant for the
// programmer who registered the definitions; Kind tells what went wrong.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func definitionNotFound(name string) *Error {
	return newError(ErrBadDefinitionCall, "Definition \"%s\" doesn't exist.", name)
}
