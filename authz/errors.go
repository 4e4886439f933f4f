package authz

import "errors"

var (
	// ErrRaiseOnAllow is returned when Raise is called on an Allow result
	ErrRaiseOnAllow = errors.New("authz: raise called on allow result")

	// ErrMalformedForbid is returned when a Forbid result carries no error value
	ErrMalformedForbid = errors.New("authz: forbid carried no error value")

	// ErrUnknownOperation is returned by Build when a handler targets an operation
	// the service catalog does not declare
	ErrUnknownOperation = errors.New("authz: unknown operation")

	// ErrHandlerTypeMismatch is returned when a registered handler's input, output
	// or error types differ from the operation it is bound to
	ErrHandlerTypeMismatch = errors.New("authz: handler type mismatch")

	// ErrInvalidDescriptor is returned when a service descriptor fails validation
	ErrInvalidDescriptor = errors.New("authz: invalid service descriptor")
)
