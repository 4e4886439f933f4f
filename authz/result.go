package authz

import (
	"fmt"
	"reflect"
)

// AuthResult is the outcome of an authorization check: Allow, or Forbid
// carrying the error the operation must fail with.
type AuthResult[E error] struct {
	forbidden bool
	err       E
}

// UncheckedResult is the result type of a DefaultPolicy. Its error is not tied
// to the declared error set of the operation being invoked.
type UncheckedResult = AuthResult[error]

// Allow lets the operation proceed.
func Allow[E error]() AuthResult[E] {
	return AuthResult[E]{}
}

// Forbid stops the operation; err is returned to the caller verbatim.
func Forbid[E error](err E) AuthResult[E] {
	return AuthResult[E]{forbidden: true, err: err}
}

// AllowUnchecked is Allow for default policies.
func AllowUnchecked() UncheckedResult {
	return Allow[error]()
}

// ForbidUnchecked is Forbid for default policies.
func ForbidUnchecked(err error) UncheckedResult {
	return Forbid(err)
}

// Allowed reports whether the result is Allow.
func (r AuthResult[E]) Allowed() bool {
	return !r.forbidden
}

// Forbidden returns the carried error and true if the result is Forbid.
func (r AuthResult[E]) Forbidden() (E, bool) {
	return r.err, r.forbidden
}

// Raise converts a Forbid result into its error.
func (r AuthResult[E]) Raise() error {
	if !r.forbidden {
		return ErrRaiseOnAllow
	}
	var err error = r.err
	if isNilError(err) {
		return fmt.Errorf("%w (%T)", ErrMalformedForbid, r.err)
	}
	return err
}

// raise is Raise with internal failures tagged by the operation id.
func (r AuthResult[E]) raise(operationID string) error {
	err := r.Raise()
	if !r.forbidden || isNilError(error(r.err)) {
		return fmt.Errorf("%s: %w", operationID, err)
	}
	return err
}

func isNilError(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
