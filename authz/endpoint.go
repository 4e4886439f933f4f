package authz

import (
	"context"
	"fmt"
	"maps"
)

// Hints is the free-form trait bag attached to an operation in its service catalog.
type Hints map[string]any

// EndpointInfo identifies one operation of a service.
type EndpointInfo struct {
	ServiceID string
	Name      string
	hints     Hints
}

// NewEndpointInfo creates an EndpointInfo. hints is copied.
func NewEndpointInfo(serviceID, name string, hints Hints) EndpointInfo {
	return EndpointInfo{
		ServiceID: serviceID,
		Name:      name,
		hints:     maps.Clone(hints),
	}
}

// OperationID returns "<service>.<operation>".
func (e EndpointInfo) OperationID() string {
	return e.ServiceID + "." + e.Name
}

// Hint returns a single hint value
func (e EndpointInfo) Hint(key string) (any, bool) {
	v, ok := e.hints[key]
	return v, ok
}

// HasHint reports whether the hint is present
func (e EndpointInfo) HasHint(key string) bool {
	_, ok := e.hints[key]
	return ok
}

// Hints returns a copy of the hint bag
func (e EndpointInfo) Hints() Hints {
	return maps.Clone(e.hints)
}

func (e EndpointInfo) String() string {
	return e.OperationID()
}

// Endpoint is the business logic of a single operation.
type Endpoint[I, O any] func(ctx context.Context, in I) (O, error)

// Operation is a typed descriptor: an EndpointInfo bound to the operation's
// input, output and declared error types.
type Operation[I, O any, E error] struct {
	info EndpointInfo
}

// NewOperation declares an operation of service serviceID.
func NewOperation[I, O any, E error](serviceID, name string, hints Hints) Operation[I, O, E] {
	return Operation[I, O, E]{info: NewEndpointInfo(serviceID, name, hints)}
}

// Info returns the operation's descriptor
func (o Operation[I, O, E]) Info() EndpointInfo {
	return o.info
}

// ID returns the operation id
func (o Operation[I, O, E]) ID() string {
	return o.info.OperationID()
}

// ServiceDescriptor is the static operation catalog of a service together with
// the glue that rebuilds the service from intercepted endpoints.
type ServiceDescriptor[S any] struct {
	ID         string
	Operations []EndpointInfo

	// Wrap returns an S whose every operation is routed through Intercept.
	Wrap func(impl S, ic Interceptor) S
}

// Validate checks the catalog for empty names, foreign service ids and duplicates
func (d ServiceDescriptor[S]) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty service id", ErrInvalidDescriptor)
	}
	if d.Wrap == nil {
		return fmt.Errorf("%w: %s has no Wrap function", ErrInvalidDescriptor, d.ID)
	}
	seen := make(map[string]struct{}, len(d.Operations))
	for _, op := range d.Operations {
		if op.Name == "" {
			return fmt.Errorf("%w: %s declares an unnamed operation", ErrInvalidDescriptor, d.ID)
		}
		if op.ServiceID != d.ID {
			return fmt.Errorf("%w: operation %s does not belong to %s", ErrInvalidDescriptor, op.OperationID(), d.ID)
		}
		if _, dup := seen[op.OperationID()]; dup {
			return fmt.Errorf("%w: duplicate operation %s", ErrInvalidDescriptor, op.OperationID())
		}
		seen[op.OperationID()] = struct{}{}
	}
	return nil
}

// Lookup finds an operation by id
func (d ServiceDescriptor[S]) Lookup(operationID string) (EndpointInfo, bool) {
	for _, op := range d.Operations {
		if op.OperationID() == operationID {
			return op, true
		}
	}
	return EndpointInfo{}, false
}
