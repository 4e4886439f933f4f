package authz

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// ContextGetter reads the authentication context of the current request.
type ContextGetter[A any] func(ctx context.Context) A

// DefaultPolicy authorizes operations that have no registered handler.
// Its errors are returned verbatim whatever the invoked operation declares.
type DefaultPolicy[A any] func(ctx context.Context, info EndpointInfo, auth A) (UncheckedResult, error)

// Callback runs once per call after authorization is resolved.
// A returned error fails the call.
type Callback[A any] func(ctx context.Context, info EndpointInfo, auth A) error

// Registration is anything that can be placed in a HandlerTable.
// EndpointHandler is the only implementation.
type Registration[A any] interface {
	OperationID() string
	bind(d *Dispatcher[A]) any
}

// HandlerTable maps operation ids to handlers.
type HandlerTable[A any] map[string]Registration[A]

// NewHandlerTable folds registrations in order; the last one per operation id wins.
func NewHandlerTable[A any](regs ...Registration[A]) HandlerTable[A] {
	table := make(HandlerTable[A], len(regs))
	for _, reg := range regs {
		table[reg.OperationID()] = reg
	}
	return table
}

// Interceptor is the view of a Dispatcher used by ServiceDescriptor.Wrap.
// It is implemented by *Dispatcher only.
type Interceptor interface {
	handlerFor(operationID string) (any, bool)
	runDefault(ctx context.Context, info EndpointInfo, run func(context.Context) error) error
	bindFailed(err error)
}

// Dispatcher routes every operation call through its handler or the default policy.
// Handlers, policy and callback are fixed at construction.
type Dispatcher[A any] struct {
	getContext ContextGetter[A]
	handlers   map[string]any
	policy     DefaultPolicy[A]
	callback   Callback[A]

	mu       sync.Mutex
	bindErrs *multierror.Error
}

// NewDispatcher creates a Dispatcher. policy and callback may be nil.
func NewDispatcher[A any](getContext ContextGetter[A], table HandlerTable[A], policy DefaultPolicy[A], callback Callback[A]) *Dispatcher[A] {
	if getContext == nil {
		getContext = func(context.Context) A {
			var zero A
			return zero
		}
	}
	d := &Dispatcher[A]{
		getContext: getContext,
		handlers:   make(map[string]any, len(table)),
		policy:     policy,
		callback:   callback,
	}
	for id, reg := range table {
		d.handlers[id] = reg.bind(d)
	}
	return d
}

// Handles reports whether a handler is registered for the operation
func (d *Dispatcher[A]) Handles(operationID string) bool {
	_, ok := d.handlers[operationID]
	return ok
}

// Err returns the binding failures recorded while wrapping services.
func (d *Dispatcher[A]) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bindErrs.ErrorOrNil()
}

func (d *Dispatcher[A]) handlerFor(operationID string) (any, bool) {
	h, ok := d.handlers[operationID]
	return h, ok
}

func (d *Dispatcher[A]) resetBindErrs() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindErrs = nil
}

func (d *Dispatcher[A]) bindFailed(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindErrs = multierror.Append(d.bindErrs, err)
}

func (d *Dispatcher[A]) notify(ctx context.Context, info EndpointInfo, auth A) error {
	if d.callback == nil {
		return nil
	}
	return d.callback(ctx, info, auth)
}

// runDefault handles operations without a registered handler.
func (d *Dispatcher[A]) runDefault(ctx context.Context, info EndpointInfo, run func(context.Context) error) error {
	if d.policy == nil {
		if err := run(ctx); err != nil {
			return err
		}
		// the context is only read when something consumes it
		if d.callback == nil {
			return nil
		}
		return d.callback(ctx, info, d.getContext(ctx))
	}

	auth := d.getContext(ctx)
	res, err := d.policy(ctx, info, auth)
	if err != nil {
		return err
	}
	if err := d.notify(ctx, info, auth); err != nil {
		return err
	}
	if !res.Allowed() {
		return res.raise(info.OperationID())
	}
	return run(ctx)
}

// Intercept wraps the business logic of op so that calls go through ic.
// ServiceDescriptor.Wrap calls it once per operation.
func Intercept[I, O any, E error](ic Interceptor, op Operation[I, O, E], run Endpoint[I, O]) Endpoint[I, O] {
	info := op.Info()

	if entry, ok := ic.handlerFor(info.OperationID()); ok {
		p, ok := entry.(pipeline[I, O, E])
		if !ok {
			err := fmt.Errorf("%w: %s", ErrHandlerTypeMismatch, info.OperationID())
			ic.bindFailed(err)
			return func(context.Context, I) (O, error) {
				var zero O
				return zero, err
			}
		}
		return func(ctx context.Context, in I) (O, error) {
			return p.execute(ctx, in, run)
		}
	}

	return func(ctx context.Context, in I) (O, error) {
		var out O
		err := ic.runDefault(ctx, info, func(ctx context.Context) error {
			var runErr error
			out, runErr = run(ctx, in)
			return runErr
		})
		if err != nil {
			var zero O
			return zero, err
		}
		return out, nil
	}
}

// Dispatch builds the intercepted version of impl. Binding failures of an
// earlier Dispatch on the same dispatcher are not reported again.
func Dispatch[A, S any](d *Dispatcher[A], desc ServiceDescriptor[S], impl S) (S, error) {
	if err := desc.Validate(); err != nil {
		var zero S
		return zero, err
	}
	d.resetBindErrs()
	wrapped := desc.Wrap(impl, d)
	if err := d.Err(); err != nil {
		var zero S
		return zero, err
	}
	return wrapped, nil
}
