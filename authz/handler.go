package authz

import "context"

// AuthorizeFunc decides whether an operation may run for the given input and
// authentication context. A non-nil error means the check itself failed.
type AuthorizeFunc[A, I any, E error] func(ctx context.Context, in I, auth A) (AuthResult[E], error)

// TransformFunc post-processes an operation's output.
type TransformFunc[A, I, O any] func(ctx context.Context, in I, auth A, out O) (O, error)

// EndpointHandler bundles the optional authorization and transform steps of
// one operation. Handlers are values; every builder method returns a copy.
type EndpointHandler[A, I, O any, E error] struct {
	op        Operation[I, O, E]
	authorize AuthorizeFunc[A, I, E]
	transform TransformFunc[A, I, O]
}

// For starts a handler for op. With no steps attached it only fires the callback.
func For[A, I, O any, E error](op Operation[I, O, E]) EndpointHandler[A, I, O, E] {
	return EndpointHandler[A, I, O, E]{op: op}
}

// Authorize sets a check that looks at the authentication context only.
func (h EndpointHandler[A, I, O, E]) Authorize(fn func(ctx context.Context, auth A) (AuthResult[E], error)) EndpointHandler[A, I, O, E] {
	h.authorize = func(ctx context.Context, _ I, auth A) (AuthResult[E], error) {
		return fn(ctx, auth)
	}
	return h
}

// AuthorizeWithInput sets a check that also sees the operation input.
func (h EndpointHandler[A, I, O, E]) AuthorizeWithInput(fn AuthorizeFunc[A, I, E]) EndpointHandler[A, I, O, E] {
	h.authorize = fn
	return h
}

// Transform sets an output transform that ignores the input.
func (h EndpointHandler[A, I, O, E]) Transform(fn func(ctx context.Context, auth A, out O) (O, error)) EndpointHandler[A, I, O, E] {
	h.transform = func(ctx context.Context, _ I, auth A, out O) (O, error) {
		return fn(ctx, auth, out)
	}
	return h
}

// TransformWithInput sets an output transform that also sees the input.
func (h EndpointHandler[A, I, O, E]) TransformWithInput(fn TransformFunc[A, I, O]) EndpointHandler[A, I, O, E] {
	h.transform = fn
	return h
}

// OperationID implements Registration
func (h EndpointHandler[A, I, O, E]) OperationID() string {
	return h.op.ID()
}

// Operation returns the operation the handler is attached to
func (h EndpointHandler[A, I, O, E]) Operation() Operation[I, O, E] {
	return h.op
}

func (h EndpointHandler[A, I, O, E]) bind(d *Dispatcher[A]) any {
	return &boundHandler[A, I, O, E]{handler: h, d: d}
}

// pipeline is the typed view of a table entry recovered by Intercept.
type pipeline[I, O any, E error] interface {
	operation() Operation[I, O, E]
	execute(ctx context.Context, in I, run Endpoint[I, O]) (O, error)
}

type boundHandler[A, I, O any, E error] struct {
	handler EndpointHandler[A, I, O, E]
	d       *Dispatcher[A]
}

func (b *boundHandler[A, I, O, E]) operation() Operation[I, O, E] {
	return b.handler.op
}

// execute runs auth -> authorize -> run -> transform -> callback.
func (b *boundHandler[A, I, O, E]) execute(ctx context.Context, in I, run Endpoint[I, O]) (O, error) {
	var zero O
	info := b.handler.op.info
	auth := b.d.getContext(ctx)

	if b.handler.authorize != nil {
		res, err := b.handler.authorize(ctx, in, auth)
		if err != nil {
			return zero, err
		}
		if !res.Allowed() {
			if err := b.d.notify(ctx, info, auth); err != nil {
				return zero, err
			}
			return zero, res.raise(info.OperationID())
		}
	}

	out, err := run(ctx, in)
	if err != nil {
		return zero, err
	}

	if b.handler.transform != nil {
		out, err = b.handler.transform(ctx, in, auth, out)
		if err != nil {
			return zero, err
		}
	}

	if err := b.d.notify(ctx, info, auth); err != nil {
		return zero, err
	}
	return out, nil
}
