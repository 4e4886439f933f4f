package authz

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"github.com/upb/endpoint-authz/utils"
	"go.uber.org/zap"
)

// Extractor derives the authentication context from an inbound request.
// It runs exactly once per request, before any operation code.
type Extractor[A any] func(r *http.Request) (A, error)

// ErrorHandler writes the response for a failed extraction.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// slotKey is the context key of one Auth's request-scoped slot.
type slotKey struct {
	service string
}

type slotValue[A any] struct {
	auth A
}

// Builder assembles an Auth. Registration order matters only for handlers
// targeting the same operation: the last one wins.
type Builder[A, S any] struct {
	desc          ServiceDescriptor[S]
	newService    func(ContextGetter[A]) S
	extract       Extractor[A]
	registrations []Registration[A]
	policy        DefaultPolicy[A]
	callback      Callback[A]
	initial       A
	onError       ErrorHandler
	logger        *zap.Logger
}

// OfImplementation starts a builder around a ready-made service instance.
func OfImplementation[A, S any](desc ServiceDescriptor[S], impl S, extract Extractor[A]) *Builder[A, S] {
	return OfConstructor(desc, func(ContextGetter[A]) S { return impl }, extract)
}

// OfConstructor starts a builder around a service that reads the
// authentication context itself through the getter it is constructed with.
func OfConstructor[A, S any](desc ServiceDescriptor[S], newService func(ContextGetter[A]) S, extract Extractor[A]) *Builder[A, S] {
	return &Builder[A, S]{
		desc:       desc,
		newService: newService,
		extract:    extract,
		onError:    writeUnauthorized,
		logger:     zap.NewNop(),
	}
}

// WithHandler registers a per-operation handler.
func (b *Builder[A, S]) WithHandler(reg Registration[A]) *Builder[A, S] {
	b.registrations = append(b.registrations, reg)
	return b
}

// WithDefault sets the policy for operations without a handler.
func (b *Builder[A, S]) WithDefault(policy DefaultPolicy[A]) *Builder[A, S] {
	b.policy = policy
	return b
}

// WithCallback sets the callback fired after each call is authorized or forbidden.
func (b *Builder[A, S]) WithCallback(cb Callback[A]) *Builder[A, S] {
	b.callback = cb
	return b
}

// WithInitialContext sets the value read when no request slot is present.
func (b *Builder[A, S]) WithInitialContext(auth A) *Builder[A, S] {
	b.initial = auth
	return b
}

// WithErrorHandler replaces the default 401 response for extraction failures.
func (b *Builder[A, S]) WithErrorHandler(fn ErrorHandler) *Builder[A, S] {
	if fn != nil {
		b.onError = fn
	}
	return b
}

// WithLogger sets the logger used while building.
func (b *Builder[A, S]) WithLogger(logger *zap.Logger) *Builder[A, S] {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Build resolves the handler table, wraps the service and mounts transport on
// the result. transport may be nil when only Service is needed.
func (b *Builder[A, S]) Build(transport func(S) http.Handler) (*Auth[A, S], error) {
	if err := b.desc.Validate(); err != nil {
		return nil, err
	}
	if b.extract == nil {
		return nil, fmt.Errorf("%w: %s has no context extractor", ErrInvalidDescriptor, b.desc.ID)
	}

	var unknown *multierror.Error
	for _, reg := range b.registrations {
		if _, ok := b.desc.Lookup(reg.OperationID()); !ok {
			unknown = multierror.Append(unknown, fmt.Errorf("%w: %s", ErrUnknownOperation, reg.OperationID()))
		}
	}
	if err := unknown.ErrorOrNil(); err != nil {
		return nil, err
	}

	a := &Auth[A, S]{
		key:     &slotKey{service: b.desc.ID},
		initial: b.initial,
		extract: b.extract,
		onError: b.onError,
	}

	d := NewDispatcher(a.Context, NewHandlerTable(b.registrations...), b.policy, b.callback)
	svc, err := Dispatch(d, b.desc, b.newService(a.Context))
	if err != nil {
		return nil, err
	}
	a.service = svc
	a.next = http.NotFoundHandler()
	if transport != nil {
		a.next = transport(svc)
	}

	unhandled := lo.FilterMap(b.desc.Operations, func(op EndpointInfo, _ int) (string, bool) {
		return op.OperationID(), !d.Handles(op.OperationID())
	})
	b.logger.Info("endpoint authorization assembled",
		zap.String("service", b.desc.ID),
		zap.Int("operations", len(b.desc.Operations)),
		zap.Int("handlers", len(b.desc.Operations)-len(unhandled)),
		zap.Bool("default_policy", b.policy != nil),
		zap.Bool("callback", b.callback != nil))
	if len(unhandled) > 0 {
		b.logger.Debug("operations using default path",
			zap.String("service", b.desc.ID),
			zap.Strings("operations", unhandled))
	}

	return a, nil
}

// Auth is the assembled request handler: it fills the authentication slot of
// every request and hands the request to the transport.
type Auth[A, S any] struct {
	key     *slotKey
	initial A
	extract Extractor[A]
	onError ErrorHandler
	service S
	next    http.Handler
}

// ServeHTTP implements http.Handler
func (a *Auth[A, S]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth, err := a.extract(r)
	if err != nil {
		a.onError(w, r, err)
		return
	}
	a.next.ServeHTTP(w, r.WithContext(a.WithContext(r.Context(), auth)))
}

// Service returns the dispatched service.
func (a *Auth[A, S]) Service() S {
	return a.service
}

// Context reads the authentication slot of ctx.
func (a *Auth[A, S]) Context(ctx context.Context) A {
	if v, ok := ctx.Value(a.key).(slotValue[A]); ok {
		return v.auth
	}
	return a.initial
}

// WithContext returns a copy of ctx whose slot holds auth.
func (a *Auth[A, S]) WithContext(ctx context.Context, auth A) context.Context {
	return context.WithValue(ctx, a.key, slotValue[A]{auth: auth})
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request, _ error) {
	_ = utils.WriteUnauthorized(w, "Invalid or expired credentials")
}
