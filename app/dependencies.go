package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/upb/endpoint-authz/authz"
	"github.com/upb/endpoint-authz/config"
	"github.com/upb/endpoint-authz/handlers"
	"github.com/upb/endpoint-authz/internal/observability"
	"github.com/upb/endpoint-authz/middleware"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/repositories"
	"github.com/upb/endpoint-authz/repositories/memory"
	"github.com/upb/endpoint-authz/repositories/postgres"
	"github.com/upb/endpoint-authz/services"
	"github.com/upb/endpoint-authz/services/audit"
	"github.com/upb/endpoint-authz/services/items"
	"github.com/upb/endpoint-authz/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	Store  *postgres.Store // nil with the in-memory store

	// Repositories
	Repos *repositories.Repositories

	// Services
	Audit *audit.AuditService // nil when auditing is disabled

	// Auth
	Tokens *token.Validator
	Issuer *token.Issuer

	// Items is the authorized items API, served under /items
	Items *authz.Auth[models.Session, items.Service]
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	if err := deps.initAudit(); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize audit: %w", err)
	}

	deps.initTokens()

	if err := deps.initItems(); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize items api: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("audit", deps.Audit != nil))
	return deps, nil
}

// initStore opens the configured persistence backend
func (d *Dependencies) initStore(ctx context.Context) error {
	if !d.Config.UsesPostgres() {
		d.Repos = &repositories.Repositories{
			Items:     memory.NewItemRepository(),
			AuditLogs: memory.NewAuditRepository(),
		}
		d.Logger.Info("using in-memory store")
		return nil
	}

	store, err := postgres.NewStore(d.Config, d.Logger)
	if err != nil {
		return err
	}
	if d.Config.Store.InitSchema {
		if err := store.InitSchema(ctx); err != nil {
			_ = store.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	d.Store = store
	d.Repos = store.Repositories()
	return nil
}

func (d *Dependencies) initAudit() error {
	if !d.Config.Audit.Enabled {
		d.Logger.Warn("audit logging disabled")
		return nil
	}

	svc := audit.NewAuditService(d.Repos.AuditLogs, d.Logger, audit.Config{
		BufferSize:  d.Config.Audit.BufferSize,
		WorkerCount: d.Config.Audit.WorkerCount,
	})
	if err := svc.Start(); err != nil {
		return err
	}
	d.Audit = svc
	return nil
}

func (d *Dependencies) initTokens() {
	cfg := token.Config{
		Secret:   []byte(d.Config.Auth.JWTSecret),
		Issuer:   d.Config.Auth.Issuer,
		Audience: d.Config.Auth.Audience,
		TTL:      d.Config.Auth.TokenTTL,
	}
	d.Tokens = token.NewValidator(cfg)
	d.Issuer = token.NewIssuer(cfg)
}

// initItems builds the authorized items API and its HTTP transport
func (d *Dependencies) initItems() error {
	policy := items.NewPolicy(d.Repos.Items, d.Logger)
	extractor := middleware.NewSessionExtractor(d.Tokens, d.Logger)

	builder := authz.OfConstructor(items.Descriptor, items.NewService(d.Repos.Items, d.Logger), extractor.Extractor()).
		WithDefault(policy.Default).
		WithCallback(d.callbacks()).
		WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			handlers.HandleServiceError(w, err, d.Logger)
		}).
		WithLogger(d.Logger)
	for _, h := range policy.Handlers() {
		builder = builder.WithHandler(h)
	}

	auth, err := builder.Build(handlers.ItemTransport(d.Logger))
	if err != nil {
		return err
	}
	d.Items = auth
	return nil
}

// callbacks chains every endpoint-call observer. Metrics always run; the
// first failure is returned.
func (d *Dependencies) callbacks() authz.Callback[models.Session] {
	chain := []authz.Callback[models.Session]{observability.Callback()}
	if d.Audit != nil {
		chain = append(chain, d.Audit.Callback())
	}
	return func(ctx context.Context, info authz.EndpointInfo, session models.Session) error {
		for _, cb := range chain {
			if err := cb(ctx, info, session); err != nil {
				return err
			}
		}
		return nil
	}
}

// SQLDB returns the main pool, or nil with the in-memory store
func (d *Dependencies) SQLDB() *sql.DB {
	if d.Store == nil {
		return nil
	}
	return d.Store.DB().DB
}

// AuditStatus returns the audit service for readiness checks, or nil
func (d *Dependencies) AuditStatus() handlers.AuditStatus {
	if d.Audit == nil {
		return nil
	}
	return d.Audit
}

// TokenAuditor returns the audit sink for issued tokens, or nil
func (d *Dependencies) TokenAuditor() handlers.TokenAuditor {
	if d.Audit == nil {
		return nil
	}
	return d.Audit
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var result *multierror.Error

	if d.Audit != nil {
		if err := d.Audit.Stop(d.Config.Audit.StopTimeout); err != nil && !services.IsUnavailableError(err) {
			result = multierror.Append(result, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return result.ErrorOrNil()
}
