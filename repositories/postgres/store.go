package postgres

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/upb/endpoint-authz/config"
	"github.com/upb/endpoint-authz/repositories"
	"go.uber.org/zap"
)

// Store owns the connection pools behind the postgres repositories
type Store struct {
	db      *DB
	auditDB *DB // optional separate audit database
	logger  *zap.Logger
}

// NewStore connects to the main and, when configured, the audit database
func NewStore(cfg *config.Config, logger *zap.Logger) (*Store, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, logger: logger}
	if cfg.AuditDatabase != nil {
		auditDB, err := NewDB(*cfg.AuditDatabase, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		s.auditDB = auditDB
	}
	return s, nil
}

// NewStoreFromDB builds a Store over an existing pool
func NewStoreFromDB(db *DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// InitSchema creates tables in every configured database
func (s *Store) InitSchema(ctx context.Context) error {
	if err := s.db.InitSchema(ctx); err != nil {
		return err
	}
	if s.auditDB != nil {
		return s.auditDB.InitAuditSchema(ctx)
	}
	return nil
}

// Repositories creates all repository instances
func (s *Store) Repositories() *repositories.Repositories {
	auditDB := s.db
	if s.auditDB != nil {
		auditDB = s.auditDB
	}
	return &repositories.Repositories{
		Items:     NewItemRepository(s.db, s.logger),
		AuditLogs: NewAuditRepository(auditDB, s.logger),
	}
}

// DB returns the main connection pool
func (s *Store) DB() *DB {
	return s.db
}

// Close closes every pool and reports all failures
func (s *Store) Close() error {
	var result *multierror.Error
	if s.auditDB != nil {
		if err := s.auditDB.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := s.db.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
