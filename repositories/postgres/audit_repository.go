package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

const auditColumns = `id, action, service_id, operation, principal, details, ip_address, user_agent, request_id, timestamp`

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `INSERT INTO audit_logs (` + auditColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	var details interface{}
	if len(log.Details) > 0 {
		details = []byte(log.Details)
	}

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.Action,
		log.ServiceID,
		log.Operation,
		log.Principal,
		details,
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted",
		zap.String("id", log.ID.String()),
		zap.String("operation", log.Operation))
	return nil
}

// GetByID retrieves an audit log by ID
func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id = $1`

	log, err := scanAuditLog(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	return log, err
}

// ListByOperation returns the newest entries for an operation id
func (r *AuditRepository) ListByOperation(ctx context.Context, operation string, limit, offset int) ([]*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE operation = $1 ORDER BY timestamp DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, operation, limit, offset)
}

// ListByPrincipal returns the newest entries for a principal
func (r *AuditRepository) ListByPrincipal(ctx context.Context, principal string, limit, offset int) ([]*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE principal = $1 ORDER BY timestamp DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, principal, limit, offset)
}

func (r *AuditRepository) list(ctx context.Context, query, key string, limit, offset int) ([]*models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, query, key, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}
	return logs, nil
}

func scanAuditLog(row rowScanner) (*models.AuditLog, error) {
	log := &models.AuditLog{}
	var details []byte
	var ip, ua, requestID sql.NullString
	err := row.Scan(
		&log.ID,
		&log.Action,
		&log.ServiceID,
		&log.Operation,
		&log.Principal,
		&details,
		&ip,
		&ua,
		&requestID,
		&log.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan audit log: %w", err)
	}
	log.Details = details
	log.IPAddress = ip.String
	log.UserAgent = ua.String
	log.RequestID = requestID.String
	return log, nil
}
