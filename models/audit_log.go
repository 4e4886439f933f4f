package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionEndpointCall AuditAction = "endpoint_call"
	AuditActionTokenIssued  AuditAction = "token_issued"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Action    AuditAction     `json:"action" db:"action"`
	ServiceID string          `json:"service_id" db:"service_id"`
	Operation string          `json:"operation" db:"operation"` // "<service>.<operation>"
	Principal string          `json:"principal" db:"principal"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress string          `json:"ip_address" db:"ip_address"`
	UserAgent string          `json:"user_agent" db:"user_agent"`
	RequestID string          `json:"request_id" db:"request_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, serviceID, operation string) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		Action:    action,
		ServiceID: serviceID,
		Operation: operation,
		Principal: "anonymous",
		Timestamp: time.Now(),
	}
}

// WithSession records who made the call
func (a *AuditLog) WithSession(s Session) *AuditLog {
	a.Principal = s.Principal()
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}
