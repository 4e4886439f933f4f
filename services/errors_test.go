package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "item not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "item not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.Nil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "item not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: item not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
	assert.ErrorIs(t, domainErr, baseErr)
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same sentinel", ErrItemNotFound, ErrItemNotFound, true},
		{"same type different message", ErrInvalidToken, ErrUnauthorized, true},
		{"different type", ErrUnauthorized, ErrForbidden, false},
		{"wrapped with fmt", fmt.Errorf("delete: %w", ErrUnauthorized), ErrUnauthorized, true},
		{"plain error target", ErrUnauthorized, errors.New("unauthorized"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	withID := ErrItemNotFound.WithDetail("id", int64(7))

	assert.Equal(t, int64(7), withID.Details["id"])
	assert.Nil(t, ErrItemNotFound.Details, "sentinel must stay untouched")
	assert.ErrorIs(t, withID, ErrItemNotFound)

	both := withID.WithDetail("owner", "alice")
	assert.Len(t, both.Details, 2)
	assert.Len(t, withID.Details, 1)
}

func TestErrorTypeCheckers(t *testing.T) {
	checkers := map[ErrorType]func(error) bool{
		ErrorTypeNotFound:     IsNotFoundError,
		ErrorTypeValidation:   IsValidationError,
		ErrorTypeUnauthorized: IsUnauthorizedError,
		ErrorTypeForbidden:    IsForbiddenError,
		ErrorTypeConflict:     IsConflictError,
		ErrorTypeUnavailable:  IsUnavailableError,
		ErrorTypeInternal:     IsInternalError,
	}

	for errType, check := range checkers {
		t.Run(string(errType), func(t *testing.T) {
			err := fmt.Errorf("context: %w", NewDomainError(errType, "x", nil))
			assert.True(t, check(err))
			assert.False(t, check(errors.New("plain")))
			assert.False(t, check(nil))

			for other, otherCheck := range checkers {
				if other != errType {
					assert.False(t, otherCheck(err), "%s matched %s", other, errType)
				}
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeForbidden, GetErrorType(ErrInsufficientPermissions))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}

func TestGetErrorDetails(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrItemNotFound.WithDetail("id", 3))
	assert.Equal(t, map[string]interface{}{"id": 3}, GetErrorDetails(err))
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}

func TestWrapError(t *testing.T) {
	base := errors.New("connection refused")

	err := WrapError(ErrorTypeUnavailable, "store unavailable", base)
	require.True(t, IsUnavailableError(err))
	assert.ErrorIs(t, err, base)

	internal := WrapInternal("failed to list items", base)
	assert.True(t, IsInternalError(internal))
	assert.Contains(t, internal.Error(), "failed to list items")
}

func TestSentinelsAreDefined(t *testing.T) {
	sentinels := []*DomainError{
		ErrItemNotFound, ErrAuditLogNotFound, ErrInvalidInput, ErrEmptyTitle,
		ErrUnauthorized, ErrInvalidToken, ErrTokenExpired, ErrForbidden,
		ErrInsufficientPermissions, ErrDuplicateItem, ErrAuditBufferFull,
		ErrAuditStopped, ErrInternal, ErrDatabaseError, ErrTransactionFailed,
	}
	for _, s := range sentinels {
		assert.NotEmpty(t, s.Type)
		assert.NotEmpty(t, s.Message)
	}
}
