package handlers

import (
	"net/http"

	"github.com/upb/endpoint-authz/services"
	"github.com/upb/endpoint-authz/utils"
	"go.uber.org/zap"
)

// statusByType maps domain error types to HTTP statuses
var statusByType = map[services.ErrorType]int{
	services.ErrorTypeNotFound:     http.StatusNotFound,
	services.ErrorTypeValidation:   http.StatusBadRequest,
	services.ErrorTypeUnauthorized: http.StatusUnauthorized,
	services.ErrorTypeForbidden:    http.StatusForbidden,
	services.ErrorTypeConflict:     http.StatusConflict,
	services.ErrorTypeUnavailable:  http.StatusServiceUnavailable,
}

// HandleServiceError maps domain errors to HTTP responses.
// Internal and unknown errors are logged and answered with a generic 500.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	errType := services.GetErrorType(err)
	status, ok := statusByType[errType]
	if !ok {
		logger.Error("internal server error",
			zap.Error(err),
			zap.String("error_type", string(errType)))
		if werr := utils.WriteInternalServerError(w, "An internal error occurred"); werr != nil {
			logger.Error("failed to write internal error response", zap.Error(werr))
		}
		return
	}

	logger.Debug("handled service error",
		zap.String("type", string(errType)),
		zap.Error(err))

	if werr := utils.WriteError(w, status, err.Error(), services.GetErrorDetails(err)); werr != nil {
		logger.Error("failed to write error response",
			zap.Int("status", status),
			zap.Error(werr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		details := make(map[string]interface{})
		for k, v := range utils.GetValidationFields(err) {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
