package middleware

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClientInfoKey is the context key for the caller's network details
	ClientInfoKey contextKey = "client_info"
)

// ClientInfo describes where a request came from
type ClientInfo struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	if info, ok := ctx.Value(ClientInfoKey).(ClientInfo); ok && info.RequestID != "" {
		return info.RequestID
	}
	return chimiddleware.GetReqID(ctx)
}

// GetClientInfoFromContext retrieves client details from context
func GetClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(ClientInfoKey).(ClientInfo)
	if info.RequestID == "" {
		info.RequestID = chimiddleware.GetReqID(ctx)
	}
	return info
}

// WithClientInfo adds client details to the context
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, ClientInfoKey, info)
}

// ClientInfoCapture records request id, remote address and user agent.
// Mount it after chi's RequestID and RealIP.
func ClientInfoCapture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClientInfo(r.Context(), ClientInfo{
			RequestID: chimiddleware.GetReqID(r.Context()),
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
