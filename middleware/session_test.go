package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/endpoint-authz/models"
	"github.com/upb/endpoint-authz/services"
	"go.uber.org/zap"
)

// MockTokenValidator is a mock implementation of TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateSession(ctx context.Context, token string) (models.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.Session), args.Error(1)
}

func TestSessionExtractor_Extract(t *testing.T) {
	logger := zap.NewNop()
	alice := models.Authenticated("alice", "alice@example.com", models.RoleMember)

	t.Run("bearer token yields session", func(t *testing.T) {
		v := new(MockTokenValidator)
		v.On("ValidateSession", mock.Anything, "good-token").Return(alice, nil)
		e := NewSessionExtractor(v, logger)

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("Authorization", "Bearer good-token")

		s, err := e.Extract(req)
		require.NoError(t, err)
		assert.Equal(t, alice, s)
		v.AssertExpectations(t)
	})

	t.Run("cookie token yields session", func(t *testing.T) {
		v := new(MockTokenValidator)
		v.On("ValidateSession", mock.Anything, "cookie-token").Return(alice, nil)
		e := NewSessionExtractor(v, logger)

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})

		s, err := e.Extractor()(req)
		require.NoError(t, err)
		assert.Equal(t, "alice", s.UserID)
	})

	t.Run("no credentials is anonymous", func(t *testing.T) {
		v := new(MockTokenValidator)
		e := NewSessionExtractor(v, logger)

		s, err := e.Extract(httptest.NewRequest(http.MethodGet, "/items", nil))
		require.NoError(t, err)
		assert.True(t, s.IsAnonymous())
		v.AssertNotCalled(t, "ValidateSession")
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		v := new(MockTokenValidator)
		e := NewSessionExtractor(v, logger)

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("Authorization", "InvalidFormat")

		_, err := e.Extract(req)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
		v.AssertNotCalled(t, "ValidateSession")
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		v := new(MockTokenValidator)
		v.On("ValidateSession", mock.Anything, "bad-token").Return(models.Anonymous(), errors.New("signature invalid"))
		e := NewSessionExtractor(v, logger)

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("Authorization", "Bearer bad-token")

		s, err := e.Extract(req)
		assert.True(t, services.IsUnauthorizedError(err))
		assert.Nil(t, services.GetErrorDetails(err))
		assert.NotContains(t, err.Error(), "signature invalid")
		assert.True(t, s.IsAnonymous())
	})
}

func TestClientInfoCapture(t *testing.T) {
	var got ClientInfo
	h := ClientInfoCapture(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClientInfoFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	req.Header.Set("User-Agent", "curl/8.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "10.0.0.7:5555", got.IPAddress)
	assert.Equal(t, "curl/8.0", got.UserAgent)
}

func TestGetRequestIDFromContext(t *testing.T) {
	assert.Empty(t, GetRequestIDFromContext(context.Background()))

	ctx := WithClientInfo(context.Background(), ClientInfo{RequestID: "req-1"})
	assert.Equal(t, "req-1", GetRequestIDFromContext(ctx))
}
