package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "s3cret", Issuer: "hydration-test"}

func TestParseIssuedToken(t *testing.T) {
	token, err := Issue(testConfig, "user-1", []string{ScopeRead, ScopeWrite}, time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.True(t, claims.HasScope(ScopeWrite))
	require.True(t, claims.CanRead())
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestParseRejectsBadTokens(t *testing.T) {
	expired, err := Issue(testConfig, "user-1", nil, -time.Minute)
	require.NoError(t, err)

	otherIssuer, err := Issue(Config{Secret: testConfig.Secret, Issuer: "someone-else"}, "user-1", nil, time.Hour)
	require.NoError(t, err)

	wrongSecret, err := Issue(Config{Secret: "other", Issuer: testConfig.Issuer}, "user-1", nil, time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "iss": testConfig.Issuer}).
		SignedString([]byte(testConfig.Secret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"issuer":    otherIssuer,
		"secret":    wrongSecret,
		"no expiry": noExpiry,
		"garbage":   "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(token, testConfig)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = Parse("   ", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestNormalizeScopes(t *testing.T) {
	require.Len(t, normalizeScopes("a  b a"), 2)
	require.Len(t, normalizeScopes([]any{"a", 3, ""}), 1)
	require.Empty(t, normalizeScopes(nil))
}

func TestMiddleware(t *testing.T) {
	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := NewMiddleware(testConfig, nil).Wrap(next)

	t.Run("public path", func(t *testing.T) {
		seen = nil
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusNoContent, rr.Code)
		require.Nil(t, seen)
	})

	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/daily-plans", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		require.JSONEq(t, `{"type":"unauthorized","detail":"missing bearer token"}`, rr.Body.String())
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/daily-plans", nil)
		req.Header.Set("Authorization", "Basic abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := Issue(testConfig, "user-7", []string{ScopeRead}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/v1/daily-plans", nil)
		req.Header.Set("Authorization", "bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusNoContent, rr.Code)
		require.NotNil(t, seen)
		require.Equal(t, "user-7", seen.Subject)
		require.False(t, seen.HasScope(ScopeWrite))
	})
}
