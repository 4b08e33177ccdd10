package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookflix/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookflix/internal/lib/jwt"
	"github.com/magabrotheeeer/bookflix/internal/lib/sl"
)

const testUID = "5d2f8c7e-6a1b-4e3d-9c8f-7a6b5c4d3e21"

func TestJWTMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour, 24*time.Hour)
	access, err := maker.GenerateToken(testUID, "testuser", "user", jwt.AccessToken)
	require.NoError(t, err)
	refresh, err := maker.GenerateToken(testUID, "testuser", "user", jwt.RefreshToken)
	require.NoError(t, err)
	foreign, err := jwt.NewJWTMaker("other-secret", time.Hour, time.Hour).
		GenerateToken(testUID, "testuser", "user", jwt.AccessToken)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		wantStatusCode int
		wantCalled     bool
	}{
		{name: "valid access token", authHeader: "Bearer " + access, wantStatusCode: http.StatusOK, wantCalled: true},
		{name: "missing header", authHeader: "", wantStatusCode: http.StatusUnauthorized},
		{name: "no bearer prefix", authHeader: access, wantStatusCode: http.StatusUnauthorized},
		{name: "refresh token", authHeader: "Bearer " + refresh, wantStatusCode: http.StatusUnauthorized},
		{name: "foreign signature", authHeader: "Bearer " + foreign, wantStatusCode: http.StatusUnauthorized},
		{name: "garbage", authHeader: "Bearer abc.def.ghi", wantStatusCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				uid, ok := middlewarectx.UserUIDFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, testUID, uid)
				assert.Equal(t, "testuser", r.Context().Value(middlewarectx.User))
				assert.Equal(t, "user", r.Context().Value(middlewarectx.Role))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(maker, sl.Discard())(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}
