package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	accessTTL := 15 * time.Minute
	refreshTTL := 24 * time.Hour
	maker := NewJWTMaker(testSecret, accessTTL, refreshTTL)

	tests := []struct {
		name      string
		userUID   string
		username  string
		role      string
		tokenType TokenType
		wantTTL   time.Duration
	}{
		{name: "admin access", userUID: "uid-1", username: "admin_user", role: "admin", tokenType: AccessToken, wantTTL: accessTTL},
		{name: "regular access", userUID: "uid-2", username: "reader", role: "user", tokenType: AccessToken, wantTTL: accessTTL},
		{name: "refresh token", userUID: "uid-3", username: "user@domain.com", role: "user", tokenType: RefreshToken, wantTTL: refreshTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.userUID, tt.username, tt.role, tt.tokenType)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token, tt.tokenType)
			require.NoError(t, err)
			assert.Equal(t, tt.userUID, claims.UserUID)
			assert.Equal(t, tt.userUID, claims.Subject)
			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tt.wantTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute, time.Hour)

	validToken, err := maker.GenerateToken("uid", "testuser", "user", AccessToken)
	require.NoError(t, err)

	expired, err := NewJWTMaker(testSecret, -time.Hour, -time.Hour).GenerateToken("uid", "testuser", "user", AccessToken)
	require.NoError(t, err)

	wrongSecret, err := NewJWTMaker("wrong_secret_key", time.Hour, time.Hour).GenerateToken("uid", "testuser", "user", AccessToken)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expired},
		{name: "wrong secret key", token: wrongSecret},
		{name: "tampered token", token: validToken + "tampered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token, AccessToken)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_RefreshTokenCannotAuthorize(t *testing.T) {
	maker := NewJWTMaker(testSecret, time.Hour, time.Hour)

	refresh, err := maker.GenerateToken("uid", "testuser", "user", RefreshToken)
	require.NoError(t, err)

	claims, err := maker.ParseToken(refresh, AccessToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	assert.Nil(t, claims)

	claims, err = maker.ParseToken(refresh, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "uid", claims.UserUID)
}
