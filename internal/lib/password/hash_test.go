package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "bookworm42", wantErr: nil},
		{name: "special chars", password: "p@ssw0rd!@#", wantErr: nil},
		{name: "too short", password: "short1", wantErr: ErrTooShort},
		{name: "only digits", password: "1234567890", wantErr: ErrNumeric},
		{name: "longer than bcrypt limit", password: strings.Repeat("a", MaxLength+1), wantErr: ErrTooLong},
		{name: "exactly bcrypt limit", password: strings.Repeat("a", MaxLength), wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("correct_password")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "correct_password", hash)

	anotherHash, err := Hash("another_password")
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
	}{
		{name: "matching password", hash: hash, password: "correct_password"},
		{name: "wrong password", hash: hash, password: "wrong_password", wantErr: ErrMismatch},
		{name: "different hash", hash: anotherHash, password: "correct_password", wantErr: ErrMismatch},
		{name: "empty password", hash: hash, password: "", wantErr: ErrMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Compare(tt.hash, tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCompare_MalformedHash(t *testing.T) {
	err := Compare("not-a-bcrypt-hash", "whatever")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func TestHash_SaltedDifferently(t *testing.T) {
	hash1, err := Hash("same_password")
	require.NoError(t, err)
	hash2, err := Hash("same_password")
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash2)
}
