package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateToken(t *testing.T) {
	token, tokenID, err := GenerateToken(1, "admin@example.com", "admin", testSecret, 15*time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, tokenID)

	// Fresh calls must produce distinct token ids
	_, tokenID2, err := GenerateToken(1, "admin@example.com", "admin", testSecret, 15*time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, tokenID, tokenID2)
}

func TestValidateToken(t *testing.T) {
	adminID := uint(123)
	email := "admin@example.com"
	role := "super_admin"

	token, tokenID, err := GenerateToken(adminID, email, role, testSecret, 15*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{
			name:    "Valid token",
			token:   token,
			secret:  testSecret,
			wantErr: nil,
		},
		{
			name:    "Invalid secret",
			token:   token,
			secret:  "wrong-secret",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Invalid token format",
			token:   "invalid.token.format",
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Empty token",
			token:   "",
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
			} else {
				require.NoError(t, err)
				require.NotNil(t, claims)
				assert.Equal(t, adminID, claims.AdminID)
				assert.Equal(t, email, claims.Email)
				assert.Equal(t, role, claims.Role)
				assert.Equal(t, tokenID, claims.ID)
			}
		})
	}
}

func TestExpiredToken(t *testing.T) {
	token, _, err := GenerateToken(1, "admin@example.com", "admin", testSecret, 1*time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := ValidateToken(token, testSecret)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestGenerateTagID(t *testing.T) {
	id := GenerateTagID("qr")
	assert.Regexp(t, `^QR-[0-9A-F]{8}$`, id)

	// Collisions across calls should not happen in practice
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		v := GenerateTagID("NFC")
		assert.Regexp(t, `^NFC-[0-9A-F]{8}$`, v)
		assert.False(t, seen[v])
		seen[v] = true
	}
}
