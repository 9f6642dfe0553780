package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, "user@example.com", RoleUser)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestEmptyRoleDefaultsToUser(t *testing.T) {
	token, err := GenerateToken(7, "x@example.com", "")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRoleChecks(t *testing.T) {
	user := &JWTClaims{Role: RoleUser}
	admin := &JWTClaims{Role: RoleAdmin}

	assert.True(t, user.HasRole(RoleUser))
	assert.False(t, user.HasRole(RoleAdmin))

	// Admin satisfies every role check
	assert.True(t, admin.HasRole(RoleUser))
	assert.True(t, admin.HasRole(RoleAdmin))
}

func TestPermissionChecks(t *testing.T) {
	user := &JWTClaims{Role: RoleUser}
	admin := &JWTClaims{Role: RoleAdmin}

	assert.True(t, user.HasPermission(PermissionChat))
	assert.False(t, user.HasPermission(PermissionReplyAsOps))
	assert.True(t, admin.HasPermission(PermissionReplyAsOps))
}
