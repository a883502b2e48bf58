package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "user-1", RoleName: RolePayroll}, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, RolePayroll, claims.RoleName)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseTokenRejectsBadTokens(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "user-1"}, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken("other", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", Claims{UserID: "user-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken("secret", unsigned)
	assert.Error(t, err)
}

func TestStaticPermissions(t *testing.T) {
	perms := StaticPermissions{}
	ctx := context.Background()

	cases := []struct {
		role, perm string
		want       bool
	}{
		{RolePayroll, PermPayrollRun, true},
		{"HR", PermPayrollRead, true},
		{RoleHR, PermPayrollRun, false},
		{RoleEmployee, PermCompensationCalculate, false},
		{RoleSystemAdmin, PermPayrollRead, false},
		{"unknown", PermAttendanceRead, false},
	}
	for _, tc := range cases {
		got, err := perms.HasPermission(ctx, tc.role, tc.perm)
		require.NoError(t, err)
		if got != tc.want {
			t.Fatalf("%s/%s: expected %v, got %v", tc.role, tc.perm, tc.want, got)
		}
	}
}

func TestRolePermissionsAreKnown(t *testing.T) {
	known := map[string]bool{}
	for _, perm := range DefaultPermissions {
		known[perm] = true
	}
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			assert.True(t, known[perm], "role %s has unknown permission %s", role, perm)
		}
	}
}
