package session

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	claims := Claims{Role: role}
	claims.Subject = "someone@example.com"
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestCheckToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		token   string
		role    models.Role
		wantErr error
	}{
		{"valid owner token", signToken(t, "owner", now.Add(time.Hour)), models.RoleOwner, nil},
		{"no expiry", signToken(t, "driver", time.Time{}), models.RoleDriver, nil},
		{"no role claim", signToken(t, "", now.Add(time.Hour)), models.RoleDriver, nil},
		{"expired", signToken(t, "owner", now.Add(-time.Minute)), models.RoleOwner, common.ErrTokenExpired},
		{"expires right now", signToken(t, "owner", now), models.RoleOwner, common.ErrTokenExpired},
		{"other role", signToken(t, "driver", now.Add(time.Hour)), models.RoleOwner, common.ErrRoleMismatch},
		{"opaque token", "b2c1f0d8a9e7", models.RoleOwner, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkToken(tt.token, tt.role, now)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
