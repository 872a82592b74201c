package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the backend puts into its access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// checkToken inspects a stored token without verifying its signature: the
// client has no key, and the backend stays the authority. It only rejects
// tokens that are certain to fail, namely expired ones and ones minted for
// the other app. Tokens that are not JWTs are let through.
func checkToken(token string, role models.Role, now time.Time) error {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil
		}
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return common.ErrTokenExpired
	}
	if claims.Role != "" && claims.Role != string(role) {
		return fmt.Errorf("%w: %q", common.ErrRoleMismatch, claims.Role)
	}
	return nil
}
