package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-request-workflow/internal/models"
	appErrors "github.com/noah-isme/sma-request-workflow/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestIdentityServiceValidateToken(t *testing.T) {
	svc := NewIdentityService("shared-secret")
	valid := models.JWTClaims{
		UserID: "ins-1",
		Role:   "instructor",
		Email:  "ins@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, "shared-secret", valid))
	require.NoError(t, err)
	assert.Equal(t, "ins-1", claims.UserID)
	assert.Equal(t, models.RoleInstructor, claims.Role)

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, "shared-secret", expired))
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "expired")

	_, err = svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, "other-secret", valid))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken(signToken(t, jwt.SigningMethodHS512, "shared-secret", valid))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	unknownRole := valid
	unknownRole.Role = "JANITOR"
	_, err = svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, "shared-secret", unknownRole))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	anonymous := valid
	anonymous.UserID = ""
	_, err = svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, "shared-secret", anonymous))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
