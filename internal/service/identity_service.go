package service

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/sma-request-workflow/internal/models"
	appErrors "github.com/noah-isme/sma-request-workflow/pkg/errors"
)

// IdentityService decodes caller identities minted by the identity provider.
// Tokens are HS256-signed with a shared secret; nothing else about the caller
// is verified here.
type IdentityService struct {
	secret []byte
}

// NewIdentityService constructs the service.
func NewIdentityService(secret string) *IdentityService {
	return &IdentityService{secret: []byte(secret)}
}

// ValidateToken parses the token and returns its claims.
func (s *IdentityService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "your session has expired, please sign in again")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	claims.Role = models.UserRole(strings.ToUpper(string(claims.Role)))
	if strings.TrimSpace(claims.UserID) == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not carry a known identity")
	}
	return claims, nil
}
