// Package auth provides the bearer-token validation glue for the catalog
// service. Token issuance belongs to the external auth service; this package
// only verifies HMAC-signed tokens it produced.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clangauge0314/react-fashion-ecommerce/pkg/middleware"
)

// NewHMACValidator returns a TokenValidator that verifies HS256 tokens
// signed with the shared secret.
func NewHMACValidator(secret string) middleware.TokenValidator {
	key := []byte(secret)

	return func(tokenString string) (*middleware.Claims, error) {
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}

		mapClaims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return nil, fmt.Errorf("invalid token claims")
		}

		claims := &middleware.Claims{}
		if sub, err := mapClaims.GetSubject(); err == nil {
			claims.UserID = sub
		}
		if email, ok := mapClaims["email"].(string); ok {
			claims.Email = email
		}
		if role, ok := mapClaims["role"].(string); ok {
			claims.Role = role
		}

		if claims.UserID == "" {
			return nil, fmt.Errorf("token has no subject")
		}

		return claims, nil
	}
}
