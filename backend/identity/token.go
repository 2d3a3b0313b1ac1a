package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/philosofium/coursemarket/backend/apperr"
)

// GenerateToken issues an HS256 token carrying the principal's profile.
// The identity service issues production tokens; this serves local runs and tests.
func GenerateToken(p Principal, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":     p.ID,
		"name":    p.DisplayName,
		"email":   p.Email,
		"picture": p.PhotoURL,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies a bearer token and returns its principal.
func ParseToken(tokenString, secret string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.KindUnauthorized, "invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.KindUnauthorized, err, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Principal{}, apperr.New(apperr.KindUnauthorized, "invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Principal{}, apperr.New(apperr.KindUnauthorized, "token has no subject")
	}
	p := Principal{ID: sub}
	p.DisplayName, _ = claims["name"].(string)
	p.Email, _ = claims["email"].(string)
	p.PhotoURL, _ = claims["picture"].(string)
	return p, nil
}
