package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	aierrors "github.com/hrygo/orbita/internal/errors"
)

const (
	// Issuer is the iss claim of orbita access tokens.
	Issuer = "orbita"

	// UserIDContextKey is the echo context key holding the authenticated user id.
	UserIDContextKey = "orbita.user_id"
)

// NewAccessToken signs an HS256 token whose subject is userID.
func NewAccessToken(secret, userID string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	if userID == "" {
		return "", errors.New("user id is empty")
	}
	claims := jwt.RegisteredClaims{
		Issuer:   Issuer,
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return signed, nil
}

// ParseAccessToken validates token and returns its subject.
func ParseAccessToken(secret, token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return "", errors.Wrap(err, "invalid access token")
	}
	if claims.Subject == "" {
		return "", errors.New("access token has no subject")
	}
	return claims.Subject, nil
}

// JWTAuth requires a bearer token signed with secret and stores its subject
// as the user id. An empty secret disables authentication.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if secret == "" {
			return next
		}
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return unauthorized(c, "authentication required")
			}
			userID, err := ParseAccessToken(secret, token)
			if err != nil {
				return unauthorized(c, "invalid access token")
			}
			c.Set(UserIDContextKey, userID)
			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(c echo.Context) string {
	userID, _ := c.Get(UserIDContextKey).(string)
	return userID
}

func unauthorized(c echo.Context, msg string) error {
	aiErr := aierrors.Unauthorized(msg)
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"code":    string(aiErr.Code),
		"message": aiErr.Message,
	})
}
