package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/postboard/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// ContextKey is where the verified claims are stored on the echo context.
const ContextKey = "user"

var errNoToken = errors.New("missing bearer token")

// JWTAuthMiddleware rejects requests without a valid bearer token.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return jwtAuth(secret, false)
}

// OptionalJWTAuthMiddleware lets anonymous requests through but still
// rejects a token that is present and invalid.
func OptionalJWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return jwtAuth(secret, true)
}

func jwtAuth(secret string, optional bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseBearer(c.Request().Header.Get("Authorization"), secret)
			if errors.Is(err, errNoToken) {
				if optional {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}
			if err != nil {
				return err
			}

			// Store user claims in context
			c.Set(ContextKey, claims)
			return next(c)
		}
	}
}

func parseBearer(authHeader, secret string) (*models.JwtCustomClaims, error) {
	if authHeader == "" {
		return nil, errNoToken
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	return claims, nil
}

// UserID returns the authenticated user's id, or 0 for anonymous requests.
func UserID(c echo.Context) uint {
	claims, ok := c.Get(ContextKey).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}
