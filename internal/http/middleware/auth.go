package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"busbooking/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// Auth verifies the HS256 bearer token and stores user_id and role in the context.
// Tokens carry {"user_id", "role", "exp"}.
func Auth(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		_, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthorized(c, "token expired")
				return
			}
			log.Printf("[AUTH] request_id=%s msg=token rejected: %v", GetRequestID(c), err)
			abortUnauthorized(c, "invalid token")
			return
		}

		userID := claimString(claims["user_id"])
		if userID == "" {
			abortUnauthorized(c, "token has no user_id")
			return
		}
		c.Set(userIDKey, userID)
		c.Set(userRoleKey, string(domain.ParseRole(claimString(claims["role"]))))
		c.Next()
	}
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      "unauthorized",
		"code":       "unauthorized",
		"message":    msg,
		"request_id": GetRequestID(c),
	})
}

// Actor returns the identity Auth placed in the context.
func Actor(c *gin.Context) domain.Actor {
	return domain.Actor{
		UserID: c.GetString(userIDKey),
		Role:   domain.ParseRole(c.GetString(userRoleKey)),
	}
}

// RequireRoles only lets through requests whose role is in allowedRoles. It runs
// after Auth, which sets userRole.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			abortUnauthorized(c, "no role on request")
			return
		}
		if _, ok := allowed[strings.ToLower(role)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "forbidden",
				"code":       "forbidden",
				"message":    "role not allowed",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
