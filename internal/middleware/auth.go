package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"coach-service/internal/models"
)

// Claims are the token claims the hosted auth collaborator issues.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens and returns the authenticated user.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier over a shared HMAC secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning user id and role.
func (v *Verifier) Verify(token string) (int, models.Role, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", errors.New("invalid token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return 0, "", err
	}
	role := claims.Role
	if role != models.RoleClient && role != models.RoleStaff {
		return 0, "", errors.New("invalid role claim")
	}
	return userID, role, nil
}

// UserID extracts the numeric subject claim.
func (c *Claims) UserID() (int, error) {
	sub, err := c.GetSubject()
	if err != nil || sub == "" {
		return 0, errors.New("missing subject")
	}
	id, err := strconv.Atoi(sub)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid subject")
	}
	return id, nil
}

// AuthMiddleware validates the Authorization header and stores the
// authenticated user id and role on the request context.
func AuthMiddleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		userID, role, err := verifier.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", userID)
		c.Set("userRole", string(role))
		c.Next()
	}
}
