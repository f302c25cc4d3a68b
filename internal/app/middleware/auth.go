package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/probelab/probelab-app/internal/pkg/auth"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/idgen"
	"github.com/probelab/probelab-app/pkg/response"
)

// Middleware bundles the authentication middleware over one JWT secret.
type Middleware struct {
	jwtSecret []byte
}

func NewMiddleware(jwtSecret []byte) *Middleware {
	return &Middleware{jwtSecret: jwtSecret}
}

// JWTAuth requires a valid Bearer token and stores its claims in the
// request context.
func (m *Middleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			response.Fail(c, http.StatusUnauthorized, "запрос без токена, доступ запрещен")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Fail(c, http.StatusUnauthorized, "неверный формат токена")
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(parts[1], m.jwtSecret)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, "недействительный или просроченный токен")
			c.Abort()
			return
		}

		c.Set(auth.ClaimsKey, claims)
		c.Next()
	}
}

// AdminAuth allows only members of the admin group. It must run after
// JWTAuth.
func (m *Middleware) AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(auth.ClaimsKey)
		if !exists {
			response.Fail(c, http.StatusForbidden, "данные авторизации отсутствуют")
			c.Abort()
			return
		}

		claims, ok := claimsValue.(*auth.CustomClaims)
		if !ok {
			response.Fail(c, http.StatusForbidden, "данные авторизации повреждены")
			c.Abort()
			return
		}

		groupID, entityType, err := idgen.DecodePublicID(claims.UserGroupID)
		if err != nil || entityType != idgen.EntityTypeGroup {
			response.Fail(c, http.StatusForbidden, "группа пользователя не распознана")
			c.Abort()
			return
		}

		if groupID != model.AdminGroupID {
			response.Fail(c, http.StatusForbidden, "требуются права администратора")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUserID extracts the public user ID from the request context;
// it returns "system" for unauthenticated requests so snapshot authorship
// is always populated.
func CurrentUserID(c *gin.Context) string {
	claimsValue, exists := c.Get(auth.ClaimsKey)
	if !exists {
		return "system"
	}
	claims, ok := claimsValue.(*auth.CustomClaims)
	if !ok {
		return "system"
	}
	return claims.UserID
}
