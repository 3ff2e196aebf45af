package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"authgate/internal/domain"
	"authgate/internal/service"
)

const accountIDKey = "account_id"

// RequireSignin valida el bearer token de sesión y guarda el account id en el contexto.
func RequireSignin(guard *service.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if guard == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "guard not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		accountID, err := guard.Authenticate(strings.TrimSpace(header[len("Bearer "):]))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(accountIDKey, accountID)
		c.Next()
	}
}

// RequireRole exige el rol indicado; va siempre después de RequireSignin.
func RequireRole(guard *service.Guard, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := GetAccountID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		if err := guard.RequireRole(c.Request.Context(), accountID, role); err != nil {
			if errors.Is(err, service.ErrForbidden) {
				c.JSON(http.StatusForbidden, gin.H{"error": "Admin resource. Access denied."})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check role"})
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetAccountID obtiene el account id autenticado desde el contexto.
func GetAccountID(c *gin.Context) (string, bool) {
	val, ok := c.Get(accountIDKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}
