package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthConfig contém a configuração do middleware de autenticação
type AuthConfig struct {
	// TokenAPI vazio desativa a verificação
	TokenAPI string
}

// BearerAuth retorna um middleware que valida o token Bearer
func BearerAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.TokenAPI == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			unauthorized(c, "header Authorization ausente")
			return
		}

		// Extrai o token do formato "Bearer {token}"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			unauthorized(c, "formato inválido, esperado: Bearer {token}")
			return
		}

		token := strings.TrimSpace(parts[1])

		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.TokenAPI)) != 1 {
			unauthorized(c, "token inválido")
			return
		}

		c.Next()
	}
}

// unauthorized responde 401 em texto simples, como o restante de /metrics
func unauthorized(c *gin.Context, msg string) {
	c.String(http.StatusUnauthorized, "%s\n", msg)
	c.Abort()
}
