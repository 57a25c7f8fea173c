package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultAPIKeyHeader = "X-API-Key"

	contextKeyAPIKeyName = "api_key_name"
)

// APIKeyConfig конфигурация для API key аутентификации
type APIKeyConfig struct {
	// ValidKeys карта валидных API ключей к их описаниям
	ValidKeys map[string]string
	// HeaderName имя заголовка для API ключа (по умолчанию: X-API-Key)
	HeaderName string
}

// APIKey guards routes with a static set of keys.
type APIKey struct {
	config APIKeyConfig
}

func NewAPIKey(config APIKeyConfig) *APIKey {
	if config.HeaderName == "" {
		config.HeaderName = DefaultAPIKeyHeader
	}
	return &APIKey{config: config}
}

// Enabled reports whether any key is configured. A guard without keys lets
// every request through.
func (ak *APIKey) Enabled() bool {
	return len(ak.config.ValidKeys) > 0
}

// Middleware accepts the key from the configured header, the api_key query
// parameter or an Authorization: Bearer header, in that order.
func (ak *APIKey) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ak.Enabled() {
			c.Next()
			return
		}

		apiKey := ak.extract(c)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key is required"})
			return
		}

		// constant-time comparison
		for validKey, name := range ak.config.ValidKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
				c.Set(contextKeyAPIKeyName, name)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
	}
}

func (ak *APIKey) extract(c *gin.Context) string {
	if key := c.GetHeader(ak.config.HeaderName); key != "" {
		return key
	}
	if key := c.Query("api_key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// RequireAPIKey хелпер для создания middleware, требующего API ключ
func RequireAPIKey(validKeys map[string]string) gin.HandlerFunc {
	return NewAPIKey(APIKeyConfig{ValidKeys: validKeys}).Middleware()
}

// APIKeyName returns the description of the key that authorised the request.
func APIKeyName(c *gin.Context) (string, bool) {
	name := c.GetString(contextKeyAPIKeyName)
	return name, name != ""
}
