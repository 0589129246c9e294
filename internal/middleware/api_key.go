package middleware

import (
	"crypto/subtle"

	"writerid-portal/internal/utils"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth guards the executor callback API with a shared key sent in header.
func APIKeyAuth(header, key string) gin.HandlerFunc {
	expected := []byte(key)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(header))
		if len(got) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			utils.Unauthorized(c, "invalid api key")
			c.Abort()
			return
		}
		c.Next()
	}
}
