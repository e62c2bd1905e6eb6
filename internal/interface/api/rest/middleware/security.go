package middleware

import "github.com/gin-gonic/gin"

var securityHeaders = map[string]string{
	"Content-Security-Policy":      "default-src 'self'; frame-ancestors 'self'; object-src 'none'",
	"Cross-Origin-Opener-Policy":   "same-origin",
	"Cross-Origin-Resource-Policy": "cross-origin",
	"Referrer-Policy":              "no-referrer",
	"Strict-Transport-Security":    "max-age=15552000; includeSubDomains",
	"X-Content-Type-Options":       "nosniff",
	"X-DNS-Prefetch-Control":       "off",
	"X-Frame-Options":              "SAMEORIGIN",
	"X-XSS-Protection":             "0",
}

// SecureHeaders sets conservative response headers on every response.
// Cross-Origin-Resource-Policy stays open so the frontend can embed uploaded pictures.
func SecureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range securityHeaders {
			h.Set(k, v)
		}
		h.Del("X-Powered-By")

		c.Next()
	}
}
