package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// browser-visible response headers: ETag drives trip revalidation and
// X-Request-Id lets clients quote a request in bug reports
const (
	corsAllowMethods  = "GET,POST,PUT,DELETE,OPTIONS"
	corsAllowHeaders  = "Authorization,Content-Type,If-None-Match,X-Request-Id"
	corsExposeHeaders = "ETag,Retry-After,X-Request-Id"
	corsMaxAge        = "600"
)

// CORSMiddleware reflects the origin back when it is on the allowlist.
// Unknown origins get no CORS headers at all; preflights still complete
// with 204 so the browser reports a CORS failure, not a network error.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))

	for _, origin := range allowedOrigins {
		allowed[strings.TrimSpace(origin)] = struct{}{}
	}

	return func(ctx *gin.Context) {
		// responses differ per origin, caches must not mix them up
		ctx.Header("Vary", "Origin")

		origin := ctx.GetHeader("Origin")

		if _, ok := allowed[origin]; ok && origin != "" {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Methods", corsAllowMethods)
			ctx.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			ctx.Header("Access-Control-Expose-Headers", corsExposeHeaders)
			ctx.Header("Access-Control-Max-Age", corsMaxAge)
		}

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
