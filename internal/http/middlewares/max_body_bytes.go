package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies at limit bytes. Trip payloads carry
// itinerary and photo blobs, so the cap sits well above a typical trip
// but below anything that could exhaust the JSON decoder.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		// MaxBytesReader fails the read mid-decode; binding reports it
		// as a 400 rather than cutting the connection
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)

		ctx.Next()
	}
}
