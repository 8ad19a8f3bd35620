package middleware

import (
	"github.com/gin-gonic/gin"
)

// EndpointTracker registra cada requisição atendida
type EndpointTracker interface {
	TrackEndpoint(path, method string, statusCode int)
}

// MetricsMiddleware registra método, rota e status de cada requisição
func MetricsMiddleware(tracker EndpointTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Usa a rota registrada para não explodir a cardinalidade
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		tracker.TrackEndpoint(path, c.Request.Method, c.Writer.Status())
	}
}
