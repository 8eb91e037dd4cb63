package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kdlbs/toolgate/internal/logging"
	"github.com/kdlbs/toolgate/internal/tracing"
	"github.com/kdlbs/toolgate/internal/workspace"
	"go.uber.org/zap"
)

// executionIDHeader is the per-request workspace-scoping header; its value
// becomes the RequestContext threaded down to the process executor and file
// tools for the life of the call.
const executionIDHeader = "Execution-Id"

// bearerAuth rejects any request whose Authorization header doesn't carry
// the configured token as "Bearer <token>".
func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		supplied := strings.TrimPrefix(header, "Bearer ")
		if header == "" || supplied == header || supplied != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "missing or invalid bearer token",
				},
			})
			return
		}
		c.Next()
	}
}

// corsMiddleware allows any origin, matching the teacher's permissive
// gateway CORS policy for this kind of internal tooling endpoint.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, "+executionIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// executionContext attaches the request's workspace.RequestContext to the
// request's context.Context, so every native tool handler downstream
// resolves paths against the same scoped root.
func executionContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := workspace.RequestContext{ExecutionID: c.GetHeader(executionIDHeader)}
		ctx := workspace.WithRequestContext(c.Request.Context(), rc)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// requestLogger logs HTTP request details after the handler completes.
func requestLogger(log *logging.Logger, serverName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("server", serverName),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int64("duration_ms", latency.Milliseconds()),
		}
		if status >= 500 {
			log.Error("http", fields...)
		} else {
			log.Debug("http", fields...)
		}
	}
}

// otelTracing wraps each request in an OTel span. No-op until a real
// TracerProvider is registered with go.opentelemetry.io/otel.
func otelTracing(serverName string) gin.HandlerFunc {
	tracer := tracing.Tracer(serverName)
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+path)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
