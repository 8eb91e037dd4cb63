// Package httpserver mounts the MCP streamable-HTTP transport behind bearer
// auth, CORS, and per-request workspace scoping, and exposes a liveness
// endpoint for the containerized deployment this gateway runs inside.
package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kdlbs/toolgate/internal/aggregator"
	"github.com/kdlbs/toolgate/internal/config"
	"github.com/kdlbs/toolgate/internal/logging"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const serverName = "toolgate"

// Server wraps the gin engine, the underlying net/http.Server, and the MCP
// streamable-HTTP transport with lifecycle management.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	streamable *server.StreamableHTTPServer
	logger     *logging.Logger
}

// New builds the HTTP front end around an already-registered mcpServer
// (native + child tools), gated by cfg.Token.
func New(mcpServer *server.MCPServer, agg *aggregator.Aggregator, cfg *config.Config, logger *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(), requestLogger(logger, serverName), otelTracing(serverName))

	engine.GET("/healthz", healthzHandler(agg))

	streamable := server.NewStreamableHTTPServer(mcpServer, server.WithEndpointPath("/mcp"))

	mcpGroup := engine.Group("/mcp")
	mcpGroup.Use(bearerAuth(cfg.Token), executionContext())
	mcpGroup.Any("", gin.WrapH(streamable))

	return &Server{
		engine:     engine,
		streamable: streamable,
		logger:     logger.WithFields(zap.String("component", "httpserver")),
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: engine,
		},
	}
}

// Start begins serving in a background goroutine. Bind errors after
// shutdown (http.ErrServerClosed) are not logged as failures.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("http server error")
		}
	}()
}

// Shutdown drains the transport session table and the underlying HTTP
// server, in that order, matching the teacher's shutdown sequencing.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.streamable.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Warn("failed to shutdown streamable HTTP server")
	}
	return s.httpServer.Shutdown(ctx)
}

func healthzHandler(agg *aggregator.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"childProviders": agg.Count(),
		})
	}
}
