// Command toolgated is the entry point for the toolgate RPC gateway: it
// spawns an interactive shell executor, a scoped file tool suite, and a
// child-provider aggregator behind one MCP tool table served over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kdlbs/toolgate/internal/aggregator"
	"github.com/kdlbs/toolgate/internal/config"
	"github.com/kdlbs/toolgate/internal/dispatcher"
	"github.com/kdlbs/toolgate/internal/files"
	"github.com/kdlbs/toolgate/internal/httpserver"
	"github.com/kdlbs/toolgate/internal/logging"
	"github.com/kdlbs/toolgate/internal/process"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	portFlag              int
	tokenFlag             string
	inactivityTimeoutFlag int
	absoluteTimeoutFlag   int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "toolgated",
	Short: "RPC gateway for a sandboxed shell, file tree, and child tool providers",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "HTTP port to listen on (default from TOOLGATE_PORT or 8080)")
	rootCmd.Flags().StringVar(&tokenFlag, "token", "", "Bearer token clients must present (default from TOOLGATE_TOKEN or generated)")
	rootCmd.Flags().IntVar(&inactivityTimeoutFlag, "inactivity-timeout", 0, "Default execute_command inactivity timeout in seconds")
	rootCmd.Flags().IntVar(&absoluteTimeoutFlag, "absolute-timeout", 0, "Override the absolute safety cap in seconds (advanced; 0 keeps the default)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(portFlag, tokenFlag, inactivityTimeoutFlag)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputPath: "stdout"})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if absoluteTimeoutFlag > 0 {
		process.AbsoluteSafetyCap = time.Duration(absoluteTimeoutFlag) * time.Second
	}

	registry := process.NewRegistry()
	executor := process.NewExecutor(registry, log)
	fileService := files.NewService(log, cfg.FileIgnoreDefaults)
	agg := aggregator.New(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	agg.Start(ctx, cfg.ChildServers)

	mcpServer := server.NewMCPServer("toolgate", "1.0.0", server.WithToolCapabilities(true))
	d := dispatcher.New(mcpServer, executor, fileService, agg, cfg, log)
	d.RegisterChildTools(ctx)

	httpSrv := httpserver.New(mcpServer, agg, cfg, log)
	httpSrv.Start()

	logStartupSummary(log, cfg)

	waitForShutdown(log, func(shutdownCtx context.Context) {
		cancel()
		executor.Shutdown()
		agg.Shutdown()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("error during HTTP server shutdown")
		}
	})

	return nil
}

// logStartupSummary logs one line describing the bound port, whether the
// token was supplied or generated (never the token value itself), the
// allow-listed native tools, and the number of configured child providers.
func logStartupSummary(log *logging.Logger, cfg *config.Config) {
	tokenState := "supplied"
	if os.Getenv("TOOLGATE_TOKEN") == "" && tokenFlag == "" {
		tokenState = "generated"
	}

	allowed := "all"
	if cfg.AllowedTools != nil {
		names := make([]string, 0, len(cfg.AllowedTools))
		for name := range cfg.AllowedTools {
			names = append(names, name)
		}
		allowed = fmt.Sprintf("%v", names)
	}

	log.Info("toolgate listening",
		zap.Int("port", cfg.Port),
		zap.String("token", tokenState),
		zap.String("allowed_tools", allowed),
		zap.Int("child_providers", len(cfg.ChildServers)),
	)
}

// waitForShutdown blocks until SIGINT/SIGTERM, then runs cleanup with a
// bounded grace period.
func waitForShutdown(log *logging.Logger, cleanup func(ctx context.Context)) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down toolgate")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cleanup(ctx)

	log.Info("toolgate stopped")
}
