package dispatcher

import (
	"testing"

	"github.com/kdlbs/toolgate/internal/aggregator"
	"github.com/kdlbs/toolgate/internal/config"
	"github.com/kdlbs/toolgate/internal/files"
	"github.com/kdlbs/toolgate/internal/logging"
	"github.com/kdlbs/toolgate/internal/process"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(cfg *config.Config) *Dispatcher {
	logger := logging.Default()
	mcpServer := server.NewMCPServer("toolgate-test", "0.0.0")
	registry := process.NewRegistry()
	executor := process.NewExecutor(registry, logger)
	fileService := files.NewService(logger, cfg.FileIgnoreDefaults)
	agg := aggregator.New(logger)
	return New(mcpServer, executor, fileService, agg, cfg, logger)
}

func TestRegisterNativeToolsAllAllowedByDefault(t *testing.T) {
	cfg := &config.Config{}
	for _, name := range []string{"execute_command", "check_process", "send_input", "file_read", "file_write", "file_edit", "file_ls", "file_glob", "file_grep"} {
		assert.True(t, cfg.IsToolAllowed(name), name)
	}
	d := newTestDispatcher(cfg)
	require.NotNil(t, d)
}

func TestRegisterNativeToolsRespectsAllowList(t *testing.T) {
	cfg := &config.Config{AllowedTools: map[string]bool{"file_read": true}}
	require.True(t, cfg.IsToolAllowed("file_read"))
	require.False(t, cfg.IsToolAllowed("execute_command"))

	d := newTestDispatcher(cfg)
	require.NotNil(t, d)
}

func TestGetStringSliceFromArguments(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"ignore": []interface{}{"a/**", "b/**"},
	}
	out := getStringSlice(req, "ignore")
	assert.Equal(t, []string{"a/**", "b/**"}, out)

	assert.Nil(t, getStringSlice(req, "missing"))
}
