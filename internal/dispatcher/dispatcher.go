// Package dispatcher registers the native tool set and the aggregator's
// discovered child tools on one in-process tool table, translating every
// (name, arguments) call into either a native handler or a routed call
// through the aggregator.
package dispatcher

import (
	"context"
	"time"

	"github.com/kdlbs/toolgate/internal/aggregator"
	"github.com/kdlbs/toolgate/internal/config"
	"github.com/kdlbs/toolgate/internal/files"
	"github.com/kdlbs/toolgate/internal/logging"
	"github.com/kdlbs/toolgate/internal/process"
	"github.com/kdlbs/toolgate/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// childSettleInterval is how long the dispatcher waits after startup before
// registering the aggregator's discovered child tools, giving concurrently
// spawned children time to complete their handshake.
const childSettleInterval = 2 * time.Second

// Dispatcher owns the *server.MCPServer tool table and everything needed to
// service a native tool call: the process executor, the file service, and
// the child-provider aggregator.
type Dispatcher struct {
	mcp        *server.MCPServer
	executor   *process.Executor
	files      *files.Service
	aggregator *aggregator.Aggregator
	cfg        *config.Config
	logger     *logging.Logger
}

// New wires a Dispatcher from its collaborators and registers every
// allow-listed native tool. Child tools are registered separately by
// RegisterChildTools once the aggregator has had a chance to connect.
func New(mcpServer *server.MCPServer, executor *process.Executor, fileService *files.Service, agg *aggregator.Aggregator, cfg *config.Config, logger *logging.Logger) *Dispatcher {
	d := &Dispatcher{
		mcp:        mcpServer,
		executor:   executor,
		files:      fileService,
		aggregator: agg,
		cfg:        cfg,
		logger:     logger.WithFields(zap.String("component", "dispatcher")),
	}
	d.registerNativeTools()
	return d
}

// RegisterChildTools waits childSettleInterval for children spawned by
// Start to finish their handshake, then registers every tool the
// aggregator currently reports as connected. Registration happens once:
// tools of a child that first connects after this call are not added to
// the tool table and cannot be called. A child that reconnects keeps the
// tools registered for it here, and calls to them are routed to it again.
func (d *Dispatcher) RegisterChildTools(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(childSettleInterval):
	}

	tools := d.aggregator.NamespacedTools()
	for _, t := range tools {
		tool := mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
		d.mcp.AddTool(tool, d.childToolHandler())
	}
	d.logger.Info("registered child-provider tools", zap.Int("count", len(tools)))
}

func (d *Dispatcher) registerNativeTools() {
	registered := 0
	register := func(name string, tool mcp.Tool, handler server.ToolHandlerFunc) {
		if !d.cfg.IsToolAllowed(name) {
			return
		}
		d.mcp.AddTool(tool, handler)
		registered++
	}

	register("execute_command", mcp.NewTool("execute_command",
		mcp.WithDescription("Run a shell command in the workspace. Returns synchronously unless output goes quiet past inactivityTimeout, in which case the process keeps running in the background and can be polled with check_process."),
		mcp.WithString("command", mcp.Required(), mcp.Description("The shell command to run")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why this command is being run")),
		mcp.WithNumber("inactivityTimeout", mcp.Description("Seconds of output silence before backgrounding, clamped to 0-600; 0 backgrounds immediately")),
	), d.executeCommandHandler())

	register("check_process", mcp.NewTool("check_process",
		mcp.WithDescription("Poll a backgrounded process for new output or completion."),
		mcp.WithString("processId", mcp.Required(), mcp.Description("The process id returned by execute_command")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why this process is being checked")),
	), d.checkProcessHandler())

	register("send_input", mcp.NewTool("send_input",
		mcp.WithDescription("Write input to a still-running process's stdin."),
		mcp.WithString("processId", mcp.Required(), mcp.Description("The process id to send input to")),
		mcp.WithString("input", mcp.Required(), mcp.Description("The text to send")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why this input is being sent")),
		mcp.WithBoolean("autoNewline", mcp.Description("Append a trailing newline if the input doesn't already end with one (default true)")),
	), d.sendInputHandler())

	register("file_read", mcp.NewTool("file_read",
		mcp.WithDescription("Read a file from the workspace as line-numbered text."),
		mcp.WithString("filePath", mcp.Required(), mcp.Description("Path relative to the workspace root")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why this file is being read")),
		mcp.WithNumber("offset", mcp.Description("0-based starting line (default 0)")),
		mcp.WithNumber("limit", mcp.Description("Maximum lines to return (default 2000)")),
	), d.fileReadHandler())

	register("file_write", mcp.NewTool("file_write",
		mcp.WithDescription("Write a file in the workspace, creating intermediate directories as needed. Read the file first if it already exists."),
		mcp.WithString("filePath", mcp.Required(), mcp.Description("Path relative to the workspace root")),
		mcp.WithString("content", mcp.Required(), mcp.Description("The verbatim content to write")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why this file is being written")),
	), d.fileWriteHandler())

	register("file_edit", mcp.NewTool("file_edit",
		mcp.WithDescription("Replace an exact substring in a file, backing the file up first and restoring it if anything fails."),
		mcp.WithString("filePath", mcp.Required(), mcp.Description("Path relative to the workspace root")),
		mcp.WithString("oldString", mcp.Required(), mcp.Description("The exact substring to replace")),
		mcp.WithString("newString", mcp.Required(), mcp.Description("The replacement text")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why this edit is being made")),
		mcp.WithBoolean("replaceAll", mcp.Description("Replace every occurrence instead of just the first (default false)")),
	), d.fileEditHandler())

	register("file_ls", mcp.NewTool("file_ls",
		mcp.WithDescription("List files under a workspace path as an indented tree, directories first."),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why this listing is needed")),
		mcp.WithString("path", mcp.Description("Path relative to the workspace root (default \".\")")),
		mcp.WithArray("ignore", mcp.Description("Additional glob patterns to exclude")),
	), d.fileListHandler())

	register("file_glob", mcp.NewTool("file_glob",
		mcp.WithDescription("Find files under a workspace path matching a glob pattern, newest first."),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("The glob pattern to match, e.g. \"**/*.go\"")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why this search is being run")),
		mcp.WithString("path", mcp.Description("Path relative to the workspace root (default \".\")")),
		mcp.WithNumber("maxResults", mcp.Description("Maximum matches to return (default 100)")),
	), d.fileGlobHandler())

	register("file_grep", mcp.NewTool("file_grep",
		mcp.WithDescription("Search file contents under a workspace path with a regular expression, grouped by file."),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("The regular expression to search for")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Why this search is being run")),
		mcp.WithString("path", mcp.Description("Path relative to the workspace root (default \".\")")),
		mcp.WithString("include", mcp.Description("Glob restricting which files are searched")),
		mcp.WithBoolean("caseInsensitive", mcp.Description("Match case-insensitively (default false)")),
		mcp.WithNumber("maxResults", mcp.Description("Maximum total matches to return (default 100)")),
	), d.fileGrepHandler())

	d.logger.Info("registered native tools", zap.Int("count", registered))
}

func (d *Dispatcher) childToolHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, _ := d.aggregator.CallTool(ctx, req.Params.Name, req.GetArguments())
		return mcp.NewToolResultText(text), nil
	}
}

func requestRoot(ctx context.Context) (string, error) {
	return workspace.Root(workspace.FromContext(ctx))
}
