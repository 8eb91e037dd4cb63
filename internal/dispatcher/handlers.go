package dispatcher

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (d *Dispatcher) executeCommandHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		command, err := req.RequireString("command")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rationale, err := req.RequireString("rationale")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		timeout := req.GetInt("inactivityTimeout", d.cfg.DefaultInactivityTimeout)

		root, err := requestRoot(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := d.executor.ExecuteCommand(ctx, root, command, rationale, timeout)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (d *Dispatcher) checkProcessHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		processID, err := req.RequireString("processId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rationale, err := req.RequireString("rationale")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := d.executor.CheckProcess(ctx, processID, rationale)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (d *Dispatcher) sendInputHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		processID, err := req.RequireString("processId")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		input, err := req.RequireString("input")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rationale, err := req.RequireString("rationale")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		autoNewline := req.GetBool("autoNewline", true)

		text, err := d.executor.SendInput(processID, input, rationale, autoNewline)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (d *Dispatcher) fileReadHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := req.RequireString("filePath")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := req.RequireString("rationale"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		offset := req.GetInt("offset", 0)
		limit := req.GetInt("limit", 2000)

		root, err := requestRoot(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := d.files.Read(root, filePath, offset, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (d *Dispatcher) fileWriteHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := req.RequireString("filePath")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := req.RequireString("rationale"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		root, err := requestRoot(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := d.files.Write(root, filePath, content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (d *Dispatcher) fileEditHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, err := req.RequireString("filePath")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		oldString, err := req.RequireString("oldString")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		newString, err := req.RequireString("newString")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := req.RequireString("rationale"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		replaceAll := req.GetBool("replaceAll", false)

		root, err := requestRoot(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := d.files.Edit(root, filePath, oldString, newString, replaceAll)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (d *Dispatcher) fileListHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if _, err := req.RequireString("rationale"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path := req.GetString("path", ".")
		ignore := getStringSlice(req, "ignore")

		root, err := requestRoot(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := d.files.List(root, path, ignore)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (d *Dispatcher) fileGrepHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pattern, err := req.RequireString("pattern")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := req.RequireString("rationale"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path := req.GetString("path", ".")
		include := req.GetString("include", "")
		caseInsensitive := req.GetBool("caseInsensitive", false)
		maxResults := req.GetInt("maxResults", 0)

		root, err := requestRoot(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := d.files.Grep(root, pattern, path, include, caseInsensitive, maxResults)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (d *Dispatcher) fileGlobHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pattern, err := req.RequireString("pattern")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := req.RequireString("rationale"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path := req.GetString("path", ".")
		maxResults := req.GetInt("maxResults", 0)

		root, err := requestRoot(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := d.files.Glob(root, pattern, path, maxResults)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// getStringSlice pulls a []string out of an argument that may have arrived
// as a JSON array of strings (the common shape) or be entirely absent.
func getStringSlice(req mcp.CallToolRequest, name string) []string {
	raw, ok := req.GetArguments()[name]
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
