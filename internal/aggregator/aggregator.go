package aggregator

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kdlbs/toolgate/internal/config"
	"github.com/kdlbs/toolgate/internal/logging"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const (
	connectTimeout  = 10 * time.Second
	probeInterval   = 30 * time.Second
	probeTimeout    = 5 * time.Second
	maxRestarts     = 3
	restartResetGap = 60 * time.Second
)

// NamespacedTool is one child-provider tool as it should appear in the host
// tool table: renamed, re-described, and schema-translated.
type NamespacedTool struct {
	Name        string
	Description string
	InputSchema mcp.ToolInputSchema
}

// Aggregator owns every configured child provider: spawning, capability
// discovery, namespacing, routing, and supervision.
type Aggregator struct {
	logger   *logging.Logger
	children map[string]*ChildProvider
}

// New constructs an empty Aggregator.
func New(logger *logging.Logger) *Aggregator {
	return &Aggregator{
		logger:   logger.WithFields(zap.String("component", "aggregator")),
		children: make(map[string]*ChildProvider),
	}
}

// Start launches every configured child concurrently. A missing manifest
// (empty configs) is a normal case; the aggregator is simply empty.
func (a *Aggregator) Start(ctx context.Context, configs map[string]config.ChildServerConfig) {
	for name, cfg := range configs {
		child := &ChildProvider{
			Name:   name,
			ID:     uuid.NewString(),
			Status: StatusStarting,
			LaunchSpec: LaunchSpec{
				Command: cfg.Command,
				Args:    cfg.Args,
				Env:     cfg.Env,
			},
		}
		a.children[name] = child

		go func(child *ChildProvider) {
			if err := a.connect(ctx, child); err != nil {
				child.mu.Lock()
				child.Status = StatusFailed
				child.mu.Unlock()
				a.logger.WithError(err).Warn("child provider failed to start", zap.String("child", child.Name))
				return
			}
			a.logger.Info("child provider connected", zap.String("child", child.Name))
			a.probeLoop(ctx, child)
		}(child)
	}
}

// connect spawns (or respawns) child's process, performs the initialize and
// listTools handshake, and populates its tool table on success.
func (a *Aggregator) connect(ctx context.Context, child *ChildProvider) error {
	env := buildEnv(child.LaunchSpec.Env)
	c, err := client.NewStdioMCPClient(child.LaunchSpec.Command, env, child.LaunchSpec.Args...)
	if err != nil {
		return fmt.Errorf("spawning child %s: %w", child.Name, err)
	}

	initCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "toolgate", Version: "1.0.0"}
	if _, err := c.Initialize(initCtx, initReq); err != nil {
		c.Close()
		return fmt.Errorf("initializing child %s: %w", child.Name, err)
	}

	toolsResult, err := c.ListTools(initCtx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return fmt.Errorf("listing tools for child %s: %w", child.Name, err)
	}

	tools := make(map[string]ToolInfo, len(toolsResult.Tools))
	for _, t := range toolsResult.Tools {
		tools[t.Name] = ToolInfo{
			OriginalName: t.Name,
			Description:  t.Description,
			InputSchema:  schemaToRawMap(t.InputSchema),
		}
	}

	child.mu.Lock()
	child.client = c
	child.tools = tools
	child.Status = StatusConnected
	child.consecutiveProbeFailures = 0
	child.mu.Unlock()
	return nil
}

// NamespacedTools returns every tool of every connected child, renamed
// "{childName}:{originalName}" with its description prefixed and its input
// schema translated into the host's representation.
func (a *Aggregator) NamespacedTools() []NamespacedTool {
	var out []NamespacedTool
	for name, child := range a.children {
		child.mu.Lock()
		status := child.Status
		tools := child.tools
		child.mu.Unlock()
		if status != StatusConnected {
			continue
		}
		for _, info := range tools {
			out = append(out, NamespacedTool{
				Name:        name + ":" + info.OriginalName,
				Description: "[" + name + "] " + info.Description,
				InputSchema: TranslateSchema(info.InputSchema),
			})
		}
	}
	return out
}

// CallTool routes a namespaced tool call to its owning child, returning
// whatever structured result the child emits rendered as text, or a
// textual error if the child is unknown, unavailable, or the call itself
// fails.
func (a *Aggregator) CallTool(ctx context.Context, namespacedName string, args map[string]interface{}) (string, error) {
	childName, original, ok := splitNamespaced(namespacedName)
	if !ok {
		return fmt.Sprintf("Error calling %s: malformed tool name", namespacedName), nil
	}

	child, ok := a.children[childName]
	if !ok {
		return fmt.Sprintf("Error calling %s: unknown child provider %s", namespacedName, childName), nil
	}

	child.mu.Lock()
	status := child.Status
	c := child.client
	child.mu.Unlock()
	if status != StatusConnected || c == nil {
		return fmt.Sprintf("Error calling %s: child provider %s is unavailable", namespacedName, childName), nil
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = original
	req.Params.Arguments = args

	result, err := c.CallTool(ctx, req)
	if err != nil {
		return fmt.Sprintf("Error calling %s: %s", namespacedName, err), nil
	}
	return renderChildResult(result), nil
}

// probeLoop reissues a lightweight listTools call to child every
// probeInterval. Three consecutive failures demote the child to
// disconnected and trigger the bounded restart loop. A closed transport is
// not watched for directly; it is noticed only when these probes fail.
func (a *Aggregator) probeLoop(ctx context.Context, child *ChildProvider) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		child.mu.Lock()
		status := child.Status
		c := child.client
		child.mu.Unlock()
		if status != StatusConnected || c == nil {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		_, err := c.ListTools(probeCtx, mcp.ListToolsRequest{})
		cancel()

		if err == nil {
			child.mu.Lock()
			child.consecutiveProbeFailures = 0
			child.mu.Unlock()
			continue
		}

		child.mu.Lock()
		child.consecutiveProbeFailures++
		failures := child.consecutiveProbeFailures
		child.mu.Unlock()
		if failures < 3 {
			continue
		}

		a.logger.Warn("child health probe failed repeatedly, demoting", zap.String("child", child.Name))
		if !a.restart(ctx, child) {
			return
		}
	}
}

// restart runs the bounded, backoff-limited restart sequence for child.
// It returns false when the restart cap has been exhausted and no further
// supervision will occur for this child.
func (a *Aggregator) restart(ctx context.Context, child *ChildProvider) bool {
	child.mu.Lock()
	child.Status = StatusDisconnected
	if child.client != nil {
		child.client.Close()
		child.client = nil
	}
	now := time.Now()
	if child.LastRestartAt.IsZero() || now.Sub(child.LastRestartAt) > restartResetGap {
		child.RestartCount = 0
	}
	child.RestartCount++
	attempt := child.RestartCount
	child.LastRestartAt = now
	child.consecutiveProbeFailures = 0
	child.mu.Unlock()

	if attempt > maxRestarts {
		a.logger.Warn("child exceeded restart cap, giving up", zap.String("child", child.Name))
		child.mu.Lock()
		child.Status = StatusFailed
		child.mu.Unlock()
		return false
	}

	backoff := time.Duration(attempt) * 5 * time.Second
	select {
	case <-ctx.Done():
		return false
	case <-time.After(backoff):
	}

	if err := a.connect(ctx, child); err != nil {
		child.mu.Lock()
		child.Status = StatusFailed
		child.mu.Unlock()
		a.logger.WithError(err).Warn("child restart failed", zap.String("child", child.Name), zap.Int("attempt", attempt))
		return a.restart(ctx, child)
	}
	a.logger.Info("child restarted", zap.String("child", child.Name), zap.Int("attempt", attempt))
	return true
}

// Shutdown closes every child's transport, as part of process-wide
// graceful shutdown.
func (a *Aggregator) Shutdown() {
	for _, child := range a.children {
		child.mu.Lock()
		if child.client != nil {
			child.client.Close()
			child.client = nil
		}
		child.Status = StatusDisconnected
		child.mu.Unlock()
	}
}

// Count returns the number of configured child providers, regardless of
// their current connection status.
func (a *Aggregator) Count() int {
	return len(a.children)
}

func splitNamespaced(name string) (childName, original string, ok bool) {
	idx := strings.Index(name, ":")
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

func buildEnv(overrides map[string]string) []string {
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

func renderChildResult(result *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
			b.WriteString("\n")
		}
	}
	out := strings.TrimRight(b.String(), "\n")
	if out == "" && result.IsError {
		return "Error: child tool call failed"
	}
	return out
}

func schemaToRawMap(schema mcp.ToolInputSchema) map[string]interface{} {
	m := map[string]interface{}{"type": schema.Type}
	if schema.Properties != nil {
		props := make(map[string]interface{}, len(schema.Properties))
		for k, v := range schema.Properties {
			props[k] = v
		}
		m["properties"] = props
	}
	if len(schema.Required) > 0 {
		req := make([]interface{}, len(schema.Required))
		for i, r := range schema.Required {
			req[i] = r
		}
		m["required"] = req
	}
	return m
}
