// Package aggregator spawns, supervises, and routes calls to external
// tool-provider child processes, namespacing their tools under the owning
// child's name so they can sit alongside native tools in one flat table.
package aggregator

import (
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Status is the lifecycle state of a child provider.
type Status int

const (
	StatusStarting Status = iota
	StatusConnected
	StatusFailed
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "starting"
	}
}

// LaunchSpec is the command/args/env used to spawn one child provider.
type LaunchSpec struct {
	Command string
	Args    []string
	Env     map[string]string
}

// ToolInfo is one tool discovered from a child, before namespacing.
type ToolInfo struct {
	OriginalName string
	Description  string
	InputSchema  map[string]interface{}
}

// ChildProvider is the registry's bookkeeping for one configured child. The
// pair (Name, originalToolName) is the natural key used to route calls.
type ChildProvider struct {
	mu sync.Mutex

	Name       string
	ID         string // internal bookkeeping id, google/uuid; not part of the wire protocol
	LaunchSpec LaunchSpec
	Status     Status

	RestartCount              int
	LastRestartAt             time.Time
	consecutiveProbeFailures  int

	client *client.Client
	tools  map[string]ToolInfo
}
