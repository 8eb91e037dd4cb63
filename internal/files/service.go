// Package files implements the file tool suite: read, write, edit, list,
// glob, and grep over a workspace-scoped file tree.
package files

import (
	"github.com/kdlbs/toolgate/internal/logging"
	"github.com/kdlbs/toolgate/internal/workspace"
	"go.uber.org/zap"
)

// MaxListFiles caps how many entries list() renders before summarizing.
const MaxListFiles = 100

// DefaultMaxResults is the default cap applied to glob/grep when the caller
// doesn't supply one.
const DefaultMaxResults = 100

// MaxReadLines is the default number of lines file_read returns when the
// caller doesn't supply a limit.
const MaxReadLines = 2000

// MaxLineLength is the per-line truncation applied to file_read output.
const MaxLineLength = 2000

// MaxGrepLineLength is the per-line truncation applied to grep matches.
const MaxGrepLineLength = 200

// OperationTimeout is a per-operation limit in seconds. No operation in
// this package applies it: file operations run without a time limit.
const OperationTimeout = 30

// Service implements the six file-tool operations, scoped per call to a
// workspace root resolved by the caller.
type Service struct {
	logger         *logging.Logger
	ignoreDefaults []string
}

// NewService constructs a Service. ignoreDefaults is unioned with any
// caller-supplied ignore globs passed to List.
func NewService(logger *logging.Logger, ignoreDefaults []string) *Service {
	return &Service{
		logger:         logger.WithFields(zap.String("component", "files")),
		ignoreDefaults: ignoreDefaults,
	}
}

// resolve turns a caller-supplied relative path into an absolute path under
// root. The caller (the dispatcher) is responsible for deriving root from
// the ambient RequestContext via workspace.Root.
func (s *Service) resolve(root, relPath string) (string, error) {
	return workspace.ResolvePath(root, relPath)
}
