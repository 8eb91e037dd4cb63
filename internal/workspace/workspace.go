// Package workspace resolves the per-request workspace root that file and
// command operations scope their paths against.
//
// The original implementation carries the execution id as ambient, per-call
// state. Here it is carried as a RequestContext value on the request's
// context.Context (WithRequestContext / FromContext), and the dispatcher
// derives the root from it and passes that root to each operation; the
// semantic is unchanged: for the life of one RPC call every file and
// command operation resolves relative paths under the same root.
package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kdlbs/toolgate/internal/config"
)

// RequestContext is the ambient value carried for the duration of one RPC
// call. It holds at most an execution id, set by the HTTP front end from the
// Execution-Id header and read by the process executor and file tools.
type RequestContext struct {
	ExecutionID string
}

type ctxKey struct{}

// WithRequestContext attaches rc to ctx, for the dispatcher to thread from
// the HTTP front end down to the tool handlers.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext extracts the RequestContext previously attached by
// WithRequestContext, or the zero value if none was attached.
func FromContext(ctx context.Context) RequestContext {
	rc, _ := ctx.Value(ctxKey{}).(RequestContext)
	return rc
}

// Root returns the workspace root directory for rc, creating it if it does
// not already exist.
func Root(rc RequestContext) (string, error) {
	root := DefaultRoot(rc)
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", err
	}
	return root, nil
}

// DefaultRoot returns the workspace root path for rc without creating it.
func DefaultRoot(rc RequestContext) string {
	if rc.ExecutionID == "" {
		return config.DefaultWorkspaceRoot
	}
	return filepath.Join(config.DefaultWorkspaceRoot, rc.ExecutionID)
}

// ResolvePath resolves a caller-supplied relative (or absolute) path against
// root, rejecting any result that escapes root.
func ResolvePath(root, path string) (string, error) {
	if path == "" {
		path = "."
	}
	var resolved string
	if filepath.IsAbs(path) {
		resolved = filepath.Clean(path)
	} else {
		resolved = filepath.Clean(filepath.Join(root, path))
	}
	cleanRoot := filepath.Clean(root)
	if resolved != cleanRoot && !hasPathPrefix(resolved, cleanRoot) {
		return "", &PathEscapeError{Path: path, Root: root}
	}
	return resolved, nil
}

func hasPathPrefix(path, prefix string) bool {
	rel, err := filepath.Rel(prefix, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepathHasDotDotPrefix(rel)
}

func filepathHasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.'
}

// PathEscapeError indicates a resolved path fell outside its workspace root.
type PathEscapeError struct {
	Path string
	Root string
}

func (e *PathEscapeError) Error() string {
	return "path escapes workspace root: " + e.Path
}
