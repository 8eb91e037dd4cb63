package process

import (
	"fmt"
	"strings"
	"time"

	"github.com/kdlbs/toolgate/internal/textutil"
)

// TruncationThreshold is the size above which a rendering is head-tail
// truncated before being returned to the caller.
const TruncationThreshold = textutil.TruncationThreshold

// TruncateHeadTail, when s exceeds TruncationThreshold characters, keeps
// the first 80% and last 20% of a TruncationThreshold-sized budget,
// separated by a marker naming how many characters were removed.
func TruncateHeadTail(s string) string {
	return textutil.TruncateHeadTail(s)
}

// stripMarker removes the marker line and everything after it from stdout.
func stripMarker(stdout, marker string) string {
	idx := strings.Index(stdout, marker)
	if idx < 0 {
		return stdout
	}
	return stdout[:idx]
}

// outputBlocks renders stdout/stderr as one or two labeled blocks per
// spec §4.A: stdout alone if stderr is empty, stderr alone if stdout is
// empty, both labeled if both are present.
func outputBlocks(stdout, stderr string) string {
	switch {
	case stdout != "" && stderr != "":
		return "STDOUT:\n" + stdout + "\nSTDERR:\n" + stderr
	case stdout != "":
		return stdout
	case stderr != "":
		return stderr
	default:
		return ""
	}
}

// RenderCompleted formats the final outcome of a completed record.
func RenderCompleted(stdout, stderr, marker string, exitCode int) string {
	stdout = stripMarker(stdout, marker)
	body := outputBlocks(stdout, stderr)
	if body != "" {
		body += "\n"
	}
	body += fmt.Sprintf("Exit code: %d", exitCode)
	return TruncateHeadTail(body)
}

// RenderSpawnFailure formats the synchronous response for a shell that
// failed to spawn at all.
func RenderSpawnFailure(err error) string {
	return TruncateHeadTail(fmt.Sprintf("Error: failed to start command: %s\nExit code: 1", err))
}

// RenderRunning formats a still-running record, either just backgrounded or
// polled via checkProcess.
func RenderRunning(id, command, rationale, reason, stdout, stderr string, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString("Process Status: RUNNING\n")
	fmt.Fprintf(&b, "Process ID: %s\n", id)
	fmt.Fprintf(&b, "Command: %s\n", command)
	if rationale != "" {
		fmt.Fprintf(&b, "Rationale: %s\n", rationale)
	}
	fmt.Fprintf(&b, "Elapsed: %ds\n", int(elapsed.Seconds()))
	fmt.Fprintf(&b, "Reason: %s\n", reason)

	body := outputBlocks(stdout, stderr)
	if body == "" {
		b.WriteString("No output captured yet")
	} else {
		b.WriteString(body)
	}
	return TruncateHeadTail(b.String())
}
