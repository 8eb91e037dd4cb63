package process

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampInactivityTimeout(t *testing.T) {
	assert.Equal(t, 0, ClampInactivityTimeout(-5))
	assert.Equal(t, 0, ClampInactivityTimeout(0))
	assert.Equal(t, 600, ClampInactivityTimeout(601))
	assert.Equal(t, 30, ClampInactivityTimeout(30))
}

func TestTruncateHeadTailUnderThreshold(t *testing.T) {
	s := strings.Repeat("a", 100)
	assert.Equal(t, s, TruncateHeadTail(s))
}

func TestTruncateHeadTailOverThreshold(t *testing.T) {
	s := strings.Repeat("a", TruncationThreshold+1000)
	out := TruncateHeadTail(s)
	assert.Contains(t, out, "[... truncated 1000 characters ...]")
	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 10)))
}

func TestRenderCompletedBothStreams(t *testing.T) {
	out := RenderCompleted("stdout text\nMARK EXIT_CODE:3\n", "stderr text", "MARK", 3)
	assert.Contains(t, out, "STDOUT:\nstdout text")
	assert.Contains(t, out, "STDERR:\nstderr text")
	assert.Contains(t, out, "Exit code: 3")
	assert.NotContains(t, out, "MARK EXIT_CODE")
}

func TestRenderCompletedStdoutOnly(t *testing.T) {
	out := RenderCompleted("only stdout\nMARK EXIT_CODE:0\n", "", "MARK", 0)
	assert.NotContains(t, out, "STDOUT:")
	assert.Contains(t, out, "only stdout")
	assert.Contains(t, out, "Exit code: 0")
}

func TestRenderRunningNoOutput(t *testing.T) {
	out := RenderRunning("proc_1_abc", "sleep 30", "t", "no output for 20s", "", "", 0)
	assert.Contains(t, out, "Process Status: RUNNING")
	assert.Contains(t, out, "Process ID: proc_1_abc")
	assert.Contains(t, out, "Command: sleep 30")
	assert.Contains(t, out, "Rationale: t")
	assert.Contains(t, out, "No output captured yet")
	assert.NotContains(t, out, "Exit code:")
}

func TestNewProcessIDFormat(t *testing.T) {
	id := NewProcessID()
	assert.Regexp(t, `^proc_\d+_[0-9a-z]+$`, id)
}
