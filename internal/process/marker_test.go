package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameCommandBackgrounded(t *testing.T) {
	got := frameCommand("sleep 5 &", "MARK")
	assert.Contains(t, got, "sleep 5 & echo MARK EXIT_CODE:$?")
	assert.NotContains(t, got, "</dev/null")
}

func TestFrameCommandDoubleAmpersandIsNotBackgrounding(t *testing.T) {
	got := frameCommand("true && false", "MARK")
	assert.Contains(t, got, "</dev/null")
}

func TestFrameCommandHeredoc(t *testing.T) {
	got := frameCommand("cat <<EOF\nhello\nEOF", "MARK")
	assert.Contains(t, got, "cat <<EOF\nhello\nEOF\necho MARK EXIT_CODE:$?\n")
	assert.NotContains(t, got, ";")
}

func TestFrameCommandDefault(t *testing.T) {
	got := frameCommand("echo hi", "MARK")
	assert.Equal(t, "echo hi </dev/null; echo MARK EXIT_CODE:$?\n", got)
}

func TestFrameCommandLeadingReadKeepsRealStdin(t *testing.T) {
	got := frameCommand("read x && echo got:$x", "MARK")
	assert.Equal(t, "read x && echo got:$x </dev/null; echo MARK EXIT_CODE:$?\n", got)
	assert.NotContains(t, got, "(")
}

func TestParseExitCode(t *testing.T) {
	code, ok := parseExitCode("hello\nMARK EXIT_CODE:7\n", "MARK")
	require.True(t, ok)
	assert.Equal(t, 7, code)

	_, ok = parseExitCode("no marker here", "MARK")
	assert.False(t, ok)
}
