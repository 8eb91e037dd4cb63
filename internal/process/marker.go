package process

import (
	"regexp"
	"strings"
)

// heredocOpener matches a here-document redirection operator anywhere in a
// shell command line, e.g. "<<EOF", "<<-EOF", "<<'EOF'".
var heredocOpener = regexp.MustCompile(`<<-?\s*['"]?[A-Za-z_][A-Za-z0-9_]*['"]?`)

// markerFor returns the per-record sentinel token used to delimit command
// output and recover the shell's exit status, per spec §4.A. It is derived
// from the record id so two concurrently running shells never share one.
func markerFor(id string) string {
	return "___TOOLGATE_MARKER_" + id + "___"
}

// frameCommand shapes the trailer appended to command so the executor can
// recover $? without closing the shell's stdin. Exactly one of three shapes
// applies, selected by the structure of command itself.
func frameCommand(command, marker string) string {
	trimmed := strings.TrimRight(command, " \t")

	switch {
	case endsWithBackground(trimmed):
		// Insert the marker echo right after the command so $? reflects
		// the backgrounding fork, not the eventual child.
		return trimmed + " echo " + marker + " EXIT_CODE:$?\n"

	case heredocOpener.MatchString(command):
		// A semicolon inside a here-document body would not terminate
		// the document; separate by a newline instead.
		return command + "\necho " + marker + " EXIT_CODE:$?\n"

	default:
		// Redirect stdin from the null device so a command that
		// implicitly reads stdin doesn't block forever. No subshell: a
		// parenthesized form would redirect the whole command's stdin,
		// including a leading "read" meant to receive sendInput, since
		// the redirect applies to the entire group. Left bare, it binds
		// only to the trailing simple command, leaving an earlier "read"
		// attached to the shell's own still-open stdin.
		return command + " </dev/null; echo " + marker + " EXIT_CODE:$?\n"
	}
}

func endsWithBackground(trimmed string) bool {
	return strings.HasSuffix(trimmed, "&") && !strings.HasSuffix(trimmed, "&&")
}

// parseExitCode locates marker in text and extracts the decimal exit code
// that follows "EXIT_CODE:".
func parseExitCode(text, marker string) (int, bool) {
	re := regexp.MustCompile(regexp.QuoteMeta(marker) + ` EXIT_CODE:(\d+)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	code := 0
	for _, c := range m[1] {
		code = code*10 + int(c-'0')
	}
	return code, true
}
