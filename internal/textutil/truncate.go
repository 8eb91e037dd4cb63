// Package textutil holds small, pure string-shaping helpers shared by the
// process executor and file tool suite.
package textutil

import "fmt"

// TruncationThreshold is the size above which a rendering is head-tail
// truncated before being returned to the caller.
const TruncationThreshold = 30000

// headFraction is the share of TruncationThreshold retained from the start
// of the string; the remainder is retained from the end.
const headFraction = 0.8

// TruncateHeadTail, when s exceeds TruncationThreshold characters, keeps
// TruncationThreshold characters of it: the first 80% of that budget from
// the start of s and the last 20% from its end, separated by a marker
// naming how many characters were removed. This is the "head-tail
// truncation" scheme applied to every outbound tool rendering over the
// threshold.
func TruncateHeadTail(s string) string {
	runes := []rune(s)
	if len(runes) <= TruncationThreshold {
		return s
	}
	headLen := int(float64(TruncationThreshold) * headFraction)
	tailLen := TruncationThreshold - headLen
	removed := len(runes) - headLen - tailLen
	head := string(runes[:headLen])
	tail := string(runes[len(runes)-tailLen:])
	return fmt.Sprintf("%s\n\n[... truncated %d characters ...]\n\n%s", head, removed, tail)
}
