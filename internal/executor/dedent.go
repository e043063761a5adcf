package executor

import (
	"strings"
	"unicode"
)

// Dedent removes the leading whitespace of the first non-blank line from
// every line, provided every non-blank line starts with it. Otherwise body is
// returned unchanged. Blank lines lose the prefix too; a blank line shorter
// than the prefix becomes empty.
func Dedent(body string) string {
	lines := strings.Split(body, "\n")

	prefix, found := "", false
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		prefix = line[:len(line)-len(strings.TrimLeftFunc(line, unicode.IsSpace))]
		found = true
		break
	}
	if !found || prefix == "" {
		return body
	}

	for _, line := range lines {
		if !isBlank(line) && !strings.HasPrefix(line, prefix) {
			return body
		}
	}

	for i, line := range lines {
		if trimmed, ok := strings.CutPrefix(line, prefix); ok {
			lines[i] = trimmed
		} else {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// PrepareScript turns a directive body into the script file contents:
// dedented, without trailing whitespace, ending in a single newline.
func PrepareScript(body string) string {
	return strings.TrimRightFunc(Dedent(body), unicode.IsSpace) + "\n"
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
