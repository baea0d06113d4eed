package process

import "strings"

// isSafeArgChar reports whether a byte can appear in a command-line
// argument without forcing quotes around it.
func isSafeArgChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("@%-+=:,./|_", c) >= 0
}

// NeedsQuoting reports whether an argument must be quoted to survive a
// trip through a single command-line string. Empty arguments always
// need quotes, otherwise they vanish when the line is re-split.
func NeedsQuoting(arg string) bool {
	if arg == "" {
		return true
	}
	for i := 0; i < len(arg); i++ {
		if !isSafeArgChar(arg[i]) {
			return true
		}
	}
	return false
}

// QuoteArg quotes a single argument for inclusion in a command line.
// Arguments made only of safe characters pass through untouched;
// everything else is wrapped in double quotes with embedded quotes and
// backslashes escaped.
func QuoteArg(arg string) string {
	if !NeedsQuoting(arg) {
		return arg
	}
	var b strings.Builder
	b.Grow(len(arg) + 2)
	b.WriteByte('"')
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}

// JoinArgs renders an argument vector as a single command line, quoting
// each argument as needed.
func JoinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteArg(a)
	}
	return strings.Join(quoted, " ")
}
