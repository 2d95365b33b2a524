package schema

import (
	"regexp"
	"strings"
)

var notIdentChar = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Sanitize maps an arbitrary tenant/collection/schema/field name to a
// safe store identifier (§6): replace any character outside
// [A-Za-z0-9_] with '_', prepend "r_" if the result doesn't start
// with a letter, then lowercase. The mapping is deterministic but not
// injective - callers must avoid collisions by construction (§9).
func Sanitize(name string) string {
	safe := notIdentChar.ReplaceAllString(name, "_")
	if safe == "" || !isLetter(safe[0]) {
		safe = "r_" + safe
	}
	return strings.ToLower(safe)
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
