// Package envutil provides environment variable utilities for child
// process construction.
package envutil

import (
	"os"
	"sort"
	"strings"
)

// Parent returns the current process environment as a map. Later
// duplicates win, matching how the OS resolves them.
func Parent() map[string]string {
	environ := os.Environ()
	result := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		result[key] = value
	}
	return result
}

// Merge merges a base environment with overrides.
// Overrides take precedence.
func Merge(base, override map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(override))

	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		result[k] = v
	}

	return result
}

// Format renders an environment map as KEY=VALUE strings in sorted key
// order, the form the OS process-creation calls consume.
func Format(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(env))
	for _, k := range keys {
		result = append(result, k+"="+env[k])
	}
	return result
}
