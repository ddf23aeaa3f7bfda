package store

import (
	"strings"
)

const reservedChars = ".#$[]"

// Join builds a path from segments. It does not validate them.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// ValidKey reports whether k can be used as a single path segment.
func ValidKey(k string) bool {
	return k != "" && !strings.ContainsAny(k, "/"+reservedChars) && !hasControl(k)
}

// validatePath returns the normalized key for p or ErrInvalidPath.
func validatePath(p string) ([]byte, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return nil, ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || strings.ContainsAny(seg, reservedChars) || hasControl(seg) {
			return nil, ErrInvalidPath
		}
	}
	return []byte(p), nil
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return true
		}
	}
	return false
}

// childPrefix returns the iteration prefix for documents below p.
func childPrefix(p []byte) []byte {
	out := make([]byte, 0, len(p)+1)
	out = append(out, p...)
	return append(out, '/')
}
