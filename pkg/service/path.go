package service

import (
	"fmt"
	"strings"
)

// ValidatePath checks raw against the endpoint path rules and returns its
// canonical form. A valid path is non-empty, absolute (leading '/') and
// contains no query or fragment delimiter. Trailing slashes are stripped, so
// "/chat/" and "/chat" name the same service; the root path "/" is preserved.
//
// Every public registry operation that accepts a path goes through this, reads
// included, so lookups resolve the same entry writes created.
func ValidatePath(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if raw[0] != '/' {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, raw)
	}
	if strings.ContainsAny(raw, "?#") {
		return "", fmt.Errorf("%w: %q contains a query or fragment", ErrInvalidPath, raw)
	}

	canonical := strings.TrimRight(raw, "/")
	if canonical == "" {
		canonical = "/"
	}
	return canonical, nil
}
