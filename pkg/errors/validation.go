package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateName validates a net or block name read from a netlist.
// Names show up in route dumps and DOT output, so they must be printable
// and free of whitespace.
//
// Rules:
//   - No empty names
//   - Maximum length of 256 characters
//   - No control characters or whitespace
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidNetlist, "name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidNetlist, "name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNetlist, "name %q contains control characters", name)
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidNetlist, "name %q contains whitespace", name)
		}
	}

	return nil
}

// ValidateOutputPath validates a path the CLI is about to write to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// formatRegex matches output format names accepted by the reporters.
var formatRegex = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// ValidateFormat checks that format is one of allowed.
func ValidateFormat(format string, allowed ...string) error {
	if !formatRegex.MatchString(format) {
		return New(ErrCodeInvalidFormat, "invalid format name: %q", format)
	}
	for _, a := range allowed {
		if a == format {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
