// Package rewrite is the path-rewriting collaborator: a pure function
// from raw asset text and an install prefix to rewritten text.
package rewrite

import (
	"bytes"
	"path"
	"strings"
)

// Token is the placeholder replaced with the installation root in text
// assets.
const Token = "{{LOADOUT_ROOT}}"

// Func rewrites raw asset bytes for an installation rooted at root.
// Implementations must be pure: same inputs, same output, no I/O.
type Func func(raw []byte, root string) []byte

// Default replaces every occurrence of Token with the installation root.
func Default(raw []byte, root string) []byte {
	return bytes.ReplaceAll(raw, []byte(Token), []byte(root))
}

// textExtensions are the asset types eligible for rewriting. Anything
// else is copied byte for byte.
var textExtensions = map[string]struct{}{
	".md":   {},
	".txt":  {},
	".yaml": {},
	".yml":  {},
	".json": {},
}

// IsTextPath reports whether a relative path names a rewritable text asset.
func IsTextPath(relPath string) bool {
	ext := strings.ToLower(path.Ext(relPath))
	_, ok := textExtensions[ext]
	return ok
}

// sniffLen bounds how much of a file is examined for binary content.
const sniffLen = 8000

// IsBinary reports whether data looks binary (contains a NUL byte in its
// leading bytes). Binary files bypass rewriting even when their extension
// claims text.
func IsBinary(data []byte) bool {
	n := len(data)
	if n > sniffLen {
		n = sniffLen
	}
	return bytes.IndexByte(data[:n], 0) != -1
}
