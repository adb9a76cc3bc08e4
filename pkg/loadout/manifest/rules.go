package manifest

import (
	"path"
	"strings"
)

// Rules is the compiled namespace predicate: which relative paths belong
// to the managed bundle. Rules are built once per run and passed into
// every component that deletes or overwrites files.
type Rules struct {
	prefixes []string
	files    map[string]struct{}
}

// NewRules compiles namespace rules from prefix patterns and root-level
// file names. Prefixes are normalized to slash form with a trailing slash.
func NewRules(prefixes, files []string) Rules {
	r := Rules{files: make(map[string]struct{}, len(files))}
	for _, p := range prefixes {
		p = strings.Trim(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
		if p == "" || p == "." {
			continue
		}
		r.prefixes = append(r.prefixes, p+"/")
	}
	for _, f := range files {
		r.files[f] = struct{}{}
	}
	return r
}

// Contains reports whether a relative path belongs to the managed bundle.
// Paths are normalized before matching; anything that fails to normalize
// cleanly (absolute, traversal) is outside the namespace.
func (r Rules) Contains(relPath string) bool {
	rel := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	if rel == "." || rel == "" || strings.HasPrefix(rel, "../") || rel == ".." || strings.HasPrefix(rel, "/") {
		return false
	}

	if _, ok := r.files[rel]; ok {
		return true
	}

	for _, p := range r.prefixes {
		if strings.HasPrefix(rel, p) {
			return true
		}
	}
	return false
}

// Prefixes returns the compiled prefix list (with trailing slashes).
func (r Rules) Prefixes() []string {
	out := make([]string, len(r.prefixes))
	copy(out, r.prefixes)
	return out
}
