// Package output provides formatters for displaying health reports and
// operation results in various formats (pretty, plain, json).
//
// The package uses a registry pattern so the format is selected at
// runtime from a flag.
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/loadout/pkg/loadout/health"
)

// Formatter renders a health report into a buffer.
type Formatter interface {
	Format(w *bytes.Buffer, r *health.Report) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Formatter)
)

// Register adds a formatter under a name. Later registrations replace
// earlier ones.
func Register(name string, f Formatter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Get returns the formatter registered under name.
func Get(name string) (Formatter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, List())
	}
	return f, nil
}

// List returns the registered formatter names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("pretty", &PrettyFormatter{})
	Register("plain", &PlainFormatter{})
	Register("json", &JSONFormatter{})
}
