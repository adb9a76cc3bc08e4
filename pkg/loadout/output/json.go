package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/loadout/pkg/loadout/health"
)

// JSONFormatter renders the report as a single indented JSON object.
// The health.Report JSON tags define the schema.
type JSONFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *health.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
