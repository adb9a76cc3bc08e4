package output

import (
	"bytes"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/loadout/pkg/loadout/health"
	"github.com/jamesainslie/loadout/pkg/loadout/structure"
)

// PrettyFormatter renders a styled, human-oriented report.
type PrettyFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *health.Report) error {
	fmt.Fprintf(w, "%s %s\n\n", headerStyle.Render("Installation:"), r.Root)

	if !r.ManifestPresent {
		fmt.Fprintln(w, warnStyle.Render("not installed")+dimStyle.Render(" (no manifest found)"))
		return nil
	}

	if r.ManifestCorrupt {
		fmt.Fprintln(w, failStyle.Render("manifest unreadable")+dimStyle.Render(" (run repair to rebuild it)"))
	}

	// Files
	missing := 0
	for _, it := range r.Files.Items {
		if it.Status != health.StatusOK {
			missing++
		}
	}
	fmt.Fprintf(w, "%s Files      %d tracked, %d missing\n",
		statusGlyph(r.Files.Passed), len(r.Files.Items), missing)

	// Version
	fmt.Fprintf(w, "%s Version    installed %s, expected %s\n",
		statusGlyph(r.Version.Passed), r.Version.Installed, r.Version.Expected)

	// Integrity
	corrupted := 0
	for _, it := range r.Integrity.Items {
		if it.Status == health.StatusCorrupted {
			corrupted++
		}
	}
	fmt.Fprintf(w, "%s Integrity  %d verified, %d corrupted\n",
		statusGlyph(r.Integrity.Passed), len(r.Integrity.Items)-corrupted, corrupted)

	// Structure
	structLine := fmt.Sprintf("%s Structure  %s", statusGlyph(r.Structure.Passed), r.Structure.Name)
	if r.Structure.State == structure.StateOld {
		structLine = fmt.Sprintf("%s Structure  %s", warnStyle.Render("!"), r.Structure.Name)
	}
	fmt.Fprintln(w, structLine)
	if r.Structure.Warning != "" {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render(r.Structure.Warning))
	}

	// Per-file detail for failures
	for _, it := range append(r.Missing(), r.Corrupted()...) {
		line := fmt.Sprintf("  %s %s", failStyle.Render(string(it.Status)), it.RelPath)
		if it.Detail != "" {
			line += dimStyle.Render(" (" + it.Detail + ")")
		}
		fmt.Fprintln(w, line)
	}

	if len(r.Untracked) > 0 {
		fmt.Fprintf(w, "\n%s\n", dimStyle.Render(fmt.Sprintf("%d untracked file(s) in managed directories (left alone):", len(r.Untracked))))
		for _, u := range r.Untracked {
			fmt.Fprintf(w, "  %s\n", dimStyle.Render(u))
		}
	}

	fmt.Fprintln(w)
	if r.Passed {
		fmt.Fprintln(w, passStyle.Render("healthy"))
	} else {
		fmt.Fprintln(w, failStyle.Render("unhealthy"))
	}
	return nil
}

// Size renders a byte count for command summaries.
func Size(n int64) string {
	return humanize.IBytes(uint64(n))
}
