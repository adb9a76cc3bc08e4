package output

import (
	"bytes"
	"fmt"

	"github.com/jamesainslie/loadout/pkg/loadout/health"
)

// PlainFormatter renders an unstyled report suitable for piping.
type PlainFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *health.Report) error {
	fmt.Fprintf(w, "root\t%s\n", r.Root)

	if !r.ManifestPresent {
		fmt.Fprintln(w, "status\tnot-installed")
		return nil
	}

	if r.ManifestCorrupt {
		fmt.Fprintln(w, "manifest\tcorrupt")
	}
	fmt.Fprintf(w, "files\t%s\n", passFail(r.Files.Passed))
	fmt.Fprintf(w, "version\t%s\tinstalled=%s\texpected=%s\n",
		passFail(r.Version.Passed), r.Version.Installed, r.Version.Expected)
	fmt.Fprintf(w, "integrity\t%s\n", passFail(r.Integrity.Passed))
	fmt.Fprintf(w, "structure\t%s\t%s\n", passFail(r.Structure.Passed), r.Structure.Name)

	for _, it := range append(r.Missing(), r.Corrupted()...) {
		fmt.Fprintf(w, "file\t%s\t%s\n", it.Status, it.RelPath)
	}
	for _, u := range r.Untracked {
		fmt.Fprintf(w, "untracked\t%s\n", u)
	}

	fmt.Fprintf(w, "status\t%s\n", passFail(r.Passed))
	return nil
}

func passFail(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}
