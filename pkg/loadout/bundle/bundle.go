// Package bundle provides the embedded asset bundle managed by loadout.
//
// The assets are embedded at compile time via go:embed so that every
// distribution channel can install them without network access or extra
// files. The directory layout under assets/ is the namespace-relative
// layout written to the installation root, using the current
// subdirectory names.
package bundle

import (
	"embed"
	"io/fs"
)

// Version is the version of the embedded bundle. Set at release time;
// the installed version marker records this value.
const Version = "1.4.2"

//go:embed all:assets
var assetsFS embed.FS

// Bundle is a source bundle: a filesystem of namespace-relative assets
// plus the version they represent. Tests substitute fstest.MapFS.
type Bundle struct {
	FS      fs.FS
	Version string
}

// Embedded returns the bundle compiled into the binary.
func Embedded() Bundle {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		// The assets directory is embedded at build time; a missing
		// subtree is a build defect, not a runtime condition.
		panic("bundle: embedded assets missing: " + err.Error())
	}
	return Bundle{FS: sub, Version: Version}
}
