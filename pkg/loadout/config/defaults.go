// Package config provides configuration management for the loadout CLI.
package config

// Default configuration values for loadout.
const (
	// DefaultRegistry is the package registry queried for version lookups.
	DefaultRegistry = "https://registry.npmjs.org"

	// DefaultPackageName is the registry package name of the managed bundle.
	DefaultPackageName = "@loadout/kit"

	// DefaultLocalDirName is the hidden project-local installation directory.
	DefaultLocalDirName = ".loadout"

	// DefaultRetentionDays is the default number of days to retain journal entries.
	DefaultRetentionDays = 30

	// DefaultBackupKeep is the number of backup snapshots kept before pruning.
	DefaultBackupKeep = 10

	// EnvDirOverride is the environment variable that overrides the
	// installation directory. An explicit --config-dir flag wins over it.
	EnvDirOverride = "LOADOUT_HOME"
)

// DefaultNamespacePrefixes are the relative path prefixes owned by the
// managed bundle. Files outside these prefixes are never modified.
var DefaultNamespacePrefixes = []string{
	"workflows/",
	"commands/",
	"agents/",
}

// DefaultNamespaceFiles are the root-level file names owned by the bundle.
var DefaultNamespaceFiles = []string{
	"loadout-manifest.json",
	".loadout-version",
}
