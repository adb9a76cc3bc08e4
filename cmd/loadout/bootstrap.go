package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/loadout/pkg/loadout/config"
	"github.com/jamesainslie/loadout/pkg/loadout/hashcache"
	"github.com/jamesainslie/loadout/pkg/loadout/journal"
	"github.com/jamesainslie/loadout/pkg/loadout/logging"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/scope"
	"github.com/jamesainslie/loadout/pkg/loadout/structure"
)

func init() {
	rootCmd.PersistentPreRunE = bootstrapLogging
}

// bootstrapLogging initializes the logging system from the loaded config.
// --verbose additionally echoes debug logs to stderr.
func bootstrapLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if getVerbose() {
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	return nil
}

// parseRotationConfig converts the config representation (human sizes)
// into the logging package's byte counts.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
	if rc.MaxSize != "" {
		if size, err := humanize.ParseBytes(rc.MaxSize); err == nil {
			out.MaxSize = int64(size)
		}
	}
	return out
}

// resolveRoot computes the installation root from the command's scope
// flags, the environment override, and the scope defaults.
func resolveRoot(cmd *cobra.Command) (scope.Root, error) {
	global, _ := cmd.Flags().GetBool("global")
	local, _ := cmd.Flags().GetBool("local")
	dirOverride, _ := cmd.Flags().GetString("config-dir")

	return scope.Resolve(scope.Options{
		Global:      global,
		Local:       local,
		DirOverride: dirOverride,
		EnvOverride: scope.FromEnv(),
	})
}

// buildRules compiles the namespace rules from configuration.
func buildRules(cfg *config.Config) manifest.Rules {
	return manifest.NewRules(cfg.Namespace.Prefixes, cfg.Namespace.Files)
}

// newDetector returns the structure detector with the historical
// directory names.
func newDetector() *structure.Detector {
	return structure.NewDetector(structure.OldDirName, structure.NewDirName)
}

// openHashCache opens the badger hash cache, or returns nil when the
// cache is disabled or unavailable. A nil cache just means full
// rehashing.
func openHashCache(cfg *config.Config) *hashcache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	cache, err := hashcache.Open(cfg.Cache.Path)
	if err != nil {
		printVerbose("hash cache unavailable: %v", err)
		return nil
	}
	return cache
}

// newJournal returns the operation journal, or nil when disabled.
func newJournal(cfg *config.Config) *journal.Journal {
	if !cfg.Journal.Enabled {
		return nil
	}
	j, err := journal.New(cfg.Journal.Path)
	if err != nil {
		return nil
	}
	return j
}

// recordJournal logs an operation entry, best effort.
func recordJournal(j *journal.Journal, op journal.Operation, root, version string, files []journal.FileRecord) {
	if j == nil {
		return
	}
	if _, err := j.Log(op, root, version, files); err != nil {
		printVerbose("journal write failed: %v", err)
	}
}
