package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/loadout/pkg/loadout/bundle"
	"github.com/jamesainslie/loadout/pkg/loadout/config"
	"github.com/jamesainslie/loadout/pkg/loadout/installer"
	"github.com/jamesainslie/loadout/pkg/loadout/journal"
	"github.com/jamesainslie/loadout/pkg/loadout/lockfile"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/output"
	"github.com/jamesainslie/loadout/pkg/loadout/structure"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the bundle into a configuration tree",
	Long: `Install copies the bundled agent and workflow definitions into the
selected installation root and records every file in the manifest.

Text assets have their installation-root placeholder rewritten to the
resolved path. Re-running install is safe: an identical bundle produces
an identical installation.`,
	RunE: runInstall,
}

func init() {
	addScopeFlags(installCmd)
	installCmd.Flags().BoolP("json", "j", false, "output JSON format")
	installCmd.Flags().BoolP("dry-run", "d", false, "show what would be installed without writing anything")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	root, err := resolveRoot(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	// A dry run touches nothing, so it does not need the lock either
	if !dryRun {
		lock, err := lockfile.Acquire(root.Path)
		if err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()
	}

	detector := newDetector()
	state := detector.Detect(root.Path)
	if state == structure.StateDual {
		return fmt.Errorf("both %s/ and %s/ exist under %s: interrupted migration, run 'loadout repair --fix-structure' first",
			detector.OldName(), detector.NewName(), root.Path)
	}

	mgr, err := manifest.NewManager(root.Path)
	if err != nil {
		return err
	}
	hadManifest := mgr.Exists()

	b := bundle.Embedded()
	ins := installer.New(buildRules(cfg), nil)

	printVerbose("installing %s into %s (%s scope, %s layout)", b.Version, root.Path, root.Kind, state)

	res, err := ins.Install(b, installer.Options{
		Root:     root.Path,
		WriteDir: detector.WriteDir(state),
		DryRun:   dryRun,
	})
	if err != nil {
		// A fresh install discards its partial state; a re-install
		// keeps what was written so repair can finish the job.
		if !hadManifest && !dryRun {
			discardPartial(root.Path, res)
		}
		for _, fe := range res.Failed {
			printError("%s: %v", fe.RelPath, fe.Err)
		}
		return fmt.Errorf("install failed: %w", err)
	}

	if dryRun {
		var totalBytes int64
		for _, e := range res.Manifest.Entries {
			totalBytes += e.Size
		}
		printInfo("Would install %s (%d files, %s) to %s", b.Version, len(res.Copied), output.Size(totalBytes), root.Path)
		for _, rel := range res.Copied {
			printInfo("  %s", rel)
		}
		return nil
	}

	// Content files are on disk; commit marker and manifest last
	if err := mgr.Save(res.Manifest); err != nil {
		return fmt.Errorf("committing manifest: %w", err)
	}

	recordJournal(newJournal(cfg), journal.OpInstall, root.Path, b.Version, journalRecords(res, "installed"))

	var totalBytes int64
	for _, e := range res.Manifest.Entries {
		totalBytes += e.Size
	}

	if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"version":     b.Version,
			"root":        root.Path,
			"files":       len(res.Copied),
			"total_bytes": totalBytes,
			"copied":      res.Copied,
		})
	}

	printInfo("Installed %s (%d files, %s) to %s", b.Version, len(res.Copied), output.Size(totalBytes), root.Path)
	if getVerbose() {
		for _, rel := range res.Copied {
			printVerbose("  %s", rel)
		}
	}
	return nil
}

// discardPartial removes the files a failed fresh install managed to
// write. Only the copied paths are touched, never the root wholesale: the
// target directory may hold user files.
func discardPartial(rootPath string, res *installer.Result) {
	if res == nil {
		return
	}
	for _, e := range res.Manifest.Entries {
		_ = os.Remove(e.Path)
	}
	printVerbose("discarded %d partially installed file(s)", len(res.Manifest.Entries))
}

// journalRecords converts an install result into journal file records.
func journalRecords(res *installer.Result, action string) []journal.FileRecord {
	records := make([]journal.FileRecord, 0, len(res.Manifest.Entries)+len(res.Failed))
	for _, e := range res.Manifest.Entries {
		records = append(records, journal.FileRecord{RelPath: e.RelativePath, Size: e.Size, Action: action})
	}
	for _, fe := range res.Failed {
		records = append(records, journal.FileRecord{RelPath: fe.RelPath, Action: "failed"})
	}
	return records
}
