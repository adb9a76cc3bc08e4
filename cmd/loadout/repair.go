package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/loadout/pkg/loadout/bundle"
	"github.com/jamesainslie/loadout/pkg/loadout/config"
	"github.com/jamesainslie/loadout/pkg/loadout/health"
	"github.com/jamesainslie/loadout/pkg/loadout/installer"
	"github.com/jamesainslie/loadout/pkg/loadout/journal"
	"github.com/jamesainslie/loadout/pkg/loadout/lockfile"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/repair"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Restore missing or corrupted files",
	Long: `Repair re-copies files whose installed bytes are missing or no longer
match the manifest hash. Healthy files are left alone.

When the manifest itself is absent or unreadable the whole bundle is
reinstalled and a fresh manifest written. With --fix-structure, files
found under the legacy directory layout are migrated to the current
one.`,
	RunE: runRepair,
}

func init() {
	addScopeFlags(repairCmd)
	repairCmd.Flags().Bool("fix-structure", false, "migrate legacy directory layout to the current one")
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, _ []string) error {
	root, err := resolveRoot(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	lock, err := lockfile.Acquire(root.Path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	mgr, err := manifest.NewManager(root.Path)
	if err != nil {
		return err
	}

	rules := buildRules(cfg)
	detector := newDetector()

	cache := openHashCache(cfg)
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	checker := health.NewChecker(detector, rules, cache)
	report, err := checker.Check(root.Path, mgr, bundle.Version)
	if err != nil {
		return err
	}

	fixStructure, _ := cmd.Flags().GetBool("fix-structure")

	ins := installer.New(rules, nil)
	r := repair.New(ins, detector, rules)
	res, err := r.Repair(bundle.Embedded(), root.Path, mgr, report, fixStructure)
	if res != nil {
		recordJournal(newJournal(cfg), journal.OpRepair, root.Path, bundle.Version, repairRecords(res))
	}
	if err != nil {
		printRepairFailures(res)
		return fmt.Errorf("repair incomplete: %w", err)
	}

	switch {
	case res.FreshInstall:
		printInfo("Manifest was missing or unreadable: reinstalled %d file(s).", len(res.Succeeded))
	case res.Modified() == 0 && !res.StructureFixed:
		printInfo("Nothing to repair: %d file(s) healthy.", res.Unchanged)
	default:
		printInfo("Repaired %d file(s), %d already healthy.", len(res.Succeeded), res.Unchanged)
	}
	if res.StructureFixed {
		printInfo("Migrated %d file(s) to the %s/ layout.", len(res.Migrated), detector.NewName())
	} else if fixStructure && len(res.Migrated) == 0 {
		printVerbose("no legacy-layout files to migrate")
	}
	return nil
}

// printRepairFailures reports per-file failures. res is nil when repair
// failed before producing a result, for example an unreadable manifest.
func printRepairFailures(res *repair.Result) {
	if res == nil {
		return
	}
	for _, fe := range res.Failed {
		printError("%s: %v", fe.RelPath, fe.Err)
	}
}

func repairRecords(res *repair.Result) []journal.FileRecord {
	records := make([]journal.FileRecord, 0, len(res.Succeeded)+len(res.Migrated)+len(res.Failed))
	for _, rel := range res.Succeeded {
		records = append(records, journal.FileRecord{RelPath: rel, Action: "restored"})
	}
	for _, rel := range res.Migrated {
		records = append(records, journal.FileRecord{RelPath: rel, Action: "migrated"})
	}
	for _, fe := range res.Failed {
		records = append(records, journal.FileRecord{RelPath: fe.RelPath, Action: "failed"})
	}
	return records
}
