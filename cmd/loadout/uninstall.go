package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/loadout/pkg/loadout/config"
	"github.com/jamesainslie/loadout/pkg/loadout/confirm"
	"github.com/jamesainslie/loadout/pkg/loadout/journal"
	"github.com/jamesainslie/loadout/pkg/loadout/lockfile"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/output"
	"github.com/jamesainslie/loadout/pkg/loadout/uninstall"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the managed installation",
	Long: `Uninstall deletes every manifest-tracked file that lies inside the
managed namespace, then removes directories left empty and finally the
manifest itself.

Files the manifest does not list, and files outside the namespace, are
never touched. Use --dry-run to preview the exact removal set; the
preview is what a real run removes.`,
	RunE: runUninstall,
}

func init() {
	addScopeFlags(uninstallCmd)
	uninstallCmd.Flags().BoolP("force", "f", false, "skip the confirmation prompt")
	uninstallCmd.Flags().BoolP("dry-run", "d", false, "preview removals without touching the filesystem")
	uninstallCmd.Flags().Bool("backup", false, "write a timestamped backup snapshot before deleting")
	uninstallCmd.Flags().Bool("trash", false, "move files to the system trash instead of deleting")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	root, err := resolveRoot(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	mgr, err := manifest.NewManager(root.Path)
	if err != nil {
		return err
	}
	if !mgr.Exists() {
		printInfo("Nothing to uninstall: no installation found at %s", root.Path)
		return nil
	}

	mf, err := mgr.Load()
	if err != nil {
		return err
	}

	var strategy uninstall.Strategy = uninstall.Permanent{}
	if trash, _ := cmd.Flags().GetBool("trash"); trash {
		strategy = uninstall.Trash{}
	}

	u := uninstall.New(buildRules(cfg), strategy)
	plan := u.BuildPlan(root.Path, mf)

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		printPlan(plan, root.Path)
		return nil
	}

	if force, _ := cmd.Flags().GetBool("force"); !force {
		if !confirm.Interactive() {
			return fmt.Errorf("refusing to uninstall without --force in a non-interactive session")
		}
		ok, err := confirm.Prompt(fmt.Sprintf("Remove %d managed file(s) from %s?", len(plan.Remove), root.Path))
		if err != nil {
			return err
		}
		if !ok {
			printInfo("Aborted.")
			return nil
		}
	}

	lock, err := lockfile.Acquire(root.Path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	withBackup, _ := cmd.Flags().GetBool("backup")
	res, err := u.Run(root.Path, mgr, plan, uninstall.Options{
		Backup:    withBackup,
		BackupDir: cfg.Backup.Dir,
	})

	if cache := openHashCache(cfg); cache != nil {
		_ = cache.Purge(root.Path)
		_ = cache.Close()
	}

	records := make([]journal.FileRecord, 0, len(res.Removed)+len(res.Failed))
	for _, rel := range res.Removed {
		records = append(records, journal.FileRecord{RelPath: rel, Action: "removed"})
	}
	for _, fe := range res.Failed {
		records = append(records, journal.FileRecord{RelPath: fe.RelPath, Action: "failed"})
	}
	recordJournal(newJournal(cfg), journal.OpUninstall, root.Path, mf.Version, records)

	if res.BackupPath != "" {
		printInfo("Backup written to %s", res.BackupPath)
		_ = uninstall.PruneBackups(cfg.Backup.Dir, cfg.Backup.Keep)
	}

	if err != nil {
		for _, fe := range res.Failed {
			printError("%s: %v", fe.RelPath, fe.Err)
		}
		return fmt.Errorf("uninstall incomplete: %w", err)
	}

	printInfo("Removed %d file(s) from %s", len(res.Removed), root.Path)
	if len(res.PrunedDirs) > 0 {
		printVerbose("pruned empty directories: %v", res.PrunedDirs)
	}
	return nil
}

// printPlan renders the dry-run preview.
func printPlan(plan *uninstall.Plan, rootPath string) {
	printInfo("Would remove %d file(s) from %s:", len(plan.Remove), rootPath)
	var total int64
	for _, a := range plan.Remove {
		printInfo("  %s (%s)", a.RelPath, output.Size(a.Size))
		total += a.Size
	}
	printInfo("Total: %s", output.Size(total))
	for _, s := range plan.Skipped {
		printInfo("  skipping %s: %s", s.RelPath, s.Reason)
	}
	printInfo("Plus the manifest and version marker.")
}
