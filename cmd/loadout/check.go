package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/loadout/pkg/loadout/bundle"
	"github.com/jamesainslie/loadout/pkg/loadout/config"
	"github.com/jamesainslie/loadout/pkg/loadout/health"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/output"
	"github.com/jamesainslie/loadout/pkg/loadout/structure"
)

// errUnhealthy signals exit code 1 after the report has been printed.
var errUnhealthy = errors.New("installation is unhealthy")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the installation against its manifest",
	Long: `Check compares the live filesystem state against the manifest and the
expected bundle version.

Four categories are verified: file presence, version, content integrity,
and directory structure. The command exits 0 only when all pass; a
missing installation is reported as such and exits 0.`,
	RunE: runCheck,
}

func init() {
	addScopeFlags(checkCmd)
	checkCmd.Flags().BoolP("json", "j", false, "output JSON format")
	checkCmd.Flags().StringP("output", "o", "pretty", "output format (pretty, plain, json)")
	checkCmd.Flags().Bool("no-cache", false, "bypass the hash cache, rehash every file")
	checkCmd.Flags().Bool("watch", false, "re-run the check on filesystem changes")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
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

	cache := openHashCache(cfg)
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cache = nil
	}
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	checker := health.NewChecker(newDetector(), buildRules(cfg), cache)

	format, _ := cmd.Flags().GetString("output")
	if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
		format = "json"
	}
	formatter, err := output.Get(format)
	if err != nil {
		return err
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		return checker.Watch(context.Background(), root.Path, mgr, bundle.Version, func(r *health.Report) {
			printReport(formatter, r)
		})
	}

	report, err := checker.Check(root.Path, mgr, bundle.Version)
	if err != nil {
		return err
	}
	printReport(formatter, report)

	// A completely absent installation is informational, not a failure
	if !report.ManifestPresent && report.Structure.State == structure.StateNone {
		return nil
	}

	if !report.Passed {
		return errUnhealthy
	}
	return nil
}

func printReport(formatter output.Formatter, r *health.Report) {
	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		printError("formatting report: %v", err)
		return
	}
	fmt.Print(buf.String())
}
