package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/loadout/pkg/loadout/config"
	"github.com/jamesainslie/loadout/pkg/loadout/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded lifecycle operations",
	Long: `History lists the journal of install, uninstall, repair, and update
runs, newest first. The journal is advisory: lifecycle operations never
read it, so a damaged journal affects history output only.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one journal entry in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete journal entries past the retention window",
	RunE:  runHistoryClean,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum entries to show (0 for all)")
	historyCmd.Flags().BoolP("json", "j", false, "emit entries as JSON")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	j := newJournal(cfg)
	if j == nil {
		printInfo("Journal is disabled.")
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := j.List(limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		printInfo("No operations recorded.")
		return nil
	}

	for _, e := range entries {
		status := fmt.Sprintf("%d file(s), %s", e.Summary.TotalFiles, output.Size(e.Summary.TotalBytes))
		if e.Summary.Failed > 0 {
			status += fmt.Sprintf(", %d failed", e.Summary.Failed)
		}
		fmt.Printf("%s  %-9s %-42s %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Operation, e.ID, status)
	}
	return nil
}

func runHistoryShow(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	j := newJournal(cfg)
	if j == nil {
		return fmt.Errorf("journal is disabled")
	}

	entry, err := j.Get(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entry)
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	j := newJournal(cfg)
	if j == nil {
		printInfo("Journal is disabled.")
		return nil
	}

	if err := j.Cleanup(cfg.Journal.RetentionDays); err != nil {
		return err
	}
	printInfo("Removed entries older than %d day(s).", cfg.Journal.RetentionDays)
	return nil
}
