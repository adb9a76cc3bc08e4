package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List manifest-tracked files",
	Long: `List prints every file the manifest tracks at the resolved scope,
with size and content hash. Files on disk that the manifest does not
know about are not shown; use 'loadout check' for those.`,
	RunE: runList,
}

func init() {
	addScopeFlags(listCmd)
	listCmd.Flags().BoolP("json", "j", false, "emit the manifest as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	root, err := resolveRoot(cmd)
	if err != nil {
		return err
	}

	mgr, err := manifest.NewManager(root.Path)
	if err != nil {
		return err
	}
	if !mgr.Exists() {
		printInfo("No installation found at %s", root.Path)
		return nil
	}

	mf, err := mgr.Load()
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(mf)
	}

	printInfo("Installation at %s (version %s):", root.Path, mgr.InstalledVersion())
	var total int64
	for _, e := range mf.Entries {
		fmt.Printf("  %-12s %-10s %s\n", output.Size(e.Size), shortHash(e.Hash), e.RelativePath)
		total += e.Size
	}
	printInfo("%d file(s), %s total", len(mf.Entries), output.Size(total))
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
