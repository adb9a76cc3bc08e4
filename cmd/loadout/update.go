package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/loadout/pkg/loadout/bundle"
	"github.com/jamesainslie/loadout/pkg/loadout/config"
	"github.com/jamesainslie/loadout/pkg/loadout/installer"
	"github.com/jamesainslie/loadout/pkg/loadout/journal"
	"github.com/jamesainslie/loadout/pkg/loadout/lockfile"
	"github.com/jamesainslie/loadout/pkg/loadout/manifest"
	"github.com/jamesainslie/loadout/pkg/loadout/update"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the installation to the released version",
	Long: `Update asks the package registry which version is current, compares it
to the installed one, and re-installs when they differ. The install
location is the one already in use: update never moves an installation
between scopes.

With --version the given version is used instead of the release
channel; with --beta the beta channel is resolved.`,
	RunE: runUpdate,
}

func init() {
	addScopeFlags(updateCmd)
	updateCmd.Flags().String("version", "", "update to this exact version")
	updateCmd.Flags().Bool("beta", false, "resolve the beta channel")
	updateCmd.Flags().String("registry", "", "override the package registry URL")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
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

	registry := cfg.Update.Registry
	if override, _ := cmd.Flags().GetString("registry"); override != "" {
		registry = override
	}
	resolver := &update.RegistryResolver{BaseURL: registry}

	pinned, _ := cmd.Flags().GetString("version")
	beta, _ := cmd.Flags().GetBool("beta")
	req := update.Request{
		Package: cfg.Update.Package,
		Pinned:  pinned,
		Beta:    beta,
	}

	ins := installer.New(buildRules(cfg), nil)
	orch := update.New(ins, newDetector())

	out, err := orch.Update(context.Background(), bundle.Embedded(), root.Path, mgr, resolver, req)
	if err != nil {
		return err
	}

	if out.AlreadyCurrent {
		printInfo("Already up to date (%s).", out.Target)
		return nil
	}

	recordJournal(newJournal(cfg), journal.OpUpdate, root.Path, out.Target, []journal.FileRecord{
		{RelPath: ".", Action: fmt.Sprintf("updated %s -> %s", orNone(out.Installed), out.Target)},
	})
	printInfo("Updated %s -> %s (%d file(s) written).", orNone(out.Installed), out.Target, out.Copied)
	return nil
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
