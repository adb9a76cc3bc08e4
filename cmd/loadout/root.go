package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/loadout/pkg/loadout/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "loadout",
		Short: "Manage the loadout agent/workflow bundle",
		Long: `Loadout installs and maintains a bundle of agent and workflow
definitions inside your configuration tree.

Every installed file is tracked in a manifest with its size and content
hash. Files outside the managed namespace are never modified.

Examples:
  loadout install --local        # Install into ./.loadout
  loadout install --global       # Install into the user config directory
  loadout check                  # Verify the installation
  loadout repair --fix-structure # Fix a broken or half-migrated install
  loadout uninstall --backup     # Remove, keeping a backup snapshot
  loadout update                 # Update to the latest version`,
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/loadout/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// addScopeFlags registers the scope selection flags shared by the
// commands that operate on an installation root.
func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("global", false, "target the user-wide installation")
	cmd.Flags().Bool("local", false, "target ./"+config.DefaultLocalDirName)
	cmd.Flags().String("config-dir", "", "explicit installation directory (overrides scope and "+config.EnvDirOverride+")")
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "loadout"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "loadout"))
		}
	}

	viper.SetEnvPrefix("LOADOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
