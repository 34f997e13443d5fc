package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ignonfollowers/pkg/config"
	"ignonfollowers/pkg/ui"
)

// configCmd groups the configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage the ignonfollowers configuration.

Values are taken from, highest priority first:
  1. Command line flags
  2. Environment variables (INSTAGRAM_USERNAME, MIN_DELAY, ...)
  3. .env in the working directory or ~/.ignonfollowers.env
  4. The YAML config file
  5. Defaults`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	Run:   runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run:   runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the effective configuration",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".ignonfollowers.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Fprintln(ui.Output(), "\nTo overwrite, first remove the existing file:")
		fmt.Fprintf(ui.Output(), "  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		ui.PrintError("Failed to write configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration written to " + configPath)
	fmt.Fprintln(ui.Output(), "\nNext steps:")
	fmt.Fprintln(ui.Output(), "1. Set INSTAGRAM_USERNAME and INSTAGRAM_PASSWORD, or run 'ignonfollowers auth login'")
	fmt.Fprintln(ui.Output(), "2. Run 'ignonfollowers config validate' to check the configuration")
	fmt.Fprintln(ui.Output(), "3. Run 'ignonfollowers'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Output())
	fmt.Fprint(ui.Output(), string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	fmt.Fprintf(ui.Output(), "\nConfig file: %s\n", source)
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		ui.PrintError("Configuration is invalid")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")
	if !cfg.HasCredentials() {
		ui.PrintWarning("No username/password configured; a stored account will be used if one exists")
	}
}
