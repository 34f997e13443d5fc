package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"ignonfollowers/pkg/auth"
	"ignonfollowers/pkg/config"
	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	outputDir   string
	sessionFile string
	minDelay    float64
	maxDelay    float64
	account     string
	noNotify    bool
	quiet       bool
)

// rootCmd runs the report when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "ignonfollowers",
	Short: "Find the Instagram accounts that don't follow you back",
	Long: `ignonfollowers logs in to your Instagram account, fetches the lists of
accounts you follow and accounts that follow you, and reports everyone who
does not follow you back.

The login session is saved to a file and reused on later runs. Requests are
spaced out with random pauses to stay below Instagram's rate limits.

Results are written to the output directory as TXT and JSON.`,
	Example: `  # Credentials from the environment or .env
  INSTAGRAM_USERNAME=me INSTAGRAM_PASSWORD=... ignonfollowers

  # Use an account stored with 'ignonfollowers auth login'
  ignonfollowers --account me`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Version = version
		if quiet {
			ui.SetOutput(io.Discard)
		}
	},
	RunE:          runReport,
	SilenceErrors: true,
}

// Execute runs the root command and exits with its status
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	var exit *exitError
	switch {
	case err == nil:
	case errors.As(err, &exit):
		os.Exit(exit.code)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default .ignonfollowers.yaml or ~/.config/ignonfollowers/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVarP(&outputDir, "output", "o", "", "directory for report files")
	flags.StringVar(&sessionFile, "session-file", "", "path of the saved login session")
	flags.Float64Var(&minDelay, "min-delay", -1, "minimum pause between requests, in seconds")
	flags.Float64Var(&maxDelay, "max-delay", -1, "maximum pause between requests, in seconds")
	flags.StringVarP(&account, "account", "a", "", "stored account to log in with")
	flags.BoolVar(&noNotify, "no-notify", false, "disable desktop notifications")
	flags.BoolVarP(&quiet, "quiet", "q", false, "print nothing but errors")

	rootCmd.SetVersionTemplate(`ignonfollowers {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// flagOverrides returns only the flags the user actually set
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	overrides := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("log-level") {
		overrides["log-level"] = logLevel
	}
	if changed("output") {
		overrides["output"] = outputDir
	}
	if changed("session-file") {
		overrides["session-file"] = sessionFile
	}
	if changed("min-delay") {
		overrides["min-delay"] = minDelay
	}
	if changed("max-delay") {
		overrides["max-delay"] = maxDelay
	}
	if noNotify {
		overrides["notifications"] = false
	}
	if quiet && !changed("log-level") {
		overrides["log-level"] = "error"
	}
	return overrides
}

// loadConfig loads the config and sets up the global logger
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	return cfg
}

// resolveCredentials prefers --account, then the config and environment,
// then the most recently stored account
func resolveCredentials(cfg *config.Config) auth.Credentials {
	log := logger.GetLogger()

	if account == "" && cfg.HasCredentials() {
		return auth.Credentials{Username: cfg.Instagram.Username, Password: cfg.Instagram.Password}
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("Credential store unavailable")
		return auth.Credentials{Username: cfg.Instagram.Username, Password: cfg.Instagram.Password}
	}

	var stored *auth.Account
	if account != "" {
		stored, err = manager.Retrieve(account)
	} else {
		stored, err = manager.RetrieveDefault()
	}
	if err != nil {
		log.WithError(err).Debug("No stored credentials")
		return auth.Credentials{Username: cfg.Instagram.Username, Password: cfg.Instagram.Password}
	}

	log.WithField("username", stored.Username).Info("Using stored credentials")
	return stored.Credentials()
}

// exitError carries a process status out of a command whose failure has
// already been reported
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// reportFailure prints err with its hint and returns the exit status for
// Execute. An interrupt exits 0.
func reportFailure(stage string, err error) error {
	if errors.Is(err, context.Canceled) {
		ui.PrintWarning("Interrupted")
		logger.GetLogger().Info("Interrupted by user")
		return &exitError{code: 0}
	}

	kind := apperrors.KindOf(err)
	logger.GetLogger().WithError(err).WithFields(map[string]interface{}{
		"stage":  stage,
		"kind":   string(kind),
		"reason": string(apperrors.ReasonOf(err)),
	}).Error("Run failed")

	// status output may be silenced; errors always go to stderr
	fmt.Fprintln(os.Stderr, ui.Red(stage+" failed: "+err.Error()))
	if hint := apperrors.HintOf(err); hint != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.Dim("hint:"), hint)
	} else if apperrors.IsRetryable(kind) {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.Dim("hint:"), "this is usually temporary; wait a few minutes and run again")
	}
	return &exitError{code: 1}
}
