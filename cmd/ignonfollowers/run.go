package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ignonfollowers/pkg/auth"
	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/pipeline"
	"ignonfollowers/pkg/ui"
)

var showDetails bool

// runCmd is the explicit form of the root command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch both lists and write the non-follower report",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.Flags().BoolVar(&showDetails, "details", true, "show full names in the console report")
	runCmd.Flags().BoolVar(&showDetails, "details", true, "show full names in the console report")
}

func runReport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cfg := loadConfig(cmd)
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintLogo()
	creds := resolveCredentials(cfg)
	if creds.Username != "" {
		ui.PrintInfo("Account", "@"+creds.Username)
	}
	ui.PrintInfo("Session file", cfg.Instagram.SessionFile)

	prompter, closePrompt := ui.NewTerminalPrompter()
	defer closePrompt()

	components, err := pipeline.NewFromConfig(cfg, creds, prompter, log)
	if err != nil {
		return reportFailure("setup", err)
	}
	lo, hi := components.Pacer.Range()
	ui.PrintInfo("Pacing", fmt.Sprintf("%s to %s between requests", lo, hi))
	notifier := ui.NewNotifier(cfg.Notifications.Enabled)

	ui.PrintHighlight("\n[COLLECTING RELATIONSHIPS]\n")
	result, err := components.Pipeline.Run(ctx)
	if err != nil {
		if apperrors.ReasonOf(err) == apperrors.ReasonChallengeRequired {
			auth.WriteChallengeGuide(os.Stderr, apperrors.URLOf(err))
		}
		if ctx.Err() == nil {
			notifier.SendError("ignonfollowers", "Run failed: "+string(apperrors.KindOf(err)))
		}
		return reportFailure(stageOf(components.Authenticator, err), err)
	}

	fmt.Fprintln(ui.Output())
	ui.PrintReport(ui.ReportView{
		NonFollowers:   result.Summary.NonFollowers,
		FollowingCount: result.Summary.FollowingCount,
		FollowersCount: result.Summary.FollowersCount,
		FansCount:      len(result.Summary.Fans),
		MutualCount:    len(result.Summary.Mutual),
		ShowDetails:    showDetails,
	})
	ui.PrintInfo("TXT", result.Paths.TXT)
	ui.PrintInfo("JSON", result.Paths.JSON)

	notifier.SendSuccess("Report ready",
		fmt.Sprintf("%d accounts don't follow @%s back", len(result.Summary.NonFollowers), result.Username))
	return nil
}

// stageOf names the failed stage for the error message
func stageOf(a *auth.Authenticator, err error) string {
	switch {
	case a.State() != auth.StateAuthenticated:
		return "authentication"
	case apperrors.Is(err, apperrors.KindIO):
		return "export"
	default:
		return "collection"
	}
}
