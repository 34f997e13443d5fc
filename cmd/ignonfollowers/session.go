package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ignonfollowers/pkg/instagram"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/pipeline"
	"ignonfollowers/pkg/session"
	"ignonfollowers/pkg/ui"
)

// sessionCmd groups the saved-session commands
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or remove the saved login session",
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved session file",
	Run:   runSessionStatus,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved session file",
	Long: `Delete the saved session file. The next run logs in with username and
password again. The session stays valid on Instagram's side; use
'session logout' to end it there as well.`,
	Run: runSessionClear,
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log the saved session out of Instagram and delete it",
	RunE:  runSessionLogout,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
}

func runSessionStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	store := session.NewFileStore(cfg.Instagram.SessionFile, instagram.ValidateSession)
	info := store.Stat()

	ui.PrintInfo("Session file", info.Path)
	if !info.Exists {
		ui.PrintWarning("No saved session; the next run logs in with username and password")
		return
	}
	ui.PrintInfo("Size", fmt.Sprintf("%d bytes", info.Size))
	ui.PrintInfo("Modified", info.ModTime)

	blob, err := store.Load()
	if err != nil {
		ui.PrintError("Session file is unusable", err.Error())
		return
	}
	doc, err := instagram.ParseSession(blob)
	if err != nil {
		ui.PrintError("Session file is unusable", err.Error())
		return
	}
	ui.PrintInfo("Account", "@"+doc.Username)
	ui.PrintInfo("User ID", doc.UserID)
	ui.PrintInfo("Saved at", doc.SavedAt.Format("2006-01-02 15:04:05"))
}

func runSessionClear(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	store := session.NewFileStore(cfg.Instagram.SessionFile, nil)

	if !store.Exists() {
		ui.PrintInfo("No session file", store.Path())
		return
	}
	if err := store.Delete(); err != nil {
		ui.PrintError("Failed to delete session file", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Session file deleted: " + store.Path())
}

func runSessionLogout(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cfg := loadConfig(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompter, closePrompt := ui.NewTerminalPrompter()
	defer closePrompt()

	components, err := pipeline.NewFromConfig(cfg, resolveCredentials(cfg), prompter, logger.GetLogger())
	if err != nil {
		return reportFailure("setup", err)
	}
	if !components.Store.Exists() {
		ui.PrintInfo("No session file", components.Store.Path())
		return nil
	}

	a := components.Authenticator
	if err := a.Authenticate(ctx); err != nil {
		return reportFailure("authentication", err)
	}
	if err := a.Logout(ctx); err != nil {
		return reportFailure("logout", err)
	}
	ui.PrintSuccess("Logged out and deleted " + components.Store.Path())
	return nil
}
