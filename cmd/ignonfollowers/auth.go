package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ignonfollowers/pkg/auth"
	"ignonfollowers/pkg/instagram"
	"ignonfollowers/pkg/ui"
)

// authCmd groups the stored-credential commands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Instagram credentials",
	Long: `Manage stored Instagram credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your credentials or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store a username and password",
	Long: `Store an Instagram username and password in the system keychain, or in
an encrypted file when no keychain is available.

The password is read without echo. Nothing is sent to Instagram until the
next report run.`,
	Example: `  # Interactive
  ignonfollowers auth login

  # With username
  ignonfollowers auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	Run:   runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func newManager() *auth.Manager {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}
	return manager
}

func runLogin(cmd *cobra.Command, args []string) {
	manager := newManager()

	ctx := cmd.Context()
	prompter := ui.NewPrompter(os.Stdin, os.Stderr)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		line, err := prompter.Prompt(ctx, "Instagram username")
		if err != nil {
			ui.PrintError("Failed to read username", err.Error())
			os.Exit(1)
		}
		username = line
	}

	username = instagram.SanitizeUsername(strings.TrimSpace(username))
	if !instagram.IsValidUsername(username) {
		ui.PrintError("Invalid username", username)
		os.Exit(1)
	}

	password, err := prompter.ReadSecret(ctx, "Password")
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	if password == "" {
		ui.PrintError("Password is required")
		os.Exit(1)
	}

	if err := manager.Store(&auth.Account{Username: username, Password: password}); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Credentials stored for @" + username)
	fmt.Fprintln(ui.Output(), "Run 'ignonfollowers --account "+username+"' to use them.")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager := newManager()
	username := instagram.SanitizeUsername(args[0])

	if err := manager.Delete(username); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Account removed: " + username)
}

func runList(cmd *cobra.Command, args []string) {
	manager := newManager()

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'ignonfollowers auth login' to add an account")
		return
	}

	ui.PrintHighlight("Stored Accounts")
	out := ui.Output()
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Fprintf(out, "%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Fprintf(out, "   Password: %s\n", sanitized.Password)
		fmt.Fprintf(out, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
	}
}
