package auth

import (
	"fmt"
	"io"
	"strings"

	apperrors "ignonfollowers/pkg/errors"
)

// Hints shown next to fatal authentication errors
var remediationHints = map[apperrors.Reason]string{
	apperrors.ReasonMissingCredentials: "set INSTAGRAM_USERNAME and INSTAGRAM_PASSWORD (environment or .env), or store them with 'ignonfollowers auth login'",
	apperrors.ReasonBadPassword:        "check INSTAGRAM_PASSWORD; repeated failures can get the account temporarily locked",
	apperrors.ReasonUserNotFound:       "check INSTAGRAM_USERNAME for typos; use the handle, not the email address",
	apperrors.ReasonChallengeRequired:  "open the Instagram app or website, confirm that the login attempt was you, then run again",
	apperrors.ReasonLoginRequired:      "log in once from the Instagram app or website, then run again",
	apperrors.ReasonCodeRejected:       "run again and enter the newest code from your authenticator app or SMS",
}

// RemediationHint returns the operator guidance for reason, or ""
func RemediationHint(reason apperrors.Reason) string {
	return remediationHints[reason]
}

// WriteChallengeGuide explains how to clear a suspicious-login checkpoint
func WriteChallengeGuide(w io.Writer, challengeURL string) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "Instagram wants to confirm this login")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "1. Open the Instagram app, or https://www.instagram.com in a browser")
	fmt.Fprintln(w, "2. Approve the \"Was this you?\" prompt")
	if challengeURL != "" {
		if strings.HasPrefix(challengeURL, "/") {
			challengeURL = "https://www.instagram.com" + challengeURL
		}
		fmt.Fprintf(w, "   (or visit %s)\n", challengeURL)
	}
	fmt.Fprintln(w, "3. Wait a few minutes and run ignonfollowers again")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Nothing is retried automatically; repeated attempts can lock the account.")
}
