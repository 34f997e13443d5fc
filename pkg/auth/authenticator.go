package auth

import (
	"context"
	"errors"
	"fmt"

	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/instagram"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/session"
)

// PlatformClient is the capability the authenticator and collector need
// from the remote platform. *instagram.Client implements it.
type PlatformClient interface {
	Login(ctx context.Context, username, password string) instagram.LoginResult
	LoginWithSession(ctx context.Context, blob []byte, username, password string) instagram.LoginResult
	TwoFactorLogin(ctx context.Context, code string) instagram.LoginResult
	Logout(ctx context.Context) error
	FetchFollowing(ctx context.Context, userID string) (map[string]instagram.Profile, error)
	FetchFollowers(ctx context.Context, userID string) (map[string]instagram.Profile, error)
	DumpSession() ([]byte, error)
}

// ClientFactory returns a fresh, logged-out client
type ClientFactory func() (PlatformClient, error)

// CodePrompter asks the operator for a one-time code
type CodePrompter interface {
	PromptCode(ctx context.Context, username string) (string, error)
}

// Credentials is the account login pair. It is never logged.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether either half is missing
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// String keeps the password out of fmt output
func (c Credentials) String() string {
	return fmt.Sprintf("%s:%s", c.Username, maskString(c.Password))
}

// State is a step of the authentication state machine
type State int

const (
	StateUnauthenticated State = iota
	StateSessionRestoring
	StateCredentialLogin
	StateTwoFactorPending
	StateAuthenticated
	StateFailed
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateSessionRestoring:
		return "session_restoring"
	case StateCredentialLogin:
		return "credential_login"
	case StateTwoFactorPending:
		return "two_factor_pending"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	case StateLoggedOut:
		return "logged_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handle is the authenticated client and the resolved account id
type Handle struct {
	Client   PlatformClient
	UserID   string
	Username string
}

var (
	// ErrNotAuthenticated is returned by Handle and Logout before success
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotRestartable is returned when Authenticate runs after a failure or logout
	ErrNotRestartable = errors.New("authenticator cannot be restarted")
)

// Authenticator establishes one authenticated session per process.
// It is not safe for concurrent use.
type Authenticator struct {
	creds     Credentials
	store     session.Store
	newClient ClientFactory
	prompter  CodePrompter
	logger    logger.Logger

	state   State
	history []State
	handle  *Handle
}

// NewAuthenticator wires the state machine. prompter may be nil, in which
// case a two-factor challenge fails the run.
func NewAuthenticator(creds Credentials, store session.Store, newClient ClientFactory, prompter CodePrompter, log logger.Logger) *Authenticator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Authenticator{
		creds:     creds,
		store:     store,
		newClient: newClient,
		prompter:  prompter,
		logger:    log.WithField("component", "auth"),
		state:     StateUnauthenticated,
		history:   []State{StateUnauthenticated},
	}
}

// State returns the current state
func (a *Authenticator) State() State {
	return a.state
}

// History returns every state visited, in order
func (a *Authenticator) History() []State {
	out := make([]State, len(a.history))
	copy(out, a.history)
	return out
}

func (a *Authenticator) transition(next State) {
	a.logger.DebugWithFields("auth state change", map[string]interface{}{
		"from": a.state.String(),
		"to":   next.String(),
	})
	a.state = next
	a.history = append(a.history, next)
}

// Authenticate restores the saved session or logs in with credentials.
// A nil error means the handle is ready.
func (a *Authenticator) Authenticate(ctx context.Context) error {
	switch a.state {
	case StateAuthenticated:
		return nil
	case StateUnauthenticated:
	default:
		return ErrNotRestartable
	}

	if a.creds.Empty() {
		a.transition(StateFailed)
		err := a.fail(apperrors.KindConfig, apperrors.ReasonMissingCredentials, "auth.credentials",
			"username and password are required", nil)
		a.logger.WithError(err).Error("No credentials configured")
		return err
	}

	if a.store.Exists() {
		a.transition(StateSessionRestoring)
		if a.restoreSession(ctx) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			a.transition(StateFailed)
			return err
		}
		if err := a.store.Delete(); err != nil {
			a.logger.WithError(err).Warn("Could not delete stale session file")
		}
	}

	a.transition(StateCredentialLogin)
	return a.credentialLogin(ctx)
}

// restoreSession makes one attempt with the saved session. Every failure
// is logged and reported as false so the caller falls back to a password
// login.
func (a *Authenticator) restoreSession(ctx context.Context) bool {
	blob, err := a.store.Load()
	if err != nil {
		a.logger.WithError(err).WithField("path", a.store.Path()).Warn("Saved session is unusable")
		return false
	}

	client, err := a.newClient()
	if err != nil {
		a.logger.WithError(err).Warn("Could not create client for session restore")
		return false
	}

	a.logger.Info("Logging in with saved session")
	result := client.LoginWithSession(ctx, blob, a.creds.Username, a.creds.Password)
	if result.Outcome != instagram.OutcomeSuccess {
		logger.LogAuthOutcome(a.logger, a.creds.Username, "session", result.Outcome.String(), resultError(result))
		return false
	}
	if result.UserID == "" {
		a.logger.Warn("Session login returned no user id")
		return false
	}

	logger.LogAuthOutcome(a.logger, a.creds.Username, "session", result.Outcome.String(), nil)
	a.succeed(client, result, false)
	return true
}

func (a *Authenticator) credentialLogin(ctx context.Context) error {
	client, err := a.newClient()
	if err != nil {
		a.transition(StateFailed)
		return apperrors.Wrap(apperrors.KindAuth, "auth.login", err).WithReason(apperrors.ReasonOther)
	}

	a.logger.WithField("username", a.creds.Username).Info("Logging in with username and password")
	result := client.Login(ctx, a.creds.Username, a.creds.Password)
	if err := ctx.Err(); err != nil {
		a.transition(StateFailed)
		return err
	}
	logger.LogAuthOutcome(a.logger, a.creds.Username, "password", result.Outcome.String(), resultError(result))

	switch result.Outcome {
	case instagram.OutcomeSuccess:
		if result.UserID == "" {
			a.transition(StateFailed)
			return a.fail(apperrors.KindAuth, apperrors.ReasonOther, "auth.login", "login succeeded without a user id", nil)
		}
		a.succeed(client, result, true)
		return nil

	case instagram.OutcomeTwoFactorRequired:
		a.transition(StateTwoFactorPending)
		return a.twoFactor(ctx, client)

	case instagram.OutcomeBadPassword:
		a.transition(StateFailed)
		return a.fail(apperrors.KindAuth, apperrors.ReasonBadPassword, "auth.login", "invalid password", nil)

	case instagram.OutcomeUserNotFound:
		a.transition(StateFailed)
		return a.fail(apperrors.KindAuth, apperrors.ReasonUserNotFound, "auth.login",
			fmt.Sprintf("user %q not found", a.creds.Username), nil)

	case instagram.OutcomeChallengeRequired:
		a.transition(StateFailed)
		err := a.fail(apperrors.KindAuth, apperrors.ReasonChallengeRequired, "auth.login", "login challenge required", nil)
		if result.ChallengeURL != "" {
			return err.WithURL(result.ChallengeURL)
		}
		return err

	case instagram.OutcomeLoginRequired:
		a.transition(StateFailed)
		return a.fail(apperrors.KindAuth, apperrors.ReasonLoginRequired, "auth.login", "platform requires a manual login", nil)

	default:
		a.transition(StateFailed)
		return a.fail(apperrors.KindAuth, apperrors.ReasonOther, "auth.login", detailOr(result, "login failed"), result.Err)
	}
}

// twoFactor prompts once and submits the code once
func (a *Authenticator) twoFactor(ctx context.Context, client PlatformClient) error {
	if a.prompter == nil {
		a.transition(StateFailed)
		return a.fail(apperrors.KindTwoFactor, apperrors.ReasonOther, "auth.two_factor",
			"two-factor code required but no terminal is available", nil)
	}

	a.logger.Info("Two-factor authentication required")
	code, err := a.prompter.PromptCode(ctx, a.creds.Username)
	if err != nil {
		a.transition(StateFailed)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return a.fail(apperrors.KindTwoFactor, apperrors.ReasonOther, "auth.two_factor", "could not read the code", err)
	}

	result := client.TwoFactorLogin(ctx, code)
	if err := ctx.Err(); err != nil {
		a.transition(StateFailed)
		return err
	}
	logger.LogAuthOutcome(a.logger, a.creds.Username, "two_factor", result.Outcome.String(), resultError(result))

	if !result.Succeeded() || result.UserID == "" {
		a.transition(StateFailed)
		return a.fail(apperrors.KindTwoFactor, apperrors.ReasonCodeRejected, "auth.two_factor",
			detailOr(result, "verification code rejected"), result.Err)
	}

	a.succeed(client, result, true)
	return nil
}

// succeed records the handle and optionally persists the session. A save
// failure is logged and does not undo the login.
func (a *Authenticator) succeed(client PlatformClient, result instagram.LoginResult, save bool) {
	if save {
		if blob, err := client.DumpSession(); err != nil {
			a.logger.WithError(err).Warn("Could not serialize session")
		} else if err := a.store.Save(blob); err != nil {
			a.logger.WithError(err).WithField("path", a.store.Path()).Warn("Could not save session; next run will log in again")
		}
	}

	username := result.Username
	if username == "" {
		username = a.creds.Username
	}
	a.handle = &Handle{Client: client, UserID: result.UserID, Username: username}
	a.transition(StateAuthenticated)
	a.logger.WithFields(map[string]interface{}{
		"username": username,
		"user_id":  result.UserID,
	}).Info("Authenticated")
}

func (a *Authenticator) fail(kind apperrors.Kind, reason apperrors.Reason, op, msg string, cause error) *apperrors.Error {
	e := &apperrors.Error{Kind: kind, Reason: reason, Op: op, Message: msg, Err: cause}
	if hint := RemediationHint(reason); hint != "" {
		e.Hint = hint
	}
	return e
}

// Handle returns the authenticated client. It fails before Authenticate
// succeeds and after Logout.
func (a *Authenticator) Handle() (*Handle, error) {
	if a.state != StateAuthenticated || a.handle == nil {
		return nil, ErrNotAuthenticated
	}
	return a.handle, nil
}

// Logout ends the platform session and removes the saved session file.
// The authenticator cannot be used again afterwards.
func (a *Authenticator) Logout(ctx context.Context) error {
	h, err := a.Handle()
	if err != nil {
		return err
	}

	logoutErr := h.Client.Logout(ctx)
	a.handle = nil
	a.transition(StateLoggedOut)

	if err := a.store.Delete(); err != nil {
		a.logger.WithError(err).Warn("Could not delete session file after logout")
	}
	if logoutErr != nil {
		return apperrors.Wrap(apperrors.KindAuth, "auth.logout", logoutErr)
	}
	return nil
}

func resultError(r instagram.LoginResult) error {
	if r.Outcome == instagram.OutcomeSuccess {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return errors.New(detailOr(r, r.Outcome.String()))
}

func detailOr(r instagram.LoginResult, fallback string) string {
	if r.Detail != "" {
		return r.Detail
	}
	return fallback
}
