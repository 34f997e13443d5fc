package instagram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "ignonfollowers/pkg/errors"
)

// Login performs a fresh username and password login
func (c *Client) Login(ctx context.Context, username, password string) LoginResult {
	if err := c.primeCSRF(ctx); err != nil {
		return LoginResult{Outcome: OutcomeOther, Err: err, Detail: "could not load the login page"}
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), password))
	form.Set("queryParams", "{}")
	form.Set("optIntoOneTap", "false")
	form.Set("trustedDeviceRecords", "{}")

	resp, err := c.postForm(ctx, c.endpoint(LoginEndpoint), form)
	if err != nil {
		return LoginResult{Outcome: OutcomeOther, Err: err}
	}
	defer resp.Body.Close()

	var body LoginResponse
	if err := c.decodeBody("instagram.login", resp, &body); err != nil {
		if statusErr := c.checkResponseStatus("instagram.login", resp); statusErr != nil {
			err = statusErr
		}
		return loginErrorResult(err)
	}

	result := classifyLogin(resp.StatusCode, body)
	switch result.Outcome {
	case OutcomeSuccess:
		c.username = username
		c.userID = result.UserID
		result.Username = username
	case OutcomeTwoFactorRequired:
		c.username = username
		c.twoFactorIdentifier = result.TwoFactorIdentifier
	}

	c.logger.DebugWithFields("login response classified", map[string]interface{}{
		"username": username,
		"outcome":  result.Outcome.String(),
		"status":   resp.StatusCode,
	})
	return result
}

// TwoFactorLogin submits the one-time code for the pending challenge
func (c *Client) TwoFactorLogin(ctx context.Context, code string) LoginResult {
	code = strings.TrimSpace(code)
	if c.twoFactorIdentifier == "" {
		return LoginResult{Outcome: OutcomeOther, Detail: "no two-factor challenge is pending"}
	}
	if code == "" {
		return LoginResult{Outcome: OutcomeOther, Detail: "empty verification code"}
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("verificationCode", code)
	form.Set("identifier", c.twoFactorIdentifier)
	form.Set("queryParams", "{}")
	form.Set("trust_signal", "true")

	resp, err := c.postForm(ctx, c.endpoint(TwoFactorEndpoint), form)
	if err != nil {
		return LoginResult{Outcome: OutcomeOther, Err: err}
	}
	defer resp.Body.Close()

	var body LoginResponse
	if err := c.decodeBody("instagram.two_factor", resp, &body); err != nil {
		return loginErrorResult(err)
	}

	// the challenge is single use whatever the outcome
	c.twoFactorIdentifier = ""

	if body.Authenticated != nil && *body.Authenticated {
		c.userID = body.UserID
		return LoginResult{Outcome: OutcomeSuccess, UserID: body.UserID, Username: c.username}
	}
	result := classifyLogin(resp.StatusCode, body)
	if result.Outcome == OutcomeSuccess || result.Outcome == OutcomeTwoFactorRequired {
		result = LoginResult{Outcome: OutcomeOther, Detail: "verification code rejected"}
	}
	return result
}

// LoginWithSession restores a saved session and checks that it is still
// live and belongs to username. The password is not sent: a dead session
// is reported as OutcomeLoginRequired and the caller decides whether to
// log in again.
func (c *Client) LoginWithSession(ctx context.Context, blob []byte, username, password string) LoginResult {
	doc, err := ParseSession(blob)
	if err != nil {
		return LoginResult{Outcome: OutcomeOther, Err: err, Detail: "session blob could not be parsed"}
	}
	if doc.Username != "" && !strings.EqualFold(doc.Username, username) {
		return LoginResult{
			Outcome: OutcomeLoginRequired,
			Detail:  fmt.Sprintf("session belongs to %s", doc.Username),
		}
	}

	c.restore(doc)

	var current CurrentUserResponse
	err = c.getJSON(ctx, "instagram.current_user", GetCurrentUserURL(c.baseURL.String()), &current)
	if err != nil {
		return loginErrorResult(err)
	}
	if current.Status != "ok" || current.User.PK == "" {
		return LoginResult{Outcome: OutcomeLoginRequired, Detail: current.Message}
	}
	if !strings.EqualFold(current.User.Username, username) {
		return LoginResult{
			Outcome: OutcomeLoginRequired,
			Detail:  fmt.Sprintf("session is logged in as %s", current.User.Username),
		}
	}

	c.username = current.User.Username
	c.userID = string(current.User.PK)
	return LoginResult{Outcome: OutcomeSuccess, UserID: c.userID, Username: c.username}
}

// Logout ends the session on the platform and forgets local state
func (c *Client) Logout(ctx context.Context) error {
	if c.userID == "" {
		return nil
	}

	form := url.Values{}
	form.Set("one_tap_app_login", "0")
	form.Set("user_id", c.userID)

	resp, err := c.postForm(ctx, c.endpoint(LogoutEndpoint), form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus("instagram.logout", resp); err != nil {
		return err
	}

	c.userID = ""
	c.username = ""
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{Name: "sessionid", Value: "", Path: "/", MaxAge: -1}})
	c.logger.Info("Logged out")
	return nil
}

// primeCSRF loads the login page so the server sets csrftoken and mid
func (c *Client) primeCSRF(ctx context.Context) error {
	resp, err := c.get(ctx, c.endpoint(LoginPagePath))
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return apperrors.FromStatus("instagram.login_page", resp.StatusCode)
	}
	c.csrfToken()
	return nil
}

// classifyLogin maps a login response body onto an Outcome
func classifyLogin(status int, body LoginResponse) LoginResult {
	detail := body.Message
	switch {
	case body.Authenticated != nil && *body.Authenticated:
		return LoginResult{Outcome: OutcomeSuccess, UserID: body.UserID}
	case body.TwoFactorRequired:
		return LoginResult{
			Outcome:             OutcomeTwoFactorRequired,
			TwoFactorIdentifier: body.TwoFactorInfo.TwoFactorIdentifier,
			Detail:              detail,
		}
	case body.CheckpointURL != "" || body.Message == "checkpoint_required" || body.Lock:
		return LoginResult{Outcome: OutcomeChallengeRequired, ChallengeURL: body.CheckpointURL, Detail: detail}
	case body.Message == "login_required" || body.ErrorType == "login_required" || status == http.StatusUnauthorized:
		return LoginResult{Outcome: OutcomeLoginRequired, Detail: detail}
	case body.ErrorType == "invalid_user" || (body.User != nil && !*body.User):
		return LoginResult{Outcome: OutcomeUserNotFound, Detail: detail}
	case body.ErrorType == "bad_password" || (body.Authenticated != nil && !*body.Authenticated):
		return LoginResult{Outcome: OutcomeBadPassword, Detail: detail}
	case status == http.StatusTooManyRequests:
		return LoginResult{Outcome: OutcomeOther, Detail: "rate limited: " + detail, Err: apperrors.FromStatus("instagram.login", status)}
	default:
		if detail == "" {
			detail = "unexpected login response (status " + strconv.Itoa(status) + ")"
		}
		return LoginResult{Outcome: OutcomeOther, Detail: detail}
	}
}

// loginErrorResult turns a typed request error into a LoginResult
func loginErrorResult(err error) LoginResult {
	if apperrors.ReasonOf(err) == apperrors.ReasonLoginRequired {
		return LoginResult{Outcome: OutcomeLoginRequired, Err: err, Detail: "session is no longer valid"}
	}
	return LoginResult{Outcome: OutcomeOther, Err: err}
}
