package instagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Outcome is the closed set of login results
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeBadPassword
	OutcomeUserNotFound
	OutcomeTwoFactorRequired
	OutcomeChallengeRequired
	OutcomeLoginRequired
	OutcomeOther
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeBadPassword:
		return "bad_password"
	case OutcomeUserNotFound:
		return "user_not_found"
	case OutcomeTwoFactorRequired:
		return "two_factor_required"
	case OutcomeChallengeRequired:
		return "challenge_required"
	case OutcomeLoginRequired:
		return "login_required"
	default:
		return "other"
	}
}

// LoginResult is returned by every login call. Only the fields relevant to
// Outcome are set.
type LoginResult struct {
	Outcome  Outcome
	UserID   string // OutcomeSuccess
	Username string // OutcomeSuccess

	TwoFactorIdentifier string // OutcomeTwoFactorRequired
	ChallengeURL        string // OutcomeChallengeRequired

	Detail string // human readable message from the platform
	Err    error  // OutcomeOther: transport or decoding failure
}

// Succeeded reports whether the login produced a live session
func (r LoginResult) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Profile is one user entry from a friendships page. Optional fields are
// pointers so a missing key can be told apart from false or "".
type Profile struct {
	PK         FlexibleID `json:"pk"`
	PKID       string     `json:"pk_id"`
	Username   string     `json:"username"`
	FullName   *string    `json:"full_name"`
	IsPrivate  *bool      `json:"is_private"`
	IsVerified *bool      `json:"is_verified"`
}

// ID returns the user id as a string
func (p Profile) ID() string {
	if p.PKID != "" {
		return p.PKID
	}
	return string(p.PK)
}

// FlexibleID decodes an id sent either as a JSON string or a number
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*f = FlexibleID(n.String())
	return nil
}

// FriendshipsResponse is one page of a following or followers list
type FriendshipsResponse struct {
	Users     []Profile  `json:"users"`
	NextMaxID FlexibleID `json:"next_max_id"`
	BigList   bool       `json:"big_list"`
	PageSize  int        `json:"page_size"`
	Status    string     `json:"status"`
	Message   string     `json:"message"`
}

// LoginResponse is the body of the web login and two-factor endpoints
type LoginResponse struct {
	Authenticated     *bool  `json:"authenticated"`
	User              *bool  `json:"user"`
	UserID            string `json:"userId"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	ErrorType         string `json:"error_type"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	TwoFactorInfo     struct {
		TwoFactorIdentifier string `json:"two_factor_identifier"`
		Username            string `json:"username"`
	} `json:"two_factor_info"`
	CheckpointURL string `json:"checkpoint_url"`
	Lock          bool   `json:"lock"`
}

// CurrentUserResponse is the body of the current_user endpoint
type CurrentUserResponse struct {
	User struct {
		PK       FlexibleID `json:"pk"`
		Username string     `json:"username"`
		FullName string     `json:"full_name"`
	} `json:"user"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
