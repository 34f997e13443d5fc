package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind groups errors by the stage or subsystem that produced them
type Kind string

const (
	KindConfig      Kind = "config"
	KindSession     Kind = "session"
	KindAuth        Kind = "auth"
	KindTwoFactor   Kind = "two_factor"
	KindCollection  Kind = "collection"
	KindIO          Kind = "io"
	KindNetwork     Kind = "network"
	KindRateLimit   Kind = "rate_limit"
	KindParsing     Kind = "parsing"
	KindNotFound    Kind = "not_found"
	KindServerError Kind = "server_error"
	KindUnknown     Kind = "unknown"
)

// Reason narrows down an auth or config failure
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonMissingCredentials Reason = "missing_credentials"
	ReasonBadPassword        Reason = "bad_password"
	ReasonUserNotFound       Reason = "user_not_found"
	ReasonChallengeRequired  Reason = "challenge_required"
	ReasonLoginRequired      Reason = "login_required"
	ReasonCodeRejected       Reason = "code_rejected"
	ReasonOther              Reason = "other"
)

// Error is the error type shared by every package in the module
type Error struct {
	Kind    Kind
	Reason  Reason
	Op      string // stage that failed, e.g. "auth.login"
	Message string
	Hint    string // remediation shown to the operator
	Code    int    // HTTP status when the error came from the platform
	URL     string // page the operator should open, e.g. a login challenge
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}

	prefix := string(e.Kind)
	if e.Reason != ReasonNone {
		prefix += "/" + string(e.Reason)
	}
	if e.Op != "" {
		prefix = e.Op + " " + prefix
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", prefix, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", prefix, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches a kind and stage to an underlying error
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithReason returns a copy of e with the reason set
func (e *Error) WithReason(reason Reason) *Error {
	c := *e
	c.Reason = reason
	return &c
}

// WithHint returns a copy of e with a remediation hint
func (e *Error) WithHint(hint string) *Error {
	c := *e
	c.Hint = hint
	return &c
}

// WithURL returns a copy of e pointing the operator at url
func (e *Error) WithURL(url string) *Error {
	c := *e
	c.URL = url
	return &c
}

// KindOf reports the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ReasonOf reports the reason of the first *Error in err's chain
func ReasonOf(err error) Reason {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Reason
	}
	return ReasonNone
}

// HintOf returns the first non-empty hint found in err's chain
func HintOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Hint != "" {
			return e.Hint
		}
		err = stderrors.Unwrap(err)
	}
	return ""
}

// URLOf returns the first non-empty URL found in err's chain
func URLOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.URL != "" {
			return e.URL
		}
		err = stderrors.Unwrap(err)
	}
	return ""
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FromStatus maps an HTTP status code to an error, or nil for 2xx/3xx
func FromStatus(op string, statusCode int) *Error {
	switch {
	case statusCode < 400:
		return nil
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return &Error{Kind: KindAuth, Reason: ReasonLoginRequired, Op: op, Message: "authentication required", Code: statusCode}
	case statusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Op: op, Message: "resource not found", Code: statusCode}
	case statusCode == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimit, Op: op, Message: "rate limit exceeded", Code: statusCode}
	case statusCode >= 500:
		return &Error{Kind: KindServerError, Op: op, Message: "server error", Code: statusCode}
	default:
		return &Error{Kind: KindUnknown, Op: op, Message: fmt.Sprintf("unexpected status code: %d", statusCode), Code: statusCode}
	}
}

// IsRetryable reports whether a later run could succeed where this one failed.
// Nothing in the module retries automatically.
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindNetwork, KindRateLimit, KindServerError:
		return true
	default:
		return false
	}
}
