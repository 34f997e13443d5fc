package instagram

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "ignonfollowers/pkg/errors"
)

// SessionVersion is bumped when the saved layout changes
const SessionVersion = 1

// SessionDocument is the saved form of a logged-in client
type SessionDocument struct {
	Version   int           `json:"version"`
	Username  string        `json:"username"`
	UserID    string        `json:"user_id"`
	DeviceID  string        `json:"device_id"`
	UserAgent string        `json:"user_agent"`
	Cookies   []SavedCookie `json:"cookies"`
	SavedAt   time.Time     `json:"saved_at"`
}

// SavedCookie is a name and value pair from the cookie jar
type SavedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ErrNoSession is returned by DumpSession before a successful login
var ErrNoSession = errors.New("client is not logged in")

// DumpSession serializes the cookie jar and device identity
func (c *Client) DumpSession() ([]byte, error) {
	if c.userID == "" {
		return nil, ErrNoSession
	}

	doc := SessionDocument{
		Version:   SessionVersion,
		Username:  c.username,
		UserID:    c.userID,
		DeviceID:  c.deviceID,
		UserAgent: c.headers["User-Agent"],
		SavedAt:   time.Now().UTC(),
	}
	for _, ck := range c.jar.Cookies(c.baseURL) {
		doc.Cookies = append(doc.Cookies, SavedCookie{Name: ck.Name, Value: ck.Value})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindSession, "instagram.dump_session", err)
	}
	return data, nil
}

// ParseSession decodes and checks a saved session
func ParseSession(blob []byte) (*SessionDocument, error) {
	var doc SessionDocument
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, apperrors.Wrap(apperrors.KindSession, "instagram.parse_session", err)
	}
	if doc.Version != SessionVersion {
		return nil, apperrors.New(apperrors.KindSession, "instagram.parse_session",
			fmt.Sprintf("unsupported session version %d", doc.Version))
	}
	if !doc.hasCookie("sessionid") {
		return nil, apperrors.New(apperrors.KindSession, "instagram.parse_session", "session has no sessionid cookie")
	}
	return &doc, nil
}

// ValidateSession reports whether blob could be restored by LoginWithSession
func ValidateSession(blob []byte) error {
	_, err := ParseSession(blob)
	return err
}

func (d *SessionDocument) hasCookie(name string) bool {
	for _, ck := range d.Cookies {
		if ck.Name == name && ck.Value != "" {
			return true
		}
	}
	return false
}

// restore loads cookies and device identity into the client
func (c *Client) restore(doc *SessionDocument) {
	cookies := make([]*http.Cookie, 0, len(doc.Cookies))
	for _, ck := range doc.Cookies {
		cookies = append(cookies, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)

	if doc.DeviceID != "" {
		c.deviceID = doc.DeviceID
	}
	if doc.UserAgent != "" {
		c.headers["User-Agent"] = doc.UserAgent
	}
}
