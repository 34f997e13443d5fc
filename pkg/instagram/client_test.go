package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ignonfollowers/pkg/errors"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/ratelimit"
)

// newTestServer serves the login page plus the given handlers
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(LoginPagePath, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-from-server", Path: "/"})
		w.Write([]byte("<html></html>"))
	})
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server, opts ...func(*Options)) (*Client, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	o := Options{BaseURL: server.URL, Timeout: 5 * time.Second, PageSize: 2, Logger: log}
	for _, opt := range opts {
		opt(&o)
	}
	c, err := NewClient(o)
	require.NoError(t, err)
	return c, log
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func loginSuccessHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "csrf-from-server", r.Header.Get("X-CSRFToken"))
		assert.Equal(t, AppID, r.Header.Get("X-IG-App-ID"))
		assert.Equal(t, "ana", r.PostForm.Get("username"))
		assert.True(t, strings.HasPrefix(r.PostForm.Get("enc_password"), "#PWD_INSTAGRAM_BROWSER:0:"))
		assert.True(t, strings.HasSuffix(r.PostForm.Get("enc_password"), ":hunter2"))

		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "sess-1", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": true, "user": true, "userId": "42", "status": "ok",
		})
	}
}

func TestLoginSuccessAndDumpSession(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{LoginEndpoint: loginSuccessHandler(t)})
	client, _ := newTestClient(t, server)

	_, err := client.DumpSession()
	assert.ErrorIs(t, err, ErrNoSession)

	result := client.Login(context.Background(), "ana", "hunter2")
	require.Equal(t, OutcomeSuccess, result.Outcome, result.Detail)
	assert.Equal(t, "42", result.UserID)
	assert.Equal(t, "42", client.UserID())
	assert.True(t, result.Succeeded())

	blob, err := client.DumpSession()
	require.NoError(t, err)
	require.NoError(t, ValidateSession(blob))
	assert.NotContains(t, string(blob), "hunter2")

	doc, err := ParseSession(blob)
	require.NoError(t, err)
	assert.Equal(t, "ana", doc.Username)
	assert.Equal(t, "42", doc.UserID)
	assert.True(t, doc.hasCookie("sessionid"))
}

func TestClassifyLogin(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name   string
		status int
		body   LoginResponse
		want   Outcome
	}{
		{name: "authenticated", status: 200, body: LoginResponse{Authenticated: &yes, UserID: "1"}, want: OutcomeSuccess},
		{name: "bad password", status: 200, body: LoginResponse{Authenticated: &no, User: &yes}, want: OutcomeBadPassword},
		{name: "bad password error type", status: 400, body: LoginResponse{ErrorType: "bad_password"}, want: OutcomeBadPassword},
		{name: "unknown user", status: 200, body: LoginResponse{Authenticated: &no, User: &no}, want: OutcomeUserNotFound},
		{name: "invalid user error type", status: 400, body: LoginResponse{ErrorType: "invalid_user"}, want: OutcomeUserNotFound},
		{name: "two factor", status: 400, body: LoginResponse{TwoFactorRequired: true}, want: OutcomeTwoFactorRequired},
		{name: "checkpoint url", status: 400, body: LoginResponse{CheckpointURL: "/challenge/1/"}, want: OutcomeChallengeRequired},
		{name: "checkpoint message", status: 400, body: LoginResponse{Message: "checkpoint_required"}, want: OutcomeChallengeRequired},
		{name: "login required", status: 400, body: LoginResponse{Message: "login_required"}, want: OutcomeLoginRequired},
		{name: "unauthorized", status: 401, body: LoginResponse{}, want: OutcomeLoginRequired},
		{name: "throttled", status: 429, body: LoginResponse{Message: "Please wait a few minutes"}, want: OutcomeOther},
		{name: "unknown", status: 400, body: LoginResponse{Status: "fail"}, want: OutcomeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyLogin(tt.status, tt.body)
			assert.Equal(t, tt.want, got.Outcome, got.Outcome.String())
		})
	}
}

func TestLoginBadPasswordOverHTTP(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		LoginEndpoint: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"authenticated": false, "user": true, "status": "fail",
				"message": "Sorry, your password was incorrect.",
			})
		},
	})
	client, _ := newTestClient(t, server)

	result := client.Login(context.Background(), "ana", "wrong")
	assert.Equal(t, OutcomeBadPassword, result.Outcome)
	assert.Equal(t, "Sorry, your password was incorrect.", result.Detail)
	assert.Empty(t, client.UserID())
}

func TestLoginNonJSONResponse(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		LoginEndpoint: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		},
	})
	client, _ := newTestClient(t, server)

	result := client.Login(context.Background(), "ana", "pw")
	assert.Equal(t, OutcomeOther, result.Outcome)
	assert.Equal(t, apperrors.KindServerError, apperrors.KindOf(result.Err))
}

func TestTwoFactorFlow(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		LoginEndpoint: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"two_factor_required": true,
				"two_factor_info":     map[string]string{"two_factor_identifier": "ident-7", "username": "ana"},
				"status":              "fail",
			})
		},
		TwoFactorEndpoint: func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseForm())
			if r.PostForm.Get("identifier") != "ident-7" || r.PostForm.Get("verificationCode") != "123456" {
				writeJSON(w, http.StatusBadRequest, map[string]interface{}{
					"status": "fail", "error_type": "sms_code_validation_code_invalid",
				})
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "sess-2fa", Path: "/"})
			writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": true, "userId": "42", "status": "ok"})
		},
	})

	t.Run("accepted code", func(t *testing.T) {
		client, _ := newTestClient(t, server)
		result := client.Login(context.Background(), "ana", "pw")
		require.Equal(t, OutcomeTwoFactorRequired, result.Outcome)
		assert.Equal(t, "ident-7", result.TwoFactorIdentifier)

		result = client.TwoFactorLogin(context.Background(), " 123456 ")
		require.Equal(t, OutcomeSuccess, result.Outcome, result.Detail)
		assert.Equal(t, "42", client.UserID())

		blob, err := client.DumpSession()
		require.NoError(t, err)
		assert.Contains(t, string(blob), "sess-2fa")
	})

	t.Run("rejected code", func(t *testing.T) {
		client, _ := newTestClient(t, server)
		require.Equal(t, OutcomeTwoFactorRequired, client.Login(context.Background(), "ana", "pw").Outcome)

		result := client.TwoFactorLogin(context.Background(), "000000")
		assert.Equal(t, OutcomeOther, result.Outcome)
		assert.Empty(t, client.UserID())

		// the challenge is consumed
		result = client.TwoFactorLogin(context.Background(), "123456")
		assert.Equal(t, OutcomeOther, result.Outcome)
		assert.Equal(t, "no two-factor challenge is pending", result.Detail)
	})

	t.Run("empty code", func(t *testing.T) {
		client, _ := newTestClient(t, server)
		require.Equal(t, OutcomeTwoFactorRequired, client.Login(context.Background(), "ana", "pw").Outcome)
		assert.Equal(t, OutcomeOther, client.TwoFactorLogin(context.Background(), "  ").Outcome)
	})
}

func sessionBlob(t *testing.T, username string) []byte {
	t.Helper()
	blob, err := json.Marshal(SessionDocument{
		Version:  SessionVersion,
		Username: username,
		UserID:   "42",
		DeviceID: "DEVICE-1",
		Cookies:  []SavedCookie{{Name: "sessionid", Value: "saved"}, {Name: "csrftoken", Value: "saved-csrf"}},
	})
	require.NoError(t, err)
	return blob
}

func TestLoginWithSession(t *testing.T) {
	live := true
	server := newTestServer(t, map[string]http.HandlerFunc{
		CurrentUserPath: func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie("sessionid")
			if !live || err != nil || ck.Value != "saved" {
				http.Redirect(w, r, "/accounts/login/", http.StatusFound)
				return
			}
			assert.Equal(t, "DEVICE-1", r.Header.Get("X-Web-Device-Id"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"user":   map[string]interface{}{"pk": 42, "username": "ana"},
				"status": "ok",
			})
		},
	})

	t.Run("live session", func(t *testing.T) {
		live = true
		client, _ := newTestClient(t, server)
		result := client.LoginWithSession(context.Background(), sessionBlob(t, "ana"), "Ana", "pw")
		require.Equal(t, OutcomeSuccess, result.Outcome, result.Detail)
		assert.Equal(t, "42", result.UserID)
		assert.Equal(t, "42", client.UserID())
	})

	t.Run("expired session", func(t *testing.T) {
		live = false
		client, _ := newTestClient(t, server)
		result := client.LoginWithSession(context.Background(), sessionBlob(t, "ana"), "ana", "pw")
		assert.Equal(t, OutcomeLoginRequired, result.Outcome)
		assert.Empty(t, client.UserID())
	})

	t.Run("other account", func(t *testing.T) {
		live = true
		client, _ := newTestClient(t, server)
		result := client.LoginWithSession(context.Background(), sessionBlob(t, "bob"), "ana", "pw")
		assert.Equal(t, OutcomeLoginRequired, result.Outcome)
		assert.Contains(t, result.Detail, "bob")
	})

	t.Run("corrupt blob", func(t *testing.T) {
		client, _ := newTestClient(t, server)
		result := client.LoginWithSession(context.Background(), []byte("{not json"), "ana", "pw")
		assert.Equal(t, OutcomeOther, result.Outcome)
		assert.Error(t, result.Err)
	})
}

func TestValidateSession(t *testing.T) {
	assert.NoError(t, ValidateSession(sessionBlob(t, "ana")))
	assert.Error(t, ValidateSession([]byte("")))
	assert.Error(t, ValidateSession([]byte(`{"version":99}`)))
	assert.Error(t, ValidateSession([]byte(`{"version":1,"cookies":[{"name":"mid","value":"x"}]}`)))
}

func friendshipsHandler(t *testing.T, list List, pages map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/api/v1/friendships/42/%s/", list), r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		body, ok := pages[r.URL.Query().Get("max_id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}
}

func TestFetchFollowersPaginates(t *testing.T) {
	pages := map[string]string{
		"": `{"users":[{"pk":1,"username":"bob","full_name":"Bob B","is_private":true,"is_verified":false},
		               {"pk_id":"2","username":"ana"}],"next_max_id":"cursor-2","status":"ok"}`,
		"cursor-2": `{"users":[{"pk":"3","username":"Zed","is_verified":true}],"status":"ok"}`,
	}
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/friendships/42/followers/": friendshipsHandler(t, ListFollowers, pages),
	})

	var sleeps []time.Duration
	pacer := ratelimit.NewPacer(time.Second, time.Second, ratelimit.WithSleep(func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}))
	client, _ := newTestClient(t, server, func(o *Options) { o.Pacer = pacer })

	profiles, err := client.FetchFollowers(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	bob := profiles["1"]
	require.NotNil(t, bob.FullName)
	assert.Equal(t, "Bob B", *bob.FullName)
	assert.True(t, *bob.IsPrivate)

	ana := profiles["2"]
	assert.Nil(t, ana.FullName)
	assert.Nil(t, ana.IsPrivate)
	assert.Nil(t, ana.IsVerified)

	assert.True(t, *profiles["3"].IsVerified)
	assert.Len(t, sleeps, 1, "one pause between two pages")
}

func TestFetchFollowingErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := newTestServer(t, map[string]http.HandlerFunc{
			"/api/v1/friendships/42/following/": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		})
		client, _ := newTestClient(t, server)
		_, err := client.FetchFollowing(context.Background(), "42")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindServerError, apperrors.KindOf(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		server := newTestServer(t, map[string]http.HandlerFunc{
			"/api/v1/friendships/42/following/": func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
			},
		})
		client, log := newTestClient(t, server)
		_, err := client.FetchFollowing(context.Background(), "42")
		assert.Equal(t, apperrors.KindRateLimit, apperrors.KindOf(err))
		assert.True(t, log.HasMessage("WARN", "Rate limit reached"))
	})

	t.Run("repeated cursor", func(t *testing.T) {
		pages := map[string]string{
			"":     `{"users":[{"pk":1,"username":"a"}],"next_max_id":"loop","status":"ok"}`,
			"loop": `{"users":[{"pk":2,"username":"b"}],"next_max_id":"loop","status":"ok"}`,
		}
		server := newTestServer(t, map[string]http.HandlerFunc{
			"/api/v1/friendships/42/following/": friendshipsHandler(t, ListFollowing, pages),
		})
		client, _ := newTestClient(t, server)
		_, err := client.FetchFollowing(context.Background(), "42")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repeated")
	})

	t.Run("fail status", func(t *testing.T) {
		server := newTestServer(t, map[string]http.HandlerFunc{
			"/api/v1/friendships/42/following/": func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"fail","message":"Please wait a few minutes"}`))
			},
		})
		client, _ := newTestClient(t, server)
		_, err := client.FetchFollowing(context.Background(), "42")
		assert.Equal(t, apperrors.KindCollection, apperrors.KindOf(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := newTestServer(t, nil)
		client, _ := newTestClient(t, server)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.FetchFollowing(ctx, "42")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLimiterIsConsulted(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/friendships/42/following/": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"users":[],"status":"ok"}`))
		},
	})
	bucket := ratelimit.NewTokenBucket(1, time.Hour)
	client, _ := newTestClient(t, server, func(o *Options) { o.Limiter = bucket })

	_, err := client.FetchFollowing(context.Background(), "42")
	require.NoError(t, err)
	assert.False(t, bucket.Allow(), "the request should have taken the only token")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.FetchFollowing(ctx, "42")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLogout(t *testing.T) {
	loggedOut := false
	server := newTestServer(t, map[string]http.HandlerFunc{
		LoginEndpoint: loginSuccessHandler(t),
		LogoutEndpoint: func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "42", r.PostForm.Get("user_id"))
			loggedOut = true
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		},
	})
	client, _ := newTestClient(t, server)

	require.NoError(t, client.Logout(context.Background()), "logout before login is a no-op")
	assert.False(t, loggedOut)

	require.True(t, client.Login(context.Background(), "ana", "hunter2").Succeeded())
	require.NoError(t, client.Logout(context.Background()))
	assert.True(t, loggedOut)
	assert.Empty(t, client.UserID())

	_, err := client.DumpSession()
	assert.ErrorIs(t, err, ErrNoSession)
}
