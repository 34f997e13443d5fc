package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ignonfollowers/pkg/config"
	"ignonfollowers/pkg/instagram"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/models"
	"ignonfollowers/pkg/ratelimit"
)

type stubFetcher struct {
	following    map[string]instagram.Profile
	followers    map[string]instagram.Profile
	followingErr error
	followersErr error

	calls   []string
	userIDs []string
}

func (s *stubFetcher) FetchFollowing(ctx context.Context, userID string) (map[string]instagram.Profile, error) {
	s.calls = append(s.calls, "following")
	s.userIDs = append(s.userIDs, userID)
	return s.following, s.followingErr
}

func (s *stubFetcher) FetchFollowers(ctx context.Context, userID string) (map[string]instagram.Profile, error) {
	s.calls = append(s.calls, "followers")
	s.userIDs = append(s.userIDs, userID)
	return s.followers, s.followersErr
}

// recordingPacer logs every pause and can cancel the run at a given pause
type recordingPacer struct {
	events   []string
	cancelAt int
	cancel   context.CancelFunc
}

func (p *recordingPacer) record(ctx context.Context, event string) error {
	p.events = append(p.events, event)
	if p.cancel != nil && len(p.events) == p.cancelAt {
		p.cancel()
	}
	return ctx.Err()
}

func (p *recordingPacer) Wait(ctx context.Context, reason string) error {
	return p.record(ctx, "wait: "+reason)
}

func (p *recordingPacer) WaitLong(ctx context.Context, multiplier float64, reason string) error {
	return p.record(ctx, "long: "+reason)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCollectAllOrderAndPacing(t *testing.T) {
	fetcher := &stubFetcher{
		following: map[string]instagram.Profile{
			"1": {Username: "bob", FullName: strPtr("Bob B"), IsVerified: boolPtr(true)},
			"2": {Username: "ana"},
		},
		followers: map[string]instagram.Profile{
			"1": {Username: "bob", IsPrivate: boolPtr(true)},
		},
	}
	pacer := &recordingPacer{}
	c := NewCollector(fetcher, "42", pacer, logger.NewNopLogger())

	following, followers, err := c.CollectAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"following", "followers"}, fetcher.calls)
	assert.Equal(t, []string{"42", "42"}, fetcher.userIDs)
	assert.Equal(t, []string{
		"long: after fetching following",
		"wait: between API calls",
		"long: after fetching followers",
	}, pacer.events)

	assert.Len(t, following, 2)
	assert.Len(t, followers, 1)
	assert.Equal(t, models.UserRecord{UserID: "1", Username: "bob", FullName: "Bob B", IsVerified: true}, following["1"])
	assert.Equal(t, models.UserRecord{UserID: "2", Username: "ana"}, following["2"])
	assert.True(t, followers["1"].IsPrivate)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Following)
	assert.Equal(t, 1, stats.Followers)
	assert.False(t, stats.FollowingFailed)
	assert.False(t, stats.FollowersFailed)
}

func TestCollectDegradesToEmptyOnFetchError(t *testing.T) {
	fetcher := &stubFetcher{
		followingErr: errors.New("rate limited"),
		followers: map[string]instagram.Profile{
			"1": {Username: "bob"},
		},
	}
	pacer := &recordingPacer{}
	log := logger.NewTestLogger()
	c := NewCollector(fetcher, "42", pacer, log)

	following, followers, err := c.CollectAll(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, following)
	assert.Empty(t, following)
	assert.Len(t, followers, 1)
	assert.True(t, c.Stats().FollowingFailed)

	// no extended pause after a failed fetch
	assert.Equal(t, []string{
		"wait: between API calls",
		"long: after fetching followers",
	}, pacer.events)
	assert.True(t, log.HasMessage("ERROR", "Failed to fetch following"))
}

func TestCollectFollowersError(t *testing.T) {
	fetcher := &stubFetcher{
		following:    map[string]instagram.Profile{"1": {Username: "bob"}},
		followersErr: errors.New("boom"),
	}
	c := NewCollector(fetcher, "42", &recordingPacer{}, logger.NewNopLogger())

	followers, err := c.CollectFollowers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, followers)
	assert.True(t, c.Stats().FollowersFailed)
}

func TestCollectAllStopsWhenCancelledDuringPause(t *testing.T) {
	tests := []struct {
		name      string
		cancelAt  int
		wantCalls []string
	}{
		{name: "after following", cancelAt: 1, wantCalls: []string{"following"}},
		{name: "between lists", cancelAt: 2, wantCalls: []string{"following"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			fetcher := &stubFetcher{
				following: map[string]instagram.Profile{"1": {Username: "bob"}},
				followers: map[string]instagram.Profile{"1": {Username: "bob"}},
			}
			pacer := &recordingPacer{cancelAt: tt.cancelAt, cancel: cancel}
			c := NewCollector(fetcher, "42", pacer, logger.NewNopLogger())

			_, followers, err := c.CollectAll(ctx)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, tt.wantCalls, fetcher.calls)
			assert.Empty(t, followers)
		})
	}
}

func TestCollectReturnsContextErrorFromFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &stubFetcher{followingErr: context.Canceled}
	c := NewCollector(fetcher, "42", &recordingPacer{}, logger.NewNopLogger())

	_, _, err := c.CollectAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"following"}, fetcher.calls)
}

func TestCollectorWithRealPacer(t *testing.T) {
	var delays []time.Duration
	pacer := ratelimit.NewPacer(time.Second, 3*time.Second,
		ratelimit.WithRand(func() float64 { return 0 }),
		ratelimit.WithSleep(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}))

	fetcher := &stubFetcher{
		following: map[string]instagram.Profile{"1": {Username: "bob"}},
		followers: map[string]instagram.Profile{},
	}
	c := NewCollector(fetcher, "42", pacer, logger.NewNopLogger())

	_, _, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second, time.Second, 3 * time.Second}, delays)
}

func TestCollectorUsesConfiguredLongMultiplier(t *testing.T) {
	var delays []time.Duration
	cfg := config.PacingConfig{MinDelay: 1, MaxDelay: 1, LongMultiplier: 10}
	pacer := ratelimit.NewPacerFromConfig(cfg,
		ratelimit.WithSleep(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}))

	fetcher := &stubFetcher{
		following: map[string]instagram.Profile{"1": {Username: "bob"}},
		followers: map[string]instagram.Profile{"1": {Username: "bob"}},
	}
	c := NewCollector(fetcher, "42", pacer, logger.NewNopLogger())
	c.SetLongMultiplier(cfg.LongMultiplier)

	_, _, err := c.CollectAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{10 * time.Second, time.Second, 10 * time.Second}, delays)
}

func TestSetLongMultiplierIgnoresNonPositive(t *testing.T) {
	var delays []time.Duration
	pacer := ratelimit.NewPacer(time.Second, time.Second,
		ratelimit.WithSleep(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}))

	c := NewCollector(&stubFetcher{following: map[string]instagram.Profile{"1": {Username: "bob"}}}, "42", pacer, logger.NewNopLogger())
	c.SetLongMultiplier(0)

	_, err := c.CollectFollowing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second}, delays)
}

func TestToUserRecordDefaults(t *testing.T) {
	record := ToUserRecord("7", instagram.Profile{Username: "zed"})
	assert.Equal(t, models.UserRecord{UserID: "7", Username: "zed"}, record)

	record = ToUserRecord("8", instagram.Profile{
		Username:   "amy",
		FullName:   strPtr("Amy"),
		IsPrivate:  boolPtr(false),
		IsVerified: boolPtr(true),
	})
	assert.Equal(t, "Amy", record.FullName)
	assert.False(t, record.IsPrivate)
	assert.True(t, record.IsVerified)
}
