package scraper

import (
	"context"
	"fmt"
	"time"

	"ignonfollowers/pkg/instagram"
	"ignonfollowers/pkg/logger"
	"ignonfollowers/pkg/models"
)

// LongPauseMultiplier scales the pacing range after a full list fetch
const LongPauseMultiplier = 3.0

// Stats describes the last collection pass
type Stats struct {
	Following         int
	Followers         int
	FollowingFailed   bool
	FollowersFailed   bool
	FollowingDuration time.Duration
	FollowersDuration time.Duration
}

// Collector fetches both relationship lists for one account
type Collector struct {
	fetcher RelationshipFetcher
	userID  string
	pacer   Pacer
	logger  logger.Logger
	stats   Stats

	longMultiplier float64
}

// NewCollector creates a collector for userID
func NewCollector(fetcher RelationshipFetcher, userID string, pacer Pacer, log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{
		fetcher: fetcher,
		userID:  userID,
		pacer:   pacer,
		logger:  log.WithFields(map[string]interface{}{"component": "collector", "user_id": userID}),

		longMultiplier: LongPauseMultiplier,
	}
}

// SetLongMultiplier changes the pause scale used after each list fetch.
// Non-positive values are ignored.
func (c *Collector) SetLongMultiplier(m float64) {
	if m > 0 {
		c.longMultiplier = m
	}
}

// Stats returns counters from the last collection
func (c *Collector) Stats() Stats {
	return c.stats
}

// CollectFollowing fetches the accounts the user follows. A fetch failure
// yields an empty set. The error is non-nil only when ctx ended.
func (c *Collector) CollectFollowing(ctx context.Context) (models.RelationshipSet, error) {
	set, elapsed, failed, err := c.collect(ctx, instagram.ListFollowing, c.fetcher.FetchFollowing)
	c.stats.Following = len(set)
	c.stats.FollowingFailed = failed
	c.stats.FollowingDuration = elapsed
	return set, err
}

// CollectFollowers fetches the accounts that follow the user
func (c *Collector) CollectFollowers(ctx context.Context) (models.RelationshipSet, error) {
	set, elapsed, failed, err := c.collect(ctx, instagram.ListFollowers, c.fetcher.FetchFollowers)
	c.stats.Followers = len(set)
	c.stats.FollowersFailed = failed
	c.stats.FollowersDuration = elapsed
	return set, err
}

// CollectAll fetches following, pauses, then fetches followers
func (c *Collector) CollectAll(ctx context.Context) (following, followers models.RelationshipSet, err error) {
	following, err = c.CollectFollowing(ctx)
	if err != nil {
		return following, models.NewRelationshipSet(), err
	}

	if err := c.pacer.Wait(ctx, "between API calls"); err != nil {
		return following, models.NewRelationshipSet(), err
	}

	followers, err = c.CollectFollowers(ctx)
	return following, followers, err
}

type fetchFunc func(ctx context.Context, userID string) (map[string]instagram.Profile, error)

func (c *Collector) collect(ctx context.Context, list instagram.List, fetch fetchFunc) (models.RelationshipSet, time.Duration, bool, error) {
	start := time.Now()
	c.logger.WithField("list", string(list)).Info("Fetching " + string(list))

	profiles, err := fetch(ctx, c.userID)
	elapsed := time.Since(start)
	if err != nil {
		logger.LogCollection(c.logger, string(list), 0, elapsed, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.NewRelationshipSet(), elapsed, true, ctxErr
		}
		return models.NewRelationshipSet(), elapsed, true, nil
	}

	set := normalize(profiles)
	logger.LogCollection(c.logger, string(list), len(set), elapsed, nil)

	if err := c.pacer.WaitLong(ctx, c.longMultiplier, fmt.Sprintf("after fetching %s", list)); err != nil {
		return set, elapsed, false, err
	}
	return set, elapsed, false, nil
}

// normalize converts remote profiles into records keyed by the map key
func normalize(profiles map[string]instagram.Profile) models.RelationshipSet {
	set := make(models.RelationshipSet, len(profiles))
	for id, p := range profiles {
		set[id] = ToUserRecord(id, p)
	}
	return set
}

// ToUserRecord decodes the optional fields with their defaults
func ToUserRecord(id string, p instagram.Profile) models.UserRecord {
	record := models.UserRecord{
		UserID:   id,
		Username: p.Username,
	}
	if p.FullName != nil {
		record.FullName = *p.FullName
	}
	if p.IsPrivate != nil {
		record.IsPrivate = *p.IsPrivate
	}
	if p.IsVerified != nil {
		record.IsVerified = *p.IsVerified
	}
	return record
}
