package scraper

import (
	"context"

	"ignonfollowers/pkg/instagram"
)

// RelationshipFetcher returns a complete relationship list keyed by remote
// user id. The client does its own pagination.
type RelationshipFetcher interface {
	FetchFollowing(ctx context.Context, userID string) (map[string]instagram.Profile, error)
	FetchFollowers(ctx context.Context, userID string) (map[string]instagram.Profile, error)
}

// Pacer spaces out calls to the platform. *ratelimit.Pacer implements it.
type Pacer interface {
	Wait(ctx context.Context, reason string) error
	WaitLong(ctx context.Context, multiplier float64, reason string) error
}
