// Package compare computes the asymmetric parts of a follow graph.
//
// Every result is ordered by lowercase username with ties broken by user id,
// so the same input always produces the same list.
package compare

import (
	"sort"

	"ignonfollowers/pkg/models"
)

// Summary is the full partition of two relationship sets
type Summary struct {
	NonFollowers   []models.UserRecord
	Fans           []models.UserRecord
	Mutual         []models.UserRecord
	FollowingCount int
	FollowersCount int
}

// NonFollowers returns the accounts in following that are absent from
// followers
func NonFollowers(following, followers models.RelationshipSet) []models.UserRecord {
	return difference(following, followers)
}

// Fans returns the accounts in followers that are absent from following
func Fans(following, followers models.RelationshipSet) []models.UserRecord {
	return difference(followers, following)
}

// Mutual returns the accounts present in both sets, taken from following
func Mutual(following, followers models.RelationshipSet) []models.UserRecord {
	out := make([]models.UserRecord, 0)
	for id, record := range following {
		if followers.Has(id) {
			out = append(out, record)
		}
	}
	Sort(out)
	return out
}

// Summarize computes all three lists and both set sizes
func Summarize(following, followers models.RelationshipSet) Summary {
	return Summary{
		NonFollowers:   NonFollowers(following, followers),
		Fans:           Fans(following, followers),
		Mutual:         Mutual(following, followers),
		FollowingCount: len(following),
		FollowersCount: len(followers),
	}
}

// Sort orders records in place
func Sort(records []models.UserRecord) {
	sort.Slice(records, func(i, j int) bool {
		return models.Less(records[i], records[j])
	})
}

func difference(a, b models.RelationshipSet) []models.UserRecord {
	out := make([]models.UserRecord, 0)
	for id, record := range a {
		if !b.Has(id) {
			out = append(out, record)
		}
	}
	Sort(out)
	return out
}
