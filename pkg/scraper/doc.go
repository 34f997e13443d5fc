// Package scraper collects the following and followers lists of the
// authenticated account.
//
// A Collector makes exactly one fetch per list through a RelationshipFetcher
// and normalizes every remote profile into a models.UserRecord. Missing
// optional fields take their zero value: full_name becomes "", is_private
// and is_verified become false.
//
// A failed fetch is logged and yields an empty set; nothing is retried.
// The caller decides whether an empty set is fatal.
//
// Pacing:
//
// After each successful fetch the collector takes an extended pause, and
// CollectAll waits once more between the two lists:
//
//	following  -> WaitLong(3.0, "after fetching following")
//	           -> Wait("between API calls")
//	followers  -> WaitLong(3.0, "after fetching followers")
//
// A cancelled context ends the current pause and CollectAll returns the
// context error without issuing further calls.
package scraper
