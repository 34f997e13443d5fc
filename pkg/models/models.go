package models

import "strings"

// UserRecord is one account in a relationship list. UserID is the key.
type UserRecord struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	IsPrivate  bool   `json:"is_private"`
	IsVerified bool   `json:"is_verified"`
}

// RelationshipSet maps user id to record. It is built once per collection
// pass and treated as read-only afterwards.
type RelationshipSet map[string]UserRecord

// NewRelationshipSet builds a set from records, keyed by UserID.
// A later duplicate id replaces an earlier one.
func NewRelationshipSet(records ...UserRecord) RelationshipSet {
	set := make(RelationshipSet, len(records))
	for _, r := range records {
		set[r.UserID] = r
	}
	return set
}

// Has reports whether id is in the set
func (s RelationshipSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the keys in unspecified order
func (s RelationshipSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// SortKey is the lowercase username used for report ordering
func (u UserRecord) SortKey() string {
	return strings.ToLower(u.Username)
}

// Less orders by lowercase username, then user id
func Less(a, b UserRecord) bool {
	ka, kb := a.SortKey(), b.SortKey()
	if ka != kb {
		return ka < kb
	}
	return a.UserID < b.UserID
}
