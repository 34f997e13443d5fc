package instagram

import (
	"context"
	"fmt"

	apperrors "ignonfollowers/pkg/errors"
)

// FetchFollowing returns every account userID follows, keyed by user id
func (c *Client) FetchFollowing(ctx context.Context, userID string) (map[string]Profile, error) {
	return c.fetchList(ctx, userID, ListFollowing)
}

// FetchFollowers returns every account following userID, keyed by user id
func (c *Client) FetchFollowers(ctx context.Context, userID string) (map[string]Profile, error) {
	return c.fetchList(ctx, userID, ListFollowers)
}

// fetchList walks next_max_id until the list is exhausted. Any page error
// fails the whole list; there is no retry.
func (c *Client) fetchList(ctx context.Context, userID string, list List) (map[string]Profile, error) {
	op := "instagram.fetch_" + string(list)
	if userID == "" {
		return nil, apperrors.New(apperrors.KindCollection, op, "user id is required")
	}

	profiles := make(map[string]Profile)
	seen := make(map[string]bool)
	cursor := ""

	for page := 1; ; page++ {
		var resp FriendshipsResponse
		pageURL := GetFriendshipsURL(c.baseURL.String(), userID, list, c.pageSize, cursor)
		if err := c.getJSON(ctx, op, pageURL, &resp); err != nil {
			return nil, err
		}
		if resp.Status != "" && resp.Status != "ok" {
			return nil, apperrors.New(apperrors.KindCollection, op,
				fmt.Sprintf("page %d returned status %q: %s", page, resp.Status, resp.Message))
		}

		for _, p := range resp.Users {
			id := p.ID()
			if id == "" {
				c.logger.WarnWithFields("skipping profile without id", map[string]interface{}{
					"list":     string(list),
					"username": p.Username,
				})
				continue
			}
			profiles[id] = p
		}

		c.logger.DebugWithFields("fetched page", map[string]interface{}{
			"list":  string(list),
			"page":  page,
			"users": len(resp.Users),
			"total": len(profiles),
		})

		cursor = string(resp.NextMaxID)
		if cursor == "" {
			return profiles, nil
		}
		if seen[cursor] {
			return nil, apperrors.New(apperrors.KindCollection, op,
				fmt.Sprintf("pagination cursor %q repeated on page %d", cursor, page))
		}
		seen[cursor] = true

		if c.pacer != nil {
			if err := c.pacer.Wait(ctx, "between "+string(list)+" pages"); err != nil {
				return nil, err
			}
		}
	}
}
