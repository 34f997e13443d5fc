package instagram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFriendshipsURL(t *testing.T) {
	tests := []struct {
		name  string
		list  List
		count int
		maxID string
		want  string
	}{
		{
			name:  "first following page",
			list:  ListFollowing,
			count: 50,
			want:  BaseURL + "/api/v1/friendships/42/following/?count=50",
		},
		{
			name:  "followers with cursor",
			list:  ListFollowers,
			count: 100,
			maxID: "QVFE",
			want:  BaseURL + "/api/v1/friendships/42/followers/?count=100&max_id=QVFE&search_surface=follow_list_page",
		},
		{
			name:  "count clamped",
			list:  ListFollowing,
			count: 1000,
			want:  BaseURL + "/api/v1/friendships/42/following/?count=200",
		},
		{
			name: "default count",
			list: ListFollowing,
			want: BaseURL + "/api/v1/friendships/42/following/?count=100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetFriendshipsURL(BaseURL, "42", tt.list, tt.count, tt.maxID))
		})
	}
}

func TestGetCurrentUserURL(t *testing.T) {
	assert.Equal(t, "http://x/api/v1/accounts/current_user/?edit=true", GetCurrentUserURL("http://x"))
}

func TestIsValidUsername(t *testing.T) {
	valid := []string{"ana", "ana.b", "ana_b_1", "A"}
	invalid := []string{"", "ana b", "ana-b", "@ana", "abcdefghijklmnopqrstuvwxyz12345"}

	for _, u := range valid {
		assert.True(t, IsValidUsername(u), u)
	}
	for _, u := range invalid {
		assert.False(t, IsValidUsername(u), u)
	}
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "ana", SanitizeUsername(" @ana/ "))
	assert.Equal(t, "ana.b", SanitizeUsername("ana.b"))
	assert.Equal(t, "", SanitizeUsername(""))
}

func TestFlexibleID(t *testing.T) {
	var v struct {
		A FlexibleID `json:"a"`
		B FlexibleID `json:"b"`
		C FlexibleID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"123","b":17841400000000000,"c":null}`), &v))
	assert.Equal(t, FlexibleID("123"), v.A)
	assert.Equal(t, FlexibleID("17841400000000000"), v.B)
	assert.Equal(t, FlexibleID(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":1.5}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "two_factor_required", OutcomeTwoFactorRequired.String())
	assert.Equal(t, "other", OutcomeOther.String())
}
