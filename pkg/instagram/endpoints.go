package instagram

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// AppID identifies the web client to the private API
	AppID = "936619743392459"

	// ASBDID is sent alongside the app id by the web client
	ASBDID = "129477"

	LoginPagePath      = "/accounts/login/"
	LoginEndpoint      = "/api/v1/web/accounts/login/ajax/"
	TwoFactorEndpoint  = "/api/v1/web/accounts/login/ajax/two_factor/"
	LogoutEndpoint     = "/api/v1/web/accounts/logout/ajax/"
	CurrentUserPath    = "/api/v1/accounts/current_user/"
	FriendshipsPattern = "/api/v1/friendships/%s/%s/"

	// DefaultPageSize is the number of users requested per page
	DefaultPageSize = 100

	// MaxPageSize is the largest page the endpoint accepts
	MaxPageSize = 200
)

// List names one side of the follow graph
type List string

const (
	ListFollowing List = "following"
	ListFollowers List = "followers"
)

// GetFriendshipsURL builds the URL for one page of a relationship list
func GetFriendshipsURL(base, userID string, list List, count int, maxID string) string {
	if count <= 0 {
		count = DefaultPageSize
	} else if count > MaxPageSize {
		count = MaxPageSize
	}

	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	if maxID != "" {
		params.Set("max_id", maxID)
	}
	if list == ListFollowers {
		params.Set("search_surface", "follow_list_page")
	}

	path := fmt.Sprintf(FriendshipsPattern, url.PathEscape(userID), list)
	return fmt.Sprintf("%s%s?%s", base, path, params.Encode())
}

// GetCurrentUserURL builds the URL used to check that a session is live
func GetCurrentUserURL(base string) string {
	return base + CurrentUserPath + "?edit=true"
}

// GetUserProfileURL constructs the public profile URL for a user
func GetUserProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}
	return true
}

// SanitizeUsername strips a leading @, surrounding spaces and a trailing
// slash from a username typed by the operator
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
