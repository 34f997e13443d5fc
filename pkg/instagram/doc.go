// Package instagram is an HTTP client for the parts of Instagram's web API
// needed to list who an account follows and who follows it back.
//
// A Client owns one cookie jar and logs in one of three ways: Login with a
// username and password, TwoFactorLogin to answer a pending code challenge,
// or LoginWithSession to reuse cookies saved earlier by DumpSession. Every
// login call returns a LoginResult whose Outcome is one of a closed set, so
// callers switch over outcomes instead of inspecting error strings.
//
// FetchFollowing and FetchFollowers page through the friendships endpoint
// until next_max_id is empty. Pages are spaced by the injected Pacer and
// each request takes a token from the optional Limiter.
package instagram
