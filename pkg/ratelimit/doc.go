// Package ratelimit paces outbound requests to the platform.
//
// Pacer inserts a uniformly random delay between calls so traffic does not
// arrive in regular bursts. The long variant scales the range and is used
// after a whole relationship list has been fetched:
//
//	p := ratelimit.NewPacer(time.Second, 3*time.Second)
//	_ = p.Wait(ctx, "between API calls")           // 1s..3s
//	_ = p.WaitLong(ctx, 3.0, "after fetching followers") // 3s..9s
//
// TokenBucket is a coarse per-minute budget the HTTP client takes a token
// from before every request.
package ratelimit
