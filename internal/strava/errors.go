package strava

import "fmt"

// UpstreamAuthError is returned when the authorization code exchange or the
// subsequent athlete profile call fails. Never retried, authorization codes
// are single use.
type UpstreamAuthError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("strava auth exchange failed: status %d: %s", e.StatusCode, e.Body)
}

// UpstreamFetchError is returned when an activities page request fails with a
// non-success status. The whole fetch fails, partial history would silently
// skew the downstream aggregation.
type UpstreamFetchError struct {
	StatusCode int
	Page       int
	Body       string
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("strava activities fetch failed: page %d: status %d: %s", e.Page, e.StatusCode, e.Body)
}
