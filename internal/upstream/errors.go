package upstream

import "fmt"

// bodyExcerptLimit caps how much of an upstream body is kept in errors.
const bodyExcerptLimit = 500

// UpstreamError is returned for a non-success HTTP response or a page body
// that cannot be decoded. It is never retried.
type UpstreamError struct {
	URL    string
	Reason string
	Body   string
	Status int
}

func (e *UpstreamError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s from %s (HTTP %d): %s", e.Reason, e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.Status, e.URL, e.Body)
}

// ResolutionError is returned when a credential's current org cannot be
// established: upstream named no org, or a different org than the one asked
// for. Want is the requested org id, if any.
type ResolutionError struct {
	Want string
	Got  string
}

func (e *ResolutionError) Error() string {
	switch {
	case e.Got != "":
		return fmt.Sprintf("API key resolves to org %s, not the requested org %s", e.Got, e.Want)
	case e.Want != "":
		return fmt.Sprintf("no org returned for requested org %s", e.Want)
	default:
		return "API key does not resolve to any org"
	}
}

func excerpt(body []byte) string {
	if len(body) > bodyExcerptLimit {
		body = body[:bodyExcerptLimit]
	}
	return string(body)
}
