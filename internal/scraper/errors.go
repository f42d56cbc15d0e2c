package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidContentType marks a URL whose content can never be ingested
	// (binary asset, unsupported media type, empty error response).
	ErrInvalidContentType = errors.New("invalid content type")
	// ErrBlockedByFirewall is returned when the response is a WAF block page
	ErrBlockedByFirewall = errors.New("blocked by firewall")
	// ErrDisallowedByRobots is returned when robots.txt forbids the URL
	ErrDisallowedByRobots = errors.New("disallowed by robots.txt")
)

// StatusError is a non-2xx response that may succeed on a later attempt
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// IsPermanent reports whether err means the URL should never be retried
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidContentType) || errors.Is(err, ErrDisallowedByRobots)
}
