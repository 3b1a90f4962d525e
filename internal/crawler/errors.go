package crawler

import "errors"

// ErrMissingLocation is returned when a 3xx response carries no Location header.
var ErrMissingLocation = errors.New("redirect without Location header")

// ErrUnexpectedOutcome is reported when a Fetcher returns an outcome the
// crawl loop does not handle, such as an unresolved Redirect.
var ErrUnexpectedOutcome = errors.New("unexpected fetch outcome")
