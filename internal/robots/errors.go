package robots

import "errors"

// ErrUnavailable is returned when the robots.txt request gets a 4xx or 5xx.
var ErrUnavailable = errors.New("robots.txt unavailable")
