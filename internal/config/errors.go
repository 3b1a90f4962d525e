package config

import "errors"

// Configuration errors returned by ParseArgs and Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrArgumentCount is returned when the crawl command does not receive
	// exactly a start URL and a hop count. No crawl is attempted.
	ErrArgumentCount = errors.New("invalid number of arguments, 2 required")

	// ErrInvalidHops is returned when the hop count is not a non-negative integer.
	ErrInvalidHops = errors.New("invalid hop count: must be a non-negative integer")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRate is returned when the rate limit is negative.
	ErrInvalidRate = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidConcurrency is returned when the batch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLogFormat is returned when --log-format is neither "text"
	// nor "json".
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrProxyAndTor is returned when both --proxy and --tor are specified.
	ErrProxyAndTor = errors.New("conflicting transports: --proxy and --tor cannot be used together")
)
