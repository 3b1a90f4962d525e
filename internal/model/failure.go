package model

import "fmt"

// FailureKind classifies why a candidate URL was abandoned.
type FailureKind int

const (
	// FailureClientError is a 4xx response.
	FailureClientError FailureKind = iota

	// FailureServerError is a 5xx response.
	FailureServerError

	// FailureTimeout is a read timeout while waiting for the response or its body.
	FailureTimeout

	// FailureTransport covers every other transport problem: malformed URL,
	// unknown host, refused connection, a redirect without Location.
	FailureTransport

	// FailureRobots is a candidate disallowed by the site's robots.txt.
	FailureRobots
)

// String returns the identifier used in reports and the history database.
func (k FailureKind) String() string {
	switch k {
	case FailureClientError:
		return "client_error"
	case FailureServerError:
		return "server_error"
	case FailureTimeout:
		return "timeout"
	case FailureTransport:
		return "transport"
	case FailureRobots:
		return "robots"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FailureKind) UnmarshalText(text []byte) error {
	parsed, err := ParseFailureKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseFailureKind is the inverse of FailureKind.String.
func ParseFailureKind(s string) (FailureKind, error) {
	for k := FailureClientError; k <= FailureRobots; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown failure kind %q", s)
}

// Failure is a candidate that was popped from the frontier but did not
// produce a visit. It never consumes a hop.
type Failure struct {
	// URL is the normalized URL that was attempted.
	URL string `json:"url"`

	// Kind classifies the failure.
	Kind FailureKind `json:"kind"`

	// Code is the HTTP status for client and server errors, zero otherwise.
	Code int `json:"code,omitempty"`

	// Message is the underlying error text for transport failures.
	Message string `json:"message,omitempty"`
}

// Line returns the console line for the failure.
func (f Failure) Line() string {
	switch f.Kind {
	case FailureClientError:
		return fmt.Sprintf("CODE %d ERROR: %s is not valid URL", f.Code, f.URL)
	case FailureServerError:
		return fmt.Sprintf("CODE %d ERROR: %s is not a valid site", f.Code, f.URL)
	case FailureTimeout:
		return fmt.Sprintf("ERROR: session timed out because %s did not respond", f.URL)
	case FailureRobots:
		return fmt.Sprintf("ERROR: %s is disallowed by robots.txt", f.URL)
	default:
		return fmt.Sprintf("ERROR: %s is not a valid site", f.URL)
	}
}
