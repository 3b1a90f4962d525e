package model

import "fmt"

// Reason tells why a crawl reached its terminal state.
type Reason int

const (
	// ReasonNone means the crawl has not finished.
	ReasonNone Reason = iota

	// ReasonFrontierEmpty means no unvisited link was left to follow.
	ReasonFrontierEmpty

	// ReasonHopsExhausted means the hop budget reached zero.
	ReasonHopsExhausted

	// ReasonCancelled means the context was cancelled between fetches.
	ReasonCancelled
)

// String returns the identifier stored in reports and the history database.
func (r Reason) String() string {
	switch r {
	case ReasonFrontierEmpty:
		return "frontier_empty"
	case ReasonHopsExhausted:
		return "hops_exhausted"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Message returns the console line announcing the terminal state.
func (r Reason) Message() string {
	switch r {
	case ReasonFrontierEmpty:
		return "No more links, program terminated"
	case ReasonHopsExhausted:
		return "No more hops, program terminated"
	case ReasonCancelled:
		return "Interrupted, program terminated"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reason) UnmarshalText(text []byte) error {
	parsed, err := ParseReason(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseReason is the inverse of Reason.String.
func ParseReason(s string) (Reason, error) {
	switch s {
	case "none", "":
		return ReasonNone, nil
	case "frontier_empty":
		return ReasonFrontierEmpty, nil
	case "hops_exhausted":
		return ReasonHopsExhausted, nil
	case "cancelled":
		return ReasonCancelled, nil
	default:
		return ReasonNone, fmt.Errorf("unknown reason %q", s)
	}
}
