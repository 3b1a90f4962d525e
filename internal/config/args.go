package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseArgs interprets the two positional arguments of the crawl command:
// the start URL and the hop count.
func ParseArgs(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, ErrArgumentCount
	}

	hops, err := ParseHops(args[1])
	if err != nil {
		return "", 0, err
	}

	return args[0], hops, nil
}

// ParseHops parses a hop count.
func ParseHops(s string) (int, error) {
	hops, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHops, s)
	}
	if hops < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidHops, hops)
	}
	return hops, nil
}
