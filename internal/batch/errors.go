package batch

import "errors"

// ErrEmptyList is returned when a URL list has no entries.
var ErrEmptyList = errors.New("URL list has no start URLs")
