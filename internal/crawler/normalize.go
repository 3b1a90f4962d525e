package crawler

import "strings"

// Normalize returns the canonical form of a URL used both for deduplication
// and as the fetch target.
//
// If the byte at offset 4 is 's' it is removed, so "https://x" becomes
// "http://x". Then, if the result ends in '/', it is cut at that slash.
// No validation is done; a malformed URL fails later as a transport error.
func Normalize(raw string) string {
	s := raw
	if len(s) > 4 && s[4] == 's' {
		s = s[:4] + s[5:]
	}
	if strings.HasSuffix(s, "/") {
		s = s[:strings.LastIndexByte(s, '/')]
	}
	return s
}
