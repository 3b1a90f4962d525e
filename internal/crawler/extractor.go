package crawler

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"regexp"
	"strings"
)

// linkPattern matches an anchor whose href is an absolute http(s) URL.
// Group 1 is the candidate. Matching is case-sensitive and only the exact
// `<a href="` spelling is recognized.
var linkPattern = regexp.MustCompile(`(?s)<a href="(https?://(.*?))"`)

// LineSeq is a lazy sequence of lines read from a body.
// Nothing is read until the sequence is ranged over, and reading stops as
// soon as the consumer stops.
type LineSeq struct {
	r   *bufio.Reader
	err error
}

// Lines wraps r in a LineSeq. Lines have no length limit; "\n" and "\r\n"
// terminators are stripped.
func Lines(r io.Reader) *LineSeq {
	return &LineSeq{r: bufio.NewReader(r)}
}

// All returns the line iterator. It can be ranged over once.
func (l *LineSeq) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, err := l.r.ReadString('\n')
			if len(line) > 0 {
				line = strings.TrimSuffix(line, "\n")
				line = strings.TrimSuffix(line, "\r")
				if !yield(line) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					l.err = err
				}
				return
			}
		}
	}
}

// Err returns the first read error other than io.EOF.
func (l *LineSeq) Err() error {
	return l.err
}

// ExtractFirstUnvisited scans lines in order, and matches within a line in
// order, and returns the first candidate whose normalized form is not
// visited. The candidate itself is returned unnormalized. Iteration stops
// as soon as a candidate is found.
func ExtractFirstUnvisited(lines iter.Seq[string], isVisited func(string) bool) (string, bool) {
	for line := range lines {
		for _, m := range linkPattern.FindAllStringSubmatch(line, -1) {
			if !seen(m[1], isVisited) {
				return m[1], true
			}
		}
	}
	return "", false
}

// seen reports whether candidate was visited under either key it can end
// up with. The frontier holds Normalize(candidate) and the visited mark is
// taken after one more Normalize, which differs for inputs such as
// "http://a.test//".
func seen(candidate string, isVisited func(string) bool) bool {
	once := Normalize(candidate)
	return isVisited(once) || isVisited(Normalize(once))
}
