package crawler

// Frontier is the single-lane queue of canonical URLs awaiting a fetch,
// together with the set of URLs already visited.
// It is owned by one crawl and is not safe for concurrent use.
type Frontier struct {
	queue   []string
	visited map[string]struct{}
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:   make([]string, 0, 1),
		visited: make(map[string]struct{}),
	}
}

// Push appends url to the queue.
func (f *Frontier) Push(url string) {
	f.queue = append(f.queue, url)
}

// Pop removes and returns the oldest queued URL.
func (f *Frontier) Pop() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	url := f.queue[0]
	f.queue = f.queue[1:]
	return url, true
}

// Clear empties the queue. The visited set is untouched.
func (f *Frontier) Clear() {
	f.queue = f.queue[:0]
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// MarkVisited adds url to the visited set.
func (f *Frontier) MarkVisited(url string) {
	f.visited[url] = struct{}{}
}

// IsVisited reports whether url is in the visited set.
func (f *Frontier) IsVisited(url string) bool {
	_, ok := f.visited[url]
	return ok
}

// VisitedCount returns the size of the visited set. This counts every
// attempted URL, not only successful fetches.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
