// Package crawler implements a bounded-depth, single-path web crawler.
//
// Given a start URL and a hop budget, the Spider fetches a page, picks the
// first hyperlink in its body that has not been visited yet, and follows
// it. A crawl never follows more than one link per page and never revisits
// a URL. It stops when the budget is spent or no candidate is left.
//
// # Components
//
//   - Normalize: canonical URL form used for deduplication and fetching
//   - Frontier: single-lane queue of pending URLs plus the visited set
//   - ExtractFirstUnvisited: regex link scan over a lazy line sequence
//   - HTTPFetcher: one GET with at most one redirect follow-up, classified
//     into an Outcome
//   - Spider: the crawl loop over an explicit State
//
// # Accounting
//
// Only a Success consumes a hop. Client errors, server errors, transport
// failures and robots.txt refusals are reported and the crawl continues
// with whatever is left in the frontier, which after the first fetch is at
// most one URL.
//
// # Usage
//
//	client, _ := transport.NewClient(transport.Options{Timeout: 5 * time.Second})
//	spider := crawler.NewSpider(crawler.NewHTTPFetcher(client))
//	summary := spider.Crawl(ctx, "https://example.com/", 3, reporter)
package crawler
