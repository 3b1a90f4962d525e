// Package transport builds the HTTP client the crawler fetches with.
//
// The client:
//   - never follows redirects (the fetcher follows exactly one itself)
//   - applies the read timeout to the dial, the response headers and every
//     individual read of the body
//   - optionally dials through a SOCKS5 proxy, or through an embedded Tor
//     daemon started with EmbeddedTor
//   - keeps cookies per registrable domain using the public suffix list
//   - injects per-host cookies and headers from the configuration file
//
// The package has no global state; every crawl in a batch gets its own client.
package transport
