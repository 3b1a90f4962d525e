// Package model defines the records produced by a crawl run.
//
// This package contains the following main types:
//   - Run: one crawl from a start URL, with every visit and failure
//   - Visit: a successful fetch that consumed a hop
//   - Failure: an abandoned candidate (HTTP error, timeout, robots.txt)
//   - Reason: why the crawl stopped
//
// The crawler emits these as report events; the report writers and the
// history database serialize them. Nothing here is read back into a crawl.
package model
