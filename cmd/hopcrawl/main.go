// Package main provides the entry point for the hopcrawl CLI.
//
// hopcrawl follows a single chain of links from a start URL: every page it
// fetches contributes exactly one unvisited link to the next fetch, until
// the hop budget is spent or no new link is found.
//
// Usage:
//
//	hopcrawl crawl <start-url> <hops>
//	hopcrawl batch <list-file> <hops>
//
// See --help for all available options.
package main

// main is the entry point for hopcrawl.
func main() {
	Execute()
}
