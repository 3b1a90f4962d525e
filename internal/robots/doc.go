// Package robots gates crawl fetches on the target host's robots.txt.
//
// An Agent fetches /robots.txt once per scheme and host, keeps the rule
// group matching its user agent, and answers Allowed for every URL on that
// host. Hosts without a usable robots.txt are allowed.
//
// The gate is off unless the crawl is started with --robots. A refused URL
// is reported as a failure and does not consume a hop.
package robots
