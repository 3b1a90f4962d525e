// Package config provides configuration structures and utilities for hopcrawl.
// It defines the crawl options, argument parsing for the crawl command, and
// the optional per-host YAML configuration file.
package config
