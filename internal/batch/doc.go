// Package batch runs several independent single-path crawls concurrently.
//
// Every start URL gets its own Spider, built by a factory, and its own
// crawl state; nothing is shared between crawls. Console output of each
// crawl is buffered and written whole, in input order, so the lines of
// different crawls never interleave.
//
// Errors that are not crawl outcomes, such as a failure to build a Spider
// or to save a run, are collected into a cloudeng.io/errors.M and
// returned together once every crawl has finished.
package batch
