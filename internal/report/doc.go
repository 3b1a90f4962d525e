// Package report turns crawl events into output.
//
// Two kinds of types live here:
//
//   - Reporters receive events while a crawl runs. Console prints the
//     line-oriented progress output, Recorder builds a model.Run, and Multi
//     fans events out to several reporters.
//   - Writers render a finished model.Run, or a list of runs from the history
//     database: TextWriter for the terminal, JSONWriter for tools and
//     MarkdownWriter for sharing.
//
// Writers implement the Writer interface, so they can be chosen by flag and
// combined with MultiWriter.
package report
