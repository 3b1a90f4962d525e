// Package database stores the history of finished crawls in SQLite.
//
// Each saved run keeps its start URL, hop budget, totals and terminal
// state, plus the ordered visits and failures. The crawl only ever writes
// here; nothing a crawl does depends on earlier runs. The history command
// reads the records back.
//
// SQLite via modernc.org/sqlite keeps the database a single CGO-free file
// in the XDG data directory.
package database
