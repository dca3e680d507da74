//go:build !cgo_sqlite

package main

import _ "modernc.org/sqlite"

// sqliteDriver is the pure Go driver, used unless built with -tags cgo_sqlite.
const sqliteDriver = "sqlite"
