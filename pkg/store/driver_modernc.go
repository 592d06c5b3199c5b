//go:build !cgo_sqlite

package store

import (
	_ "modernc.org/sqlite" // SQLite driver
)

// driverName selects the pure-Go SQLite driver.
const driverName = "sqlite"
