//go:build cgo_sqlite

package store

import (
	_ "github.com/mattn/go-sqlite3" // SQLite driver (cgo)
)

// driverName selects the cgo SQLite driver.
const driverName = "sqlite3"
