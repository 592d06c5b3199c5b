// Package store implements Maestro's persistence layer on an embedded
// SQLite database.
//
// One Store owns the single database handle; components receive it by
// handle rather than opening their own files. Execution, request, attempt
// and response records are written append-only after they are terminal, so
// stored rows are immutable. Rolling rule statistics and session snapshots
// are the only mutable state.
//
// The pure-Go driver (modernc.org/sqlite) is the default. Builds with the
// cgo_sqlite tag use the cgo driver (github.com/mattn/go-sqlite3) instead.
package store
