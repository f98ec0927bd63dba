//go:build cgo_sqlite

package sqliteexternal

import (
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql name mattn/go-sqlite3 registers under.
const DriverName = "sqlite3"

// DriverPackage is reported by "selah-index version".
const DriverPackage = "github.com/mattn/go-sqlite3 (via contrib/sqlite-external)"
