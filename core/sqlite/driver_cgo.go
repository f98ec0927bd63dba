//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3, selected with -tags cgo_sqlite.
// The registration lives in contrib/sqlite-external so the default build
// carries no CGO dependency.
package sqlite

import (
	sqliteexternal "github.com/FocuswithJustin/selah-index/contrib/sqlite-external"
)

const (
	driverName    = sqliteexternal.DriverName
	driverType    = "cgo"
	driverPackage = sqliteexternal.DriverPackage
)
