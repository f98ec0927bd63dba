// Package sqlite opens SQLite row sources with either a pure Go or a CGO
// driver, chosen at build time.
//
// Build modes:
//   - Default: modernc.org/sqlite, no CGO required
//   - CGO_ENABLED=1 -tags cgo_sqlite: mattn/go-sqlite3 via contrib/sqlite-external
//
// Use Open or OpenReadOnly instead of sql.Open so the registered driver
// name always matches the build.
package sqlite

import (
	"database/sql"
	"strings"

	"github.com/FocuswithJustin/selah-index/core/errors"
)

// DriverName returns the database/sql driver name of this build.
func DriverName() string {
	return driverName
}

// DriverType returns "purego" or "cgo".
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database using the build's driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens the database file at path without write access.
// Input sources are always opened this way.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open("file:" + path + "?mode=ro")
}

// UserTables lists the tables of db in creation order, skipping SQLite's
// internal sqlite_* tables.
func UserTables(db *sql.DB) ([]string, error) {
	rs, err := db.Query(`SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "list tables")
	}
	defer rs.Close()

	var names []string
	for rs.Next() {
		var name string
		if err := rs.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "list tables")
		}
		names = append(names, name)
	}
	return names, rs.Err()
}

// QuoteIdent quotes a table or column name for use in a statement.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Info describes the SQLite driver of this build.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns the driver configuration, reported by the version command.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
