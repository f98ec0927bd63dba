// Package sqliteexternal registers the CGO SQLite driver
// (github.com/mattn/go-sqlite3) for builds tagged cgo_sqlite.
//
// SQLite inputs are read through core/sqlite, which imports this package when
// built with:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/selah-index
//
// The default build uses modernc.org/sqlite and needs no C toolchain. The CGO
// driver reads large concordance databases noticeably faster.
package sqliteexternal
