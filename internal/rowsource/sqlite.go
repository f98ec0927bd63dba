package rowsource

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/rows"
	"github.com/FocuswithJustin/selah-index/core/sqlite"
)

// sqliteSource reads one table of a SQLite database. The column names are
// the header.
type sqliteSource struct {
	path   string
	db     *sql.DB
	rs     *sql.Rows
	header []string
	vals   []any
	ptrs   []any
}

func openSQLite(path, table string) (*sqliteSource, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open database", path, err)
	}

	src, err := querySQLite(db, path, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return src, nil
}

func querySQLite(db *sql.DB, path, table string) (*sqliteSource, error) {
	tables, err := sqlite.UserTables(db)
	if err != nil {
		return nil, errors.NewIO("read schema of", path, err)
	}
	if table == "" {
		if len(tables) == 0 {
			return nil, errors.NewNotFound("table", path)
		}
		table = tables[0]
	} else if !contains(tables, table) {
		return nil, errors.NewNotFound("table", table)
	}

	rs, err := db.Query("SELECT * FROM " + sqlite.QuoteIdent(table))
	if err != nil {
		return nil, errors.NewIO("query", path, err)
	}
	header, err := rs.Columns()
	if err != nil {
		rs.Close()
		return nil, errors.NewIO("read columns of", path, err)
	}

	s := &sqliteSource{
		path:   path,
		db:     db,
		rs:     rs,
		header: header,
		vals:   make([]any, len(header)),
		ptrs:   make([]any, len(header)),
	}
	for i := range s.vals {
		s.ptrs[i] = &s.vals[i]
	}
	return s, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (s *sqliteSource) Header() []string { return s.header }

func (s *sqliteSource) Next() (rows.Row, error) {
	if !s.rs.Next() {
		if err := s.rs.Err(); err != nil {
			return nil, errors.NewIO("read", s.path, err)
		}
		return nil, io.EOF
	}
	if err := s.rs.Scan(s.ptrs...); err != nil {
		return nil, errors.NewIO("read", s.path, err)
	}

	row := make(rows.Row, len(s.vals))
	for i, v := range s.vals {
		row[i] = sqliteCell(v)
	}
	return row, nil
}

func sqliteCell(v any) rows.Cell {
	switch v := v.(type) {
	case nil:
		return rows.Cell{}
	case int64:
		return rows.Num(float64(v))
	case float64:
		return rows.Num(v)
	case bool:
		if v {
			return rows.Num(1)
		}
		return rows.Num(0)
	case []byte:
		return rows.Text(string(v))
	case string:
		return rows.Text(v)
	default:
		return rows.Text(fmt.Sprint(v))
	}
}

// Close releases the query and the database handle.
func (s *sqliteSource) Close() error {
	s.rs.Close()
	return s.db.Close()
}
