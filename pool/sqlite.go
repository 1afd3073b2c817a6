package pool

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteDialect = dialect{
	driverName: "sqlite3",
	open:       openSQLite,
}

// openSQLite treats the URL as a file name or file: URI. Every pooled session
// opens its own handle, so ":memory:" gives each session a separate database.
func openSQLite(_ context.Context, cfg Config) (*sql.DB, func() error, error) {
	db, err := sql.Open("sqlite3", cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	return db, nil, nil
}
