package main

import (
	"database/sql"
	"fmt"
)

// initDB opens the history database with whichever SQLite driver the binary
// was built with and checks that it can be reached.
func initDB(dataSource string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriver, dataSource)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", sqliteDriver, err)
	}
	return db, nil
}
