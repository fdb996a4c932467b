// ABOUTME: SQLite snapshot database connection management
// ABOUTME: Opens the embedded database that backs the Drive file backend
package db

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the embedded database together with its file path. The path
// is needed because the whole database file is what gets exported to and
// imported from the remote drive.
type DB struct {
	*sql.DB
	path string
}

func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Single connection keeps SQLite from reporting locked errors
	sqlDB.SetMaxOpenConns(1)

	if err := InitSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &DB{DB: sqlDB, path: path}, nil
}

// Path returns the database file location.
func (d *DB) Path() string {
	return d.path
}
