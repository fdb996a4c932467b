// ABOUTME: Snapshot database schema definitions
// ABOUTME: Handles SQLite table creation for the clients and policies tables
package db

import (
	"database/sql"
)

// Collections with list/object shape (tags, riders, specifics) are
// JSON-encoded into TEXT columns, mirroring the in-memory entities.
const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	birthday DATETIME,
	total_policies INTEGER NOT NULL DEFAULT 0,
	last_contact DATETIME,
	status TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name);

CREATE TABLE IF NOT EXISTS policies (
	id TEXT PRIMARY KEY,
	policy_number TEXT NOT NULL,
	plan_name TEXT NOT NULL,
	holder_name TEXT NOT NULL,
	client_id TEXT NOT NULL,
	client_birthday DATETIME,
	type TEXT NOT NULL,
	anniversary_day INTEGER NOT NULL,
	anniversary_month INTEGER NOT NULL,
	payment_mode TEXT NOT NULL,
	premium_amount REAL NOT NULL,
	currency TEXT,
	status TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	riders TEXT NOT NULL DEFAULT '[]',
	specifics TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_policies_client_id ON policies(client_id);
CREATE INDEX IF NOT EXISTS idx_policies_status ON policies(status);
`

// InitSchema applies the schema. Every statement is idempotent, so it is
// safe to re-run against an imported database written by an older build.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
