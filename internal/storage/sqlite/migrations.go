package sqlite

import "database/sql"

// schema contains the SQL statements to set up the keyed store. These run on
// startup to ensure tables exist. The ledger_state row holds the global group
// counter and is seeded exactly once.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id INTEGER PRIMARY KEY,
    record BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS bills (
    group_id INTEGER NOT NULL,
    bill_id INTEGER NOT NULL,
    record BLOB NOT NULL,
    PRIMARY KEY (group_id, bill_id)
);

CREATE TABLE IF NOT EXISTS ledger_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    group_counter INTEGER NOT NULL
);

INSERT OR IGNORE INTO ledger_state (id, group_counter) VALUES (1, 0);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
