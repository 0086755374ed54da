package mirror

import "database/sql"

// schema contains the SQL statements to set up the read mirror. These run on
// startup to ensure tables exist. The mirror is derived state: dropping it
// and replaying notifications rebuilds it.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id INTEGER PRIMARY KEY,
    admin TEXT NOT NULL,
    bill_counter INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
    group_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    address TEXT NOT NULL,
    PRIMARY KEY (group_id, position),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bills (
    group_id INTEGER NOT NULL,
    bill_id INTEGER NOT NULL,
    payer TEXT NOT NULL,
    total_amount INTEGER NOT NULL,
    memo TEXT NOT NULL,
    PRIMARY KEY (group_id, bill_id)
);

CREATE TABLE IF NOT EXISTS bill_debtors (
    group_id INTEGER NOT NULL,
    bill_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    address TEXT NOT NULL,
    amount INTEGER NOT NULL,
    paid INTEGER NOT NULL,
    PRIMARY KEY (group_id, bill_id, position),
    FOREIGN KEY (group_id, bill_id) REFERENCES bills(group_id, bill_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_group_members_address ON group_members(address);
CREATE INDEX IF NOT EXISTS idx_bills_payer ON bills(payer);
CREATE INDEX IF NOT EXISTS idx_bill_debtors_address ON bill_debtors(address);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
