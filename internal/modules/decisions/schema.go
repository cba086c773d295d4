package decisions

import "database/sql"

// Schema for the append-only decision log. Layout changes bump
// database.SchemaVersion (PRAGMA user_version).
const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
    uuid TEXT PRIMARY KEY,
    recommendation_id TEXT NOT NULL,
    status TEXT NOT NULL,
    category TEXT,
    priority TEXT,
    rejection_reason TEXT,
    created_at TEXT NOT NULL,
    decided_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decision_members (
    id INTEGER PRIMARY KEY,
    decision_uuid TEXT NOT NULL REFERENCES decisions(uuid),
    member_role TEXT NOT NULL,
    product_id TEXT NOT NULL,
    name TEXT,
    brand TEXT,
    category TEXT,
    price REAL NOT NULL,
    allocation_pct INTEGER NOT NULL,
    diversification_score INTEGER NOT NULL,
    cost_savings REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_status ON decisions(status);
CREATE INDEX IF NOT EXISTS idx_decisions_decided_at ON decisions(decided_at);
CREATE INDEX IF NOT EXISTS idx_decision_members_uuid ON decision_members(decision_uuid);
`

const (
	roleOriginal    = "original"
	roleAlternative = "alternative"
)

// InitSchema ensures the decision log tables exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
