package postgres

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_players",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_completions",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

// Player ledgers. The two point columns are JSONB on purpose: records
// written before the totals migration hold the total as a numeric string
// under wallet, newer records hold a JSON number under total_points, and
// some hold both. The application resolves the duality on read.
const migration001Up = `
CREATE TABLE IF NOT EXISTS players (
    id              TEXT PRIMARY KEY,
    display_name    TEXT,
    username        TEXT,
    total_points    JSONB,
    wallet          JSONB,
    streak_days     INTEGER NOT NULL DEFAULT 0,
    last_completed_date TEXT,
    created_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS players;
`

// Daily completion records. The composite primary key is the idempotency
// guard: one row per player per calendar day, ever.
const migration002Up = `
CREATE TABLE IF NOT EXISTS completions (
    player_id       TEXT NOT NULL,
    date_key        TEXT NOT NULL,
    points_awarded  BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    PRIMARY KEY (player_id, date_key)
);

CREATE INDEX IF NOT EXISTS idx_completions_date_key ON completions (date_key);
`

const migration002Down = `
DROP TABLE IF EXISTS completions;
`
