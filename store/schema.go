package store

// Schema creates the journal tables. Decimals are stored as text to keep them
// exact.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	main_currency TEXT NOT NULL,
	taxfree_after_seconds INTEGER,
	events INTEGER NOT NULL,
	diagnostics INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS spends (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	asset TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	location TEXT NOT NULL,
	amount TEXT NOT NULL,
	rate TEXT NOT NULL,
	taxable INTEGER NOT NULL,
	kind TEXT NOT NULL,
	covered INTEGER NOT NULL,
	taxable_amount TEXT,
	taxable_bought_cost TEXT,
	taxfree_bought_cost TEXT,
	cost_basis TEXT,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_spends_asset ON spends(run_id, asset);
`
