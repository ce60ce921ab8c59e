package store

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	login INTEGER NOT NULL UNIQUE,
	status TEXT NOT NULL,
	class TEXT NOT NULL,
	risk_group TEXT NOT NULL,
	initial_balance REAL NOT NULL,
	current_balance REAL NOT NULL,
	current_equity REAL NOT NULL,
	start_of_day_equity REAL NOT NULL DEFAULT 0,
	daily_limit_percent REAL NOT NULL DEFAULT 0,
	total_limit_percent REAL NOT NULL DEFAULT 0,
	profit_target_percent REAL NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 0,
	sod_reset_at DATETIME,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_status ON accounts(status);

CREATE TABLE IF NOT EXISTS violations (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	detected_at DATETIME NOT NULL,
	kind TEXT NOT NULL,
	equity_at_detection REAL NOT NULL,
	limit_at_detection REAL NOT NULL,
	action_taken TEXT NOT NULL DEFAULT 'none'
);

CREATE INDEX IF NOT EXISTS idx_violations_account ON violations(account_id);

CREATE TABLE IF NOT EXISTS trades (
	ticket INTEGER PRIMARY KEY,
	account_id TEXT NOT NULL,
	profit_loss REAL NOT NULL,
	lots REAL NOT NULL,
	close_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id);

CREATE TABLE IF NOT EXISTS payout_requests (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	amount REAL NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payouts_account ON payout_requests(account_id);

CREATE TABLE IF NOT EXISTS risk_rules_config (
	group_name TEXT PRIMARY KEY,
	daily_limit_percent REAL NOT NULL,
	total_limit_percent REAL NOT NULL,
	max_single_win_percent REAL NOT NULL,
	consistency_enabled INTEGER NOT NULL DEFAULT 1,
	profit_split_percent REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS system_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`
