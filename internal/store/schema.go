package store

// schema is driver-agnostic SQL: no MySQL-only identifier quoting beyond
// backticks (which SQLite also accepts) and no AUTO_INCREMENT/RETURNING —
// ids are assigned by internal/counters before INSERT, never by the
// driver, so the same statements run against go-sql-driver/mysql in
// production and ncruces/go-sqlite3 in tests.
const schema = `
CREATE TABLE IF NOT EXISTS tx (
	id_tx BIGINT UNSIGNED PRIMARY KEY,
	hash CHAR(81) NOT NULL UNIQUE,
	id_trunk BIGINT UNSIGNED NOT NULL DEFAULT 0,
	id_branch BIGINT UNSIGNED NOT NULL DEFAULT 0,
	id_address BIGINT UNSIGNED NOT NULL DEFAULT 0,
	id_bundle BIGINT UNSIGNED NOT NULL DEFAULT 0,
	tag CHAR(27) NOT NULL DEFAULT '',
	value BIGINT NOT NULL DEFAULT 0,
	timestamp DOUBLE NOT NULL DEFAULT 0,
	current_idx INT NOT NULL DEFAULT 0,
	last_idx INT NOT NULL DEFAULT 0,
	da INT NOT NULL DEFAULT 0,
	height INT NOT NULL DEFAULT 0,
	is_mst TINYINT(1) NOT NULL DEFAULT 0,
	mst_a TINYINT(1) NOT NULL DEFAULT 0,
	solid TINYINT UNSIGNED NOT NULL DEFAULT 0,
	weight DOUBLE NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tx_id_trunk ON tx(id_trunk);
CREATE INDEX IF NOT EXISTS idx_tx_id_branch ON tx(id_branch);
CREATE INDEX IF NOT EXISTS idx_tx_id_bundle ON tx(id_bundle);

CREATE TABLE IF NOT EXISTS address (
	id_address BIGINT UNSIGNED PRIMARY KEY,
	address CHAR(81) NOT NULL UNIQUE,
	checksum CHAR(9) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS bundle (
	id_bundle BIGINT UNSIGNED PRIMARY KEY,
	bundle CHAR(81) NOT NULL UNIQUE,
	created DOUBLE NOT NULL DEFAULT 0,
	size INT NOT NULL DEFAULT 0,
	confirmed DOUBLE NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS txload (
	event CHAR(3) NOT NULL,
	count INT NOT NULL,
	timestamp DOUBLE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_txload_timestamp ON txload(timestamp);
`
