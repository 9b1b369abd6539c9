package protocol

// SchemaDDL defines the SQLite schema for the gateway state database.
// Tables: gw_queue (command records) and gw_log (delivery/result codes).
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Command queue: one row per dispatched command, identified by hash
CREATE TABLE IF NOT EXISTS gw_queue (
    id INTEGER PRIMARY KEY,
    hash TEXT NOT NULL UNIQUE,
    imsi TEXT,
    type INTEGER NOT NULL,
    address TEXT NOT NULL,
    data TEXT,
    status TEXT NOT NULL DEFAULT 'queued',
    time TEXT NOT NULL DEFAULT (datetime('now')),
    processed TEXT
);

CREATE INDEX IF NOT EXISTS gw_queue_time ON gw_queue(time);
CREATE INDEX IF NOT EXISTS gw_queue_address ON gw_queue(address, type);

-- Delivery/result codes reported by the network, joined to gw_queue by hash
CREATE TABLE IF NOT EXISTS gw_log (
    id INTEGER PRIMARY KEY,
    hash TEXT NOT NULL,
    address TEXT NOT NULL,
    type INTEGER NOT NULL,
    code TEXT,
    time TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS gw_log_hash ON gw_log(hash);
CREATE INDEX IF NOT EXISTS gw_log_address ON gw_log(address, type);
`
