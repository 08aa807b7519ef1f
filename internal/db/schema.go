package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'dealer_staff' CHECK (role IN ('admin', 'evm_staff', 'dealer_staff')),
    dealer_id     INTEGER REFERENCES dealers(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS dealers (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    region     TEXT,
    address    TEXT,
    status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'suspended', 'closed')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS customers (
    id         INTEGER PRIMARY KEY,
    dealer_id  INTEGER NOT NULL REFERENCES dealers(id),
    full_name  TEXT NOT NULL,
    email      TEXT,
    phone      TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS variants (
    id          INTEGER PRIMARY KEY,
    model_name  TEXT NOT NULL,
    trim        TEXT NOT NULL,
    battery_kwh REAL NOT NULL DEFAULT 0,
    range_km    INTEGER NOT NULL DEFAULT 0,
    base_price  TEXT NOT NULL DEFAULT '0',
    photo       BLOB,
    photo_mime  TEXT,
    status      TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'discontinued')),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE TABLE IF NOT EXISTS vehicle_units (
    id         INTEGER PRIMARY KEY,
    vin        TEXT NOT NULL UNIQUE,
    variant_id INTEGER NOT NULL REFERENCES variants(id),
    color      TEXT NOT NULL,
    location   TEXT NOT NULL DEFAULT 'manufacturer' CHECK (location IN ('manufacturer', 'dealer')),
    dealer_id  INTEGER REFERENCES dealers(id),
    status     TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'reserved', 'sold')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK ((location = 'manufacturer' AND dealer_id IS NULL) OR (location = 'dealer' AND dealer_id IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_units_lookup
    ON vehicle_units(location, dealer_id, variant_id, color, status);

CREATE TABLE IF NOT EXISTS dealer_requests (
    id         INTEGER PRIMARY KEY,
    dealer_id  INTEGER NOT NULL REFERENCES dealers(id),
    status     TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected', 'delivered', 'recalled')),
    notes      TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS request_items (
    id                 INTEGER PRIMARY KEY,
    request_id         INTEGER NOT NULL REFERENCES dealer_requests(id),
    variant_id         INTEGER NOT NULL REFERENCES variants(id),
    color              TEXT NOT NULL,
    quantity           INTEGER NOT NULL CHECK (quantity > 0),
    fulfilled_quantity INTEGER NOT NULL DEFAULT 0,
    UNIQUE (request_id, variant_id, color)
);

CREATE TABLE IF NOT EXISTS promotions (
    id           INTEGER PRIMARY KEY,
    code         TEXT NOT NULL UNIQUE,
    description  TEXT,
    discount_pct TEXT NOT NULL DEFAULT '0',
    starts_at    DATETIME NOT NULL,
    ends_at      DATETIME NOT NULL,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at   DATETIME
);

CREATE TABLE IF NOT EXISTS orders (
    id           INTEGER PRIMARY KEY,
    order_no     TEXT NOT NULL UNIQUE,
    dealer_id    INTEGER NOT NULL REFERENCES dealers(id),
    customer_id  INTEGER NOT NULL REFERENCES customers(id),
    unit_id      INTEGER NOT NULL REFERENCES vehicle_units(id),
    promotion_id INTEGER REFERENCES promotions(id),
    price        TEXT NOT NULL,
    discount     TEXT NOT NULL DEFAULT '0',
    total        TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid', 'cancelled')),
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_unit_open
    ON orders(unit_id) WHERE status != 'cancelled';

CREATE TABLE IF NOT EXISTS payments (
    id          INTEGER PRIMARY KEY,
    order_id    INTEGER NOT NULL REFERENCES orders(id),
    reference   TEXT NOT NULL UNIQUE,
    amount      TEXT NOT NULL,
    method      TEXT NOT NULL CHECK (method IN ('cash', 'card', 'transfer', 'financing')),
    paid_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    recorded_by INTEGER REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS test_drives (
    id           INTEGER PRIMARY KEY,
    dealer_id    INTEGER NOT NULL REFERENCES dealers(id),
    customer_id  INTEGER NOT NULL REFERENCES customers(id),
    variant_id   INTEGER NOT NULL REFERENCES variants(id),
    scheduled_at DATETIME NOT NULL,
    status       TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'completed', 'cancelled', 'no_show')),
    notes        TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS feedback (
    id          INTEGER PRIMARY KEY,
    dealer_id   INTEGER NOT NULL REFERENCES dealers(id),
    customer_id INTEGER NOT NULL REFERENCES customers(id),
    order_id    INTEGER REFERENCES orders(id),
    rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comments    TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
