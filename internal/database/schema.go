package database

// Tables are listed in foreign key order. Monetary columns are TEXT in SQLite so the
// decimal string round-trips exactly; Postgres uses NUMERIC with the stored scale. Both
// dialects carry the same CHECK constraints.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS farmers (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		identification_number TEXT NOT NULL UNIQUE,
		phone_number TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		farm_size TEXT NOT NULL,
		state_of_residence TEXT NOT NULL,
		points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
		has_market_transaction INTEGER NOT NULL DEFAULT 0,
		has_input_transaction INTEGER NOT NULL DEFAULT 0,
		is_verified INTEGER NOT NULL DEFAULT 0,
		blacklisted INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS markets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		state TEXT NOT NULL DEFAULT '',
		market_day_interval INTEGER NOT NULL DEFAULT 4,
		reference_date DATE NOT NULL,
		last_market_day DATE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT '',
		verified INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS produce (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		unit TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS market_transactions (
		id TEXT PRIMARY KEY,
		farmer_id TEXT NOT NULL REFERENCES farmers(id) ON DELETE RESTRICT,
		market_id TEXT NOT NULL REFERENCES markets(id) ON DELETE RESTRICT,
		produce_id TEXT NOT NULL REFERENCES produce(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		transaction_date DATE NOT NULL,
		points_earned INTEGER NOT NULL CHECK (points_earned >= 0),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT unique_market_transaction UNIQUE (produce_id, farmer_id, market_id, transaction_date)
	)`,
	`CREATE TABLE IF NOT EXISTS input_transactions (
		id TEXT PRIMARY KEY,
		farmer_id TEXT NOT NULL REFERENCES farmers(id) ON DELETE RESTRICT,
		vendor_id TEXT NOT NULL REFERENCES vendors(id) ON DELETE RESTRICT,
		amount TEXT NOT NULL CHECK (CAST(amount AS REAL) > 0),
		receipt_number TEXT NOT NULL,
		transaction_date DATE NOT NULL,
		points_earned INTEGER NOT NULL CHECK (points_earned >= 0),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT unique_vendor_receipt UNIQUE (receipt_number, vendor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subsidy_programs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		sponsor TEXT NOT NULL DEFAULT '',
		level TEXT NOT NULL CHECK (level IN ('STATE', 'NATIONAL')),
		state TEXT NOT NULL DEFAULT '',
		rate TEXT NOT NULL CHECK (CAST(rate AS REAL) >= 0 AND CAST(rate AS REAL) <= 100),
		target_beneficiaries INTEGER NOT NULL DEFAULT 200,
		current_beneficiaries INTEGER NOT NULL DEFAULT 0,
		budget TEXT,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CHECK (start_date < end_date)
	)`,
	`CREATE TABLE IF NOT EXISTS subsidized_items (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('FERTILIZER', 'SEED', 'AGROCHEMICAL', 'MECHANIZATION')),
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		price TEXT NOT NULL CHECK (CAST(price AS REAL) >= 0),
		detail TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT unique_subsidized_item UNIQUE (kind, name)
	)`,
	`CREATE TABLE IF NOT EXISTS subsidy_rates (
		program_id TEXT NOT NULL REFERENCES subsidy_programs(id) ON DELETE CASCADE,
		item_id TEXT NOT NULL REFERENCES subsidized_items(id) ON DELETE CASCADE,
		rate TEXT NOT NULL CHECK (CAST(rate AS REAL) >= 0 AND CAST(rate AS REAL) <= 100),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (program_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subsidy_instances (
		id TEXT PRIMARY KEY,
		farmer_id TEXT NOT NULL REFERENCES farmers(id) ON DELETE RESTRICT,
		item_id TEXT NOT NULL REFERENCES subsidized_items(id) ON DELETE RESTRICT,
		program_id TEXT NOT NULL REFERENCES subsidy_programs(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price TEXT NOT NULL,
		rate TEXT NOT NULL,
		rate_source TEXT NOT NULL,
		gross_price TEXT NOT NULL,
		discounted_price TEXT NOT NULL,
		redemption_date DATE NOT NULL,
		redemption_location TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		CONSTRAINT unique_farmer_subsidy UNIQUE (farmer_id, item_id, program_id)
	)`,
	`CREATE TABLE IF NOT EXISTS program_beneficiaries (
		program_id TEXT NOT NULL REFERENCES subsidy_programs(id) ON DELETE CASCADE,
		farmer_id TEXT NOT NULL REFERENCES farmers(id) ON DELETE RESTRICT,
		first_redeemed_at TIMESTAMP NOT NULL,
		PRIMARY KEY (program_id, farmer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS item_price_history (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL REFERENCES subsidized_items(id) ON DELETE CASCADE,
		price TEXT NOT NULL,
		unit TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS produce_prices (
		id TEXT PRIMARY KEY,
		market_id TEXT NOT NULL REFERENCES markets(id) ON DELETE RESTRICT,
		produce_id TEXT NOT NULL REFERENCES produce(id) ON DELETE RESTRICT,
		price TEXT NOT NULL,
		market_date DATE NOT NULL,
		created_at TIMESTAMP NOT NULL,
		CONSTRAINT unique_produce_price UNIQUE (produce_id, market_id, market_date)
	)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		points_required INTEGER NOT NULL CHECK (points_required >= 0),
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS farmer_badges (
		farmer_id TEXT NOT NULL REFERENCES farmers(id) ON DELETE CASCADE,
		badge_id TEXT NOT NULL REFERENCES badges(id) ON DELETE CASCADE,
		awarded_at TIMESTAMP NOT NULL,
		PRIMARY KEY (farmer_id, badge_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_tx_farmer ON market_transactions(farmer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_market_tx_market_date ON market_transactions(market_id, transaction_date)`,
	`CREATE INDEX IF NOT EXISTS idx_input_tx_farmer ON input_transactions(farmer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_subsidy_instances_program ON subsidy_instances(program_id)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_item ON item_price_history(item_id, recorded_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS farmers (
		id UUID PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		identification_number TEXT NOT NULL UNIQUE,
		phone_number TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		farm_size NUMERIC(10, 2) NOT NULL,
		state_of_residence TEXT NOT NULL,
		points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
		has_market_transaction BOOLEAN NOT NULL DEFAULT FALSE,
		has_input_transaction BOOLEAN NOT NULL DEFAULT FALSE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		blacklisted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS markets (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		state TEXT NOT NULL DEFAULT '',
		market_day_interval SMALLINT NOT NULL DEFAULT 4,
		reference_date DATE NOT NULL,
		last_market_day DATE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT '',
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS produce (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		unit TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS market_transactions (
		id UUID PRIMARY KEY,
		farmer_id UUID NOT NULL REFERENCES farmers(id) ON DELETE RESTRICT,
		market_id UUID NOT NULL REFERENCES markets(id) ON DELETE RESTRICT,
		produce_id UUID NOT NULL REFERENCES produce(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		transaction_date DATE NOT NULL,
		points_earned INTEGER NOT NULL CHECK (points_earned >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT unique_market_transaction UNIQUE (produce_id, farmer_id, market_id, transaction_date)
	)`,
	`CREATE TABLE IF NOT EXISTS input_transactions (
		id UUID PRIMARY KEY,
		farmer_id UUID NOT NULL REFERENCES farmers(id) ON DELETE RESTRICT,
		vendor_id UUID NOT NULL REFERENCES vendors(id) ON DELETE RESTRICT,
		amount NUMERIC(14, 2) NOT NULL CHECK (amount > 0),
		receipt_number TEXT NOT NULL,
		transaction_date DATE NOT NULL,
		points_earned INTEGER NOT NULL CHECK (points_earned >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT unique_vendor_receipt UNIQUE (receipt_number, vendor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subsidy_programs (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		sponsor TEXT NOT NULL DEFAULT '',
		level TEXT NOT NULL CHECK (level IN ('STATE', 'NATIONAL')),
		state TEXT NOT NULL DEFAULT '',
		rate NUMERIC(4, 1) NOT NULL CHECK (rate >= 0 AND rate <= 100),
		target_beneficiaries INTEGER NOT NULL DEFAULT 200,
		current_beneficiaries INTEGER NOT NULL DEFAULT 0,
		budget NUMERIC(40, 2),
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (start_date < end_date)
	)`,
	`CREATE TABLE IF NOT EXISTS subsidized_items (
		id UUID PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('FERTILIZER', 'SEED', 'AGROCHEMICAL', 'MECHANIZATION')),
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		price NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
		detail TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT unique_subsidized_item UNIQUE (kind, name)
	)`,
	`CREATE TABLE IF NOT EXISTS subsidy_rates (
		program_id UUID NOT NULL REFERENCES subsidy_programs(id) ON DELETE CASCADE,
		item_id UUID NOT NULL REFERENCES subsidized_items(id) ON DELETE CASCADE,
		rate NUMERIC(4, 1) NOT NULL CHECK (rate >= 0 AND rate <= 100),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (program_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS subsidy_instances (
		id UUID PRIMARY KEY,
		farmer_id UUID NOT NULL REFERENCES farmers(id) ON DELETE RESTRICT,
		item_id UUID NOT NULL REFERENCES subsidized_items(id) ON DELETE RESTRICT,
		program_id UUID NOT NULL REFERENCES subsidy_programs(id) ON DELETE RESTRICT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(10, 2) NOT NULL,
		rate NUMERIC(4, 1) NOT NULL,
		rate_source TEXT NOT NULL,
		gross_price NUMERIC(14, 2) NOT NULL,
		discounted_price NUMERIC(14, 2) NOT NULL,
		redemption_date DATE NOT NULL,
		redemption_location TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT unique_farmer_subsidy UNIQUE (farmer_id, item_id, program_id)
	)`,
	`CREATE TABLE IF NOT EXISTS program_beneficiaries (
		program_id UUID NOT NULL REFERENCES subsidy_programs(id) ON DELETE CASCADE,
		farmer_id UUID NOT NULL REFERENCES farmers(id) ON DELETE RESTRICT,
		first_redeemed_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (program_id, farmer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS item_price_history (
		id UUID PRIMARY KEY,
		item_id UUID NOT NULL REFERENCES subsidized_items(id) ON DELETE CASCADE,
		price NUMERIC(10, 2) NOT NULL,
		unit TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS produce_prices (
		id UUID PRIMARY KEY,
		market_id UUID NOT NULL REFERENCES markets(id) ON DELETE RESTRICT,
		produce_id UUID NOT NULL REFERENCES produce(id) ON DELETE RESTRICT,
		price NUMERIC(10, 2) NOT NULL,
		market_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT unique_produce_price UNIQUE (produce_id, market_id, market_date)
	)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		points_required INTEGER NOT NULL CHECK (points_required >= 0),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS farmer_badges (
		farmer_id UUID NOT NULL REFERENCES farmers(id) ON DELETE CASCADE,
		badge_id UUID NOT NULL REFERENCES badges(id) ON DELETE CASCADE,
		awarded_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (farmer_id, badge_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_tx_farmer ON market_transactions(farmer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_market_tx_market_date ON market_transactions(market_id, transaction_date)`,
	`CREATE INDEX IF NOT EXISTS idx_input_tx_farmer ON input_transactions(farmer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_subsidy_instances_program ON subsidy_instances(program_id)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_item ON item_price_history(item_id, recorded_at)`,
}

// Tables returns every table name in dependency order, children first. Tests use it to
// truncate between cases.
func Tables() []string {
	return []string{
		"farmer_badges",
		"badges",
		"produce_prices",
		"item_price_history",
		"program_beneficiaries",
		"subsidy_instances",
		"subsidy_rates",
		"subsidized_items",
		"subsidy_programs",
		"input_transactions",
		"market_transactions",
		"produce",
		"vendors",
		"markets",
		"farmers",
	}
}
