package journal

// Schema creates the journal table. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS offer_updates (
		id           uuid PRIMARY KEY,
		batch_id     uuid        NOT NULL,
		received_at  timestamptz NOT NULL,
		sku          text        NOT NULL,
		provider_id  bigint      NOT NULL,
		change       text        NOT NULL,
		price_value  numeric,
		currency     text,
		stock_qty    integer,
		stock_status text
	)`,
	`CREATE INDEX IF NOT EXISTS offer_updates_sku_received_idx
		ON offer_updates (sku, received_at)`,
}

const insertSQL = `
	INSERT INTO offer_updates (id, batch_id, received_at, sku, provider_id, change, price_value, currency, stock_qty, stock_status)
	VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING
`
