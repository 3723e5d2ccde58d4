package game

import (
	"context"
	"fmt"
)

// EnsureSchema creates every table the engine touches and seeds the vault
// and season counter on first boot. Safe to run on every start.
func (s *Service) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS vault (
			id INT PRIMARY KEY CHECK (id = 1),
			balance BIGINT NOT NULL CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			user_id TEXT PRIMARY KEY,
			total_spent BIGINT NOT NULL DEFAULT 0,
			total_won BIGINT NOT NULL DEFAULT 0,
			l1_wins INT NOT NULL DEFAULT 0,
			last_win_at TIMESTAMPTZ,
			last_play_at TIMESTAMPTZ,
			last_broadcast_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			input_amt BIGINT NOT NULL,
			output_amt BIGINT NOT NULL,
			vault_balance BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions (created_at)`,
		`CREATE TABLE IF NOT EXISTS hall_of_fame (
			season_id BIGINT PRIMARY KEY,
			winner_id TEXT NOT NULL,
			payout BIGINT NOT NULL,
			method TEXT NOT NULL DEFAULT 'grand_solve',
			won_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS system_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS broadcasts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_broadcasts_created_at ON broadcasts (created_at)`,
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			user_id TEXT NOT NULL,
			key TEXT NOT NULL,
			action TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_idempotency_created_at ON idempotency_keys (created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO vault (id, balance)
		VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, s.cfg.SeedVault); err != nil {
		return fmt.Errorf("seed vault: %w", err)
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO system_state (key, value)
		VALUES ('current_season', '1')
		ON CONFLICT (key) DO NOTHING
	`); err != nil {
		return fmt.Errorf("seed season counter: %w", err)
	}
	return nil
}
