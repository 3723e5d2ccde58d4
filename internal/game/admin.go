package game

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"thehouse/internal/announce"
)

// ResetSeason re-arms the board mid-season: every play and every player
// record is wiped, the vault is set to the given balance. The hall of fame
// and the season counter survive.
func (s *Service) ResetSeason(ctx context.Context, adminKey string, balance int64) error {
	if !s.gate.Allow(adminKey) {
		return ErrUnauthorized
	}
	if balance < 0 {
		return ErrNegativeBalance
	}
	var season int64
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	err = func() error {
		defer tx.Rollback(ctx)
		season, err = currentSeason(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM transactions`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM players`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE vault SET balance = $1 WHERE id = 1`, balance); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}()
	if err != nil {
		if isSerializationError(err) {
			return ErrTxConflict
		}
		return err
	}
	s.log.Info("season reset", "season", season, "vault", balance)
	s.announceEvent(ctx, announce.Event{Kind: announce.KindSeasonReset, Season: season, Vault: balance})
	return nil
}

// AdvanceSeason moves the counter forward, never back. Entering a season
// applies its entry effects: an optional wipe and an optional vault bait.
func (s *Service) AdvanceSeason(ctx context.Context, adminKey string, target int64) error {
	if !s.gate.Allow(adminKey) {
		return ErrUnauthorized
	}
	var from int64
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	err = func() error {
		defer tx.Rollback(ctx)
		var raw string
		if err := tx.QueryRow(ctx, `
			SELECT value FROM system_state WHERE key = 'current_season' FOR UPDATE
		`).Scan(&raw); err != nil {
			return err
		}
		from, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return err
		}
		if target <= from {
			return ErrSeasonRegress
		}
		params := s.paramsFor(target)
		if params.WipeOnEntry {
			if _, err := tx.Exec(ctx, `DELETE FROM transactions`); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `DELETE FROM players`); err != nil {
				return err
			}
		}
		if params.BaitAmount > 0 {
			if _, err := tx.Exec(ctx, `UPDATE vault SET balance = $1 WHERE id = 1`, params.BaitAmount); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE system_state SET value = $1 WHERE key = 'current_season'
		`, strconv.FormatInt(target, 10)); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}()
	if err != nil {
		if isSerializationError(err) {
			return ErrTxConflict
		}
		return err
	}
	s.log.Info("season advanced", "from", from, "to", target)
	s.announceEvent(ctx, announce.Event{Kind: announce.KindSeasonAdvance, Season: from, NextSeason: target})
	return nil
}
