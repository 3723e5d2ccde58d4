package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"thehouse/internal/announce"
	"thehouse/internal/audit"
	"thehouse/internal/auth"
)

type Service struct {
	db      *pgxpool.Pool
	cfg     Config
	log     *slog.Logger
	seasons map[int64]SeasonParams
	gate    auth.Capability
	audit   audit.Recorder
	ann     announce.Announcer
	now     func() time.Time
}

func NewService(db *pgxpool.Pool, cfg Config, logger *slog.Logger, gate auth.Capability, recorder audit.Recorder, announcer announce.Announcer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Seasons == nil {
		cfg.Seasons = DefaultSeasons()
	}
	if gate == nil {
		gate = auth.NewStaticKey("")
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if announcer == nil {
		announcer = announce.Nop{}
	}
	return &Service{
		db:      db,
		cfg:     cfg,
		log:     logger,
		seasons: cfg.Seasons,
		gate:    gate,
		audit:   recorder,
		ann:     announcer,
		now:     time.Now,
	}
}

func (s *Service) Play(ctx context.Context, in PlayInput) (PlayResult, error) {
	var out PlayResult
	userID := strings.TrimSpace(in.UserID)
	if err := ValidateHandle(userID); err != nil {
		return out, err
	}

	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return out, err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := claimIdempotency(ctx, tx, userID, in.IdempotencyKey, "play"); err != nil {
				return err
			}
			now := s.now().UTC()
			season, err := currentSeason(ctx, tx)
			if err != nil {
				return err
			}
			params := s.paramsFor(season)

			pl, err := lockPlayer(ctx, tx, userID)
			if err != nil {
				return err
			}

			if pl.LastPlayAt != nil {
				if wait := s.cfg.PlayCooldown - now.Sub(*pl.LastPlayAt); wait > 0 {
					var balance int64
					if err := tx.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1`).Scan(&balance); err != nil {
						return err
					}
					left := ceilSeconds(wait)
					out = PlayResult{
						UserID:       userID,
						Outcome:      OutcomeRateLimited,
						Reason:       ReasonPlayCooldown,
						Message:      fmt.Sprintf(msgPlayCooldown, left),
						VaultBalance: balance,
						Season:       season,
						SeasonActive: balance > 0,
						RetryIn:      left,
					}
					return tx.Commit(ctx)
				}
			}

			vault, err := lockVault(ctx, tx)
			if err != nil {
				return err
			}
			if vault <= 0 {
				out = PlayResult{
					UserID:  userID,
					Outcome: OutcomeSeasonClosed,
					Reason:  ReasonVaultEmpty,
					Message: msgSeasonEnded,
					Season:  season,
				}
				return tx.Commit(ctx)
			}

			// The fee lands before the verdict. A losing play still feeds
			// the vault it failed to crack.
			if err := tx.QueryRow(ctx, `
				UPDATE vault SET balance = balance + $1 WHERE id = 1 RETURNING balance
			`, vaultShare(s.cfg.EntryFee, s.cfg.VaultSplit)).Scan(&vault); err != nil {
				return err
			}

			// Volume counts settled plays only; this attempt's own row
			// lands after the verdict.
			recent, err := recentVolume(ctx, tx, now.Add(-s.cfg.VolumeWindow))
			if err != nil {
				return err
			}

			v := s.cfg.evaluate(now, params, pl.L1Wins, pl.LastWinAt, recent)

			var payout int64
			if v.Won {
				payout = payoutFor(vault, s.cfg.PayoutRate, s.cfg.PayoutFloor)
				if err := tx.QueryRow(ctx, `
					UPDATE vault SET balance = balance - $1 WHERE id = 1 RETURNING balance
				`, payout).Scan(&vault); err != nil {
					return err
				}
			}

			if err := appendLedger(ctx, tx, userID, s.cfg.EntryFee, payout, vault, now); err != nil {
				return err
			}

			if v.Won {
				l1Bump := 0
				if v.Reason == ReasonLayerOneBreach {
					l1Bump = 1
				}
				if _, err := tx.Exec(ctx, `
					UPDATE players
					SET total_spent = total_spent + $1,
						total_won = total_won + $2,
						l1_wins = l1_wins + $3,
						last_play_at = $4,
						last_win_at = $4
					WHERE user_id = $5
				`, s.cfg.EntryFee, payout, l1Bump, now, userID); err != nil {
					return err
				}
			} else {
				if _, err := tx.Exec(ctx, `
					UPDATE players
					SET total_spent = total_spent + $1,
						last_play_at = $2
					WHERE user_id = $3
				`, s.cfg.EntryFee, now, userID); err != nil {
					return err
				}
			}

			outcome := OutcomeLoss
			if v.Won {
				outcome = OutcomeWin
			}
			out = PlayResult{
				UserID:       userID,
				Outcome:      outcome,
				Reason:       v.Reason,
				Message:      v.Message,
				Payout:       payout,
				VaultBalance: vault,
				Season:       season,
				SeasonActive: vault > 0,
				RetryIn:      v.RetryIn,
				Volume:       v.Volume,
				Required:     v.Required,
			}
			return tx.Commit(ctx)
		}()
		if err == nil {
			s.log.Info("play resolved",
				"user", userID,
				"outcome", out.Outcome,
				"reason", out.Reason,
				"payout", out.Payout,
				"vault", out.VaultBalance,
				"season", out.Season,
			)
			return out, nil
		}
		if !isSerializationError(err) {
			return out, err
		}
		if attempt == maxAttempts-1 {
			break
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return out, err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	s.log.Warn("play retries exhausted", "user", userID)
	out = PlayResult{
		UserID:  userID,
		Outcome: OutcomeRateLimited,
		Reason:  ReasonGridCongestion,
		Message: msgGridCongestion,
	}
	return out, nil
}

type playerState struct {
	TotalSpent      int64
	TotalWon        int64
	L1Wins          int
	LastWinAt       *time.Time
	LastPlayAt      *time.Time
	LastBroadcastAt *time.Time
}

func lockPlayer(ctx context.Context, tx pgx.Tx, userID string) (playerState, error) {
	var p playerState
	if _, err := tx.Exec(ctx, `
		INSERT INTO players (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return p, err
	}
	err := tx.QueryRow(ctx, `
		SELECT total_spent, total_won, l1_wins, last_win_at, last_play_at, last_broadcast_at
		FROM players
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&p.TotalSpent, &p.TotalWon, &p.L1Wins, &p.LastWinAt, &p.LastPlayAt, &p.LastBroadcastAt)
	return p, err
}

func lockVault(ctx context.Context, tx pgx.Tx) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1 FOR UPDATE`).Scan(&balance)
	return balance, err
}

func currentSeason(ctx context.Context, tx pgx.Tx) (int64, error) {
	var raw string
	if err := tx.QueryRow(ctx, `
		SELECT value FROM system_state WHERE key = 'current_season'
	`).Scan(&raw); err != nil {
		return 0, err
	}
	season, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse current season %q: %w", raw, err)
	}
	return season, nil
}

func recentVolume(ctx context.Context, tx pgx.Tx, since time.Time) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions WHERE created_at > $1
	`, since).Scan(&n)
	return n, err
}

func appendLedger(ctx context.Context, tx pgx.Tx, userID string, input, output, vaultAfter int64, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (user_id, input_amt, output_amt, vault_balance, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, input, output, vaultAfter, at)
	return err
}

func claimIdempotency(ctx context.Context, tx pgx.Tx, userID, key, action string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	cmd, err := tx.Exec(ctx, `
		INSERT INTO idempotency_keys (user_id, key, action)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key) DO NOTHING
	`, userID, key, action)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateIdempotency
	}
	return nil
}

func (s *Service) announceEvent(ctx context.Context, ev announce.Event) {
	if err := s.ann.SeasonEvent(ctx, ev); err != nil {
		s.log.Warn("season announcement failed", "kind", ev.Kind, "err", err)
	}
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
