package game

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"thehouse/internal/announce"
	"thehouse/internal/audit"
)

func (s *Service) SubmitGrandSolve(ctx context.Context, in SolveInput) (SolveResult, error) {
	var out SolveResult
	userID := strings.TrimSpace(in.UserID)
	if err := ValidateHandle(userID); err != nil {
		return out, err
	}
	formula := canonicalFormula(in.Formula)
	if formula == "" {
		return out, ErrEmptyFormula
	}
	out.UserID = userID

	var (
		season    int64
		attemptAt time.Time
	)
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return out, err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := claimIdempotency(ctx, tx, userID, in.IdempotencyKey, "grand_solve"); err != nil {
				return err
			}
			now := s.now().UTC()
			attemptAt = now
			season, err = currentSeason(ctx, tx)
			if err != nil {
				return err
			}
			params := s.paramsFor(season)
			out.Season = season

			// Same lock order as plays: player row, then the vault.
			if _, err := lockPlayer(ctx, tx, userID); err != nil {
				return err
			}
			vault, err := lockVault(ctx, tx)
			if err != nil {
				return err
			}

			var standing string
			err = tx.QueryRow(ctx, `
				SELECT winner_id FROM hall_of_fame WHERE season_id = $1
			`, season).Scan(&standing)
			if err == nil {
				out.Outcome = OutcomeLocked
				out.Winner = standing
				out.Message = fmt.Sprintf(msgVaultLocked, standing)
				return tx.Commit(ctx)
			}
			if err != pgx.ErrNoRows {
				return err
			}

			if vault <= 0 || params.Secret == "" {
				out.Outcome = OutcomeSeasonClosed
				out.Message = msgSeasonEnded
				return tx.Commit(ctx)
			}

			if formula != canonicalFormula(params.Secret) {
				out.Outcome = OutcomeRejected
				out.Message = msgSolveRejected
				return tx.Commit(ctx)
			}

			// The insert is the race. Whoever lands the season row first
			// owns the vault; everyone else gets the standing winner back.
			prize := vault
			cmd, err := tx.Exec(ctx, `
				INSERT INTO hall_of_fame (season_id, winner_id, payout, method)
				VALUES ($1, $2, $3, 'grand_solve')
				ON CONFLICT (season_id) DO NOTHING
			`, season, userID, prize)
			if err != nil {
				return err
			}
			if cmd.RowsAffected() == 0 {
				var winner string
				if err := tx.QueryRow(ctx, `
					SELECT winner_id FROM hall_of_fame WHERE season_id = $1
				`, season).Scan(&winner); err != nil {
					return err
				}
				out.Outcome = OutcomeLocked
				out.Winner = winner
				out.Message = fmt.Sprintf(msgVaultLocked, winner)
				return tx.Commit(ctx)
			}

			if _, err := tx.Exec(ctx, `UPDATE vault SET balance = 0 WHERE id = 1`); err != nil {
				return err
			}
			if err := appendLedger(ctx, tx, userID, 0, prize, 0, now); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				UPDATE players
				SET total_won = total_won + $1,
					last_win_at = $2
				WHERE user_id = $3
			`, prize, now, userID); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				UPDATE system_state SET value = $1 WHERE key = 'current_season'
			`, strconv.FormatInt(season+1, 10)); err != nil {
				return err
			}

			out.Outcome = OutcomeGrandSolve
			out.Payout = prize
			out.Message = msgGrandSolve
			out.NextStep = fmt.Sprintf(msgNextStep, season+1)
			return tx.Commit(ctx)
		}()
		if err == nil {
			s.audit.SolveAttempt(audit.SolveAttempt{
				At:      attemptAt,
				Season:  season,
				UserID:  userID,
				Formula: in.Formula,
				Outcome: out.Outcome,
				Payout:  out.Payout,
			})
			if out.Outcome == OutcomeGrandSolve {
				s.log.Info("grand solve confirmed", "user", userID, "season", season, "payout", out.Payout)
				s.announceEvent(ctx, announce.Event{
					Kind:       announce.KindGrandSolve,
					Season:     season,
					NextSeason: season + 1,
					UserID:     userID,
					Payout:     out.Payout,
				})
			} else {
				s.log.Info("solve attempt resolved", "user", userID, "outcome", out.Outcome, "season", season)
			}
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
	s.log.Warn("solve retries exhausted", "user", userID)
	out = SolveResult{
		UserID:  userID,
		Outcome: OutcomeLocked,
		Message: msgGridCongestion,
		Season:  season,
	}
	s.audit.SolveAttempt(audit.SolveAttempt{
		At:      s.now().UTC(),
		Season:  season,
		UserID:  userID,
		Formula: in.Formula,
		Outcome: out.Outcome,
	})
	return out, nil
}
