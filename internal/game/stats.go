package game

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Service) SeasonStatus(ctx context.Context) (SeasonStatus, error) {
	var out SeasonStatus
	now := s.now().UTC()
	var raw string
	if err := s.db.QueryRow(ctx, `
		SELECT value FROM system_state WHERE key = 'current_season'
	`).Scan(&raw); err != nil {
		return out, err
	}
	season, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return out, fmt.Errorf("parse current season %q: %w", raw, err)
	}
	params := s.paramsFor(season)

	var vault int64
	if err := s.db.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1`).Scan(&vault); err != nil {
		return out, err
	}
	out = SeasonStatus{
		Season:       season,
		Stage:        params.Stage,
		VaultBalance: vault,
		SeasonActive: vault > 0,
		Notes:        params.Notes,
		ServerTime:   now,
	}

	var w WinnerView
	err = s.db.QueryRow(ctx, `
		SELECT season_id, winner_id, payout, method, won_at
		FROM hall_of_fame
		ORDER BY season_id DESC
		LIMIT 1
	`).Scan(&w.Season, &w.WinnerID, &w.Payout, &w.Method, &w.WonAt)
	if err == nil {
		out.Winner = &w
	} else if err != pgx.ErrNoRows {
		return out, err
	}
	return out, nil
}

func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, total_spent, total_won
		FROM players
		WHERE total_spent > 0
		ORDER BY (total_won - total_spent)::float8 / total_spent DESC
		LIMIT 5
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LeaderboardRow, 0, 5)
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.TotalSpent, &r.TotalWon); err != nil {
			return nil, err
		}
		r.NetProfit = r.TotalWon - r.TotalSpent
		r.ROIPercent = math.Round(float64(r.NetProfit)/float64(r.TotalSpent)*10000) / 100
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) History(ctx context.Context) ([]TransactionView, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, input_amt, output_amt, vault_balance, created_at
		FROM transactions
		ORDER BY id DESC
		LIMIT 50
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TransactionView, 0, 50)
	for rows.Next() {
		var t TransactionView
		if err := rows.Scan(&t.ID, &t.UserID, &t.InputAmt, &t.OutputAmt, &t.VaultBalance, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	var a Analytics
	now := s.now().UTC()
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions WHERE created_at > $1
	`, now.Add(-time.Hour)).Scan(&a.PlaysLastHour); err != nil {
		return a, err
	}
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions WHERE output_amt > 0
	`).Scan(&a.TotalGlobalWins); err != nil {
		return a, err
	}
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM players WHERE l1_wins > 0 AND l1_wins < $1
	`, s.cfg.TierThreshold).Scan(&a.ActiveOnLayer1); err != nil {
		return a, err
	}
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM players WHERE l1_wins >= $1
	`, s.cfg.TierThreshold).Scan(&a.ActiveOnLayer2); err != nil {
		return a, err
	}
	if err := s.db.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1`).Scan(&a.VaultBalance); err != nil {
		return a, err
	}
	var avg float64
	if err := s.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(output_amt), 0)::float8 FROM transactions WHERE output_amt > 0
	`).Scan(&avg); err != nil {
		return a, err
	}
	a.AverageWinPayout = math.Round(avg*100) / 100
	return a, nil
}

// SweepExpired prunes aged broadcasts and idempotency claims. The ledger
// itself is never swept.
func (s *Service) SweepExpired(ctx context.Context, broadcastTTL, idempotencyTTL time.Duration) (SweepStats, error) {
	var st SweepStats
	now := s.now().UTC()
	cmd, err := s.db.Exec(ctx, `
		DELETE FROM broadcasts WHERE created_at < $1
	`, now.Add(-broadcastTTL))
	if err != nil {
		return st, err
	}
	st.BroadcastsPruned = cmd.RowsAffected()
	cmd, err = s.db.Exec(ctx, `
		DELETE FROM idempotency_keys WHERE created_at < $1
	`, now.Add(-idempotencyTTL))
	if err != nil {
		return st, err
	}
	st.IdempotencyPruned = cmd.RowsAffected()
	return st, nil
}
