package game

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"thehouse/internal/auth"
)

// These tests need a throwaway Postgres. They reset every table on entry,
// so never point HOUSE_TEST_DATABASE_URL at a live deployment.
func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := os.Getenv("HOUSE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HOUSE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	s := NewService(pool, DefaultConfig(), nil, auth.NewStaticKey("test-key"), nil, nil)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	for _, stmt := range []string{
		`DELETE FROM transactions`,
		`DELETE FROM players`,
		`DELETE FROM broadcasts`,
		`DELETE FROM idempotency_keys`,
		`DELETE FROM hall_of_fame`,
		`UPDATE vault SET balance = 1000 WHERE id = 1`,
		`UPDATE system_state SET value = '1' WHERE key = 'current_season'`,
	} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("reset: %v", err)
		}
	}
	return s
}

func fixClock(s *Service, at time.Time) {
	s.now = func() time.Time { return at }
}

func TestPlayAlignedWin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, alignedClock())

	out, err := s.Play(ctx, PlayInput{UserID: "zero_cool"})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if out.Outcome != OutcomeWin || out.Reason != ReasonLayerOneBreach {
		t.Fatalf("outcome=%q reason=%q", out.Outcome, out.Reason)
	}
	// 1000 vault + 9 fee share, 3% of 1009 rounds to 30, leaving 979.
	if out.Payout != 30 || out.VaultBalance != 979 {
		t.Fatalf("payout=%d vault=%d want 30/979", out.Payout, out.VaultBalance)
	}
	if out.Season != 1 || !out.SeasonActive {
		t.Fatalf("season=%d active=%t", out.Season, out.SeasonActive)
	}

	var spent, won int64
	var l1 int
	err = s.db.QueryRow(ctx, `
		SELECT total_spent, total_won, l1_wins FROM players WHERE user_id = 'zero_cool'
	`).Scan(&spent, &won, &l1)
	if err != nil {
		t.Fatalf("player row: %v", err)
	}
	if spent != 10 || won != 30 || l1 != 1 {
		t.Fatalf("spent=%d won=%d l1=%d want 10/30/1", spent, won, l1)
	}
}

func TestPlayMisalignedLoss(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, time.Unix(1700000001, 0).UTC())

	out, err := s.Play(ctx, PlayInput{UserID: "acid-burn"})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if out.Outcome != OutcomeLoss || out.Reason != ReasonSignalMismatch {
		t.Fatalf("outcome=%q reason=%q", out.Outcome, out.Reason)
	}
	if out.Payout != 0 || out.VaultBalance != 1009 {
		t.Fatalf("payout=%d vault=%d want 0/1009", out.Payout, out.VaultBalance)
	}

	var lastWin *time.Time
	if err := s.db.QueryRow(ctx, `
		SELECT last_win_at FROM players WHERE user_id = 'acid-burn'
	`).Scan(&lastWin); err != nil {
		t.Fatalf("player row: %v", err)
	}
	if lastWin != nil {
		t.Fatalf("expected no win recorded on a loss")
	}
}

func TestPlayLayerTwoVolume(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	now := alignedClock()
	fixClock(s, now)

	if _, err := s.db.Exec(ctx, `
		INSERT INTO players (user_id, l1_wins) VALUES ('crash_override', 3)
	`); err != nil {
		t.Fatalf("seed player: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO transactions (user_id, input_amt, output_amt, vault_balance, created_at)
			VALUES ('acid-burn', 10, 0, 1000, $1)
		`, now.Add(-time.Second)); err != nil {
			t.Fatalf("seed volume: %v", err)
		}
	}

	out, err := s.Play(ctx, PlayInput{UserID: "crash_override"})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if out.Outcome != OutcomeWin || out.Reason != ReasonEntropySurge {
		t.Fatalf("outcome=%q reason=%q", out.Outcome, out.Reason)
	}
	if out.Volume != 3 || out.Required != 3 {
		t.Fatalf("volume=%d required=%d want 3/3", out.Volume, out.Required)
	}

	// A volume win must not advance the layer one counter.
	var l1 int
	if err := s.db.QueryRow(ctx, `
		SELECT l1_wins FROM players WHERE user_id = 'crash_override'
	`).Scan(&l1); err != nil {
		t.Fatalf("player row: %v", err)
	}
	if l1 != 3 {
		t.Fatalf("l1=%d want 3", l1)
	}
}

func TestPlayDuplicateIdempotency(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, time.Unix(1700000001, 0).UTC())

	if _, err := s.Play(ctx, PlayInput{UserID: "zero_cool", IdempotencyKey: "k1"}); err != nil {
		t.Fatalf("first play: %v", err)
	}
	_, err := s.Play(ctx, PlayInput{UserID: "zero_cool", IdempotencyKey: "k1"})
	if !errors.Is(err, ErrDuplicateIdempotency) {
		t.Fatalf("got %v want ErrDuplicateIdempotency", err)
	}
}

func TestPlayCooldown(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, time.Unix(1700000001, 0).UTC())

	if _, err := s.Play(ctx, PlayInput{UserID: "zero_cool"}); err != nil {
		t.Fatalf("first play: %v", err)
	}
	out, err := s.Play(ctx, PlayInput{UserID: "zero_cool"})
	if err != nil {
		t.Fatalf("second play: %v", err)
	}
	if out.Outcome != OutcomeRateLimited || out.Reason != ReasonPlayCooldown {
		t.Fatalf("outcome=%q reason=%q", out.Outcome, out.Reason)
	}
	if out.RetryIn != 1 {
		t.Fatalf("retry=%d want 1", out.RetryIn)
	}
	// The rejected play pays no fee.
	if out.VaultBalance != 1009 {
		t.Fatalf("vault=%d want 1009", out.VaultBalance)
	}
}

func TestPlayVaultEmpty(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, alignedClock())

	if _, err := s.db.Exec(ctx, `UPDATE vault SET balance = 0 WHERE id = 1`); err != nil {
		t.Fatalf("drain vault: %v", err)
	}
	out, err := s.Play(ctx, PlayInput{UserID: "zero_cool"})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if out.Outcome != OutcomeSeasonClosed || out.Reason != ReasonVaultEmpty {
		t.Fatalf("outcome=%q reason=%q", out.Outcome, out.Reason)
	}

	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no ledger row on a closed season, got %d", count)
	}
}

func TestSolveWrongFormula(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, alignedClock())

	out, err := s.SubmitGrandSolve(ctx, SolveInput{UserID: "zero_cool", Formula: "timestamp % 10 == 9"})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if out.Outcome != OutcomeRejected {
		t.Fatalf("outcome=%q want %q", out.Outcome, OutcomeRejected)
	}

	var vault int64
	if err := s.db.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1`).Scan(&vault); err != nil {
		t.Fatalf("vault: %v", err)
	}
	if vault != 1000 {
		t.Fatalf("vault=%d want 1000, a rejected solve must cost nothing", vault)
	}
}

func TestSolveGrandSolve(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, alignedClock())

	// Spacing and case must not matter.
	out, err := s.SubmitGrandSolve(ctx, SolveInput{
		UserID:  "zero_cool",
		Formula: "TIMESTAMP % 10 == 7  and  VOLUME >= 3",
	})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if out.Outcome != OutcomeGrandSolve || out.Payout != 1000 {
		t.Fatalf("outcome=%q payout=%d", out.Outcome, out.Payout)
	}
	if !strings.Contains(out.NextStep, "Season 2") {
		t.Fatalf("next step=%q", out.NextStep)
	}

	var vault int64
	var season string
	if err := s.db.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1`).Scan(&vault); err != nil {
		t.Fatalf("vault: %v", err)
	}
	if err := s.db.QueryRow(ctx, `
		SELECT value FROM system_state WHERE key = 'current_season'
	`).Scan(&season); err != nil {
		t.Fatalf("season: %v", err)
	}
	if vault != 0 || season != "2" {
		t.Fatalf("vault=%d season=%q want 0/2", vault, season)
	}

	var winner string
	var payout int64
	if err := s.db.QueryRow(ctx, `
		SELECT winner_id, payout FROM hall_of_fame WHERE season_id = 1
	`).Scan(&winner, &payout); err != nil {
		t.Fatalf("hall of fame: %v", err)
	}
	if winner != "zero_cool" || payout != 1000 {
		t.Fatalf("winner=%q payout=%d", winner, payout)
	}

	// Season two has no secret, so the table is closed.
	next, err := s.SubmitGrandSolve(ctx, SolveInput{UserID: "acid-burn", Formula: "anything"})
	if err != nil {
		t.Fatalf("solve after rollover: %v", err)
	}
	if next.Outcome != OutcomeSeasonClosed {
		t.Fatalf("outcome=%q want %q", next.Outcome, OutcomeSeasonClosed)
	}

	// Rewind the counter with the vault re-armed: the standing winner holds.
	if _, err := s.db.Exec(ctx, `UPDATE system_state SET value = '1' WHERE key = 'current_season'`); err != nil {
		t.Fatalf("rewind: %v", err)
	}
	if _, err := s.db.Exec(ctx, `UPDATE vault SET balance = 500 WHERE id = 1`); err != nil {
		t.Fatalf("re-arm: %v", err)
	}
	locked, err := s.SubmitGrandSolve(ctx, SolveInput{
		UserID:  "acid-burn",
		Formula: "timestamp % 10 == 7 and volume >= 3",
	})
	if err != nil {
		t.Fatalf("locked solve: %v", err)
	}
	if locked.Outcome != OutcomeLocked || locked.Winner != "zero_cool" {
		t.Fatalf("outcome=%q winner=%q", locked.Outcome, locked.Winner)
	}
}

func TestSolveConcurrentSingleWinner(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, alignedClock())

	users := []string{"u_one", "u_two", "u_three", "u_four", "u_five", "u_six", "u_seven", "u_eight"}
	results := make([]SolveResult, len(users))
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i], errs[i] = s.SubmitGrandSolve(ctx, SolveInput{
				UserID:  u,
				Formula: "timestamp % 10 == 7 and volume >= 3",
			})
		}(i, u)
	}
	wg.Wait()

	winners := 0
	for i := range users {
		if errs[i] != nil {
			t.Fatalf("solve %s: %v", users[i], errs[i])
		}
		switch results[i].Outcome {
		case OutcomeGrandSolve:
			winners++
		case OutcomeLocked, OutcomeSeasonClosed:
		default:
			t.Fatalf("solve %s outcome=%q", users[i], results[i].Outcome)
		}
	}
	if winners != 1 {
		t.Fatalf("winners=%d want exactly 1", winners)
	}

	var vault int64
	if err := s.db.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1`).Scan(&vault); err != nil {
		t.Fatalf("vault: %v", err)
	}
	if vault != 0 {
		t.Fatalf("vault=%d want 0 after the drain", vault)
	}
	var hall int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM hall_of_fame`).Scan(&hall); err != nil {
		t.Fatalf("hall: %v", err)
	}
	if hall != 1 {
		t.Fatalf("hall rows=%d want 1", hall)
	}
}

func TestConcurrentPlaysKeepTheBooks(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	s.cfg.PlayCooldown = 0
	fixClock(s, time.Unix(1700000001, 0).UTC())

	const n = 6
	results := make([]PlayResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Play(ctx, PlayInput{UserID: "zero_cool"})
		}(i)
	}
	wg.Wait()

	losses := int64(0)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("play %d: %v", i, errs[i])
		}
		if results[i].Outcome == OutcomeLoss {
			losses++
		}
	}
	if losses == 0 {
		t.Fatalf("expected at least one settled play")
	}

	var spent, vault int64
	var ledger int64
	if err := s.db.QueryRow(ctx, `
		SELECT total_spent FROM players WHERE user_id = 'zero_cool'
	`).Scan(&spent); err != nil {
		t.Fatalf("player: %v", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1`).Scan(&vault); err != nil {
		t.Fatalf("vault: %v", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&ledger); err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if spent != losses*10 {
		t.Fatalf("spent=%d want %d", spent, losses*10)
	}
	if vault != 1000+losses*9 {
		t.Fatalf("vault=%d want %d", vault, 1000+losses*9)
	}
	if ledger != losses {
		t.Fatalf("ledger rows=%d want %d", ledger, losses)
	}
}

func TestBroadcastFlow(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, time.Unix(1700000001, 0).UTC())

	out, err := s.Broadcast(ctx, "zero_cool", "the clock has a pulse")
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if out.Outcome != OutcomeAccepted || out.ID == "" {
		t.Fatalf("outcome=%q id=%q", out.Outcome, out.ID)
	}

	again, err := s.Broadcast(ctx, "zero_cool", "again")
	if err != nil {
		t.Fatalf("second broadcast: %v", err)
	}
	if again.Outcome != OutcomeRateLimited || again.RetryIn != 30 {
		t.Fatalf("outcome=%q retry=%d", again.Outcome, again.RetryIn)
	}

	long, err := s.Broadcast(ctx, "acid-burn", strings.Repeat("x", 281))
	if err != nil {
		t.Fatalf("long broadcast: %v", err)
	}
	if long.Outcome != OutcomeTooLarge {
		t.Fatalf("outcome=%q want %q", long.Outcome, OutcomeTooLarge)
	}

	if _, err := s.Broadcast(ctx, "acid-burn", "   "); !errors.Is(err, ErrEmptyBroadcast) {
		t.Fatalf("got %v want ErrEmptyBroadcast", err)
	}

	list, err := s.RecentBroadcasts(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Body != "the clock has a pulse" {
		t.Fatalf("list=%+v", list)
	}
}

func TestSweepExpired(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	now := time.Unix(1700000001, 0).UTC()
	fixClock(s, now)

	if _, err := s.Broadcast(ctx, "zero_cool", "fresh"); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO broadcasts (id, user_id, body, created_at)
		VALUES ('stale', 'zero_cool', 'old news', $1)
	`, now.Add(-100*time.Hour)); err != nil {
		t.Fatalf("seed stale broadcast: %v", err)
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO idempotency_keys (user_id, key, action, created_at)
		VALUES ('zero_cool', 'stale-key', 'play', $1)
	`, now.Add(-48*time.Hour)); err != nil {
		t.Fatalf("seed stale key: %v", err)
	}

	st, err := s.SweepExpired(ctx, 72*time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if st.BroadcastsPruned != 1 || st.IdempotencyPruned != 1 {
		t.Fatalf("pruned=%d/%d want 1/1", st.BroadcastsPruned, st.IdempotencyPruned)
	}

	list, err := s.RecentBroadcasts(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Body != "fresh" {
		t.Fatalf("expected the fresh broadcast to survive, got %+v", list)
	}
}

func TestResetSeason(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, time.Unix(1700000001, 0).UTC())

	if _, err := s.Play(ctx, PlayInput{UserID: "zero_cool"}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO hall_of_fame (season_id, winner_id, payout) VALUES (7, 'zero_cool', 123)
	`); err != nil {
		t.Fatalf("seed hall: %v", err)
	}

	if err := s.ResetSeason(ctx, "wrong-key", 500); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v want ErrUnauthorized", err)
	}
	if err := s.ResetSeason(ctx, "test-key", -1); !errors.Is(err, ErrNegativeBalance) {
		t.Fatalf("got %v want ErrNegativeBalance", err)
	}
	if err := s.ResetSeason(ctx, "test-key", 500); err != nil {
		t.Fatalf("reset: %v", err)
	}

	var players, txs, hall int
	var vault int64
	var season string
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM players`).Scan(&players); err != nil {
		t.Fatalf("players: %v", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&txs); err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM hall_of_fame`).Scan(&hall); err != nil {
		t.Fatalf("hall: %v", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1`).Scan(&vault); err != nil {
		t.Fatalf("vault: %v", err)
	}
	if err := s.db.QueryRow(ctx, `
		SELECT value FROM system_state WHERE key = 'current_season'
	`).Scan(&season); err != nil {
		t.Fatalf("season: %v", err)
	}
	if players != 0 || txs != 0 || vault != 500 {
		t.Fatalf("players=%d txs=%d vault=%d", players, txs, vault)
	}
	if hall != 1 || season != "1" {
		t.Fatalf("hall=%d season=%q, a reset must not touch either", hall, season)
	}
}

func TestAdvanceSeason(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, time.Unix(1700000001, 0).UTC())

	if _, err := s.Play(ctx, PlayInput{UserID: "zero_cool"}); err != nil {
		t.Fatalf("play: %v", err)
	}

	if err := s.AdvanceSeason(ctx, "test-key", 1); !errors.Is(err, ErrSeasonRegress) {
		t.Fatalf("got %v want ErrSeasonRegress", err)
	}
	if err := s.AdvanceSeason(ctx, "wrong-key", 2); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v want ErrUnauthorized", err)
	}

	// Season three wipes the board and baits the vault on entry.
	if err := s.AdvanceSeason(ctx, "test-key", 3); err != nil {
		t.Fatalf("advance: %v", err)
	}
	var players, txs int
	var vault int64
	var season string
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM players`).Scan(&players); err != nil {
		t.Fatalf("players: %v", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&txs); err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT balance FROM vault WHERE id = 1`).Scan(&vault); err != nil {
		t.Fatalf("vault: %v", err)
	}
	if err := s.db.QueryRow(ctx, `
		SELECT value FROM system_state WHERE key = 'current_season'
	`).Scan(&season); err != nil {
		t.Fatalf("season: %v", err)
	}
	if players != 0 || txs != 0 || vault != 5000 || season != "3" {
		t.Fatalf("players=%d txs=%d vault=%d season=%q", players, txs, vault, season)
	}

	if err := s.AdvanceSeason(ctx, "test-key", 2); !errors.Is(err, ErrSeasonRegress) {
		t.Fatalf("got %v want ErrSeasonRegress", err)
	}
}

func TestStatusLeaderboardAnalytics(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	fixClock(s, alignedClock())

	if _, err := s.Play(ctx, PlayInput{UserID: "zero_cool"}); err != nil {
		t.Fatalf("play: %v", err)
	}

	st, err := s.SeasonStatus(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Season != 1 || st.Stage != StageActive || !st.SeasonActive {
		t.Fatalf("status=%+v", st)
	}
	if st.VaultBalance != 979 || st.Winner != nil {
		t.Fatalf("vault=%d winner=%v", st.VaultBalance, st.Winner)
	}

	rows, err := s.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d want 1", len(rows))
	}
	r := rows[0]
	if r.UserID != "zero_cool" || r.TotalSpent != 10 || r.TotalWon != 30 {
		t.Fatalf("row=%+v", r)
	}
	if r.NetProfit != 20 || r.ROIPercent != 200 {
		t.Fatalf("net=%d roi=%.2f want 20/200", r.NetProfit, r.ROIPercent)
	}

	txs, err := s.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 1 || txs[0].InputAmt != 10 || txs[0].OutputAmt != 30 {
		t.Fatalf("history=%+v", txs)
	}

	a, err := s.Analytics(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.PlaysLastHour != 1 || a.TotalGlobalWins != 1 {
		t.Fatalf("plays=%d wins=%d", a.PlaysLastHour, a.TotalGlobalWins)
	}
	if a.ActiveOnLayer1 != 1 || a.ActiveOnLayer2 != 0 {
		t.Fatalf("layer1=%d layer2=%d", a.ActiveOnLayer1, a.ActiveOnLayer2)
	}
	if a.VaultBalance != 979 || a.AverageWinPayout != 30 {
		t.Fatalf("vault=%d avg=%.2f", a.VaultBalance, a.AverageWinPayout)
	}
}
