package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	cl "thehouse/internal/cli"
	"thehouse/internal/config"
	"thehouse/internal/game"
	"thehouse/internal/journal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "bth",
		Short:        "Beat the House command-line client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newPlayCmd(&apiBase),
		newSnipeCmd(&apiBase),
		newSolveCmd(&apiBase),
		newStatusCmd(&apiBase),
		newTopCmd(&apiBase),
		newHistoryCmd(&apiBase),
		newAnalyticsCmd(&apiBase),
		newShoutCmd(&apiBase),
		newFeedCmd(&apiBase),
		newJournalCmd(),
		newAdminCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimSpace(*apiBase))
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Pick the handle you play under",
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := promptHandle("Handle")
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{Handle: handle, SavedAt: time.Now().UTC()}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Jacked in as %s.", handle))
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local handle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Session cleared.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the handle in the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			fmt.Println(sess.Handle)
			return nil
		},
	}
}

func newPlayCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Fire one play at the house",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(apiBase)
			out, err := client.Play(ctx, sess.Handle, uuid.NewString())
			if err != nil {
				return err
			}
			recordPlay(out)
			renderPlayResult(out)
			return nil
		},
	}
}

func newSnipeCmd(apiBase *string) *cobra.Command {
	var (
		digit     int
		attempts  int
		fireDelay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "snipe",
		Short: "Fire plays on the aligned second until something gives",
		RunE: func(cmd *cobra.Command, args []string) error {
			if digit < 0 || digit > 9 {
				return fmt.Errorf("--digit must be between 0 and 9")
			}
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			client := newClient(apiBase)
			ctx := cmd.Context()

			statusCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			t0 := time.Now()
			st, err := client.Status(statusCtx)
			rtt := time.Since(t0)
			cancel()
			if err != nil {
				return err
			}
			// Trust the server clock; local drift is what loses snipes.
			offset := time.Until(st.ServerTime.Add(rtt / 2))
			printInfo(fmt.Sprintf("Clock offset %s, rtt %s. Hunting seconds ending in %d.",
				offset.Round(time.Millisecond), rtt.Round(time.Millisecond), digit))
			if !st.SeasonActive {
				printWarn("Season looks drained. Firing anyway.")
			}

			for attempt := 1; attempt <= attempts; attempt++ {
				serverNow := time.Now().Add(offset)
				target := nextFireTime(serverNow, digit, fireDelay)
				if wait := target.Sub(serverNow); wait > 0 {
					if err := sleepFor(ctx, wait); err != nil {
						return err
					}
				}
				playCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				out, err := client.Play(playCtx, sess.Handle, uuid.NewString())
				cancel()
				if err != nil {
					printError(fmt.Sprintf("Attempt %d failed: %v", attempt, err))
					continue
				}
				recordPlay(out)
				renderPlayResult(out)
				switch {
				case out.Outcome == game.OutcomeWin:
					return nil
				case out.Outcome == game.OutcomeSeasonClosed:
					return nil
				case out.RetryIn > 0:
					if err := sleepFor(ctx, time.Duration(out.RetryIn)*time.Second); err != nil {
						return err
					}
				}
			}
			printInfo("Out of attempts. The clock keeps ticking.")
			return nil
		},
	}
	cmd.Flags().IntVar(&digit, "digit", -1, "unix-second digit to fire on (0-9)")
	cmd.Flags().IntVar(&attempts, "attempts", 5, "plays to fire before giving up")
	cmd.Flags().DurationVar(&fireDelay, "fire-delay", 120*time.Millisecond, "how far into the aligned second to fire")
	_ = cmd.MarkFlagRequired("digit")
	return cmd
}

func newSolveCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "solve [formula...]",
		Short: "Submit a grand-solve formula",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			formula := strings.Join(args, " ")
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(apiBase)
			out, err := client.Solve(ctx, sess.Handle, formula, uuid.NewString())
			if err != nil {
				return err
			}
			recordSolve(out)
			renderSolveResult(out)
			return nil
		},
	}
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current season and vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Status(ctx)
			if err != nil {
				return err
			}
			renderStatus(out)
			return nil
		},
	}
}

func newTopCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Show the ROI leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			rows, err := newClient(apiBase).Leaderboard(ctx)
			if err != nil {
				return err
			}
			renderLeaderboard(rows)
			return nil
		},
	}
}

func newHistoryCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the public ledger tail",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			txs, err := newClient(apiBase).History(ctx)
			if err != nil {
				return err
			}
			renderHistory(txs)
			return nil
		},
	}
}

func newAnalyticsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show grid telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Analytics(ctx)
			if err != nil {
				return err
			}
			renderAnalytics(out)
			return nil
		},
	}
}

func newShoutCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "shout [message...]",
		Short: "Broadcast a message to every terminal on the feed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("login required: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Shout(ctx, sess.Handle, strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderShoutResult(out)
			return nil
		},
	}
}

func newFeedCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Stream the live house feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := newClient(apiBase).Feed(cmd.Context())
			if err != nil {
				return err
			}
			defer body.Close()
			printInfo("Streaming the house feed. Ctrl-C to stop.")

			var last feedState
			scanner := bufio.NewScanner(body)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := scanner.Text()
				if !strings.HasPrefix(line, "data: ") {
					continue
				}
				var snap feedSnapshot
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap); err != nil {
					printWarn("Dropped a malformed frame.")
					continue
				}
				renderFeedTick(snap, &last)
			}
			return scanner.Err()
		},
	}
}

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Local attempt journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := journal.Load()
			if err != nil {
				return err
			}
			renderJournal(entries)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Wipe the local journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := journal.Clear(); err != nil {
				return err
			}
			printSuccess("Journal wiped.")
			return nil
		},
	})
	return cmd
}

func newAdminCmd(apiBase *string) *cobra.Command {
	var key string
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Operator controls",
	}
	admin.PersistentFlags().StringVar(&key, "key", "", "admin key (falls back to HOUSE_ADMIN_KEY, then a hidden prompt)")

	var vault int64
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the board and re-arm the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminKey, err := resolveAdminKey(key)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).AdminReset(ctx, adminKey, vault); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Board wiped. Vault re-armed with %d credits.", vault))
			return nil
		},
	}
	reset.Flags().Int64Var(&vault, "vault", 500, "vault balance after the wipe")

	var season int64
	advance := &cobra.Command{
		Use:   "advance",
		Short: "Advance the season counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminKey, err := resolveAdminKey(key)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).AdminAdvance(ctx, adminKey, season); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Season advanced to %d.", season))
			return nil
		},
	}
	advance.Flags().Int64Var(&season, "season", 0, "season to advance to")
	_ = advance.MarkFlagRequired("season")

	admin.AddCommand(reset, advance)
	return admin
}

func recordPlay(out game.PlayResult) {
	err := journal.Append(journal.Entry{
		At:      time.Now().UTC(),
		Action:  "play",
		Outcome: out.Outcome,
		Reason:  out.Reason,
		Payout:  out.Payout,
		Vault:   out.VaultBalance,
		Message: out.Message,
	})
	if err != nil {
		printWarn("Journal write failed: " + err.Error())
	}
}

func recordSolve(out game.SolveResult) {
	err := journal.Append(journal.Entry{
		At:      time.Now().UTC(),
		Action:  "solve",
		Outcome: out.Outcome,
		Payout:  out.Payout,
		Message: out.Message,
	})
	if err != nil {
		printWarn("Journal write failed: " + err.Error())
	}
}

// nextFireTime returns when to fire so the play lands inside a second
// whose unix timestamp ends in digit. If that second is running right
// now, fire immediately.
func nextFireTime(now time.Time, digit int, fireDelay time.Duration) time.Time {
	sec := now.Unix()
	for i := int64(0); i <= 10; i++ {
		cand := sec + i
		if int(cand%10) != digit {
			continue
		}
		if i == 0 {
			return now
		}
		return time.Unix(cand, 0).Add(fireDelay)
	}
	return now.Add(10 * time.Second)
}

func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
