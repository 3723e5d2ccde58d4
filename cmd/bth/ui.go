package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"thehouse/internal/game"
	"thehouse/internal/journal"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

type feedSnapshot struct {
	Status     game.SeasonStatus    `json:"status"`
	Broadcasts []game.BroadcastView `json:"broadcasts"`
}

type feedState struct {
	primed   bool
	vault    int64
	season   int64
	lastSeen time.Time
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptHandle(label string) (string, error) {
	for {
		handle, err := promptRequired(label)
		if err != nil {
			return "", err
		}
		if err := game.ValidateHandle(handle); err != nil {
			printWarn(err.Error())
			continue
		}
		return handle, nil
	}
}

func resolveAdminKey(flagValue string) (string, error) {
	if key := strings.TrimSpace(flagValue); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(os.Getenv("HOUSE_ADMIN_KEY")); key != "" {
		return key, nil
	}
	fmt.Print("Admin key: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", fmt.Errorf("admin key is required")
	}
	return key, nil
}

func renderPlayResult(out game.PlayResult) {
	switch out.Outcome {
	case game.OutcomeWin:
		printSuccess(out.Message)
		fmt.Printf("Payout:  +%s credits\n", comma(out.Payout))
		fmt.Printf("Vault:   %s credits\n", comma(out.VaultBalance))
	case game.OutcomeSeasonClosed:
		printError(out.Message)
	case game.OutcomeRateLimited:
		printWarn(out.Message)
	default:
		switch out.Reason {
		case game.ReasonHeatCritical:
			printError(out.Message)
		case game.ReasonEntropyInsufficient:
			printWarn(out.Message)
		default:
			printInfo(out.Message)
		}
	}
}

func renderSolveResult(out game.SolveResult) {
	switch out.Outcome {
	case game.OutcomeGrandSolve:
		printSuccess(out.Message)
		fmt.Printf("Payout:  +%s credits\n", comma(out.Payout))
		if out.NextStep != "" {
			printInfo(out.NextStep)
		}
	case game.OutcomeLocked:
		printWarn(out.Message)
	case game.OutcomeSeasonClosed:
		printError(out.Message)
	default:
		printError(out.Message)
	}
}

func renderShoutResult(out game.BroadcastResult) {
	switch out.Outcome {
	case game.OutcomeAccepted:
		printSuccess(out.Message)
	default:
		printWarn(out.Message)
	}
}

func renderStatus(st game.SeasonStatus) {
	accent.Printf("\n== THE HOUSE (Season %d) ==\n", st.Season)
	table := "OPEN"
	if !st.SeasonActive {
		table = "DRAINED"
	}
	fmt.Printf("Stage:       %s\n", st.Stage)
	fmt.Printf("Vault:       %s credits\n", comma(st.VaultBalance))
	fmt.Printf("Table:       %s\n", table)
	fmt.Printf("Server time: %s\n", st.ServerTime.Format(time.RFC3339))
	if st.Winner != nil {
		fmt.Printf("Last solve:  %s (%s credits, season %d)\n",
			st.Winner.WinnerID, comma(st.Winner.Payout), st.Winner.Season)
	}
	if st.Notes != "" {
		printInfo(st.Notes)
	}
	fmt.Println()
}

func renderLeaderboard(rows []game.LeaderboardRow) {
	accent.Println("\n== TOP CRACKERS ==")
	if len(rows) == 0 {
		printInfo("Nobody on the board yet.")
		return
	}
	fmt.Printf("%-6s %-24s %12s %12s %12s %9s\n", "RANK", "PLAYER", "SPENT", "WON", "NET", "ROI")
	for i, row := range rows {
		fmt.Printf("%-6d %-24s %12s %12s %12s %9s\n",
			i+1,
			truncate(row.UserID, 24),
			comma(row.TotalSpent),
			comma(row.TotalWon),
			colorizeCredits(row.NetProfit),
			colorizePercent(row.ROIPercent),
		)
	}
	fmt.Println()
}

func renderHistory(txs []game.TransactionView) {
	accent.Println("\n== LEDGER (most recent first) ==")
	if len(txs) == 0 {
		printInfo("The ledger is empty.")
		return
	}
	fmt.Printf("%-8s %-24s %8s %10s %12s %-20s\n", "ID", "PLAYER", "IN", "OUT", "VAULT", "TIME")
	for _, tx := range txs {
		fmt.Printf("%-8d %-24s %8s %10s %12s %-20s\n",
			tx.ID,
			truncate(tx.UserID, 24),
			comma(tx.InputAmt),
			colorizeCredits(tx.OutputAmt),
			comma(tx.VaultBalance),
			tx.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	fmt.Println()
}

func renderAnalytics(a game.Analytics) {
	accent.Println("\n== GRID TELEMETRY ==")
	fmt.Printf("Plays (last hour):   %d\n", a.PlaysLastHour)
	fmt.Printf("Global wins:         %d\n", a.TotalGlobalWins)
	fmt.Printf("Active on layer 1:   %d\n", a.ActiveOnLayer1)
	fmt.Printf("Active on layer 2:   %d\n", a.ActiveOnLayer2)
	fmt.Printf("Vault:               %s credits\n", comma(a.VaultBalance))
	fmt.Printf("Average win payout:  %.2f credits\n", a.AverageWinPayout)
	fmt.Println()
}

func renderJournal(entries []journal.Entry) {
	accent.Println("\n== LOCAL JOURNAL ==")
	if len(entries) == 0 {
		printInfo("No attempts recorded on this machine.")
		return
	}
	fmt.Printf("%-20s %-7s %-14s %8s %-44s\n", "TIME", "ACTION", "OUTCOME", "PAYOUT", "MESSAGE")
	for _, e := range entries {
		fmt.Printf("%-20s %-7s %-14s %8s %-44s\n",
			e.At.Local().Format("2006-01-02 15:04:05"),
			e.Action,
			e.Outcome,
			comma(e.Payout),
			truncate(e.Message, 44),
		)
	}
	fmt.Println()
}

func renderFeedTick(snap feedSnapshot, last *feedState) {
	st := snap.Status
	if !last.primed || st.VaultBalance != last.vault || st.Season != last.season {
		stamp := st.ServerTime.Local().Format("15:04:05")
		line := fmt.Sprintf("[%s] season %d vault %s", stamp, st.Season, comma(st.VaultBalance))
		if !st.SeasonActive {
			danger.Println(line + " (drained)")
		} else {
			neutral.Println(line)
		}
		last.primed = true
		last.vault = st.VaultBalance
		last.season = st.Season
	}
	// Broadcasts arrive newest first; replay the unseen tail oldest first.
	for i := len(snap.Broadcasts) - 1; i >= 0; i-- {
		b := snap.Broadcasts[i]
		if !b.CreatedAt.After(last.lastSeen) {
			continue
		}
		fmt.Printf("[%s] %s %s\n",
			b.CreatedAt.Local().Format("15:04:05"),
			accent.Sprintf("<%s>", b.UserID),
			b.Body,
		)
		last.lastSeen = b.CreatedAt
	}
}

func colorizeCredits(v int64) string {
	text := comma(v)
	if v > 0 {
		text = "+" + text
	}
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizePercent(v float64) string {
	text := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func comma(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return sign + b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
