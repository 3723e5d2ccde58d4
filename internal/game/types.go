package game

import "time"

type PlayInput struct {
	UserID         string
	IdempotencyKey string
}

type PlayResult struct {
	UserID       string `json:"user_id"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
	Message      string `json:"message"`
	Payout       int64  `json:"payout"`
	VaultBalance int64  `json:"vault_balance"`
	Season       int64  `json:"season"`
	SeasonActive bool   `json:"season_active"`
	RetryIn      int64  `json:"retry_in_seconds,omitempty"`
	Volume       int    `json:"volume,omitempty"`
	Required     int    `json:"required_volume,omitempty"`
}

type SolveInput struct {
	UserID         string
	Formula        string
	IdempotencyKey string
}

type SolveResult struct {
	UserID   string `json:"user_id"`
	Outcome  string `json:"outcome"`
	Message  string `json:"message"`
	Payout   int64  `json:"payout"`
	Season   int64  `json:"season"`
	Winner   string `json:"winner,omitempty"`
	NextStep string `json:"next_step,omitempty"`
}

type WinnerView struct {
	Season   int64     `json:"season"`
	WinnerID string    `json:"winner_id"`
	Payout   int64     `json:"payout"`
	Method   string    `json:"method"`
	WonAt    time.Time `json:"won_at"`
}

type SeasonStatus struct {
	Season       int64       `json:"season"`
	Stage        string      `json:"stage"`
	VaultBalance int64       `json:"vault_balance"`
	SeasonActive bool        `json:"season_active"`
	Notes        string      `json:"notes,omitempty"`
	Winner       *WinnerView `json:"winner,omitempty"`
	ServerTime   time.Time   `json:"server_time"`
}

type BroadcastResult struct {
	ID      string `json:"id,omitempty"`
	Outcome string `json:"outcome"`
	Message string `json:"message"`
	RetryIn int64  `json:"retry_in_seconds,omitempty"`
}

type BroadcastView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type LeaderboardRow struct {
	UserID     string  `json:"user_id"`
	TotalSpent int64   `json:"total_spent"`
	TotalWon   int64   `json:"total_won"`
	NetProfit  int64   `json:"net_profit"`
	ROIPercent float64 `json:"roi_percent"`
}

type TransactionView struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	InputAmt     int64     `json:"input_amt"`
	OutputAmt    int64     `json:"output_amt"`
	VaultBalance int64     `json:"vault_balance"`
	CreatedAt    time.Time `json:"created_at"`
}

type Analytics struct {
	PlaysLastHour    int64   `json:"plays_last_hour"`
	TotalGlobalWins  int64   `json:"total_global_wins"`
	ActiveOnLayer1   int64   `json:"active_on_layer_1"`
	ActiveOnLayer2   int64   `json:"active_on_layer_2"`
	VaultBalance     int64   `json:"vault_balance"`
	AverageWinPayout float64 `json:"average_win_payout"`
}

type SweepStats struct {
	BroadcastsPruned  int64 `json:"broadcasts_pruned"`
	IdempotencyPruned int64 `json:"idempotency_pruned"`
}
