package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"thehouse/internal/game"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Play(ctx context.Context, userID, idem string) (game.PlayResult, error) {
	var out game.PlayResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/play", map[string]any{
		"user_id": userID,
	}, &out, idem, "")
	return out, err
}

func (c *Client) Solve(ctx context.Context, userID, formula, idem string) (game.SolveResult, error) {
	var out game.SolveResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/solve", map[string]any{
		"user_id": userID,
		"formula": formula,
	}, &out, idem, "")
	return out, err
}

func (c *Client) Status(ctx context.Context) (game.SeasonStatus, error) {
	var out game.SeasonStatus
	err := c.jsonRequest(ctx, http.MethodGet, "/api/status", nil, &out, "", "")
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context) ([]game.LeaderboardRow, error) {
	var out struct {
		Rows []game.LeaderboardRow `json:"rows"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/api/leaderboard", nil, &out, "", "")
	return out.Rows, err
}

func (c *Client) History(ctx context.Context) ([]game.TransactionView, error) {
	var out struct {
		Transactions []game.TransactionView `json:"transactions"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/api/history", nil, &out, "", "")
	return out.Transactions, err
}

func (c *Client) Analytics(ctx context.Context) (game.Analytics, error) {
	var out game.Analytics
	err := c.jsonRequest(ctx, http.MethodGet, "/api/analytics", nil, &out, "", "")
	return out, err
}

func (c *Client) Broadcasts(ctx context.Context, limit int) ([]game.BroadcastView, error) {
	path := "/api/broadcasts"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Broadcasts []game.BroadcastView `json:"broadcasts"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out, "", "")
	return out.Broadcasts, err
}

func (c *Client) Shout(ctx context.Context, userID, body string) (game.BroadcastResult, error) {
	var out game.BroadcastResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/broadcast", map[string]any{
		"user_id": userID,
		"body":    body,
	}, &out, "", "")
	return out, err
}

func (c *Client) AdminReset(ctx context.Context, adminKey string, vaultBalance int64) error {
	return c.jsonRequest(ctx, http.MethodPost, "/api/admin/reset", map[string]any{
		"vault_balance": vaultBalance,
	}, nil, "", adminKey)
}

func (c *Client) AdminAdvance(ctx context.Context, adminKey string, season int64) error {
	return c.jsonRequest(ctx, http.MethodPost, "/api/admin/advance", map[string]any{
		"season": season,
	}, nil, "", adminKey)
}

// Feed opens the live event stream. The body stays open until the context
// is canceled, so it cannot run on the default client timeout.
func (c *Client) Feed(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/feed", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("api status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem, adminKey string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	if adminKey != "" {
		req.Header.Set("X-Admin-Key", adminKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
