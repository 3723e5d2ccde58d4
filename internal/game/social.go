package game

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *Service) Broadcast(ctx context.Context, userID, body string) (BroadcastResult, error) {
	var out BroadcastResult
	userID = strings.TrimSpace(userID)
	if err := ValidateHandle(userID); err != nil {
		return out, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return out, ErrEmptyBroadcast
	}
	if utf8.RuneCountInString(body) > s.cfg.BroadcastMaxLen {
		out = BroadcastResult{
			Outcome: OutcomeTooLarge,
			Message: fmt.Sprintf(msgBroadcastTooLong, s.cfg.BroadcastMaxLen),
		}
		return out, nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return out, err
	}
	err = func() error {
		defer tx.Rollback(ctx)
		now := s.now().UTC()
		pl, err := lockPlayer(ctx, tx, userID)
		if err != nil {
			return err
		}
		if pl.LastBroadcastAt != nil {
			if wait := s.cfg.BroadcastCooldown - now.Sub(*pl.LastBroadcastAt); wait > 0 {
				left := ceilSeconds(wait)
				out = BroadcastResult{
					Outcome: OutcomeRateLimited,
					Message: fmt.Sprintf(msgBroadcastCooldown, left),
					RetryIn: left,
				}
				return tx.Commit(ctx)
			}
		}
		id := uuid.NewString()
		if _, err := tx.Exec(ctx, `
			INSERT INTO broadcasts (id, user_id, body, created_at)
			VALUES ($1, $2, $3, $4)
		`, id, userID, body, now); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE players SET last_broadcast_at = $1 WHERE user_id = $2
		`, now, userID); err != nil {
			return err
		}
		out = BroadcastResult{ID: id, Outcome: OutcomeAccepted, Message: msgBroadcastSent}
		return tx.Commit(ctx)
	}()
	if err != nil {
		return BroadcastResult{}, err
	}
	return out, nil
}

func (s *Service) RecentBroadcasts(ctx context.Context, limit int) ([]BroadcastView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, body, created_at
		FROM broadcasts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BroadcastView, 0, limit)
	for rows.Next() {
		var b BroadcastView
		if err := rows.Scan(&b.ID, &b.UserID, &b.Body, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
