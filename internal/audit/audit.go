package audit

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

type SolveAttempt struct {
	At      time.Time `json:"at"`
	Season  int64     `json:"season"`
	UserID  string    `json:"user_id"`
	Formula string    `json:"formula"`
	Outcome string    `json:"outcome"`
	Payout  int64     `json:"payout,omitempty"`
}

// Recorder receives every grand-solve attempt, win or loss. Recording is
// best effort and must never fail the attempt itself.
type Recorder interface {
	SolveAttempt(e SolveAttempt)
}

type Nop struct{}

func (Nop) SolveAttempt(SolveAttempt) {}

// FileRecorder appends one JSON line per attempt.
type FileRecorder struct {
	mu  sync.Mutex
	f   *os.File
	log *slog.Logger
}

func NewFileRecorder(path string, logger *slog.Logger) (*FileRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileRecorder{f: f, log: logger}, nil
}

func (r *FileRecorder) SolveAttempt(e SolveAttempt) {
	raw, err := json.Marshal(e)
	if err != nil {
		r.log.Error("audit marshal failed", "err", err)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.f.Write(append(raw, '\n')); err != nil {
		r.log.Error("audit write failed", "err", err)
	}
}

func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}
