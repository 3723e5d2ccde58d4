package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Entry is one attempt fired from this machine. The journal is a local
// memory aid; the server's ledger is the authority.
type Entry struct {
	At      time.Time `json:"at"`
	Action  string    `json:"action"`
	Outcome string    `json:"outcome"`
	Reason  string    `json:"reason,omitempty"`
	Payout  int64     `json:"payout,omitempty"`
	Vault   int64     `json:"vault,omitempty"`
	Message string    `json:"message,omitempty"`
}

func journalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".bth")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "journal.json"), nil
}

func Load() ([]Entry, error) {
	path, err := journalPath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Entry{}, nil
	}
	var out []Entry
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Save(entries []Entry) error {
	path, err := journalPath()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func Append(e Entry) error {
	entries, err := Load()
	if err != nil {
		return err
	}
	entries = append(entries, e)
	return Save(entries)
}

func Clear() error {
	path, err := journalPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
