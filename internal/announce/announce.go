package announce

import "context"

const (
	KindGrandSolve    = "grand_solve"
	KindSeasonAdvance = "season_advance"
	KindSeasonReset   = "season_reset"
)

type Event struct {
	Kind       string
	Season     int64
	NextSeason int64
	UserID     string
	Payout     int64
	Vault      int64
}

// Announcer pushes season-scale events somewhere public. Failures are the
// caller's to log; game state never depends on an announcement landing.
type Announcer interface {
	SeasonEvent(ctx context.Context, ev Event) error
}

type Nop struct{}

func (Nop) SeasonEvent(context.Context, Event) error { return nil }
