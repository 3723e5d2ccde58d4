package game

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	OutcomeWin          = "WIN"
	OutcomeLoss         = "LOSS"
	OutcomeGrandSolve   = "GRAND_SOLVE"
	OutcomeRejected     = "REJECTED"
	OutcomeLocked       = "LOCKED"
	OutcomeSeasonClosed = "SEASON_CLOSED"
	OutcomeRateLimited  = "RATE_LIMITED"
	OutcomeAccepted     = "ACCEPTED"
	OutcomeTooLarge     = "PAYLOAD_TOO_LARGE"
)

const (
	ReasonHeatCritical        = "HEAT_CRITICAL"
	ReasonSignalMismatch      = "SIGNAL_MISMATCH"
	ReasonEntropyInsufficient = "ENTROPY_INSUFFICIENT"
	ReasonEntropySurge        = "ENTROPY_SURGE_CONFIRMED"
	ReasonLayerOneBreach      = "LAYER1_BREACH"
	ReasonPlayCooldown        = "PLAY_COOLDOWN"
	ReasonBroadcastCooldown   = "BROADCAST_COOLDOWN"
	ReasonVaultEmpty          = "VAULT_EMPTY"
	ReasonGridCongestion      = "GRID_CONGESTION"
)

const (
	msgSignalMissed      = "Signal Missed. Align with the clock."
	msgEntropyLow        = "Time aligned, but Network Entropy too low (%d/%d). Flood the system."
	msgLayerOneBreach    = "LAYER 1 BREACH CONFIRMED. (Wins: %d/%d)"
	msgLayerTwoBreach    = "LAYER 2 BREACH: Volume Surge (%d) + Time Sync Verified."
	msgHeatCritical      = "Heat critical. Lay low for %ds."
	msgPlayCooldown      = "Cooling circuits. Retry in %ds."
	msgSeasonEnded       = "Season already ended. Wait for reset."
	msgGrandSolve        = "CORRECT. SYSTEM COMPROMISED. SEASON ENDED."
	msgNextStep          = "Source code released to public ledger. Season %d generating..."
	msgSolveRejected     = "Incorrect formula. The House remains secure."
	msgVaultLocked       = "Vault already claimed. The grid belongs to %s."
	msgGridCongestion    = "Grid congestion. Re-run the attempt."
	msgBroadcastTooLong  = "Transmission too long. Keep it under %d characters."
	msgBroadcastCooldown = "Comms jammed. Retry in %ds."
	msgBroadcastSent     = "Transmission on the wire."
)

var (
	ErrInvalidHandle        = errors.New("handle must be 2-24 characters: letters, digits, underscore or dash")
	ErrEmptyFormula         = errors.New("formula must not be empty")
	ErrEmptyBroadcast       = errors.New("broadcast body must not be empty")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrUnauthorized         = errors.New("admin key rejected")
	ErrSeasonRegress        = errors.New("target season must be greater than the current season")
	ErrNegativeBalance      = errors.New("vault balance must not be negative")
	ErrTxConflict           = errors.New("storage conflict, retry the request")
)

var handleRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,24}$`)

func ValidateHandle(handle string) error {
	if !handleRE.MatchString(strings.TrimSpace(handle)) {
		return ErrInvalidHandle
	}
	return nil
}

type Config struct {
	EntryFee          int64
	VaultSplit        float64
	PayoutRate        float64
	PayoutFloor       int64
	SeedVault         int64
	TierThreshold     int
	WinCooldown       time.Duration
	PlayCooldown      time.Duration
	VolumeWindow      time.Duration
	AlignTolerance    time.Duration
	BroadcastCooldown time.Duration
	BroadcastMaxLen   int
	Seasons           map[int64]SeasonParams
}

func DefaultConfig() Config {
	return Config{
		EntryFee:          10,
		VaultSplit:        0.90,
		PayoutRate:        0.03,
		PayoutFloor:       20,
		SeedVault:         1000,
		TierThreshold:     3,
		WinCooldown:       60 * time.Second,
		PlayCooldown:      time.Second,
		VolumeWindow:      10 * time.Second,
		AlignTolerance:    0,
		BroadcastCooldown: 30 * time.Second,
		BroadcastMaxLen:   280,
		Seasons:           DefaultSeasons(),
	}
}
