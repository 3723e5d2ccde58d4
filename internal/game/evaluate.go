package game

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type verdict struct {
	Won      bool
	Reason   string
	Message  string
	RetryIn  int64
	Volume   int
	Required int
}

// evaluate runs the gates in order: win cooldown, clock alignment, tier,
// then volume. The first failing gate decides the verdict; later gates
// are never consulted.
func (c Config) evaluate(now time.Time, params SeasonParams, tier int, lastWinAt *time.Time, recentTx int) verdict {
	if lastWinAt != nil {
		if held := now.Sub(*lastWinAt); held < c.WinCooldown {
			left := ceilSeconds(c.WinCooldown - held)
			return verdict{
				Reason:  ReasonHeatCritical,
				Message: fmt.Sprintf(msgHeatCritical, left),
				RetryIn: left,
			}
		}
	}
	if !alignedWithDigit(now, params.TargetDigit, c.AlignTolerance) {
		return verdict{Reason: ReasonSignalMismatch, Message: msgSignalMissed}
	}
	if tier < c.TierThreshold {
		return verdict{
			Won:     true,
			Reason:  ReasonLayerOneBreach,
			Message: fmt.Sprintf(msgLayerOneBreach, tier+1, c.TierThreshold),
		}
	}
	if recentTx < params.VolumeThreshold {
		return verdict{
			Reason:   ReasonEntropyInsufficient,
			Message:  fmt.Sprintf(msgEntropyLow, recentTx, params.VolumeThreshold),
			Volume:   recentTx,
			Required: params.VolumeThreshold,
		}
	}
	return verdict{
		Won:      true,
		Reason:   ReasonEntropySurge,
		Message:  fmt.Sprintf(msgLayerTwoBreach, recentTx),
		Volume:   recentTx,
		Required: params.VolumeThreshold,
	}
}

// alignedWithDigit reports whether now lands on a unix second ending in
// digit. With a tolerance, an attempt that arrives just after the boundary
// still counts for the second it missed.
func alignedWithDigit(now time.Time, digit int, tolerance time.Duration) bool {
	if digit < 0 || digit > 9 {
		return false
	}
	sec := now.Unix()
	if int(sec%10) == digit {
		return true
	}
	if tolerance <= 0 {
		return false
	}
	intoSecond := now.Sub(time.Unix(sec, 0))
	return intoSecond <= tolerance && int((sec-1)%10) == digit
}

// payoutFor sizes a standard win: a cut of the vault, never below the
// floor, never above what the vault holds.
func payoutFor(vault int64, rate float64, floor int64) int64 {
	p := int64(math.Round(float64(vault) * rate))
	if p < floor {
		p = floor
	}
	if p > vault {
		p = vault
	}
	return p
}

// vaultShare is the cut of an entry fee the vault keeps. Truncates, so the
// house pockets the remainder.
func vaultShare(fee int64, split float64) int64 {
	return int64(float64(fee) * split)
}

// canonicalFormula collapses runs of whitespace and lowercases, so
// formulas differing only in spacing or case compare equal.
func canonicalFormula(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func ceilSeconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}
