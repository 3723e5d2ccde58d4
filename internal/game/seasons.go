package game

const (
	StageActive   = "ACTIVE"
	StageAudit    = "AUDIT"
	StageDeepGrid = "DEEP_GRID"
	StageEpilogue = "EPILOGUE"
)

// SeasonParams pins down one season of the puzzle. TargetDigit is the
// unix-second digit that wins; -1 means no second ever aligns. A season
// with an empty Secret cannot be grand-solved. BaitAmount and WipeOnEntry
// apply when an operator advances into the season, not when a grand solve
// rolls it over.
type SeasonParams struct {
	ID              int64
	Stage           string
	TargetDigit     int
	VolumeThreshold int
	Secret          string
	BaitAmount      int64
	WipeOnEntry     bool
	Notes           string
}

func DefaultSeasons() map[int64]SeasonParams {
	return map[int64]SeasonParams{
		1: {
			ID:              1,
			Stage:           StageActive,
			TargetDigit:     7,
			VolumeThreshold: 3,
			Secret:          "timestamp % 10 == 7 AND volume >= 3",
		},
		2: {
			ID:              2,
			Stage:           StageAudit,
			TargetDigit:     7,
			VolumeThreshold: 3,
			Notes:           "Layer archives unsealed. The season one breach logs are open for audit.",
		},
		3: {
			ID:              3,
			Stage:           StageDeepGrid,
			TargetDigit:     0,
			VolumeThreshold: 5,
			Secret:          "timestamp % 10 == 0 AND volume >= 5",
			BaitAmount:      5000,
			WipeOnEntry:     true,
			Notes:           "The deep grid hums again. Fresh bait in the vault.",
		},
		4: {
			ID:          4,
			Stage:       StageEpilogue,
			TargetDigit: -1,
			Notes:       "The house is dark. Nothing here responds anymore.",
		},
	}
}

// Seasons beyond the table are terminal: nothing aligns and nothing solves.
func (s *Service) paramsFor(season int64) SeasonParams {
	if p, ok := s.seasons[season]; ok {
		return p
	}
	return SeasonParams{ID: season, Stage: StageEpilogue, TargetDigit: -1}
}
