package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"thehouse/internal/game"
)

type APIConfig struct {
	Addr           string
	DatabaseURL    string
	AdminKey       string
	AdminKeyBcrypt string
	AuditLogPath   string
	DiscordToken   string
	DiscordChannel string
	Game           game.Config
}

type SweeperConfig struct {
	DatabaseURL          string
	Interval             time.Duration
	BroadcastRetention   time.Duration
	IdempotencyRetention time.Duration
	RunOnce              bool
	Game                 game.Config
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	_ = godotenv.Load()

	port := envDefault("PORT", "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	cfg := APIConfig{
		Addr:           port,
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AdminKey:       strings.TrimSpace(os.Getenv("HOUSE_ADMIN_KEY")),
		AdminKeyBcrypt: strings.TrimSpace(os.Getenv("HOUSE_ADMIN_KEY_BCRYPT")),
		AuditLogPath:   envDefault("HOUSE_AUDIT_LOG", "solve_attempts.jsonl"),
		DiscordToken:   strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		DiscordChannel: strings.TrimSpace(os.Getenv("DISCORD_CHANNEL_ID")),
		Game:           GameFromEnv(),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func LoadSweeperFromEnv() (SweeperConfig, error) {
	_ = godotenv.Load()

	cfg := SweeperConfig{
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Interval:             envDurationDefault("HOUSE_SWEEP_INTERVAL", 10*time.Minute),
		BroadcastRetention:   envDurationDefault("HOUSE_BROADCAST_RETENTION", 72*time.Hour),
		IdempotencyRetention: envDurationDefault("HOUSE_IDEMPOTENCY_RETENTION", 24*time.Hour),
		RunOnce:              envBoolDefault("HOUSE_SWEEP_RUN_ONCE", false),
		Game:                 GameFromEnv(),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	_ = godotenv.Load()

	return CLIConfig{
		APIBaseURL: envDefault("HOUSE_API_URL", "http://localhost:8080"),
	}
}

// GameFromEnv starts from the stock ruleset and lets the environment bend
// individual knobs. The season table itself is not env-tunable.
func GameFromEnv() game.Config {
	cfg := game.DefaultConfig()
	cfg.EntryFee = envInt64Default("HOUSE_ENTRY_FEE", cfg.EntryFee)
	cfg.VaultSplit = envFloatDefault("HOUSE_VAULT_SPLIT", cfg.VaultSplit)
	cfg.PayoutRate = envFloatDefault("HOUSE_PAYOUT_RATE", cfg.PayoutRate)
	cfg.PayoutFloor = envInt64Default("HOUSE_PAYOUT_FLOOR", cfg.PayoutFloor)
	cfg.SeedVault = envInt64Default("HOUSE_SEED_VAULT", cfg.SeedVault)
	cfg.TierThreshold = envIntDefault("HOUSE_TIER_THRESHOLD", cfg.TierThreshold)
	cfg.WinCooldown = envDurationDefault("HOUSE_WIN_COOLDOWN", cfg.WinCooldown)
	cfg.PlayCooldown = envDurationDefault("HOUSE_PLAY_COOLDOWN", cfg.PlayCooldown)
	cfg.VolumeWindow = envDurationDefault("HOUSE_VOLUME_WINDOW", cfg.VolumeWindow)
	cfg.AlignTolerance = envDurationDefault("HOUSE_ALIGN_TOLERANCE", cfg.AlignTolerance)
	cfg.BroadcastCooldown = envDurationDefault("HOUSE_BROADCAST_COOLDOWN", cfg.BroadcastCooldown)
	cfg.BroadcastMaxLen = envIntDefault("HOUSE_BROADCAST_MAX_LEN", cfg.BroadcastMaxLen)
	return cfg
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
