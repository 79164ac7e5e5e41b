package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - настройки бота из окружения (и .env, если он есть).
type Config struct {
	TelegramToken  string
	PostgresDSN    string
	RedisURL       string
	SuperAdminID   int64
	Debug          bool
	ReapInterval   time.Duration
	ReapDelay      time.Duration
	RoastsSeedPath string
	LogLevel       slog.Level
	DBMaxConns     int32
}

// Load читает .env (если найден) и переменные окружения. Все отсутствующие
// и некорректные ключи собираются в одну ошибку.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using system variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv строит конфиг из произвольного источника переменных.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		ReapInterval:   6 * time.Hour,
		ReapDelay:      time.Minute,
		RoastsSeedPath: "roasts_seed.txt",
		LogLevel:       slog.LevelInfo,
		DBMaxConns:     10,
	}

	var missing, invalid []string
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				return v
			}
		}
		return ""
	}

	if cfg.TelegramToken = get("TELEGRAM_TOKEN", "BOT_TOKEN"); cfg.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}

	cfg.PostgresDSN = get("POSTGRES_DSN", "DATABASE_URL")
	if strings.HasPrefix(cfg.PostgresDSN, "postgres://") {
		cfg.PostgresDSN = "postgresql://" + strings.TrimPrefix(cfg.PostgresDSN, "postgres://")
	}
	cfg.RedisURL = get("REDIS_URL")

	if v := get("SUPERADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			invalid = append(invalid, "SUPERADMIN_ID")
		} else {
			cfg.SuperAdminID = id
		}
	}

	if v := get("BOT_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "BOT_DEBUG")
		} else {
			cfg.Debug = debug
		}
	}

	if v := get("REAPER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, "REAPER_INTERVAL")
		} else {
			cfg.ReapInterval = d
		}
	}

	if v := get("REAPER_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			invalid = append(invalid, "REAPER_DELAY")
		} else {
			cfg.ReapDelay = d
		}
	}

	if v := get("ROASTS_SEED"); v != "" {
		cfg.RoastsSeedPath = v
	}

	if v := get("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			invalid = append(invalid, "LOG_LEVEL")
		}
	}

	if v := get("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			invalid = append(invalid, "DB_MAX_CONNS")
		} else {
			cfg.DBMaxConns = int32(n)
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}
