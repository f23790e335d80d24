package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"docguard/internal/domain/policy"
)

type Config struct {
	TelegramToken string
	Env           string
	LogLevel      string

	// Оценка изображений
	Policy      string
	PolicyFile  string
	WatchPolicy bool
	Workers     int
	Seed        uint64
	MaxSide     int
	MaxPixels   int64
	EvalTimeout time.Duration
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Policy:        getEnv("FORENSIC_POLICY", string(policy.Balanced)),
		PolicyFile:    os.Getenv("FORENSIC_POLICY_FILE"),
		Workers:       runtime.NumCPU(),
		Seed:          1,
		MaxSide:       2048,
		MaxPixels:     50_000_000,
		EvalTimeout:   60 * time.Second,
	}

	var errs []error
	if v := os.Getenv("FORENSIC_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORENSIC_WORKERS: %w", err))
		}
		cfg.Workers = n
	}
	if v := os.Getenv("FORENSIC_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORENSIC_SEED: %w", err))
		}
		cfg.Seed = n
	}
	if v := os.Getenv("FORENSIC_MAX_SIDE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORENSIC_MAX_SIDE: %w", err))
		}
		cfg.MaxSide = n
	}
	if v := os.Getenv("FORENSIC_MAX_PIXELS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORENSIC_MAX_PIXELS: %w", err))
		}
		cfg.MaxPixels = n
	}
	if v := os.Getenv("FORENSIC_EVAL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORENSIC_EVAL_TIMEOUT: %w", err))
		}
		cfg.EvalTimeout = d
	}
	if v := os.Getenv("FORENSIC_WATCH_POLICY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FORENSIC_WATCH_POLICY: %w", err))
		}
		cfg.WatchPolicy = b
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate проверяет значения и собирает все ошибки разом.
// Токен Telegram здесь не обязателен: CLI работает без него.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := policy.Parse(c.Policy); !ok {
		errs = append(errs, fmt.Errorf("unknown policy %q (want %s)", c.Policy, strings.Join(policyNames(), ", ")))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.MaxSide < 64 {
		errs = append(errs, fmt.Errorf("max side must be at least 64, got %d", c.MaxSide))
	}
	if c.MaxPixels < int64(c.MaxSide)*int64(c.MaxSide) {
		errs = append(errs, fmt.Errorf("max pixels must cover max side squared (%d), got %d", c.MaxSide*c.MaxSide, c.MaxPixels))
	}
	if c.EvalTimeout <= 0 {
		errs = append(errs, fmt.Errorf("evaluation timeout must be positive, got %s", c.EvalTimeout))
	}
	if c.WatchPolicy && c.PolicyFile == "" {
		errs = append(errs, errors.New("FORENSIC_WATCH_POLICY requires FORENSIC_POLICY_FILE"))
	}
	return errors.Join(errs...)
}

// IsProduction true для ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func policyNames() []string {
	out := make([]string, 0, len(policy.Names))
	for _, n := range policy.Names {
		out = append(out, string(n))
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
