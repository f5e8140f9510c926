package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration

	// AuthToken, when set, is an already-issued bearer token injected
	// by the hosting page; empty means log in with credentials.
	AuthToken string

	CacheDriver string // sqlite|postgres
	CacheDSN    string

	AutosaveInterval time.Duration // draft autosave tick
	ProgressInterval time.Duration // reader progress autosave tick
	PollInterval     time.Duration // dashboard update polling

	TimerWarnings []int // remaining-seconds thresholds, highest first
}

func FromEnv() Config {
	return Config{
		APIBaseURL:       envOr("API_BASE_URL", "http://localhost:8080"),
		HTTPTimeout:      envDur("HTTP_TIMEOUT", 15*time.Second),
		AuthToken:        envOr("AUTH_TOKEN", ""),
		CacheDriver:      envOr("CACHE_DRIVER", "sqlite"),
		CacheDSN:         envOr("CACHE_DSN", ""),
		AutosaveInterval: envDur("AUTOSAVE_INTERVAL", 30*time.Second),
		ProgressInterval: envDur("PROGRESS_INTERVAL", 30*time.Second),
		PollInterval:     envDur("POLL_INTERVAL", 30*time.Second),
		TimerWarnings:    envInts("TIMER_WARNINGS", []int{300, 60, 30}),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envInts(k string, def []int) []int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return def
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return def
	}
	return out
}
