package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the router.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the HTTP front-end
	Addr string
	// Port is the binding port for the HTTP front-end
	Port int
	// Version is the current version of the router
	Version string

	// CatalogPath points to the YAML file holding intents and skill mappings.
	// Empty means built-in defaults without persistence.
	CatalogPath string // OPENCLAW_CATALOG_PATH
	// WatchCatalog reloads the catalog when the file changes on disk.
	WatchCatalog bool // OPENCLAW_WATCH_CATALOG (default: false)

	// SkillDirs are scanned for SKILL.md files to build the target registry.
	SkillDirs []string // OPENCLAW_SKILL_DIRS (comma separated)
	// AvailableSkills are target names that are always considered available.
	AvailableSkills []string // OPENCLAW_AVAILABLE_SKILLS (comma separated)

	// SessionCapacity bounds the number of tracked users. Zero keeps every user.
	SessionCapacity int // OPENCLAW_SESSION_CAPACITY (default: 10000)
	// SessionIdleTimeout evicts sessions idle for longer than this.
	SessionIdleTimeout time.Duration // OPENCLAW_SESSION_IDLE_TIMEOUT (default: 24h)

	// RateLimit is the per-user requests per second accepted by the HTTP front-end.
	RateLimit float64 // OPENCLAW_RATE_LIMIT (default: 10)

	LogLevel  string // OPENCLAW_LOG_LEVEL (default: info)
	LogFormat string // OPENCLAW_LOG_FORMAT (default: text)
}

// Default returns a profile populated with default values.
func Default() *Profile {
	return &Profile{
		Mode:               "dev",
		Addr:               "127.0.0.1",
		Port:               8088,
		Version:            "0.1.0",
		SessionCapacity:    10000,
		SessionIdleTimeout: 24 * time.Hour,
		RateLimit:          10,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// ListenAddr returns the host:port the HTTP front-end binds to.
func (p *Profile) ListenAddr() string {
	return p.Addr + ":" + strconv.Itoa(p.Port)
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FromEnv loads configuration from OPENCLAW_* environment variables.
// Unset variables leave the current field value untouched.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("OPENCLAW_MODE", p.Mode)
	p.Addr = getEnvOrDefault("OPENCLAW_ADDR", p.Addr)
	if v := os.Getenv("OPENCLAW_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			p.Port = port
		} else {
			slog.Warn("ignoring invalid OPENCLAW_PORT", "value", v)
		}
	}

	p.CatalogPath = getEnvOrDefault("OPENCLAW_CATALOG_PATH", p.CatalogPath)
	if v := os.Getenv("OPENCLAW_WATCH_CATALOG"); v != "" {
		p.WatchCatalog = v == "true"
	}
	if v := os.Getenv("OPENCLAW_SKILL_DIRS"); v != "" {
		p.SkillDirs = splitList(v)
	}
	if v := os.Getenv("OPENCLAW_AVAILABLE_SKILLS"); v != "" {
		p.AvailableSkills = splitList(v)
	}

	if v := os.Getenv("OPENCLAW_SESSION_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.SessionCapacity = n
		} else {
			slog.Warn("ignoring invalid OPENCLAW_SESSION_CAPACITY", "value", v)
		}
	}
	if v := os.Getenv("OPENCLAW_SESSION_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			p.SessionIdleTimeout = d
		} else {
			slog.Warn("ignoring invalid OPENCLAW_SESSION_IDLE_TIMEOUT", "value", v)
		}
	}
	if v := os.Getenv("OPENCLAW_RATE_LIMIT"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			p.RateLimit = r
		} else {
			slog.Warn("ignoring invalid OPENCLAW_RATE_LIMIT", "value", v)
		}
	}

	p.LogLevel = getEnvOrDefault("OPENCLAW_LOG_LEVEL", p.LogLevel)
	p.LogFormat = getEnvOrDefault("OPENCLAW_LOG_FORMAT", p.LogFormat)
}

func checkCatalogDir(catalogPath string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	absPath, err := filepath.Abs(catalogPath)
	if err != nil {
		return "", errors.Wrapf(err, "unable to resolve catalog path %s", catalogPath)
	}

	dir := filepath.Dir(absPath)
	if _, err := os.Stat(dir); err != nil {
		return "", errors.Wrapf(err, "unable to access catalog folder %s", dir)
	}
	return absPath, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.SessionCapacity < 0 {
		return errors.Errorf("session capacity must not be negative, got %d", p.SessionCapacity)
	}
	if p.SessionIdleTimeout < 0 {
		return errors.Errorf("session idle timeout must not be negative, got %s", p.SessionIdleTimeout)
	}
	if p.RateLimit < 0 {
		return errors.Errorf("rate limit must not be negative, got %v", p.RateLimit)
	}

	if p.CatalogPath != "" {
		catalogPath, err := checkCatalogDir(p.CatalogPath)
		if err != nil {
			slog.Error("failed to check catalog path", slog.String("catalog", p.CatalogPath), slog.String("error", err.Error()))
			return err
		}
		p.CatalogPath = catalogPath
	}

	return nil
}
