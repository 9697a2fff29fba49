package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/pinwall/internal/gateway"
)

// Config holds everything pinwall needs to reach the pinning service and
// render gateway links.
type Config struct {
	APIURL         string
	SessionPath    string
	LogoutPath     string
	PinsPath       string
	SessionCookie  string
	Gateways       []string
	Placeholder    string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	LogDir         string
}

const (
	defaultConfigPath     = "~/.config/pinwall/config.toml"
	defaultLogDir         = "~/.local/share/pinwall/logs"
	defaultAPIURL         = "http://127.0.0.1:3000"
	defaultSessionPath    = "/api/session"
	defaultLogoutPath     = "/api/logout"
	defaultPinsPath       = "/api/pinata"
	defaultPlaceholder    = gateway.DefaultPlaceholder
	defaultRequestTimeout = 30 * time.Second
	defaultPollInterval   = 15 * time.Second

	// CookieEnv overrides session_cookie so the secret can stay out of the file.
	CookieEnv = "PINWALL_SESSION_COOKIE"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		SessionPath:    defaultSessionPath,
		LogoutPath:     defaultLogoutPath,
		PinsPath:       defaultPinsPath,
		SessionCookie:  strings.TrimSpace(os.Getenv(CookieEnv)),
		Gateways:       append([]string(nil), gateway.DefaultHosts...),
		Placeholder:    defaultPlaceholder,
		RequestTimeout: defaultRequestTimeout,
		PollInterval:   defaultPollInterval,
		LogDir:         mustExpand(defaultLogDir),
	}
}

// Load locates and parses the pinwall config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL                string   `toml:"api_url"`
		SessionPath           string   `toml:"session_path"`
		LogoutPath            string   `toml:"logout_path"`
		PinsPath              string   `toml:"pins_path"`
		SessionCookie         string   `toml:"session_cookie"`
		Gateways              []string `toml:"gateways"`
		Placeholder           string   `toml:"placeholder"`
		RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
		PollSeconds           int      `toml:"poll_seconds"`
		LogDir                string   `toml:"log_dir"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIURL = orDefault(raw.APIURL, defaultAPIURL)
	cfg.SessionPath = orDefault(raw.SessionPath, defaultSessionPath)
	cfg.LogoutPath = orDefault(raw.LogoutPath, defaultLogoutPath)
	cfg.PinsPath = orDefault(raw.PinsPath, defaultPinsPath)
	cfg.Placeholder = orDefault(raw.Placeholder, defaultPlaceholder)
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = strings.TrimSpace(raw.SessionCookie)
	}

	if gateways := trimAll(raw.Gateways); len(gateways) > 0 {
		if err := checkGateways(gateways); err != nil {
			return Config{}, err
		}
		cfg.Gateways = gateways
	}
	if raw.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeoutSeconds) * time.Second
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}

	cfg.LogDir = mustExpand(orDefault(raw.LogDir, defaultLogDir))

	return cfg, nil
}

// LogPath returns the path of pinwall's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/pinwall.log")
	}
	return filepath.Join(c.LogDir, "pinwall.log")
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// checkGateways rejects entries that name the same host, since gateway
// attempt k must be the k-th configured entry.
func checkGateways(gateways []string) error {
	seen := make(map[string]int, len(gateways))
	for i, g := range gateways {
		host := gateway.NormalizeHost(g)
		if host == "" {
			return fmt.Errorf("gateways[%d]: %q has no host", i, g)
		}
		if j, dup := seen[host]; dup {
			return fmt.Errorf("gateways[%d]: %q repeats gateways[%d] (%s)", i, g, j, host)
		}
		seen[host] = i
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
