package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/MustakimRidoyMR/rewards-admin/internal/auditlog"
	"github.com/MustakimRidoyMR/rewards-admin/internal/config"
	"github.com/MustakimRidoyMR/rewards-admin/internal/editor"
	"github.com/MustakimRidoyMR/rewards-admin/internal/localstate"
	"github.com/MustakimRidoyMR/rewards-admin/internal/recordstore"
	"github.com/MustakimRidoyMR/rewards-admin/internal/session"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

const defaultAdminFolder = "adminpanel"

// resolveDataDir returns the data directory from --data-dir flag,
// REWARDS_ADMIN_DATA_DIR env var, or ~/.rewards-admin as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("REWARDS_ADMIN_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.rewards-admin"
}

// loadSettings resolves the effective configuration: the YAML file (when one
// was found), then per-key env/flag overrides through viper, then defaults.
func loadSettings() *config.FileConfig {
	cfg := &config.FileConfig{}

	path := cfgFile
	if path == "" {
		path = viper.ConfigFileUsed()
	}
	if path != "" {
		if loaded, err := config.Load(path); err == nil {
			cfg = loaded
		}
	}

	if v := viper.GetString("store.base_url"); v != "" {
		cfg.Store.BaseURL = v
	}
	if v := viper.GetString("store.api_key"); v != "" {
		cfg.Store.APIKey = v
	}
	if v := viper.GetString("store.admin_folder"); v != "" {
		cfg.Store.AdminFolder = v
	}
	if v := viper.GetString("auth.jwt_secret"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := viper.GetString("auth.password_scheme"); v != "" {
		cfg.Auth.PasswordScheme = v
	}

	if cfg.Store.AdminFolder == "" {
		cfg.Store.AdminFolder = defaultAdminFolder
	}
	return cfg
}

// newLogger builds the console logger from the logging section.
func newLogger(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// core bundles the wired domain components shared by every command.
type core struct {
	cfg      *config.FileConfig
	logger   *slog.Logger
	store    *recordstore.Client
	state    *localstate.Store
	sessions *session.Manager
	editor   *editor.Editor
	audit    *auditlog.Log
}

func (c *core) Close() {
	if c.state != nil {
		c.state.Close()
	}
}

// newCore wires the record store client, local state, session manager,
// action log, and editor from the effective configuration.
func newCore(verbose bool) (*core, error) {
	cfg := loadSettings()
	logger := newLogger(cfg.Logging, verbose)

	if cfg.Store.BaseURL == "" {
		return nil, fmt.Errorf("record store base URL is not configured (set store.base_url or REWARDS_ADMIN_STORE_BASE_URL)")
	}

	timeout := config.ParseDuration(cfg.Store.Timeout, recordstore.DefaultTimeout)
	store := recordstore.New(cfg.Store.BaseURL, cfg.Store.APIKey, timeout, logger)

	state, err := localstate.NewStore(resolveDataDir())
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}

	audit := auditlog.New(store, cfg.Store.AdminFolder, logger)

	ttl := config.ParseDuration(cfg.Auth.SessionTTL, 0)
	verifier := session.NewVerifier(cfg.Auth.PasswordScheme)
	sessions := session.NewManager(store, state, verifier, audit, cfg.Store.AdminFolder, ttl, logger)
	sessions.SetFallbackCodes(cfg.Auth.FallbackCodes)

	return &core{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		state:    state,
		sessions: sessions,
		editor:   editor.New(store, logger),
		audit:    audit,
	}, nil
}

// restoreSession loads the durable session and fails with a login hint when
// none is valid.
func (c *core) restoreSession(ctx context.Context) error {
	if _, ok := c.sessions.Restore(ctx); !ok {
		return fmt.Errorf("not logged in (or session expired) - run: rewards-admin login")
	}
	return nil
}

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "rewards-admin.pid")
}

func writePID(pid int) error {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

func logFilePath() string {
	return filepath.Join(resolveDataDir(), "rewards-admin.log")
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
