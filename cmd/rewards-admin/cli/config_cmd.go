package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage console configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default rewards-admin.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

const defaultConfig = `# rewards-admin configuration

server:
  host: 0.0.0.0
  port: 8080
  shutdown_timeout: 30s
  cors_origins:
    - "*"
  login_rate_per_minute: 10

# Remote record store (opaque folder/filename blob API)
store:
  base_url: ""    # e.g. https://store.example.com/api/blob
  api_key: "${REWARDS_ADMIN_STORE_API_KEY}"
  admin_folder: adminpanel
  timeout: 15s

# Authentication
auth:
  jwt_secret: ""  # Set via REWARDS_ADMIN_AUTH_JWT_SECRET env var
  session_ttl: 1h
  password_scheme: bcrypt   # bcrypt or plain
  fallback_admin_codes: []

# Logging
logging:
  level: info    # debug, info, warn, error
  format: text   # text or json
`

func runConfigInit(force bool) error {
	const path = "rewards-admin.yaml"

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	cfg := loadSettings()
	out := cmd.OutOrStdout()

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", used)
	} else {
		fmt.Fprintf(out, "Config file: (none found, using defaults)\n\n")
	}

	fmt.Fprintf(out, "server:\n")
	fmt.Fprintf(out, "  host: %s\n", cfg.Server.Host)
	fmt.Fprintf(out, "  port: %d\n", cfg.Server.Port)
	fmt.Fprintf(out, "store:\n")
	fmt.Fprintf(out, "  base_url: %s\n", cfg.Store.BaseURL)
	fmt.Fprintf(out, "  admin_folder: %s\n", cfg.Store.AdminFolder)
	fmt.Fprintf(out, "  timeout: %s\n", cfg.Store.Timeout)
	fmt.Fprintf(out, "  api_key: %s\n", maskSecret(cfg.Store.APIKey))
	fmt.Fprintf(out, "auth:\n")
	fmt.Fprintf(out, "  jwt_secret: %s\n", maskSecret(cfg.Auth.JWTSecret))
	fmt.Fprintf(out, "  session_ttl: %s\n", cfg.Auth.SessionTTL)
	fmt.Fprintf(out, "  password_scheme: %s\n", cfg.Auth.PasswordScheme)
	fmt.Fprintf(out, "logging:\n")
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(out, "\nData directory: %s\n", resolveDataDir())
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
