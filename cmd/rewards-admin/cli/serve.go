package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MustakimRidoyMR/rewards-admin/internal/config"
	"github.com/MustakimRidoyMR/rewards-admin/internal/server"
	"github.com/MustakimRidoyMR/rewards-admin/internal/service"
)

const banner = `
 ___ _____      ___   ___ ___  ___     _   ___  __  __ ___ _  _
| _ \ __\ \    / /_\ | _ \   \/ __|   /_\ |   \|  \/  |_ _| \| |
|   / _| \ \/\/ / _ \|   / |) \__ \  / _ \| |) | |\/| || || .` + "`" + ` |
|_|_\___| \_/\_/_/ \_\_|_\___/|___/ /_/ \_\___/|_|  |_|___|_|\_|
`

func newServeCmd() *cobra.Command {
	var (
		port   int
		host   string
		dev    bool
		daemon bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin console API server",
		Long:  "Start the HTTP server that exposes the session, user lookup/edit, and action log endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if daemon {
				return runServeDaemon()
			}
			// viper resolves flag > env > config file for host/port.
			return runServe(viper.GetString("server.host"), viper.GetInt("server.port"), dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")
	cmd.Flags().BoolVarP(&daemon, "daemon", "d", false, "Run in the background, logging to the data directory")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	c, err := newCore(dev)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := context.Background()

	// Pull the allowlist and today's action-log snapshot before accepting
	// requests. Both degrade gracefully when the store is unreachable.
	c.sessions.LoadAllowlist(ctx)
	if err := c.audit.Load(ctx); err != nil {
		c.logger.Warn("failed to load action log snapshot", "error", err)
	}

	jwtSecret := c.cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "rewards-admin-dev-secret-change-me"
		c.logger.Warn("auth.jwt_secret not set, using development default")
	}
	tokens := service.NewTokenService(jwtSecret)

	srvCfg := server.DefaultConfig()
	srvCfg.Host = host
	srvCfg.Port = port
	srvCfg.ShutdownTimeout = config.ParseDuration(c.cfg.Server.ShutdownTimeout, 30*time.Second)
	if len(c.cfg.Server.CORSOrigins) > 0 {
		srvCfg.CORSOrigins = c.cfg.Server.CORSOrigins
	}
	if c.cfg.Server.LoginRatePerMin > 0 {
		srvCfg.LoginRatePerMin = c.cfg.Server.LoginRatePerMin
	}

	srv := server.New(srvCfg, c.store, c.sessions, c.editor, c.audit, tokens, c.logger)

	if err := writePID(os.Getpid()); err != nil {
		c.logger.Warn("failed to write PID file", "error", err)
	}
	defer removePID()

	fmt.Printf("-> rewards-admin %s\n", versionString())
	fmt.Printf("-> Listening on http://%s:%d\n", host, port)
	fmt.Printf("-> Health:  http://%s:%d/healthz\n", host, port)
	fmt.Printf("-> Session: http://%s:%d/api/v1/session\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}

// runServeDaemon re-executes the current binary in the background, detached
// from the terminal, with output redirected to the data-directory log file.
func runServeDaemon() error {
	if pid, err := readPID(); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	if err := os.MkdirAll(resolveDataDir(), 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	args := []string{"serve"}
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	if dataDir != "" {
		args = append(args, "--data-dir", dataDir)
	}
	args = append(args, "--host", viper.GetString("server.host"),
		"--port", fmt.Sprint(viper.GetInt("server.port")))

	child := exec.Command(os.Args[0], args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setSysProcAttr(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start background server: %w", err)
	}

	fmt.Printf("Server started in the background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  Logs: %s\n", logFilePath())
	return nil
}
