package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	var (
		email     string
		password  string
		adminCode string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate as an admin",
		Long:  "Authenticate against the record store and keep the session for later commands. Sessions expire after the configured TTL (1 hour by default).",
		Example: `  rewards-admin login --email admin@example.com --code RWRD-ADMIN-2025
  rewards-admin login   # prompts for everything`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, email, password, adminCode)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&adminCode, "code", "", "Admin access code (prompted if omitted)")

	return cmd
}

func runLogin(cmd *cobra.Command, email, password, adminCode string) error {
	reader := bufio.NewReader(cmd.InOrStdin())

	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if adminCode == "" {
		fmt.Print("Admin code: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read admin code: %w", err)
		}
		adminCode = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)
	}

	c, err := newCore(false)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	c.sessions.LoadAllowlist(ctx)
	if err := c.audit.Load(ctx); err != nil {
		c.logger.Debug("no action log snapshot", "error", err)
	}

	principal, err := c.sessions.Authenticate(ctx, email, password, adminCode)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", principal.DisplayName, principal.Email)
	fmt.Printf("  Session valid for %s\n", c.sessions.TTL())
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCore(false)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			// Restore first so the logout audit entry carries the admin
			// identity; a missing session is still a clean logout.
			if _, ok := c.sessions.Restore(ctx); ok {
				if err := c.audit.Load(ctx); err != nil {
					c.logger.Debug("no action log snapshot", "error", err)
				}
			}
			if err := c.sessions.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCore(false)
			if err != nil {
				return err
			}
			defer c.Close()

			p, ok := c.sessions.Restore(cmd.Context())
			if !ok {
				fmt.Println("Not logged in.")
				return nil
			}

			expires := p.SessionIssuedAt.Add(c.sessions.TTL())
			fmt.Printf("Logged in as %s (%s)\n", p.DisplayName, p.Email)
			fmt.Printf("  Admin code:  %s\n", p.AdminCode)
			fmt.Printf("  Permissions: %s\n", strings.Join(p.Permissions, ", "))
			fmt.Printf("  Expires:     %s\n", expires.Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
