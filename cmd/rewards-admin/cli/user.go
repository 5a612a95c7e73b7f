package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MustakimRidoyMR/rewards-admin/internal/editor"
	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Look up and edit user records",
		Long:  "Fetch user reward records from the record store and apply edits. Coins and earnings can only be decreased.",
	}

	cmd.AddCommand(newUserGetCmd())
	cmd.AddCommand(newUserEditCmd())

	return cmd
}

// ---------- user get ----------

func newUserGetCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get <email>",
		Short: "Fetch a user record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserGet(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runUserGet(cmd *cobra.Command, email string, jsonOutput bool) error {
	c, err := newCore(false)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	if err := c.restoreSession(ctx); err != nil {
		return err
	}

	rec, err := c.editor.FindUser(ctx, email)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec.Sanitized())
	}

	printUser(cmd, rec)
	return nil
}

func printUser(cmd *cobra.Command, rec *model.UserRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", rec.Email)
	fmt.Fprintf(out, "  Name:       %s\n", rec.Name)
	if rec.Phone != "" {
		fmt.Fprintf(out, "  Phone:      %s\n", rec.Phone)
	}
	fmt.Fprintf(out, "  Coins:      %d\n", rec.Coins)
	fmt.Fprintf(out, "  Diamonds:   %d\n", rec.Diamonds)
	fmt.Fprintf(out, "  Earnings:   %s\n", rec.Earnings.StringFixed(2))
	fmt.Fprintf(out, "  Streak:     %d\n", rec.Streak)
	fmt.Fprintf(out, "  Active:     %t\n", rec.IsActive)
	if rec.PreferredLanguage != "" {
		fmt.Fprintf(out, "  Language:   %s\n", rec.PreferredLanguage)
	}
	fmt.Fprintf(out, "  Unlocked:   games %t, videos %t\n", rec.DailyUnlockedGames, rec.DailyUnlockedVideos)
	if !rec.LastUpdated.IsZero() {
		fmt.Fprintf(out, "  Updated:    %s by %s\n", rec.LastUpdated.Format("2006-01-02 15:04:05"), rec.LastUpdatedBy)
	}
}

// ---------- user edit ----------

func newUserEditCmd() *cobra.Command {
	var (
		coins    string
		diamonds string
		earnings string
		streak   string
		active   string
		language string
		games    string
		videos   string
	)

	cmd := &cobra.Command{
		Use:   "edit <email>",
		Short: "Edit a user record",
		Long:  "Apply field edits to a user record. Increasing coins or earnings is rejected.",
		Example: `  rewards-admin user edit john@example.com --coins 1000
  rewards-admin user edit john@example.com --earnings 10.00 --active false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := model.EditablePatch{}

			// Flag values arrive as text; out-of-format input degrades
			// to zero rather than failing the parse. Domain validation
			// happens in ProposeEdit.
			if cmd.Flags().Changed("coins") {
				v := editor.CoerceInt(coins)
				patch.Coins = &v
			}
			if cmd.Flags().Changed("diamonds") {
				v := editor.CoerceInt(diamonds)
				patch.Diamonds = &v
			}
			if cmd.Flags().Changed("earnings") {
				v := editor.CoerceDecimal(earnings)
				patch.Earnings = &v
			}
			if cmd.Flags().Changed("streak") {
				v := editor.CoerceInt(streak)
				patch.Streak = &v
			}
			if cmd.Flags().Changed("active") {
				v := editor.CoerceBool(active)
				patch.IsActive = &v
			}
			if cmd.Flags().Changed("language") {
				v := strings.TrimSpace(language)
				patch.PreferredLanguage = &v
			}
			if cmd.Flags().Changed("games") {
				v := editor.CoerceBool(games)
				patch.DailyUnlockedGames = &v
			}
			if cmd.Flags().Changed("videos") {
				v := editor.CoerceBool(videos)
				patch.DailyUnlockedVideos = &v
			}

			return runUserEdit(cmd, args[0], patch)
		},
	}

	cmd.Flags().StringVar(&coins, "coins", "", "New coin balance (decrease only)")
	cmd.Flags().StringVar(&diamonds, "diamonds", "", "New diamond balance")
	cmd.Flags().StringVar(&earnings, "earnings", "", "New earnings amount (decrease only)")
	cmd.Flags().StringVar(&streak, "streak", "", "New streak count")
	cmd.Flags().StringVar(&active, "active", "", "Account active flag (true/false)")
	cmd.Flags().StringVar(&language, "language", "", "Preferred language (en, bn, hi)")
	cmd.Flags().StringVar(&games, "games", "", "Daily games unlocked flag (true/false)")
	cmd.Flags().StringVar(&videos, "videos", "", "Daily videos unlocked flag (true/false)")

	return cmd
}

func runUserEdit(cmd *cobra.Command, email string, patch model.EditablePatch) error {
	if patch.IsZero() {
		return fmt.Errorf("nothing to edit: pass at least one field flag")
	}

	c, err := newCore(false)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	if err := c.restoreSession(ctx); err != nil {
		return err
	}
	if err := c.audit.Load(ctx); err != nil {
		c.logger.Debug("no action log snapshot", "error", err)
	}
	admin := c.sessions.Current()

	sess := c.editor.NewSession()
	original, err := sess.Load(ctx, email)
	if err != nil {
		return err
	}

	merged, err := sess.Propose(patch, admin.Email)
	if err != nil {
		return err
	}

	if err := sess.Save(ctx); err != nil {
		return fmt.Errorf("save failed, changes were not confirmed: %w", err)
	}

	c.audit.Append(ctx, admin.DisplayName, admin.Email, "User Updated",
		email+": "+editSummary(original, merged))

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", email)
	printUser(cmd, merged)
	return nil
}

// editSummary renders the changed fields as "coins 1250 -> 1000" pairs.
func editSummary(before, after *model.UserRecord) string {
	var parts []string
	if before.Coins != after.Coins {
		parts = append(parts, fmt.Sprintf("coins %d -> %d", before.Coins, after.Coins))
	}
	if before.Diamonds != after.Diamonds {
		parts = append(parts, fmt.Sprintf("diamonds %d -> %d", before.Diamonds, after.Diamonds))
	}
	if !before.Earnings.Equal(after.Earnings) {
		parts = append(parts, fmt.Sprintf("earnings %s -> %s", before.Earnings, after.Earnings))
	}
	if before.Streak != after.Streak {
		parts = append(parts, fmt.Sprintf("streak %d -> %d", before.Streak, after.Streak))
	}
	if before.IsActive != after.IsActive {
		parts = append(parts, fmt.Sprintf("active %t -> %t", before.IsActive, after.IsActive))
	}
	if before.PreferredLanguage != after.PreferredLanguage {
		parts = append(parts, fmt.Sprintf("language %s -> %s", before.PreferredLanguage, after.PreferredLanguage))
	}
	if before.DailyUnlockedGames != after.DailyUnlockedGames {
		parts = append(parts, fmt.Sprintf("games %t -> %t", before.DailyUnlockedGames, after.DailyUnlockedGames))
	}
	if before.DailyUnlockedVideos != after.DailyUnlockedVideos {
		parts = append(parts, fmt.Sprintf("videos %t -> %t", before.DailyUnlockedVideos, after.DailyUnlockedVideos))
	}
	if len(parts) == 0 {
		return "no field changes"
	}
	return strings.Join(parts, ", ")
}
