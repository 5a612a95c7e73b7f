package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLogsCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the admin action log",
		Long:  "Show the retained admin action log entries, newest first. At most 50 entries are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of entries to show")

	return cmd
}

func runLogs(cmd *cobra.Command, jsonOutput bool, limit int) error {
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
		return fmt.Errorf("load action log: %w", err)
	}

	entries := c.audit.Entries()
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No action log entries.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tADMIN\tACTION\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.AdminEmail, e.Action, e.Details)
	}
	return w.Flush()
}
