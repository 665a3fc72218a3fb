package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/probelabs/probe-api/internal/model"
	"github.com/probelabs/probe-api/internal/monitoring"
	"github.com/probelabs/probe-api/internal/store"
)

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "Inspect scan records",
	Long:  "Commands for listing, viewing, and summarizing scan records, including scans stuck in processing.",
}

// -- scans list --

var scansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scan records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("cli"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		tier, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.ScanFilter{
			Status: model.ScanStatus(status),
			Tier:   model.ScanTier(tier),
			Limit:  limit,
		}

		scans, err := st.ListScans(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "scans list")
		}

		if len(scans) == 0 {
			fmt.Fprintln(os.Stderr, "No scans found.")
			return nil
		}

		formatScansList(os.Stdout, scans)
		return nil
	},
}

// -- scans show --

var scansShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show full details of a scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cli"); err != nil {
			return err
		}
		ctx := cmd.Context()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return eris.Wrapf(err, "invalid scan id %q", args[0])
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		sc, err := st.GetScan(ctx, id)
		if err != nil {
			return eris.Wrap(err, "scans show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sc)
	},
}

// -- scans stats --

var scansStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate scan statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("cli"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		lookback, _ := cmd.Flags().GetInt("lookback-hours")

		snap, err := monitoring.NewCollector(st).Collect(ctx, lookback)
		if err != nil {
			return eris.Wrap(err, "scans stats")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func formatScansList(w io.Writer, scans []model.Scan) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBUSINESS\tWEBSITE\tTYPE\tSTATUS\tCREATED\tCOMPLETED")
	for _, sc := range scans {
		completed := "-"
		if sc.CompletedAt != nil {
			completed = sc.CompletedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			sc.ID,
			sc.BusinessName,
			sc.Website,
			sc.Tier,
			sc.Status,
			sc.CreatedAt.UTC().Format(time.RFC3339),
			completed,
		)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	scansListCmd.Flags().String("status", "", "filter by status (pending|processing|completed|failed)")
	scansListCmd.Flags().String("type", "", "filter by scan type (free|deep)")
	scansListCmd.Flags().Int("limit", 50, "maximum records to list")
	scansStatsCmd.Flags().Int("lookback-hours", 24, "lookback window in hours")

	scansCmd.AddCommand(scansListCmd, scansShowCmd, scansStatsCmd)
	rootCmd.AddCommand(scansCmd)
}
