package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sagelink/internal/logging"
	"sagelink/internal/notifications"
	"sagelink/internal/preflight"
	"sagelink/internal/reconcile"
	"sagelink/internal/services"
	"sagelink/internal/services/jellyfin"
	"sagelink/internal/services/sagex"
	"sagelink/internal/state"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the SageTV catalog and reconcile the library once",
		Long: `Fetch every media file from SageX, project each one into the library as a
symlink plus NFO descriptor, and remove entries whose catalog record is gone.

The exit status is zero whenever the pass completes, including when some
records are missing their source file. It is non-zero when the catalog cannot
be fetched, the state database cannot be loaded or saved, or another run
holds the lock.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				if limit < 0 {
					return fmt.Errorf("--limit must be >= 0")
				}
				cfg.Run.Limit = limit
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			runCtx := services.WithRunID(cmd.Context(), runID)
			logger = logging.WithContext(runCtx, logger)
			notifier := notifications.NewService(cfg)

			client := sagex.NewFromConfig(cfg, logger)
			checks := preflight.RunAll(runCtx, cfg, client)
			preflight.Log(logger, checks)
			if failed := preflight.Failed(checks); len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, r := range failed {
					names = append(names, fmt.Sprintf("%s: %s", r.Name, r.Detail))
				}
				return fmt.Errorf("preflight failed: %s", strings.Join(names, "; "))
			}

			store, err := state.Open(runCtx, cfg.StatePath())
			if err != nil {
				if errors.Is(err, state.ErrLocked) {
					return fmt.Errorf("another sagelink run is in progress (lock %s)", state.LockPath(cfg.StatePath()))
				}
				notifyFailure(runCtx, notifier, logger, err, "state load")
				return err
			}
			defer store.Close()

			records, err := client.FetchAll(runCtx)
			if err != nil {
				logging.CriticalWithContext(logger, "catalog fetch failed", "catalog_fetch_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check sagex.host, sagex.port and credentials"),
				)
				notifyFailure(runCtx, notifier, logger, err, "catalog fetch")
				return err
			}

			engine := reconcile.NewFromConfig(cfg, store, logger)
			report, err := engine.Run(runCtx, records)
			if err != nil {
				notifyFailure(runCtx, notifier, logger, err, "reconciliation")
				return err
			}

			if report.Changed() {
				refresher := jellyfin.NewConfiguredService(cfg)
				if refresher.Enabled() {
					if err := refresher.Refresh(runCtx); err != nil {
						logging.WarnWithContext(logger, "jellyfin refresh failed", "jellyfin_refresh_failed",
							logging.Error(err),
							logging.String(logging.FieldErrorHint, "trigger a library scan manually"),
						)
					} else {
						logger.Info("jellyfin refresh requested", logging.String(logging.FieldEventType, "jellyfin_refresh"))
					}
				}
			}

			if report.Changed() || report.Problems() > 0 {
				if err := notifier.NotifyRunCompleted(runCtx, summaryFor(report)); err != nil {
					logger.Warn("run notification failed", logging.Error(err))
				}
			}

			out := cmd.OutOrStdout()
			writeReport(out, runID, report, shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Process only the first N catalog records (0 = all)")
	return cmd
}

func summaryFor(report reconcile.Report) notifications.RunSummary {
	return notifications.RunSummary{
		Created:          report.Created,
		Updated:          report.Updated,
		Orphaned:         report.Orphaned,
		Missing:          report.Missing,
		Collisions:       report.Collisions,
		Failed:           report.Failed + report.Invalid,
		PermissionDenied: report.PermissionDenied,
		Duration:         report.Duration,
	}
}

func writeReport(out io.Writer, runID string, report reconcile.Report, colorize bool) {
	counts := []struct {
		label string
		value int
	}{
		{"Fetched", report.Fetched},
		{"Considered", report.Considered},
		{"Created", report.Created},
		{"Updated", report.Updated},
		{"Unchanged", report.Unchanged},
		{"Missing", report.Missing},
		{"Orphaned", report.Orphaned},
		{"Collisions", report.Collisions},
		{"Requalified", report.Requalified},
		{"Invalid", report.Invalid},
		{"Failed", report.Failed},
		{"Permission denied", report.PermissionDenied},
	}
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.label, strconv.Itoa(c.value)})
	}
	title := fmt.Sprintf("Run %s (%s)", runID, report.Duration.Round(time.Millisecond))
	fmt.Fprintln(out, renderTable(title, []column{left("Result"), right("Count")}, rows, colorize))

	if len(report.Failures) == 0 {
		return
	}
	failures := make([][]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, []string{f.RecordID, f.Outcome, f.Error})
	}
	fmt.Fprintln(out, renderTable("Records needing attention",
		[]column{left("Record"), left("Outcome"), left("Error")}, failures, colorize))
}
