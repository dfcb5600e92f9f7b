package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sagelink/internal/logging"
	"sagelink/internal/preflight"
	"sagelink/internal/services/sagex"
	"sagelink/internal/state"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showEntries bool
	var skipHealth bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show service health and the persisted library state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			fmt.Fprintf(out, "Target root: %s\n", cfg.Paths.TargetRoot)
			fmt.Fprintf(out, "Flat movies: %s\n\n", yesNo(cfg.Library.FlatMovies))

			if !skipHealth {
				fmt.Fprintln(out, "Health")
				client := sagex.NewFromConfig(cfg, logging.NewNop())
				for _, result := range preflight.RunAll(cmd.Context(), cfg, client) {
					fmt.Fprintln(out, renderCheck(result, colorize))
				}
				fmt.Fprintln(out)
			}

			store, err := state.Open(cmd.Context(), cfg.StatePath())
			if err != nil {
				if errors.Is(err, state.ErrLocked) {
					fmt.Fprintln(out, "State: locked by an active run")
					return nil
				}
				return fmt.Errorf("open state: %w", err)
			}
			defer store.Close()

			writeStateSummary(out, store, colorize)
			if showEntries {
				writeEntries(out, store, colorize)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showEntries, "entries", false, "List every processed entry")
	cmd.Flags().BoolVar(&skipHealth, "no-health", false, "Skip directory and service checks")
	return cmd
}

func writeStateSummary(out io.Writer, store *state.Store, colorize bool) {
	summary := store.Summary()
	rows := [][]string{
		{"Processed entries", strconv.Itoa(summary.Entries)},
		{"Collision-qualified entries", strconv.Itoa(summary.Collided)},
		{"Claimed names", strconv.Itoa(summary.ClaimedNames)},
		{"Contested names", strconv.Itoa(summary.ContestedNames)},
	}
	fmt.Fprintln(out, renderTable("State "+store.Path(), []column{left("Item"), right("Count")}, rows, colorize))

	contested := store.ContestedNames()
	if len(contested) == 0 {
		return
	}
	claims := make([][]string, 0, len(contested))
	for _, name := range contested {
		claims = append(claims, []string{name, strings.Join(store.Claimants(name), ", ")})
	}
	fmt.Fprintln(out, renderTable("Contested names", []column{left("Name"), left("Claimants")}, claims, colorize))
}

func writeEntries(out io.Writer, store *state.Store, colorize bool) {
	entries := store.Entries()
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.RecordID,
			entry.Filename,
			yesNo(entry.Collided),
			entry.LinkPath,
			entry.SourcePath,
		})
	}
	fmt.Fprintln(out, renderTable("Entries",
		[]column{left("Record"), left("Filename"), left("Collided"), left("Link"), left("Source")}, rows, colorize))
}
