// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cris-reconcile/internal/ledger"
)

// Output formats for history.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past reconciliation runs from the ledger",
	Long: `Lists runs recorded in the SQLite ledger (ledger.path), newest first.
With --run, lists the per-record outcomes of one run instead.

The format defaults to a table on a terminal and JSON otherwise.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 = all)")
	historyCmd.Flags().String("format", "", "output format: table, json or yaml")
	historyCmd.Flags().String("run", "", "show the outcomes of this run ID")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("ledger.path")
	if path == "" {
		return errors.New("ledger.path is not configured")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening ledger %s: %w", path, err)
	}

	explicit, _ := cmd.Flags().GetString("format")
	format, err := resolveFormat(explicit, isTerminal(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")

	store, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	if runID != "" {
		outcomes, err := store.Outcomes(cmd.Context(), runID)
		if err != nil {
			return err
		}
		return writeOutcomes(w, format, outcomes)
	}

	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return writeRuns(w, format, runs)
}

// resolveFormat validates an explicit format or picks one from the terminal
// state.
func resolveFormat(explicit string, terminal bool) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(explicit)); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "":
		if terminal {
			return formatTable, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or yaml)", explicit)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func writeRuns(w io.Writer, format string, runs []ledger.Run) error {
	switch format {
	case formatJSON:
		return writeJSON(w, runs)
	case formatYAML:
		return writeYAML(w, runs)
	}

	headers := []string{"Run", "Started", "Status", "Offset", "Pages", "Checked", "DOI", "PMID", "Title", "No Match", "Rows", "Errors"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			strconv.Itoa(r.StartOffset),
			strconv.Itoa(r.Stats.Pages),
			strconv.Itoa(r.Stats.Checked),
			strconv.Itoa(r.Stats.MatchedDOI),
			strconv.Itoa(r.Stats.MatchedPMID),
			strconv.Itoa(r.Stats.MatchedTitle),
			strconv.Itoa(r.Stats.Unmatched),
			strconv.Itoa(r.Stats.Rows),
			strconv.Itoa(r.Stats.StrategyErrors + r.Stats.EnrichmentErrors),
		})
	}
	return writeTable(w, headers, rows)
}

func writeOutcomes(w io.Writer, format string, outcomes []ledger.Outcome) error {
	switch format {
	case formatJSON:
		return writeJSON(w, outcomes)
	case formatYAML:
		return writeYAML(w, outcomes)
	}

	headers := []string{"Source", "Tag", "Target", "Attempts"}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		attempts := make([]string, 0, len(o.Attempts))
		for _, a := range o.Attempts {
			s := fmt.Sprintf("%s=%d", a.Strategy, a.Count)
			if a.Err != "" {
				s = string(a.Strategy) + "=error"
			}
			attempts = append(attempts, s)
		}
		rows = append(rows, []string{o.SourceID, string(o.Tag), o.TargetID, strings.Join(attempts, " ")})
	}
	return writeTable(w, headers, rows)
}

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w)

	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	table.Header(hdr...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
