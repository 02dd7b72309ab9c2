// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cris-reconcile/internal/cris"
	"github.com/pdiddy/cris-reconcile/internal/emit"
	"github.com/pdiddy/cris-reconcile/internal/enrich"
	"github.com/pdiddy/cris-reconcile/internal/httputil"
	"github.com/pdiddy/cris-reconcile/internal/ledger"
	"github.com/pdiddy/cris-reconcile/internal/match"
	"github.com/pdiddy/cris-reconcile/internal/observability"
	"github.com/pdiddy/cris-reconcile/internal/openalex"
	"github.com/pdiddy/cris-reconcile/internal/reconcile"
	"github.com/pdiddy/cris-reconcile/pkg/types"
)

const metricsNamespace = "cris_reconcile"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile CRIS publications against OpenAlex",
	Long: `Pages through the CRIS publications selected by start year and publication
type, matches each record against OpenAlex and appends one TSV row per match
(or one NO MATCH row) to the output file.

Use --start-offset to resume an interrupted run at the offset printed in the
log. Use --dry-run to write rows to stdout instead of the output file.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("start-offset", 0, "result offset to start from")
	runCmd.Flags().Int("page-size", cris.DefaultPageSize, "records requested per page")
	runCmd.Flags().Int("start-year", 0, "earliest publication year to select")
	runCmd.Flags().Int("max-pages", 1000, "maximum number of pages to fetch (0 = unlimited)")
	runCmd.Flags().StringP("output", "o", "oa_matches.tsv", "TSV output file")
	runCmd.Flags().Bool("dry-run", false, "write rows to stdout and skip the ledger")

	_ = viper.BindPFlag("cris.start_offset", runCmd.Flags().Lookup("start-offset"))
	_ = viper.BindPFlag("cris.page_size", runCmd.Flags().Lookup("page-size"))
	_ = viper.BindPFlag("cris.start_year", runCmd.Flags().Lookup("start-year"))
	_ = viper.BindPFlag("cris.max_pages", runCmd.Flags().Lookup("max-pages"))
	_ = viper.BindPFlag("output.path", runCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig(viper.GetViper(), dryRun)
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var out io.Writer
	if dryRun {
		out = cmd.OutOrStdout()
	}
	stats, err := reconcileRun(ctx, cfg, logger, out, http.DefaultTransport)
	if err != nil {
		if stats.Pages > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Run stopped after %d records; resume with --start-offset %d\n",
				stats.Checked, resumeOffset(cfg.CRIS.StartOffset, stats))
		}
		return err
	}
	return nil
}

// resumeOffset is the offset of the first record without a complete set of
// rows. The driver counts a record only after all its rows are written.
func resumeOffset(startOffset int, stats types.RunStats) int {
	return startOffset + stats.Checked
}

// pipeline is one fully wired run.
type pipeline struct {
	driver  *reconcile.Driver
	sink    emit.Sink
	store   *ledger.Store
	metrics *observability.Metrics
}

// newPipeline wires the registry clients, cascade, enrichment and sink for
// cfg. A non-nil out replaces the output file and disables the ledger.
func newPipeline(cfg types.Config, logger zerolog.Logger, out io.Writer, transport http.RoundTripper) (*pipeline, error) {
	hc := &http.Client{Timeout: cfg.HTTP.Timeout, Transport: transport}
	ua := cfg.HTTP.UserAgent

	source := cris.NewClient(cfg.CRIS, httputil.NewClient("CRIS", hc, ua, cfg.CRIS.RateLimit))
	target := openalex.NewClient(cfg.OpenAlex, httputil.NewClient("OpenAlex", hc, ua, cfg.OpenAlex.RateLimit))

	var citations enrich.CitationSource
	if cfg.Scopus.Enabled() {
		citations = enrich.NewScopusClient(cfg.Scopus, httputil.NewClient("Scopus", hc, ua, cfg.Scopus.RateLimit))
	} else {
		logger.Info().Msg("no Scopus API key configured, Scopus citation counts disabled")
	}
	var scores enrich.ScoreSource
	if cfg.BIP.Enabled {
		scores = enrich.NewBIPClient(cfg.BIP, httputil.NewClient("BIP", hc, ua, cfg.BIP.RateLimit))
	}

	p := &pipeline{metrics: observability.NewMetrics(metricsNamespace)}
	if out != nil {
		p.sink = emit.NewWriterSink(out)
	} else {
		p.sink = emit.NewFileSink(cfg.Output.Path, cfg.Output.Header)
		if cfg.Ledger.Path != "" {
			store, err := ledger.Open(cfg.Ledger.Path)
			if err != nil {
				return nil, err
			}
			p.store = store
		}
	}

	p.driver = &reconcile.Driver{
		Pages:             cris.NewPaginator(source, cfg.CRIS.StartOffset, cfg.CRIS.PageSize),
		Matcher:           match.NewCascade(logger, match.DefaultStrategies(target)...),
		Sink:              p.sink,
		Enricher:          enrich.NewResolver(logger, citations, scores),
		HomeInstitutionID: cfg.Match.HomeInstitutionID,
		RecordDelay:       cfg.Pacing.RecordDelay,
		PageDelay:         cfg.Pacing.PageDelay,
		MaxPages:          cfg.CRIS.MaxPages,
		Logger:            logger,
		Metrics:           p.metrics,
	}
	if p.store != nil {
		p.driver.Recorder = p.store
	}
	return p, nil
}

// reconcileRun performs one run and finalizes the ledger and metrics. The
// returned stats are valid even when err is non-nil.
func reconcileRun(ctx context.Context, cfg types.Config, logger zerolog.Logger, out io.Writer, transport http.RoundTripper) (types.RunStats, error) {
	p, err := newPipeline(cfg, logger, out, transport)
	if err != nil {
		return types.RunStats{}, err
	}
	if p.store != nil {
		defer p.store.Close()
	}

	runID := uuid.NewString()
	runLogger := observability.WithRunContext(logger, runID)

	if err := p.sink.WriteHeader(); err != nil {
		return types.RunStats{RunID: runID}, fmt.Errorf("writing header: %w", err)
	}

	if p.store != nil {
		if err := p.store.StartRun(ctx, runID, cfg.CRIS.StartOffset); err != nil {
			runLogger.Warn().Err(err).Msg("starting ledger run")
			p.driver.Recorder = nil
		}
	}

	runLogger.Info().
		Int("start_year", cfg.CRIS.StartYear).
		Int("start_offset", cfg.CRIS.StartOffset).
		Int("page_size", cfg.CRIS.PageSize).
		Msg("reconciliation started")

	start := time.Now()
	stats, runErr := p.driver.Run(ctx, runID)

	// The run context may already be cancelled; finalize on a fresh one.
	finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if p.store != nil && p.driver.Recorder != nil {
		if err := p.store.FinishRun(finishCtx, stats, runErr); err != nil {
			runLogger.Warn().Err(err).Msg("finishing ledger run")
		}
	}
	if cfg.Metrics.Textfile != "" {
		if err := p.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			runLogger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("writing metrics textfile")
		}
	}

	event := runLogger.Info()
	if runErr != nil {
		event = runLogger.Error().Err(runErr)
		if errors.Is(runErr, context.Canceled) {
			event = runLogger.Warn().Err(runErr)
		}
	}
	event.
		Int("pages", stats.Pages).
		Int("checked", stats.Checked).
		Int("matched_doi", stats.MatchedDOI).
		Int("matched_pmid", stats.MatchedPMID).
		Int("matched_title", stats.MatchedTitle).
		Int("unmatched", stats.Unmatched).
		Int("rows", stats.Rows).
		Int("strategy_errors", stats.StrategyErrors).
		Int("enrichment_errors", stats.EnrichmentErrors).
		Dur("elapsed", time.Since(start)).
		Msg("reconciliation finished")

	return stats, runErr
}
