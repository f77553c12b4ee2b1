package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/courier/pkg/cli"
	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/evidence"
	"mercator-hq/courier/pkg/evidence/export"
	"mercator-hq/courier/pkg/evidence/query"
	"mercator-hq/courier/pkg/evidence/retention"
	"mercator-hq/courier/pkg/evidence/storage"
	"mercator-hq/courier/pkg/evidence/watch"
)

// evidenceOptions holds the flags shared by the evidence subcommands.
type evidenceOptions struct {
	db string
}

type evidenceQueryOptions struct {
	timeRange string
	since     time.Duration
	provider  string
	model     string
	status    string
	requestID string
	minCost   float64
	minTokens int
	limit     int
	offset    int
	sortBy    string
	sortOrder string
	format    string
	output    string
}

func newEvidenceCmd(g *globalOptions) *cobra.Command {
	o := &evidenceOptions{}

	cmd := &cobra.Command{
		Use:   "evidence",
		Short: "Inspect recorded chat exchanges",
		Long: `Query, export and prune the evidence records written by "courier chat --record".

Subcommands:
  query   - List records with filters, or export them as JSON or CSV
  show    - Print one record as JSON
  report  - Summarize requests, tokens and cost
  tail    - Print exchanges as they are recorded
  prune   - Delete records by age or count

Examples:
  # Last hour of failures
  courier evidence query --since 1h --status error

  # Export everything to CSV
  courier evidence query --limit 10000 --format csv --output exchanges.csv`,
	}

	cmd.PersistentFlags().StringVar(&o.db, "db", "", "evidence database path (default from config)")

	cmd.AddCommand(
		newEvidenceQueryCmd(g, o),
		newEvidenceShowCmd(g, o),
		newEvidenceReportCmd(g, o),
		newEvidenceTailCmd(g, o),
		newEvidencePruneCmd(g, o),
	)

	return cmd
}

// path returns the database named by --db or the configuration.
func (o *evidenceOptions) path(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("db") {
		return o.db
	}
	return cfg.Evidence.Path
}

// open opens the evidence store named by --db or the configuration.
func (o *evidenceOptions) open(cmd *cobra.Command, cfg *config.Config) (evidence.Storage, error) {
	evCfg := cfg.Evidence
	evCfg.Path = o.path(cmd, cfg)
	if evCfg.Path == "" {
		return nil, cli.NewConfigError("evidence.path", "no evidence database configured")
	}
	if evCfg.Path != storage.MemoryPath {
		if _, err := os.Stat(evCfg.Path); errors.Is(err, os.ErrNotExist) {
			return nil, cli.NewCommandError("evidence", fmt.Errorf("evidence database %s does not exist", evCfg.Path))
		}
	}

	store, err := storage.Open(evCfg)
	if err != nil {
		return nil, cli.NewCommandError("evidence", err)
	}
	return store, nil
}

func newEvidenceQueryCmd(g *globalOptions, eo *evidenceOptions) *cobra.Command {
	o := &evidenceQueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query evidence records",
		Long: `Query evidence records with filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-01-19T00:00:00Z/2026-01-20T00:00:00Z"

Examples:
  courier evidence query --model gpt-3.5-turbo --limit 5
  courier evidence query --time-range "2026-01-19T00:00:00Z/2026-01-20T00:00:00Z"
  courier evidence query --min-cost 0.01 --sort cost
  courier evidence query --format json --output evidence.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvidenceQuery(cmd, g, eo, o)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&o.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	fs.DurationVar(&o.since, "since", 0, "only records from this long ago until now")
	fs.StringVar(&o.provider, "provider", "", "filter by provider")
	fs.StringVar(&o.model, "model", "", "filter by requested model")
	fs.StringVar(&o.status, "status", "", "filter by status: success, error")
	fs.StringVar(&o.requestID, "request-id", "", "filter by X-Request-ID")
	fs.Float64Var(&o.minCost, "min-cost", 0, "minimum cost in USD")
	fs.IntVar(&o.minTokens, "min-tokens", 0, "minimum total tokens")
	fs.IntVar(&o.limit, "limit", query.DefaultLimit, "max results")
	fs.IntVar(&o.offset, "offset", 0, "pagination offset")
	fs.StringVar(&o.sortBy, "sort", "request_time", "sort by: request_time, cost, total_tokens, latency")
	fs.StringVar(&o.sortOrder, "order", "desc", "sort order: asc, desc")
	fs.StringVar(&o.format, "format", "text", "output format: text, json, csv")
	fs.StringVarP(&o.output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

// build turns the flags into a validated query.
func (o *evidenceQueryOptions) build(cmd *cobra.Command, now time.Time) (*evidence.Query, error) {
	q := &evidence.Query{
		Provider:  o.provider,
		Model:     o.model,
		Status:    o.status,
		RequestID: o.requestID,
		Limit:     o.limit,
		Offset:    o.offset,
		SortBy:    o.sortBy,
		SortOrder: o.sortOrder,
	}

	switch o.format {
	case "text", "json", "csv":
	default:
		return nil, cli.NewConfigError("format", fmt.Sprintf("unknown format %q (want text, json or csv)", o.format))
	}

	if o.timeRange != "" && o.since > 0 {
		return nil, cli.NewConfigError("time-range", "cannot be combined with --since")
	}
	if o.timeRange != "" {
		start, end, err := parseTimeRange(o.timeRange)
		if err != nil {
			return nil, cli.NewConfigError("time-range", err.Error())
		}
		q.StartTime, q.EndTime = &start, &end
	}
	if o.since > 0 {
		start := now.Add(-o.since)
		q.StartTime = &start
	}
	if cmd.Flags().Changed("min-cost") {
		minCost := o.minCost
		q.MinCost = &minCost
	}
	if cmd.Flags().Changed("min-tokens") {
		minTokens := o.minTokens
		q.MinTokens = &minTokens
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return nil, cli.NewConfigError("query", err.Error())
	}
	return q, nil
}

// parseTimeRange parses an RFC3339 "start/end" interval.
func parseTimeRange(s string) (time.Time, time.Time, error) {
	startStr, endStr, ok := strings.Cut(s, "/")
	if !ok {
		return time.Time{}, time.Time{}, errors.New("invalid time range format (expected: start/end)")
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end time is before start time")
	}
	return start, end, nil
}

func runEvidenceQuery(cmd *cobra.Command, g *globalOptions, eo *evidenceOptions, o *evidenceQueryOptions) error {
	q, err := o.build(cmd, time.Now())
	if err != nil {
		return err
	}

	store, err := eo.open(cmd, g.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}

	var out io.Writer = cmd.OutOrStdout()
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return cli.NewCommandError("evidence", fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	if o.format == "text" {
		total, err := store.Count(ctx, &evidence.Query{
			StartTime: q.StartTime, EndTime: q.EndTime,
			Provider: q.Provider, Model: q.Model, Status: q.Status, RequestID: q.RequestID,
			MinCost: q.MinCost, MinTokens: q.MinTokens,
		})
		if err != nil {
			return cli.NewCommandError("evidence", fmt.Errorf("count failed: %w", err))
		}
		return writeEvidenceText(out, records, q, total)
	}

	exporter, err := export.NewExporter(o.format, true)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	if err := exporter.Export(ctx, records, out); err != nil {
		return cli.NewCommandError("evidence", err)
	}
	return nil
}

// writeEvidenceText prints one block per record.
func writeEvidenceText(w io.Writer, records []*evidence.Record, q *evidence.Query, total int64) error {
	if q.StartTime != nil {
		end := "now"
		if q.EndTime != nil {
			end = q.EndTime.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "Time range: %s to %s\n", q.StartTime.Format(time.RFC3339), end)
	}
	fmt.Fprintf(w, "Showing %d of %d records\n", len(records), total)

	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	for _, record := range records {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Record ID: %s\n", record.ID)
		fmt.Fprintf(w, "Timestamp: %s (%s)\n", record.RequestTime.Format(time.RFC3339), record.Latency.Round(time.Millisecond))
		fmt.Fprintf(w, "Route:     %s via %s\n", record.BaseURL, record.Proxy)
		fmt.Fprintf(w, "Model:     %s\n", record.Model)
		if record.Status == evidence.StatusError {
			fmt.Fprintf(w, "Status:    error (%s): %s\n", record.ErrorType, record.Error)
		} else {
			fmt.Fprintf(w, "Status:    %s %d\n", record.Status, record.HTTPStatus)
		}
		tokens := fmt.Sprintf("%d (prompt: %d, completion: %d)", record.TotalTokens, record.PromptTokens, record.CompletionTokens)
		if record.TokensEstimated {
			tokens += " estimated"
		}
		fmt.Fprintf(w, "Tokens:    %s\n", tokens)
		if record.Cost > 0 {
			fmt.Fprintf(w, "Cost:      $%.6f\n", record.Cost)
		}
	}

	if remaining := total - int64(q.Offset) - int64(len(records)); remaining > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "... and %d more records\n", remaining)
		fmt.Fprintln(w, "Use --limit and --offset for pagination.")
	}

	return nil
}

func newEvidenceShowCmd(g *globalOptions, eo *evidenceOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <record-id>",
		Short: "Print one evidence record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := eo.open(cmd, g.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			record, err := store.Get(cmd.Context(), args[0])
			if errors.Is(err, evidence.ErrNotFound) {
				return cli.NewCommandError("evidence", fmt.Errorf("record %s not found", args[0]))
			}
			if err != nil {
				return cli.NewCommandError("evidence", err)
			}

			return cli.NewFormatter(cli.FormatJSON).FormatTo(cmd.OutOrStdout(), record)
		},
	}
}

func newEvidenceReportCmd(g *globalOptions, eo *evidenceOptions) *cobra.Command {
	var timeRange string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded exchanges",
		Long:  `Print request, token and cost totals grouped by model, status and error type.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := &evidence.Query{}
			if timeRange != "" {
				start, end, err := parseTimeRange(timeRange)
				if err != nil {
					return cli.NewConfigError("time-range", err.Error())
				}
				q.StartTime, q.EndTime = &start, &end
			}

			store, err := eo.open(cmd, g.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Query(cmd.Context(), q)
			if err != nil {
				return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
			}

			writeEvidenceReport(cmd.OutOrStdout(), records, q)
			return nil
		},
	}

	cmd.Flags().StringVar(&timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	return cmd
}

// writeEvidenceReport prints totals and per-group counts in name order.
func writeEvidenceReport(w io.Writer, records []*evidence.Record, q *evidence.Query) {
	fmt.Fprintln(w, "Evidence Report")
	fmt.Fprintln(w, "===============")
	if q.StartTime != nil && q.EndTime != nil {
		fmt.Fprintf(w, "Time Range: %s to %s\n", q.StartTime.Format(time.RFC3339), q.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintln(w)

	var (
		totalCost    float64
		totalTokens  int
		totalLatency time.Duration
	)
	models := make(map[string]int)
	statuses := make(map[string]int)
	errorTypes := make(map[string]int)

	for _, record := range records {
		totalCost += record.Cost
		totalTokens += record.TotalTokens
		totalLatency += record.Latency
		models[record.Model]++
		statuses[record.Status]++
		if record.ErrorType != "" {
			errorTypes[record.ErrorType]++
		}
	}

	fmt.Fprintf(w, "Total Requests: %d\n", len(records))
	fmt.Fprintf(w, "Total Tokens:   %d\n", totalTokens)
	fmt.Fprintf(w, "Total Cost:     $%.6f\n", totalCost)
	if len(records) > 0 {
		fmt.Fprintf(w, "Avg Latency:    %s\n", (totalLatency / time.Duration(len(records))).Round(time.Millisecond))
	}

	writeCounts(w, "By Model", models, len(records))
	writeCounts(w, "By Status", statuses, len(records))
	writeCounts(w, "By Error Type", errorTypes, len(records))
}

func writeCounts(w io.Writer, title string, counts map[string]int, total int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		pct := float64(counts[k]) / float64(total) * 100
		fmt.Fprintf(w, "  %s: %d requests (%.0f%%)\n", k, counts[k], pct)
	}
}

func newEvidenceTailCmd(g *globalOptions, eo *evidenceOptions) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print exchanges as they are recorded",
		Long: `Follow the evidence database and print one line per recorded exchange
until interrupted.

Examples:
  # In one terminal
  courier evidence tail --since 10m

  # In another
  courier chat --record`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := eo.path(cmd, g.cfg)
			if path == storage.MemoryPath {
				return cli.NewConfigError("evidence.path", "cannot follow an in-memory store")
			}

			store, err := eo.open(cmd, g.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := cli.SetupSignalHandler(cmd.Context())
			defer stop()

			t := newTailer(store, cmd.OutOrStdout(), time.Now().Add(-since))
			if err := t.poll(ctx); err != nil {
				return cli.NewCommandError("evidence", err)
			}

			watcher, err := watch.New(watch.Config{Path: path})
			if err != nil {
				return cli.NewCommandError("evidence", err)
			}
			defer watcher.Close()

			err = watcher.Watch(ctx, func() {
				if err := t.poll(ctx); err != nil && ctx.Err() == nil {
					slog.Warn("failed to read new records", "error", err)
				}
			})
			if err != nil {
				return cli.NewCommandError("evidence", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "also print records from this long ago")
	return cmd
}

// tailer prints records newer than the last one it printed.
type tailer struct {
	store evidence.Storage
	w     io.Writer
	since time.Time

	// seen holds the IDs already printed at the since timestamp
	seen map[string]bool
}

func newTailer(store evidence.Storage, w io.Writer, since time.Time) *tailer {
	return &tailer{store: store, w: w, since: since, seen: make(map[string]bool)}
}

// poll prints the records recorded since the previous poll, oldest first.
func (t *tailer) poll(ctx context.Context) error {
	since := t.since
	records, err := t.store.Query(ctx, &evidence.Query{
		StartTime: &since,
		SortBy:    "request_time",
		SortOrder: "asc",
		Limit:     query.MaxLimit,
	})
	if err != nil {
		return err
	}

	for _, r := range records {
		if t.seen[r.ID] {
			continue
		}
		if r.RequestTime.After(t.since) {
			t.since = r.RequestTime
			t.seen = make(map[string]bool)
		}
		t.seen[r.ID] = true
		fmt.Fprintln(t.w, tailLine(r))
	}
	return nil
}

// tailLine formats a record as a single line.
func tailLine(r *evidence.Record) string {
	status := fmt.Sprintf("%s %d", r.Status, r.HTTPStatus)
	if r.Status == evidence.StatusError {
		status = fmt.Sprintf("error %s", r.ErrorType)
	}
	return fmt.Sprintf("%s  %-20s  %-16s  %5d tok  $%.6f  %6s  %s",
		r.RequestTime.UTC().Format(time.RFC3339),
		status,
		r.Model,
		r.TotalTokens,
		r.Cost,
		r.Latency.Round(time.Millisecond),
		r.ID,
	)
}

func newEvidencePruneCmd(g *globalOptions, eo *evidenceOptions) *cobra.Command {
	var (
		olderThan  time.Duration
		maxRecords int64
		archiveDir string
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old evidence records",
		Long: `Delete records older than --older-than, then the oldest records beyond
--max-records. Without flags the evidence.retention_days and
evidence.max_records settings apply.

Examples:
  courier evidence prune --older-than 720h
  courier evidence prune --max-records 1000 --archive ./archives`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := retention.ConfigFromCourier(g.cfg.Evidence)
			if cmd.Flags().Changed("older-than") {
				days := int(olderThan / (24 * time.Hour))
				if days < 1 {
					return cli.NewConfigError("older-than", "must be at least 24h")
				}
				cfg.RetentionDays = days
			}
			if cmd.Flags().Changed("max-records") {
				cfg.MaxRecords = maxRecords
			}
			if archiveDir != "" {
				cfg.ArchiveBeforeDelete = true
				cfg.ArchivePath = archiveDir
			}
			if cfg.RetentionDays <= 0 && cfg.MaxRecords <= 0 {
				return cli.NewConfigError("older-than", "nothing to prune: set --older-than, --max-records or evidence retention settings")
			}

			store, err := eo.open(cmd, g.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			deleted, err := retention.NewPruner(store, cfg).Prune(context.WithoutCancel(cmd.Context()))
			if err != nil {
				return cli.NewCommandError("evidence", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records\n", deleted)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "delete records older than this, in whole days (e.g. 720h)")
	cmd.Flags().Int64Var(&maxRecords, "max-records", 0, "keep at most this many records")
	cmd.Flags().StringVar(&archiveDir, "archive", "", "write deleted records to this directory as JSON first")

	return cmd
}
