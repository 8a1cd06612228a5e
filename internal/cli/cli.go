package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kosen-tools/gyouji-cal/internal/config"
	"github.com/kosen-tools/gyouji-cal/internal/event"
	"github.com/kosen-tools/gyouji-cal/internal/filter"
	"github.com/kosen-tools/gyouji-cal/internal/logger"
	"github.com/kosen-tools/gyouji-cal/internal/pipeline"
	"github.com/kosen-tools/gyouji-cal/internal/scraper"
	"github.com/kosen-tools/gyouji-cal/internal/storage"
	"github.com/kosen-tools/gyouji-cal/internal/web"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitChanges = 2
)

// DefaultDataDir holds snapshots when no cache directory is configured.
const DefaultDataDir = "~/.local/share/gyouji-cal"

// ErrChangesFound is returned by the diff command when the calendar changed
// since the last snapshot. Execute maps it to ExitChanges.
var ErrChangesFound = errors.New("calendar changed")

var (
	flagConfig   string
	flagURL      string
	flagCacheDir string
	flagVerbose  bool

	flagFormat  string
	flagStrict  bool
	flagOut     string
	flagToday   string
	flagRange   string
	flagMatch   []string
	flagRefresh bool

	flagDiffFormat string

	flagListen string

	flagMonth string
	flagBase  int
)

// cfg is loaded once per invocation by the root command's pre-run hook.
var cfg *config.Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gyouji-cal",
		Short: "Convert a school event calendar page into CSV and iCalendar",
		Long: `gyouji-cal reads a published 行事予定 page, resolves its era year
and turns every listed event into an all-day calendar entry.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config (created with defaults if missing)")
	cmd.PersistentFlags().StringVar(&flagURL, "url", "", "Calendar page URL (overrides config)")
	cmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "Directory for the fetched page cache (overrides config)")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newExportCmd(), newServeCmd(), newClassifyCmd(), newDiffCmd())
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch the calendar page and write it as CSV, iCalendar or JSON",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}

	cmd.Flags().StringVar(&flagFormat, "format", "csv", "Output format: csv, ical or json")
	cmd.Flags().BoolVar(&flagStrict, "strict", false, "Write an RFC 5545 iCalendar (UIDs, CRLF, escaping)")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "Write to file instead of stdout")
	cmd.Flags().StringVar(&flagToday, "today", "", "Reference date for era resolution, YYYY-MM-DD (default: now)")
	addFilterFlags(cmd)
	return cmd
}

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Report events added, removed or moved since the last run",
		Long: `Build the calendar, compare it with the snapshot saved by the previous
run and save the new snapshot. Exits with status 2 when something changed.`,
		Args: cobra.NoArgs,
		RunE: runDiff,
	}

	cmd.Flags().StringVar(&flagDiffFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagToday, "today", "", "Reference date for era resolution, YYYY-MM-DD (default: now)")
	cmd.Flags().BoolVar(&flagRefresh, "refresh", false, "Save the snapshot without reporting changes")
	addFilterFlags(cmd)
	return cmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagRange, "range", "", "Only events on these dates, e.g. 2024-10..2025-03")
	cmd.Flags().StringSliceVar(&flagMatch, "match", nil, "Only events whose label contains one of these strings")
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /csv and /ical over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (overrides config)")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify EXPRESSION...",
		Short: "Show how date expressions are classified",
		Long: `Print the shape of each date expression. With --month and --base the
normalized start and exclusive end dates are printed too.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().StringVar(&flagMonth, "month", "", "Heading month of the expressions, e.g. 04")
	cmd.Flags().IntVar(&flagBase, "base", 0, "Gregorian year the school year starts in, e.g. 2024")
	return cmd
}

// loadConfig reads the config file, .env and GYOUJI_* variables, then
// applies command-line overrides and sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadEnv(".env")
	if err := cfg.ApplyEnv(); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if flagURL != "" {
		cfg.SourceURL = flagURL
	}
	if flagCacheDir != "" {
		cfg.CacheDir = flagCacheDir
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	logger.Debug("configuration loaded", logger.Fields{
		"config":    flagConfig,
		"source":    cfg.SourceURL,
		"cache_dir": cfg.CacheDir,
	})
	return nil
}

// newSource builds the page collector, with a page cache when configured.
func newSource(cfg *config.Config) (*scraper.Scraper, error) {
	opts := []scraper.Option{
		scraper.WithUserAgent(cfg.UserAgent),
		scraper.WithSelectors(cfg.Selectors.Month, cfg.Selectors.Item),
		scraper.WithTimeout(cfg.Timeout),
	}

	if cfg.CacheDir != "" {
		store, err := storage.New(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("initializing page cache: %w", err)
		}
		opts = append(opts, scraper.WithCache(store))
	}

	return scraper.New(cfg.SourceURL, opts...), nil
}

func location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

func parseToday(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today %q (want YYYY-MM-DD)", value)
	}
	return t, nil
}

// buildFiltered fetches and builds the calendar, then applies --range and
// --match.
func buildFiltered(ctx context.Context) (*pipeline.Result, error) {
	res, f, err := buildWithFilter(ctx)
	if err != nil {
		return nil, err
	}
	return res.Filter(f), nil
}

// buildWithFilter builds the complete calendar and returns the --range and
// --match filter alongside it, unapplied.
func buildWithFilter(ctx context.Context) (*pipeline.Result, *filter.Filter, error) {
	f, err := filter.New(flagRange, flagMatch)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid filter: %w", err)
	}

	today, err := parseToday(flagToday, location(cfg.Timezone))
	if err != nil {
		return nil, nil, err
	}

	src, err := newSource(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("fetching calendar", logger.Fields{"source": cfg.SourceURL, "filter": f.String()})

	res, err := pipeline.Build(ctx, src, pipeline.Options{
		Today:          today,
		KeepDuplicates: cfg.KeepDuplicates,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building calendar: %w", err)
	}
	return res, f, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	switch format {
	case FormatCSV, FormatICal, FormatJSON:
	default:
		return fmt.Errorf("invalid format: %s (must be 'csv', 'ical' or 'json')", flagFormat)
	}

	res, err := buildFiltered(cmd.Context())
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	err = WriteOutput(w, res, format, OutputOptions{
		Strict:       flagStrict,
		ProdID:       cfg.ProdID,
		CalendarName: cfg.CalendarName,
		Timezone:     cfg.Timezone,
	})
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if flagOut != "" {
		logger.Info("calendar written", logger.Fields{"path": flagOut, "events": len(res.Events)})
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if flagListen != "" {
		cfg.Listen = flagListen
	}

	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	loc := location(cfg.Timezone)

	srv := web.NewServer(cfg, func(ctx context.Context) (*pipeline.Result, error) {
		return pipeline.Build(ctx, src, pipeline.Options{
			Today:          time.Now().In(loc),
			KeepDuplicates: cfg.KeepDuplicates,
		})
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

func runDiff(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagDiffFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagDiffFormat)
	}

	dataDir := cfg.CacheDir
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	store, err := storage.New(dataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	// the snapshot always holds every event; filters only narrow the report
	res, f, err := buildWithFilter(cmd.Context())
	if err != nil {
		return err
	}

	previous, err := store.LoadSnapshot(cfg.SourceURL)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	diff := f.ApplyDiff(event.Diff(previous, res.Events))

	if err := store.SaveSnapshot(event.CreateSnapshot(res.Events, res.BuiltAt), cfg.SourceURL); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	logger.Debug("saved snapshot", logger.Fields{"dir": store.Dir(), "events": len(res.Events)})

	if flagRefresh {
		fmt.Fprintln(cmd.OutOrStdout(), "Snapshot refreshed successfully.")
		return nil
	}

	report := &DiffReport{
		CheckedAt:   res.BuiltAt,
		Source:      cfg.SourceURL,
		PreviousAt:  previous.UpdatedAt,
		Recorded:    len(res.Events),
		DiffResult:  diff,
		ChangeCount: len(diff.Added) + len(diff.Removed) + len(diff.Moved),
	}
	if err := WriteDiff(cmd.OutOrStdout(), report, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	// the first snapshot is a baseline, not a change
	if previous.UpdatedAt != "" && !diff.Empty() {
		return ErrChangesFound
	}
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	normalize := flagMonth != "" && flagBase > 0
	out := cmd.OutOrStdout()

	for _, expr := range args {
		c := event.Classify(expr)
		if !normalize {
			fmt.Fprintf(out, "%s\t%s\n", expr, c.Shape)
			continue
		}

		raw := event.RawEvent{Month: flagMonth, Expression: expr}
		if evt := event.NormalizeClassified(raw, c, flagBase); evt != nil {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", expr, c.Shape, evt.StartDate(), evt.EndDate())
		} else {
			fmt.Fprintf(out, "%s\t%s\tdropped\n", expr, c.Shape)
		}
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().ExecuteContext(context.Background())
	switch {
	case err == nil:
		os.Exit(ExitSuccess)
	case errors.Is(err, ErrChangesFound):
		os.Exit(ExitChanges)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
