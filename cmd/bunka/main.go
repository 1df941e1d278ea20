// Package main is the bunka CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunka/internal/api"
	"github.com/hyperjump/bunka/internal/cli"
	"github.com/hyperjump/bunka/internal/config"
	"github.com/hyperjump/bunka/internal/export"
	"github.com/hyperjump/bunka/internal/extract"
	"github.com/hyperjump/bunka/internal/keyword"
	"github.com/hyperjump/bunka/internal/models"
	"github.com/hyperjump/bunka/internal/session"
	"github.com/hyperjump/bunka/internal/storage"
	"github.com/hyperjump/bunka/internal/watcher"
	"github.com/hyperjump/bunka/internal/web"
	"github.com/hyperjump/bunka/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/bunka/config.yaml"

// Replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if it exists, and a missing default file falls
// back to defaults plus environment.
// Returns the config and the path that was actually loaded ("" for none).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.FromEnv()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	config.LoadDotEnv()
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	var err error
	switch command {
	case "ui":
		err = runUI(args)
	case "analyze":
		err = runAnalyze(args)
	case "history":
		err = runHistory(args)
	case "show":
		err = runShow(args)
	case "delete":
		err = runDelete(args)
	case "stats":
		err = runStats(args)
	case "export":
		err = runExport(args)
	case "watch":
		err = runWatch(args)
	case "languages":
		err = runLanguages(args)
	case "init":
		err = runInit(args)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "bunka version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

// argsReorder moves flags (and their values) ahead of positional arguments
// so that flag.Parse also sees flags given after the text. A lone "-" (stdin)
// is positional and "--" ends the flags.
func argsReorder(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	var positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if f := fs.Lookup(name); f != nil && !isBoolFlag(f) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// joinArgs joins positional args with spaces so text works the same with or
// without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(stderr)
	return fs.Parse(argsReorder(fs, args))
}

// expansion is the set of result panels opened from the command line.
type expansion struct {
	timeline bool
	geo      bool
	concept  int // 1-based, 0 for none
}

// parseExpand reads a comma separated --expand value: timeline, map or all.
func parseExpand(s string) (expansion, error) {
	var e expansion
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
		case "timeline":
			e.timeline = true
		case "map":
			e.geo = true
		case "all":
			e.timeline, e.geo = true, true
		default:
			return e, fmt.Errorf("unknown panel %q (want timeline, map or all)", part)
		}
	}
	return e, nil
}

// apply opens the requested panels on the freshly loaded result.
func (e expansion) apply(store *session.Store) {
	if e.timeline {
		store.ToggleTimeline()
	}
	if e.geo {
		store.ToggleMap()
	}
	if e.concept > 0 {
		store.ToggleConcept(e.concept - 1)
	}
}

// commonFlags are shared by every command that talks to the service.
type commonFlags struct {
	configPath *string
	debug      *bool
	output     *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
		output:     fs.String("output", "text", "output format: text, compact or json"),
	}
}

// Components holds initialized services for one command.
type Components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Client   *api.Client
	Snapshot storage.Storage
	Store    *session.Store
}

// Close releases the snapshot database and flushes the logger.
func (c *Components) Close() {
	if c.Store != nil {
		c.Store.Wait()
	}
	if c.Snapshot != nil {
		_ = c.Snapshot.Close()
	}
	_ = c.Logger.Sync()
}

// initializeComponents wires the API client, the history snapshot and the
// view-state store. A snapshot that cannot be opened is logged and skipped.
func initializeComponents(cfg *config.Config, logger *zap.Logger, opts ...session.Option) *Components {
	c := &Components{Config: cfg, Logger: logger}
	c.Client = api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, api.WithLogger(logger))

	storeOpts := []session.Option{
		session.WithLogger(logger),
		session.WithHistoryLimit(cfg.History.Limit),
		session.WithLanguage(cfg.Analyze.DefaultLanguage),
	}
	snap, err := storage.NewSQLiteStorage(cfg.History.SnapshotPath)
	if err != nil {
		logger.Warn("history snapshot unavailable", zap.String("path", cfg.History.SnapshotPath), zap.Error(err))
	} else {
		c.Snapshot = snap
		storeOpts = append(storeOpts, session.WithHistorySink(snap))
		if entries, err := snap.ListHistory(context.Background()); err == nil {
			storeOpts = append(storeOpts, session.WithHistory(entries))
		} else {
			logger.Warn("read history snapshot failed", zap.Error(err))
		}
	}
	c.Store = session.NewStore(c.Client, append(storeOpts, opts...)...)
	return c
}

// setup loads config and a CLI logger and initializes components.
func setup(flags commonFlags, opts ...session.Option) (*Components, cli.OutputFormat, error) {
	format, err := cli.ParseOutputFormat(*flags.output)
	if err != nil {
		return nil, "", err
	}
	cfg, resolved, err := loadConfig(*flags.configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || *flags.debug
	logger, err := utils.NewCLILogger(debugMode)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.String("api", cfg.API.BaseURL))
	return initializeComponents(cfg, logger, opts...), format, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runUI(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Info("config loaded",
		zap.String("config_path", resolved),
		zap.String("api", cfg.API.BaseURL),
		zap.Bool("debug", debugMode),
	)

	components := initializeComponents(cfg, logger, session.WithAsyncRefresh())
	defer components.Close()

	srv, err := web.NewServer(components.Store, &cfg.UI, logger)
	if err != nil {
		return err
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	ctx, stop := signalContext()
	defer stop()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func printAnalyzeUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: bunka analyze [flags] <text...|->\n\n")
	fmt.Fprintf(fs.Output(), "Text is all remaining arguments joined by spaces, or stdin when given as -.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  bunka analyze The Ramayana is an ancient Indian epic
  bunka analyze --language ja --file poem.txt
  bunka analyze --url https://en.wikipedia.org/wiki/Haiku --expand all
  bunka analyze --example 2 --concept 1
  cat passage.md | bunka analyze -
`)
}

// readPassage returns the text to analyze from exactly one source.
func readPassage(ctx context.Context, ext *extract.Extractor, args []string, file, rawURL string) (string, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, file != "", rawURL != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return "", errors.New("give the text as arguments, --file or --url, not several")
	}
	switch {
	case file != "":
		return ext.Extract(file)
	case rawURL != "":
		article, err := ext.FetchURL(ctx, rawURL)
		if err != nil {
			return "", err
		}
		return article.Text, nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(io.LimitReader(stdin, extract.DefaultMaxBytes))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return extract.Normalize(string(data)), nil
	case len(args) > 0:
		return joinArgs(args), nil
	default:
		return "", errors.New("no text to analyze")
	}
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	language := fs.String("language", "", "language code of the text (see 'bunka languages')")
	file := fs.String("file", "", "read the text from a file (txt, md, pdf, docx, odt, rtf, xlsx)")
	rawURL := fs.String("url", "", "read the main article text of a web page")
	example := fs.Int("example", 0, "analyze built-in example passage N (1-3)")
	expand := fs.String("expand", "", "panels to open: timeline, map or all (comma separated)")
	concept := fs.Int("concept", 0, "open the explainer of key concept N")
	fs.Usage = func() { printAnalyzeUsage(fs) }
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	exp, err := parseExpand(*expand)
	if err != nil {
		return err
	}
	exp.concept = *concept

	components, format, err := setup(flags)
	if err != nil {
		return err
	}
	defer components.Close()
	store := components.Store

	ctx, stop := signalContext()
	defer stop()

	if *example > 0 {
		if fs.NArg() > 0 || *file != "" || *rawURL != "" {
			return errors.New("--example cannot be combined with other text sources")
		}
		if err := store.UseExample(*example - 1); err != nil {
			return err
		}
		if *language != "" {
			store.SetLanguage(*language)
		}
		_, err = store.Submit(ctx)
	} else {
		ext := extract.NewExtractor(extract.WithLogger(components.Logger))
		text, readErr := readPassage(ctx, ext, fs.Args(), *file, *rawURL)
		if readErr != nil {
			return readErr
		}
		_, err = store.Analyze(ctx, text, *language)
	}
	if err != nil {
		components.Logger.Debug("analyze failed", zap.Error(err))
		if msg := store.Snapshot().Error; msg != "" {
			return errors.New(msg)
		}
		return err
	}

	exp.apply(store)
	snap := store.Snapshot()
	return cli.WriteResult(stdout, snap.Result, snap.View, format)
}

// searchHistory filters entries with a full-text query. With no hits it
// retries with typo tolerance, then with the closest indexed spelling.
// corrected is the query actually used when it differs from query.
func searchHistory(ctx context.Context, entries []models.AnalysisResult, query, language string, limit int) (found []models.AnalysisResult, corrected string, err error) {
	idx, err := keyword.NewHistoryIndex(entries)
	if err != nil {
		return nil, "", err
	}
	defer idx.Close()

	opts := &keyword.SearchOptions{TermsBoost: 2, Language: language}
	hits, err := idx.Search(ctx, query, limit, opts)
	if err != nil {
		return nil, "", err
	}
	if len(hits) == 0 {
		opts.Fuzziness = 1
		if hits, err = idx.Search(ctx, query, limit, opts); err != nil {
			return nil, "", err
		}
	}
	if len(hits) == 0 {
		suggester, err := keyword.NewSuggester(idx, 2)
		if err != nil {
			return nil, "", err
		}
		if alt, ok := suggester.DidYouMean(query); ok {
			opts.Fuzziness = 0
			if hits, err = idx.Search(ctx, alt, limit, opts); err != nil {
				return nil, "", err
			}
			corrected = alt
		}
	}
	return keyword.Select(entries, hits), corrected, nil
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	limit := fs.Int("limit", 0, "number of entries to fetch (default from config)")
	skip := fs.Int("skip", 0, "number of newest entries to skip")
	query := fs.String("search", "", "only show entries matching this full-text query")
	language := fs.String("language", "", "with --search, only entries in this language")
	offline := fs.Bool("offline", false, "list the saved snapshot without contacting the service")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var opts []session.Option
	if *limit > 0 {
		opts = append(opts, session.WithHistoryLimit(*limit))
	}
	components, format, err := setup(flags, opts...)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signalContext()
	defer stop()

	var entries []models.AnalysisResult
	switch {
	case *offline:
		entries = components.Store.Snapshot().History
	case *skip > 0:
		// Pages past the first are not part of the panel's list and are not saved.
		n := *limit
		if n <= 0 {
			n = components.Config.History.Limit
		}
		if entries, err = components.Client.History(ctx, *skip, n); err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
	default:
		if err := components.Store.RefreshHistory(ctx); err != nil {
			fmt.Fprintf(stderr, "Could not fetch history (%v); showing the saved list.\n", err)
		}
		entries = components.Store.Snapshot().History
	}

	if strings.TrimSpace(*query) != "" {
		found, corrected, err := searchHistory(ctx, entries, *query, *language, len(entries))
		if err != nil {
			return fmt.Errorf("search history: %w", err)
		}
		if corrected != "" {
			fmt.Fprintf(stderr, "No matches for %q; showing results for %q.\n", *query, corrected)
		}
		entries = found
	}
	return cli.WriteHistory(stdout, entries, format)
}

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	remote := fs.Bool("remote", false, "fetch the analysis from the service instead of the saved list")
	expand := fs.String("expand", "", "panels to open: timeline, map or all (comma separated)")
	concept := fs.Int("concept", 0, "open the explainer of key concept N")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: bunka show [flags] <id>")
	}
	id := fs.Arg(0)
	exp, err := parseExpand(*expand)
	if err != nil {
		return err
	}
	exp.concept = *concept

	components, format, err := setup(flags)
	if err != nil {
		return err
	}
	defer components.Close()
	store := components.Store

	if *remote {
		ctx, stop := signalContext()
		defer stop()
		res, err := components.Client.Get(ctx, id)
		if err != nil {
			if api.IsNotFound(err) {
				return fmt.Errorf("analysis %s not found", id)
			}
			return err
		}
		store.Show(res)
	} else if _, err := store.Select(id); err != nil {
		// The store holds one page; the snapshot may hold a longer list.
		res, snapErr := savedEntry(components, id)
		if snapErr != nil {
			return fmt.Errorf("%w; run 'bunka history' to refresh the list or use --remote", err)
		}
		store.Show(res)
	}

	exp.apply(store)
	snap := store.Snapshot()
	return cli.WriteResult(stdout, snap.Result, snap.View, format)
}

func savedEntry(c *Components, id string) (*models.AnalysisResult, error) {
	if c.Snapshot == nil {
		return nil, storage.ErrNotFound
	}
	return c.Snapshot.GetEntry(context.Background(), id)
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: bunka delete [flags] <id>")
	}
	id := fs.Arg(0)

	components, _, err := setup(flags)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signalContext()
	defer stop()
	if err := components.Store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deletion failed: %w", err)
	}
	if components.Snapshot != nil {
		if err := components.Snapshot.RemoveEntry(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			components.Logger.Warn("remove from snapshot failed", zap.String("id", id), zap.Error(err))
		}
	}
	fmt.Fprintf(stdout, "Analysis deleted: %s\n", id)
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	components, format, err := setup(flags)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signalContext()
	defer stop()
	stats, err := components.Client.Stats(ctx)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	if err := cli.WriteStats(stdout, stats, format); err != nil {
		return err
	}
	if format != cli.OutputText || components.Snapshot == nil {
		return nil
	}
	count, err := components.Snapshot.CountEntries(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\nsaved_entries:     %d   # history snapshot\n", count)
	if size, err := storage.SnapshotBytes(components.Config.History.SnapshotPath); err == nil {
		fmt.Fprintf(stdout, "snapshot_bytes:    %d   # %s\n", size, components.Config.History.SnapshotPath)
	}
	return nil
}

// createOutput opens path for writing; "-" is stdout.
func createOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	kind := fs.String("format", "xlsx", "export format: xlsx (history) or geojson (one analysis' locations)")
	out := fs.String("out", "", "output file, or - for stdout")
	id := fs.String("id", "", "analysis id for geojson")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("--out is required")
	}
	output := "text"
	components, _, err := setup(commonFlags{configPath: configPath, debug: debug, output: &output})
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signalContext()
	defer stop()
	if err := components.Store.RefreshHistory(ctx); err != nil {
		fmt.Fprintf(stderr, "Could not fetch history (%v); using the saved list.\n", err)
	}

	switch strings.ToLower(*kind) {
	case "xlsx":
		w, closeFn, err := createOutput(*out)
		if err != nil {
			return err
		}
		if err := export.WriteHistoryXLSX(w, components.Store.Snapshot().History); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	case "geojson":
		if *id == "" {
			return errors.New("--id is required for geojson")
		}
		res, err := components.Store.Select(*id)
		if err != nil {
			if res, err = components.Client.Get(ctx, *id); err != nil {
				return fmt.Errorf("load analysis %s: %w", *id, err)
			}
		}
		fc, err := export.LocationsGeoJSON(res)
		if err != nil {
			return fmt.Errorf("analysis %s: %w", *id, err)
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return err
		}
		w, closeFn, err := createOutput(*out)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	default:
		return fmt.Errorf("unknown export format %q (want xlsx or geojson)", *kind)
	}
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	flags := addCommonFlags(fs)
	language := fs.String("language", "", "language code of the text")
	debounce := fs.Duration("debounce", 0, "quiet period after a save before analyzing (default 400ms)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: bunka watch [flags] <file>")
	}

	components, format, err := setup(flags)
	if err != nil {
		return err
	}
	defer components.Close()
	logger := components.Logger
	store := components.Store
	ext := extract.NewExtractor(extract.WithLogger(logger))

	ctx, stop := signalContext()
	defer stop()

	analyzeFile := func(path string) error {
		text, err := ext.Extract(path)
		if err != nil {
			logger.Warn("read passage failed", zap.String("path", path), zap.Error(err))
			return err
		}
		res, err := store.Analyze(ctx, text, *language)
		if errors.Is(err, session.ErrBusy) {
			logger.Info("analysis in progress, change queued", zap.String("path", path))
			return fmt.Errorf("%w: %v", watcher.ErrRetry, err)
		}
		if err != nil {
			fmt.Fprintln(stderr, store.Snapshot().Error)
			return err
		}
		if err := cli.WriteResult(stdout, res, store.Snapshot().View, format); err != nil {
			logger.Warn("render failed", zap.Error(err))
		}
		return nil
	}

	w, err := watcher.NewWatcher(fs.Arg(0), analyzeFile,
		watcher.WithDebounce(*debounce), watcher.WithLogger(logger))
	if err != nil {
		return err
	}
	_ = analyzeFile(w.Path())
	if err := w.Prime(); err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()
	fmt.Fprintf(stderr, "Watching %s (Ctrl+C to stop)\n", w.Path())
	<-ctx.Done()
	return nil
}

func runLanguages(args []string) error {
	fs := flag.NewFlagSet("languages", flag.ContinueOnError)
	output := fs.String("output", "text", "output format: text, compact or json")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	return cli.WriteLanguages(stdout, format)
}

// runInit writes a config file holding the defaults, with the service URL
// from --api-url or the environment.
func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("config", "config.yaml", "config file to write")
	apiURL := fs.String("api-url", "", "analysis service base URL")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
	}

	var cfg config.Config
	if err := config.ApplyEnv(&cfg); err != nil {
		return err
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	config.ApplyDefaults(&cfg)
	if err := config.Save(*path, &cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Config written: %s\n", *path)
	return nil
}

func printUsage() {
	fmt.Fprintln(stdout, `bunka - Cultural context analysis client

Usage:
  bunka ui [flags]                 Start the local browser UI
  bunka analyze [flags] <text|->   Analyze a passage
  bunka history [flags]            List recent analyses
  bunka show [flags] <id>          Show an analysis from the saved list
  bunka delete [flags] <id>        Delete an analysis
  bunka stats [flags]              Show service-wide counts
  bunka export [flags]             Export history (xlsx) or locations (geojson)
  bunka watch [flags] <file>       Re-analyze a file whenever it is saved
  bunka languages                  List supported languages
  bunka init [flags]               Write a config file with the defaults
  bunka version                    Show version
  bunka help                       Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/bunka/config.yaml, or ./config.yaml)
  --debug            Enable debug logging
  --output string    Output format: text, compact or json (default: text)

Analyze Flags:
  --language string  Language code (default from config, en)
  --file string      Read text from a file
  --url string       Read the main article of a web page
  --example int      Use built-in example passage N
  --expand string    Open panels: timeline, map or all
  --concept int      Open the explainer of key concept N

History Flags:
  --limit int        Entries to fetch (default from config, 10)
  --skip int         Newest entries to skip
  --search string    Full-text filter over the fetched list
  --language string  With --search, only this language
  --offline          Use the saved list only

Show Flags:
  --remote           Fetch from the service instead of the saved list
  --expand, --concept as for analyze

Export Flags:
  --format string    xlsx or geojson (default: xlsx)
  --out string       Output path, - for stdout
  --id string        Analysis id (geojson)

Init Flags:
  --config string    File to write (default: ./config.yaml)
  --api-url string   Analysis service base URL
  --force            Overwrite an existing file

Environment:
  BUNKA_API_URL (or VITE_API_URL), BUNKA_HISTORY_LIMIT, BUNKA_DEBUG; a .env file is read if present.

Examples:
  bunka analyze The Ramayana is an ancient Indian epic about Prince Rama
  bunka analyze --language ja --file haiku.txt --expand all
  bunka history --search renaissance
  bunka show 12 --expand timeline
  bunka export --format geojson --id 12 --out places.geojson
  bunka watch --language fr notes.md`)
}
