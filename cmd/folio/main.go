// Package main is the folio CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/inkroot/folio/internal/cli"
	"github.com/inkroot/folio/internal/config"
	"github.com/inkroot/folio/internal/engine"
	"github.com/inkroot/folio/internal/extract"
	"github.com/inkroot/folio/internal/ingest"
	"github.com/inkroot/folio/internal/metrics"
	"github.com/inkroot/folio/internal/models"
	"github.com/inkroot/folio/internal/server"
	"github.com/inkroot/folio/internal/storage"
	"github.com/inkroot/folio/internal/tags"
	"github.com/inkroot/folio/internal/watcher"
	"github.com/inkroot/folio/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/folio/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used, so that "folio server" from the project dir uses the project's
// config. When neither exists, built-in defaults apply and the returned path is
// empty, which disables persisting watch roots back to disk.
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
		if _, statErr := os.Stat(path); statErr != nil {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
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
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "add":
		runAdd()
	case "remove":
		runRemove()
	case "similar":
		runSimilar()
	case "tags":
		runTags()
	case "tree":
		runTree()
	case "stats":
		runStats()
	case "snapshot":
		runSnapshot()
	case "reindex":
		runReindex()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("folio version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, file ingestion, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	var metricsReg *metrics.Metrics
	if cfg.Metrics.EnabledOrDefault() {
		metricsReg = metrics.New()
	}

	components, err := initComponents(cfg, logger, metricsReg, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if err := loadEngineState(context.Background(), components, logger); err != nil {
		logger.Fatal("Failed to restore engine state", zap.Error(err))
	}

	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watchSvc := watcher.New(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		components.Ingestor,
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExisting(watchCtx)

	serverOpts := []server.ServerOption{server.WithWatch(watchSvc)}
	if metricsReg != nil {
		serverOpts = append(serverOpts, server.WithMetrics(metricsReg))
	}
	if resolvedConfigPath != "" {
		serverOpts = append(serverOpts, server.WithConfigPath(resolvedConfigPath))
	}
	srv := server.NewServer(
		components.Engine,
		components.Store,
		components.Ingestor,
		cfg,
		logger,
		serverOpts...,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if err := components.Engine.Save(cfg.Storage.SnapshotDir); err != nil {
		logger.Warn("snapshot save on shutdown failed", zap.Error(err))
	}
	watchCancel()
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "folio search query -limit 5"
// would otherwise leave -limit unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitCommaList splits a comma-separated flag value into trimmed parts,
// dropping empties.
func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseOutputFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "text":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: folio search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  folio search coffee brewing
  folio search "coffee brewing"              # same as above
  folio search --limit 20 --path your query
  folio search --tags t-research,t-drafts --all-tags your query
  folio search --output json your query      # parseable output
`)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct snapshot access when server is not running)")
	limit := fs.Int("limit", 10, "number of results")
	tagsFlag := fs.String("tags", "", "comma-separated tag IDs to filter by")
	allTags := fs.Bool("all-tags", false, "require every tag from --tags instead of any")
	withPath := fs.Bool("path", false, "annotate each result with its folder path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	searchArgs := searchArgsReorder(os.Args[2:])
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	req := &models.SearchRequest{
		Query:        queryStr,
		Limit:        *limit,
		TagIDs:       splitCommaList(*tagsFlag),
		MatchAllTags: *allTags,
		IncludePath:  *withPath,
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		// Use the HTTP API when the server is running to avoid clashing
		// over the SQLite database.
		response = &models.SearchResponse{}
		if err := postJSON(*serverURL, "/api/v1/search", req, response); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, cleanup := mustInitDirect(*configPath)
		defer cleanup()
		response, err = components.Engine.Search(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: folio add [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	components, cleanup := mustInitDirect(*configPath)
	defer cleanup()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := components.Ingestor.IngestDirectory(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingesting directory failed: %v\n", err)
			os.Exit(1)
		}
		saveSnapshot(components)
		fmt.Printf("Ingested %d file(s) from %s\n", n, path)
		return
	}
	if err := components.Ingestor.IngestFile(ctx, path); err != nil {
		fmt.Fprintf(os.Stderr, "Ingesting failed: %v\n", err)
		os.Exit(1)
	}
	saveSnapshot(components)
	absPath, _ := filepath.Abs(path)
	fmt.Printf("Document ingested: %s\n", ingest.FileDocID(absPath))
}

func runRemove() {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: folio remove [flags] <document-id-or-file>")
		os.Exit(1)
	}
	target := fs.Arg(0)

	components, cleanup := mustInitDirect(*configPath)
	defer cleanup()

	ctx := context.Background()
	// A target that exists on disk is removed by path; anything else is
	// treated as a document ID.
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		if err := components.Ingestor.RemoveFile(ctx, target); err != nil {
			fmt.Fprintf(os.Stderr, "Removal failed: %v\n", err)
			os.Exit(1)
		}
		saveSnapshot(components)
		absPath, _ := filepath.Abs(target)
		fmt.Printf("Document removed: %s\n", ingest.FileDocID(absPath))
		return
	}
	if err := components.Engine.RemoveDocument(target); err != nil && !errors.Is(err, engine.ErrDocumentNotFound) {
		fmt.Fprintf(os.Stderr, "Removal failed: %v\n", err)
		os.Exit(1)
	}
	if err := components.Store.DeleteDocument(ctx, target); err != nil {
		fmt.Fprintf(os.Stderr, "Removal failed: %v\n", err)
		os.Exit(1)
	}
	saveSnapshot(components)
	fmt.Printf("Document removed: %s\n", target)
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct snapshot access)")
	limit := fs.Int("limit", 10, "number of similar documents")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: folio similar [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var similar []*models.SimilarResult
	if *serverURL != "" {
		var out struct {
			Similar []*models.SimilarResult `json:"similar"`
		}
		path := fmt.Sprintf("/api/v1/documents/%s/similar?limit=%d", url.PathEscape(docID), *limit)
		if err := getJSON(*serverURL, path, &out); err != nil {
			fmt.Fprintf(os.Stderr, "Similar lookup failed: %v\n", err)
			os.Exit(1)
		}
		similar = out.Similar
	} else {
		components, cleanup := mustInitDirect(*configPath)
		defer cleanup()
		similar, err = components.Engine.SimilarDocuments(docID, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Similar lookup failed: %v\n", err)
			os.Exit(1)
		}
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(similar); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if len(similar) == 0 {
		fmt.Printf("No documents similar to %s\n", docID)
		return
	}
	fmt.Printf("Documents similar to %s:\n", docID)
	for _, s := range similar {
		title := s.Title
		if title == "" {
			title = s.DocumentID
		}
		fmt.Printf("  %.4f  %s  (%s)\n", s.Similarity, title, s.DocumentID)
	}
}

func runTags() {
	fs := flag.NewFlagSet("tags", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct snapshot access)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var all []*tags.Tag
	if *serverURL != "" {
		var out struct {
			Tags []*tags.Tag `json:"tags"`
		}
		if err := getJSON(*serverURL, "/api/v1/tags", &out); err != nil {
			fmt.Fprintf(os.Stderr, "Listing tags failed: %v\n", err)
			os.Exit(1)
		}
		all = out.Tags
	} else {
		components, cleanup := mustInitDirect(*configPath)
		defer cleanup()
		all = components.Engine.Tags()
	}
	if err := cli.WriteTags(os.Stdout, all, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runTree() {
	fs := flag.NewFlagSet("tree", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct snapshot access)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var roots []*models.TreeNode
	if *serverURL != "" {
		var out struct {
			Tree []*models.TreeNode `json:"tree"`
		}
		if err := getJSON(*serverURL, "/api/v1/tree", &out); err != nil {
			fmt.Fprintf(os.Stderr, "Fetching tree failed: %v\n", err)
			os.Exit(1)
		}
		roots = out.Tree
	} else {
		components, cleanup := mustInitDirect(*configPath)
		defer cleanup()
		roots = components.Engine.Tree()
	}
	if err := cli.WriteTree(os.Stdout, roots, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// statsResponse mirrors the GET /api/v1/statistics payload.
type statsResponse struct {
	Engine          *models.Statistics `json:"engine"`
	StoredDocuments int64              `json:"stored_documents"`
	DiskBytes       int64              `json:"disk_bytes"`
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct snapshot access)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var stats statsResponse
	if *serverURL != "" {
		if err := getJSON(*serverURL, "/api/v1/statistics", &stats); err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		components, cleanup := mustInitDirect(*configPath)
		defer cleanup()
		stats.Engine = components.Engine.Statistics()
		stats.StoredDocuments, err = components.Store.CountDocuments(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Counting documents failed: %v\n", err)
			os.Exit(1)
		}
		stats.DiskBytes, _ = storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.SnapshotDir)
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if stats.Engine != nil {
		if err := cli.WriteStatistics(os.Stdout, stats.Engine, cli.OutputText); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("\nStored documents:  %d\n", stats.StoredDocuments)
	fmt.Printf("Disk usage:        %d bytes\n", stats.DiskBytes)
}

func runSnapshot() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: folio snapshot <save|load|backup> [flags]")
		fmt.Println("  folio snapshot save     Persist the running server's state")
		fmt.Println("  folio snapshot load     Replace the server's state from the snapshot")
		fmt.Println("  folio snapshot backup   Copy the snapshot to a timestamped directory")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])

	switch sub {
	case "save", "load", "backup":
		var out map[string]string
		if err := postJSON(*serverURL, "/api/v1/snapshot/"+sub, nil, &out); err != nil {
			fmt.Fprintf(os.Stderr, "Snapshot %s failed: %v\n", sub, err)
			os.Exit(1)
		}
		switch sub {
		case "backup":
			fmt.Printf("Backup created: %s\n", out["backup_dir"])
		default:
			fmt.Printf("Snapshot %s complete (%s)\n", sub, out["dir"])
		}
	default:
		fmt.Printf("Unknown snapshot subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = rebuild offline from the document store)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		var out struct {
			Documents int `json:"documents"`
		}
		if err := postJSON(*serverURL, "/api/v1/reindex", nil, &out); err != nil {
			fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Reindexed %d document(s)\n", out.Documents)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initComponents(cfg, logger, nil, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	// Offline rebuild starts from an empty engine on purpose: the store
	// is the source of truth and the snapshot is rewritten from it.
	n, err := components.Ingestor.Rebuild(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
		os.Exit(1)
	}
	if err := components.Engine.Save(components.SnapshotDir); err != nil {
		fmt.Fprintf(os.Stderr, "Saving snapshot failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reindexed %d document(s)\n", n)
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: folio watch <add|remove|list> [path]")
		fmt.Println("  folio watch add <path>     Add directory to watch")
		fmt.Println("  folio watch remove <path>  Remove directory from watch")
		fmt.Println("  folio watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: folio watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: folio watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := getJSON(*serverURL, "/api/v1/watch/directories", &out); err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func getJSON(serverURL, path string, out interface{}) error {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func postJSON(serverURL, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	resp, err := http.Post(serverURL+path, "application/json", reader)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Components holds initialized services.
type Components struct {
	Store       storage.DocumentStore
	Engine      *engine.Engine
	Ingestor    *ingest.Ingestor
	SnapshotDir string
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initComponents(cfg *config.Config, logger *zap.Logger, metricsReg *metrics.Metrics, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engineOpts := []engine.Option{engine.WithExtractor(extract.NewMetadataScanner())}
	if debug {
		engineOpts = append(engineOpts, engine.WithLogger(logger))
	}
	if metricsReg != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(metricsReg))
	}
	eng := engine.NewEngine(&cfg.Search, engineOpts...)

	ingestOpts := []ingest.Option{}
	if debug {
		ingestOpts = append(ingestOpts, ingest.WithLogger(logger))
	}
	ing := ingest.NewIngestor(store, eng, extract.NewExtractor(), cfg.Watch.Extensions, ingestOpts...)

	return &Components{
		Store:       store,
		Engine:      eng,
		Ingestor:    ing,
		SnapshotDir: cfg.Storage.SnapshotDir,
	}, nil
}

// loadEngineState restores the engine from the snapshot directory. When
// no snapshot exists yet the engine is rebuilt from the document store,
// which covers first runs and deleted snapshot dirs.
func loadEngineState(ctx context.Context, c *Components, logger *zap.Logger) error {
	err := c.Engine.Load(c.SnapshotDir)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	logger.Info("no snapshot found, rebuilding from document store",
		zap.String("snapshot_dir", c.SnapshotDir))
	n, err := c.Ingestor.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild from store: %w", err)
	}
	logger.Info("engine rebuilt", zap.Int("documents", n))
	return nil
}

// mustInitDirect builds components for a direct (serverless) command,
// restores the engine state, and exits on failure. The returned cleanup
// closes the store.
func mustInitDirect(configPath string) (*Components, func()) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initComponents(cfg, logger, nil, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := loadEngineState(context.Background(), components, logger); err != nil {
		components.Close()
		fmt.Fprintf(os.Stderr, "Failed to restore engine state: %v\n", err)
		os.Exit(1)
	}
	cleanup := func() {
		components.Close()
		_ = logger.Sync()
	}
	return components, cleanup
}

// saveSnapshot persists the engine after a direct mutation so the next
// command (or the server) starts from the updated state.
func saveSnapshot(c *Components) {
	if err := c.Engine.Save(c.SnapshotDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: saving snapshot failed: %v\n", err)
	}
}

func printUsage() {
	fmt.Println(`folio - local document organizer with search, folders, and tags

Usage:
  folio server [flags]             Start the HTTP server
  folio search [flags] <query>     Search documents
  folio add [flags] <path>         Ingest a file or directory
  folio remove [flags] <id|file>   Remove a document
  folio similar [flags] <id>       List documents similar to one
  folio tags [flags]               Show the tag taxonomy
  folio tree [flags]               Show the folder hierarchy
  folio stats [flags]              Show collection statistics
  folio snapshot <save|load|backup>  Manage server snapshots
  folio reindex [flags]            Rebuild the index from the document store
  folio watch <add|remove|list>    Manage watched directories
  folio version                    Show version
  folio help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/folio/config.yaml)
  --debug            Enable debug logging (requests, file ingestion, etc.)

Search Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct snapshot access.
  --limit int        Number of results (default: 10)
  --tags string      Comma-separated tag IDs to filter by
  --all-tags         Require every tag from --tags instead of any
  --path             Annotate results with their folder path
  --output string    Output format: text or json (default: text)

Most read commands (similar, tags, tree, stats) accept --server, --config,
and --output with the same meanings.

Examples:
  folio server
  folio add ~/notes
  folio search "quarterly report"
  folio search --tags t-research quarterly report
  folio similar doc-123
  folio tags --output json
  folio tree
  folio stats
  folio snapshot backup
  folio watch add ~/Documents/notes
  folio watch list`)
}
