package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gigdex/internal/chunk"
	"gigdex/internal/config"
	"gigdex/internal/corpus"
	"gigdex/internal/embed"
	"gigdex/internal/ingest"
	"gigdex/internal/mcp"
	"gigdex/internal/version"
	"gigdex/internal/web"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "gigdex",
	Short:   "Semantic search over concert and tour documents",
	Version: version.Full(),
	Long: `gigdex stores concert and tour documents and retrieves them by
semantic similarity. Documents are chunked, embedded, and kept in a
local corpus that can be queried from the CLI, an HTTP API, or MCP.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gigdex %s\n", version.Version)
		fmt.Printf("  commit:  %s\n", version.Commit)
		fmt.Printf("  built:   %s\n", version.Date)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gigdex in the current directory",
	Long: `Create a .gigdex data directory with a default configuration file.
The corpus itself is created on first ingest.`,
	RunE: runInit,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-dir>...",
	Short: "Ingest documents into the corpus",
	Long: `Ingest one or more files, or whole directories, into the corpus.
Each document is chunked, embedded, and indexed. Directory ingestion
picks up the configured extensions and honors the ignore file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the corpus semantically",
	Long: `Search the corpus using a natural language query. Returns the most
similar chunks ranked by score, together with their document captions.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var showCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Show a document's metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents in ingestion order",
	RunE:  runList,
}

var chunksCmd = &cobra.Command{
	Use:   "chunks <document-id>",
	Short: "Print a document's chunks in position order",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunks,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus statistics",
	RunE:  runStatus,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API or MCP server",
	Long: `Start the JSON HTTP API server, or with --mcp, serve the Model
Context Protocol over stdio for AI assistant integration.`,
	RunE: runServe,
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a drop folder and ingest new files",
	Long: `Watch a directory and ingest eligible files as they are created or
changed. Changes are debounced so a file being written is picked up once.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the entire corpus",
	Long: `Remove all documents, chunks, and vectors from the corpus.
This is a destructive operation and cannot be undone.

Use --force to skip the confirmation prompt.`,
	RunE: runReset,
}

func init() {
	rootCmd.SetVersionTemplate("gigdex version {{.Version}}\n")

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	ingestCmd.Flags().Bool("relevant-only", false, "skip files that do not look like concert documents")
	ingestCmd.Flags().Bool("progress", true, "show a progress bar for directories")

	searchCmd.Flags().IntP("limit", "n", 5, "maximum number of results")
	searchCmd.Flags().StringP("format", "f", "default", "output format (default, json)")

	statusCmd.Flags().StringP("format", "f", "default", "output format (default, json)")

	serveCmd.Flags().IntP("port", "p", 0, "server port (overrides config)")
	serveCmd.Flags().String("host", "", "server host (overrides config)")
	serveCmd.Flags().Bool("mcp", false, "serve MCP over stdio instead of HTTP")

	resetCmd.Flags().Bool("force", false, "skip confirmation prompt")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(resetCmd)
}

// newLogger builds the CLI logger, honoring --verbose.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if viper.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// openCorpus loads config and opens the corpus with its embedding provider.
// The returned cleanup closes the embedding cache when one is in use.
func openCorpus(logger *log.Logger) (*corpus.Corpus, *config.Config, func(), error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, nil, err
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, nil, err
	}

	provider, err := embed.New(embed.Options{
		Provider:   cfg.Embedding.Provider,
		URL:        cfg.Embedding.URL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		APIKey:     cfg.Embedding.OpenAIAPIKey,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {}
	if cfg.Embedding.CacheEnabled {
		cache, err := embed.OpenCache(cfg.CachePath())
		if err != nil {
			return nil, nil, nil, err
		}
		provider = embed.WithCache(provider, cache)
		cleanup = func() { cache.Close() }
	}

	c, err := corpus.Open(cfg.DataDir, provider, corpus.Options{
		Splitter: chunk.SplitterConfig{
			ChunkSize:    cfg.Chunking.ChunkSize,
			ChunkOverlap: cfg.Chunking.ChunkOverlap,
		},
		Logger: logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	return c, cfg, cleanup, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := cfg.WriteDefaultConfig(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("Initialized gigdex in %s\n", cfg.DataDir)
	fmt.Printf("  provider:  %s\n", cfg.Embedding.Provider)
	fmt.Printf("  model:     %s\n", cfg.Embedding.Model)
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	c, cfg, cleanup, err := openCorpus(logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer c.Close()

	relevantOnly, _ := cmd.Flags().GetBool("relevant-only")
	progress, _ := cmd.Flags().GetBool("progress")

	ingestCfg := cfg.Ingest
	ingestCfg.RelevantOnly = ingestCfg.RelevantOnly || relevantOnly

	loader := ingest.NewLoader(c, ingestCfg, logger)
	loader.ShowProgress(progress)

	ctx := cmd.Context()
	total := &ingest.Result{}
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			result, err := loader.IngestDir(ctx, path)
			if err != nil {
				return err
			}
			total.Ingested += result.Ingested
			total.Skipped += result.Skipped
			total.Failed += result.Failed
			total.Errors = append(total.Errors, result.Errors...)
			continue
		}

		docID, skipped, err := loader.IngestFile(ctx, path)
		switch {
		case err != nil:
			total.Failed++
			total.Errors = append(total.Errors, fmt.Sprintf("%s: %v", path, err))
		case skipped:
			total.Skipped++
		default:
			total.Ingested++
			fmt.Printf("Ingested %s as %s\n", path, docID)
		}
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Ingested: %d\n", total.Ingested)
	fmt.Printf("  Skipped:  %d\n", total.Skipped)
	if total.Failed > 0 {
		fmt.Printf("  Failed:   %d\n", total.Failed)
		for _, e := range total.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	c, _, cleanup, err := openCorpus(logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer c.Close()

	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	results, err := c.Search(cmd.Context(), query, limit)
	if err != nil {
		return err
	}

	if format == "json" {
		return json.NewEncoder(os.Stdout).Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, r.Score, r.Caption)
		fmt.Printf("   doc %s, chunk %d\n", r.DocumentID, r.ChunkID)
		fmt.Printf("   %s\n\n", strings.TrimSpace(r.Text))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	c, _, cleanup, err := openCorpus(logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer c.Close()

	doc, err := c.GetDocument(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID:       %s\n", doc.ID)
	fmt.Printf("Caption:  %s\n", doc.Caption)
	fmt.Printf("Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Chunks:   %d\n", len(doc.ChunkIDs))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	c, _, cleanup, err := openCorpus(logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer c.Close()

	docs := c.ListDocuments()
	if len(docs) == 0 {
		fmt.Println("Corpus is empty.")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%s  %3d chunks  %s\n", doc.ID, len(doc.ChunkIDs), doc.Caption)
	}
	return nil
}

func runChunks(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	c, _, cleanup, err := openCorpus(logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer c.Close()

	chunks, err := c.ChunksOf(args[0])
	if err != nil {
		return err
	}
	for _, ch := range chunks {
		fmt.Printf("--- chunk %d (position %d) ---\n%s\n", ch.ChunkID, ch.Position, ch.Text)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	c, cfg, cleanup, err := openCorpus(logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer c.Close()

	stats := c.Stats()
	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}

	fmt.Printf("Corpus:     %s\n", cfg.DataDir)
	fmt.Printf("Documents:  %d\n", stats.Documents)
	fmt.Printf("Chunks:     %d\n", stats.Chunks)
	fmt.Printf("Dimensions: %d\n", stats.Dimensions)
	fmt.Printf("Provider:   %s (%s)\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	c, cfg, cleanup, err := openCorpus(logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer c.Close()

	mcpMode, _ := cmd.Flags().GetBool("mcp")
	if mcpMode {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return mcp.NewServer(c).Run(ctx)
	}

	host := cfg.Server.Host
	if flagHost, _ := cmd.Flags().GetString("host"); flagHost != "" {
		host = flagHost
	}
	port := cfg.Server.Port
	if flagPort, _ := cmd.Flags().GetInt("port"); flagPort != 0 {
		port = flagPort
	}

	server := web.NewServer(web.ServerConfig{
		Host:   host,
		Port:   port,
		Corpus: c,
		Logger: logger,
	})
	return server.ListenAndServe()
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	c, cfg, cleanup, err := openCorpus(logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer c.Close()

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	loader := ingest.NewLoader(c, cfg.Ingest, logger)
	watcher, err := ingest.NewWatcher(dir, loader, ingest.DefaultWatcherConfig(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	logger.Info("watching for documents", "dir", dir)

	<-ctx.Done()
	return watcher.Stop()
}

func runReset(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	c, cfg, cleanup, err := openCorpus(logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer c.Close()

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		stats := c.Stats()
		fmt.Printf("This will delete %d documents (%d chunks) from %s.\n",
			stats.Documents, stats.Chunks, cfg.DataDir)
		fmt.Print("Type 'yes' to continue: ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := c.Reset(); err != nil {
		return err
	}
	fmt.Println("Corpus cleared.")
	return nil
}
