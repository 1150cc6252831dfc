// Package ingest feeds documents from the filesystem into the corpus.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/schollz/progressbar/v3"

	"gigdex/internal/config"
	"gigdex/internal/corpus"
	"gigdex/internal/docproc"
)

// Result summarizes a bulk ingestion run.
type Result struct {
	Ingested int
	Skipped  int
	Failed   int
	Errors   []string
}

// Loader ingests files and directories into a corpus.
type Loader struct {
	corpus   *corpus.Corpus
	cfg      config.IngestConfig
	logger   *log.Logger
	progress bool
}

// NewLoader creates a Loader. Progress bars are off by default; enable them
// with ShowProgress for interactive runs.
func NewLoader(c *corpus.Corpus, cfg config.IngestConfig, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = config.DefaultConfig().Ingest.Extensions
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = config.DefaultConfig().Ingest.MaxFileSize
	}
	return &Loader{
		corpus: c,
		cfg:    cfg,
		logger: logger,
	}
}

// ShowProgress enables a progress bar during directory ingestion.
func (l *Loader) ShowProgress(on bool) {
	l.progress = on
}

// Eligible reports whether a file would be picked up by directory ingestion.
func (l *Loader) Eligible(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range l.cfg.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// IngestFile ingests a single file. It returns the new document ID, or an
// empty ID with skipped=true when the file is filtered out.
func (l *Loader) IngestFile(ctx context.Context, path string) (docID string, skipped bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, err
	}
	if info.Size() > l.cfg.MaxFileSize {
		l.logger.Debug("file too large, skipping", "path", path, "size", info.Size())
		return "", true, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	text := string(data)

	if l.cfg.RelevantOnly && !docproc.IsRelevant(text) {
		l.logger.Debug("not a concert document, skipping", "path", path)
		return "", true, nil
	}

	docID, err = l.corpus.Ingest(ctx, text, docproc.Caption(text))
	if err != nil {
		return "", false, fmt.Errorf("ingest %s: %w", path, err)
	}
	return docID, false, nil
}

// IngestDir walks dir and ingests every eligible file, honoring the
// configured ignore file when present.
func (l *Loader) IngestDir(ctx context.Context, dir string) (*Result, error) {
	matcher := l.loadIgnoreFile(dir)

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}

		if info.IsDir() {
			if matcher != nil && rel != "." && matcher.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		if !l.Eligible(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	var bar *progressbar.ProgressBar
	if l.progress && len(files) > 0 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("Ingesting"),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	result := &Result{}
	for _, path := range files {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		_, skipped, err := l.IngestFile(ctx, path)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			l.logger.Warn("ingest failed", "path", path, "err", err)
		case skipped:
			result.Skipped++
		default:
			result.Ingested++
		}

		if bar != nil {
			bar.Add(1)
		}
	}

	l.logger.Info("directory ingested", "dir", dir,
		"ingested", result.Ingested, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// loadIgnoreFile compiles the ignore pattern file in dir, if any.
func (l *Loader) loadIgnoreFile(dir string) *ignore.GitIgnore {
	if l.cfg.IgnoreFile == "" {
		return nil
	}
	path := filepath.Join(dir, l.cfg.IgnoreFile)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		l.logger.Warn("bad ignore file", "path", path, "err", err)
		return nil
	}
	return matcher
}
