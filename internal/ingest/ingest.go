// Package ingest feeds files from disk into the document store and the
// organization engine: text extraction, stable path-derived document IDs,
// and incremental re-ingestion that skips unchanged files.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inkroot/folio/internal/engine"
	"github.com/inkroot/folio/internal/extract"
	"github.com/inkroot/folio/internal/models"
	"github.com/inkroot/folio/internal/storage"
)

const idPrefix = "file:"

// FileDocID returns the document ID for the file at absolutePath. The ID
// is derived from the cleaned path, so ingesting the same file again
// updates the same document and removal by path finds it.
func FileDocID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	sum := sha256.Sum256([]byte(normalized))
	return idPrefix + hex.EncodeToString(sum[:])
}

const (
	metaKeySourcePath  = "source_path"
	metaKeySourceMtime = "source_mtime"
	metaKeySourceSize  = "source_size"
)

// Ingestor reads files, stores their extracted text, and processes them
// through the engine.
type Ingestor struct {
	store       storage.DocumentStore
	engine      *engine.Engine
	extractor   *extract.Extractor
	scanner     *extract.MetadataScanner
	extensions  []string
	concurrency int
	logger      *zap.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets the logger used for per-file events.
func WithLogger(logger *zap.Logger) Option {
	return func(ing *Ingestor) {
		ing.logger = logger
	}
}

// WithConcurrency caps how many files IngestDirectory processes at once.
func WithConcurrency(n int) Option {
	return func(ing *Ingestor) {
		if n > 0 {
			ing.concurrency = n
		}
	}
}

// NewIngestor creates an ingestor over the given store and engine.
// extractor may be nil; when nil, every file is read as plain text.
// extensions is the allow-list applied to each file; empty accepts all.
func NewIngestor(store storage.DocumentStore, eng *engine.Engine, extractor *extract.Extractor, extensions []string, opts ...Option) *Ingestor {
	ing := &Ingestor{
		store:       store,
		engine:      eng,
		extractor:   extractor,
		scanner:     extract.NewMetadataScanner(),
		extensions:  extensions,
		concurrency: runtime.NumCPU(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// IngestFile reads the file at path, stores its extracted text, and
// processes it through the engine. Re-ingesting a path whose size and
// modification time are unchanged is a no-op.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(ing.extensions) > 0 && !extensionAllowed(ext, ing.extensions) {
		return fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}

	docID := FileDocID(absPath)
	if ing.unchanged(ctx, absPath, docID, info) {
		ing.logger.Debug("skipping unchanged file", zap.String("path", absPath))
		return nil
	}

	text, err := ing.extractContent(absPath)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}
	doc := &models.Document{
		ID:      docID,
		Title:   ing.titleFor(text, absPath),
		Content: text,
		Metadata: map[string]interface{}{
			metaKeySourcePath:  absPath,
			metaKeySourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaKeySourceSize:  strconv.FormatInt(info.Size(), 10),
		},
	}
	if err := ing.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	if err := ing.engine.ProcessDocument(doc); err != nil {
		return fmt.Errorf("process document: %w", err)
	}
	ing.logger.Debug("file ingested",
		zap.String("path", absPath),
		zap.String("document_id", docID))
	return nil
}

// unchanged reports whether the engine already carries this file with the
// same fingerprint and the store still holds its body.
func (ing *Ingestor) unchanged(ctx context.Context, absPath, docID string, info os.FileInfo) bool {
	meta, err := ing.engine.DocumentMetadata(docID)
	if err != nil {
		return false
	}
	if models.MetadataString(meta, metaKeySourcePath) != absPath {
		return false
	}
	// Fingerprint values are stored as strings: UnixNano exceeds the
	// 53-bit range JSON numbers survive as float64.
	if metadataInt64(meta, metaKeySourceMtime) != info.ModTime().UnixNano() {
		return false
	}
	if metadataInt64(meta, metaKeySourceSize) != info.Size() {
		return false
	}
	if _, err := ing.store.GetDocument(ctx, docID); err != nil {
		return false
	}
	return true
}

// titleFor prefers a title declared in the content itself and falls back
// to the file name.
func (ing *Ingestor) titleFor(text, absPath string) string {
	if meta, err := ing.scanner.ExtractMetadata(text); err == nil {
		if title := models.MetadataString(meta, models.MetaTitle); title != "" {
			return title
		}
	}
	return filepath.Base(absPath)
}

// IngestDirectory walks dir recursively and ingests every regular file
// that passes the extension allow-list, with up to the configured number
// of files in flight at once. Returns the number of files ingested and
// the first error encountered, if any.
func (ing *Ingestor) IngestDirectory(ctx context.Context, dir string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}

	var paths []string
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(ing.extensions) > 0 && !extensionAllowed(ext, ing.extensions) {
			return nil
		}
		// Stat resolves symlinks so only regular files are ingested.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk directory: %w", err)
	}

	var n atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.concurrency)
	for _, path := range paths {
		g.Go(func() error {
			if err := ing.IngestFile(gctx, path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			n.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(n.Load()), err
}

// RemoveFile removes the document previously ingested from path from both
// the engine and the store. Removing a path that was never ingested is a
// no-op.
func (ing *Ingestor) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	docID := FileDocID(absPath)
	if err := ing.engine.RemoveDocument(docID); err != nil && !errors.Is(err, engine.ErrDocumentNotFound) {
		return err
	}
	if err := ing.store.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete stored document: %w", err)
	}
	ing.logger.Debug("file removed",
		zap.String("path", absPath),
		zap.String("document_id", docID))
	return nil
}

// Rebuild reprocesses every stored document through the engine, restoring
// index, hierarchy, and tag state from the stored bodies.
func (ing *Ingestor) Rebuild(ctx context.Context) (int, error) {
	const pageSize = 200
	n := 0
	for offset := 0; ; offset += pageSize {
		docs, err := ing.store.ListDocuments(ctx, offset, pageSize)
		if err != nil {
			return n, fmt.Errorf("list documents: %w", err)
		}
		if len(docs) == 0 {
			break
		}
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return n, err
			}
			if err := ing.engine.ProcessDocument(doc); err != nil {
				return n, fmt.Errorf("process document %s: %w", doc.ID, err)
			}
			n++
		}
		if len(docs) < pageSize {
			break
		}
	}
	ing.logger.Info("rebuild complete", zap.Int("documents", n))
	return n, nil
}

func (ing *Ingestor) extractContent(path string) (string, error) {
	if ing.extractor != nil {
		return ing.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func metadataInt64(meta map[string]interface{}, key string) int64 {
	switch v := meta[key].(type) {
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func extensionAllowed(ext string, allowed []string) bool {
	want := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == want {
			return true
		}
	}
	return false
}
