package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/arabicpdftranslator/internal/gcp"
	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/Lllllllleong/arabicpdftranslator/internal/store"
)

const uploadKeyPrefix = "upload:"

// ObjectReader downloads an object of at most maxBytes. Oversized objects
// return nil data and their size.
type ObjectReader func(ctx context.Context, bucket, object string, maxBytes int64) ([]byte, int64, error)

// UploadTranslator translates PDFs as they land in a bucket.
type UploadTranslator struct {
	read      ObjectReader
	runner    *Runner
	ready     ReadinessChecker
	history   *History
	store     store.Store
	artifacts ArtifactSaver
	maxSize   int64
	closers   []func() error
}

// NewUploadTranslator creates the clients for the upload trigger from the environment.
func NewUploadTranslator(ctx context.Context) (*UploadTranslator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	deps, closers, err := buildDeps(ctx, cfg)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	closers = append(closers, storageClient.Close)

	read := func(ctx context.Context, bucket, object string, maxBytes int64) ([]byte, int64, error) {
		return gcp.ReadObject(ctx, storageClient, bucket, object, maxBytes)
	}
	f := NewUploadTranslatorWithDeps(deps, read)
	f.closers = closers
	slog.Info("Upload translator initialized.", "backend", cfg.Backend, "store", cfg.StoreBackend)
	return f, nil
}

// NewUploadTranslatorWithDeps assembles an UploadTranslator from explicit dependencies.
func NewUploadTranslatorWithDeps(d Deps, read ObjectReader) *UploadTranslator {
	app := NewAppWithDeps(d)
	cfg := app.Config
	return &UploadTranslator{
		read:      read,
		runner:    NewRunner(d.Extractor, app.Translator, cfg.TextPageDelay, cfg.OCRPageDelay),
		ready:     app.Translator,
		history:   app.History,
		store:     d.Store,
		artifacts: d.Artifacts,
		maxSize:   cfg.MaxFileSizeBytes,
	}
}

// Process translates one finalized object. Objects that can never succeed
// (not a PDF, too large, already translated) are logged and skipped so the
// event is not retried.
func (f *UploadTranslator) Process(ctx context.Context, e models.GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Info("Processing new GCS object.")

	if !strings.EqualFold(path.Ext(e.Name), ".pdf") {
		logCtx.Info("Object is not a PDF. Skipping.")
		return nil
	}
	if size, err := strconv.ParseInt(e.Size, 10, 64); err == nil && size > f.maxSize {
		logCtx.Warn("Object exceeds the size limit. Skipping.", "size", size, "maxSize", f.maxSize)
		return nil
	}
	if err := f.ready.Ready(ctx); err != nil {
		logCtx.Error("Translator is not ready.", "error", err)
		return err
	}

	data, size, err := f.read(ctx, e.Bucket, e.Name, f.maxSize)
	if err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}
	if data == nil {
		logCtx.Warn("Object exceeds the size limit. Skipping.", "size", size, "maxSize", f.maxSize)
		return nil
	}

	fileHash := calculateHash(data)
	logCtx = logCtx.With("fileHash", fileHash)

	isDuplicate, previous, err := f.isDuplicate(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Duplicate file detected. Skipping.", "existingHistoryId", previous)
		return nil
	}

	mode := models.ModeText
	if strings.Contains("/"+e.Name, "/ocr/") {
		mode = models.ModeOCR
	}
	doc := models.Document{Name: path.Base(e.Name), Size: size, Data: data}
	logCtx = logCtx.With("mode", mode)

	res, err := f.runner.Run(ctx, logCtx, doc, mode, nil)
	if err != nil {
		outcome := models.RunFailed
		if ctx.Err() != nil {
			outcome = models.RunStopped
		}
		runsTotal.WithLabelValues(string(outcome)).Inc()
		logCtx.Error("Translation run failed.", "error", err)
		return err
	}
	runsTotal.WithLabelValues(string(models.RunCompleted)).Inc()

	entry, err := f.history.Append(ctx, doc.Name, res.Arabic, res.Bangla)
	if err != nil {
		logCtx.Error("Failed to save history entry.", "error", err)
		return err
	}
	logCtx = logCtx.With("historyId", entry.ID)

	if err := f.store.Set(ctx, uploadKeyPrefix+fileHash, strconv.FormatInt(entry.ID, 10)); err != nil {
		logCtx.Error("Failed to record processed upload.", "error", err)
		return err
	}

	// Export failures are logged only; the upload is already recorded.
	if f.artifacts != nil {
		runID := "upload-" + fileHash[:16]
		if err := f.artifacts.SaveRun(ctx, runID, res.Arabic, res.Bangla); err != nil {
			logCtx.Error("Failed to export run artifacts.", "error", err)
		}
	}
	logCtx.Info("Upload translated.", "totalPages", res.Pages)
	return nil
}

func (f *UploadTranslator) isDuplicate(ctx context.Context, fileHash string) (bool, string, error) {
	previous, err := f.store.Get(ctx, uploadKeyPrefix+fileHash)
	if errors.Is(err, store.ErrNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to query for duplicates: %w", err)
	}
	return true, previous, nil
}

// Close releases the clients created by NewUploadTranslator.
func (f *UploadTranslator) Close() error {
	var errs []error
	for _, c := range f.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func calculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
