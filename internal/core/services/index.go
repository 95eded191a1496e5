package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// MetadataFilename marks a completed index build.
const MetadataFilename = "metadata.json"

// Retry defaults for a failed embedding batch.
const (
	DefaultRetryInitialInterval = 2 * time.Second
	DefaultRetryMultiplier      = 2.0
	DefaultRetryMaxInterval     = 30 * time.Second
)

// PauseFunc waits between embedding batches.
type PauseFunc func(ctx context.Context, d time.Duration) error

// IndexOption configures an IndexService.
type IndexOption func(*IndexService)

// WithObserver sets the progress observer.
func WithObserver(o driven.Observer) IndexOption {
	return func(s *IndexService) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithPause replaces the inter-batch pause. Tests use it to count pauses.
func WithPause(p PauseFunc) IndexOption {
	return func(s *IndexService) {
		if p != nil {
			s.pause = p
		}
	}
}

// WithRetryBackOff replaces the backoff policy used between batch retries.
func WithRetryBackOff(newBackOff func() backoff.BackOff) IndexOption {
	return func(s *IndexService) {
		if newBackOff != nil {
			s.newBackOff = newBackOff
		}
	}
}

// WithClock replaces the clock used for metadata timestamps.
func WithClock(now func() time.Time) IndexOption {
	return func(s *IndexService) {
		if now != nil {
			s.now = now
		}
	}
}

// IndexService builds, reuses and removes per-document vector indexes.
// Each document's index lives in its own directory named by fingerprint.
type IndexService struct {
	chunks   driven.ChunkSource
	embedder driven.EmbeddingService
	engine   driven.VectorStoreEngine
	settings domain.IndexSettings
	observer driven.Observer

	pause      PauseFunc
	newBackOff func() backoff.BackOff
	now        func() time.Time

	// locks serialises builds and loads of the same fingerprint.
	locks sync.Map
}

// NewIndexService creates a new index service.
func NewIndexService(
	chunks driven.ChunkSource,
	embedder driven.EmbeddingService,
	engine driven.VectorStoreEngine,
	settings domain.IndexSettings,
	opts ...IndexOption,
) *IndexService {
	s := &IndexService{
		chunks:     chunks,
		embedder:   embedder,
		engine:     engine,
		settings:   settings,
		observer:   driven.NopObserver{},
		pause:      sleep,
		newBackOff: defaultBackOff,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the index directory for fp.
func (s *IndexService) Dir(fp domain.Fingerprint) string {
	return filepath.Join(s.settings.BaseDir, fp.String())
}

// LoadOrCreate returns a searchable index for doc, building it if needed.
func (s *IndexService) LoadOrCreate(ctx context.Context, doc *domain.Document) (driving.SearchableIndex, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	logger.Section("Index")
	fp := doc.Fingerprint()
	s.emit(ctx, domain.StageFingerprint, "Fingerprint %s for %s", fp, doc.Name)

	unlock := s.lock(fp)
	defer unlock()

	dir := s.Dir(fp)

	meta, err := readMetadata(dir)
	switch {
	case err == nil && meta.Matches(fp):
		idx, openErr := s.open(ctx, fp, dir)
		if openErr == nil {
			s.emit(ctx, domain.StageLoad, "Loading existing index for %s", doc.Name)
			s.checkModel(ctx, meta)
			return idx, nil
		}
		logger.Warn("Completed index %s could not be opened, rebuilding: %v", fp, openErr)
	case err == nil:
		logger.Warn("Index %s has metadata for %q, rebuilding", fp, meta.Hash)
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("No completed index at %s", dir)
	default:
		logger.Warn("Index %s metadata unreadable, rebuilding: %v", fp, err)
	}

	if err := s.discard(dir); err != nil {
		return nil, err
	}

	return s.build(ctx, doc, fp, dir)
}

// Status reports the on-disk state of doc's index.
func (s *IndexService) Status(_ context.Context, doc *domain.Document) (*domain.IndexStatus, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	fp := doc.Fingerprint()
	status := &domain.IndexStatus{
		Fingerprint: fp,
		Dir:         s.Dir(fp),
	}

	info, err := os.Stat(status.Dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return status, nil
	case err != nil:
		return nil, fmt.Errorf("stat index directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrIndexIncomplete, status.Dir)
	}
	status.Exists = true

	meta, err := readMetadata(status.Dir)
	if err == nil {
		status.Metadata = meta
		status.Complete = meta.Matches(fp)
	}
	return status, nil
}

// Remove deletes the index directory for fp.
func (s *IndexService) Remove(_ context.Context, fp domain.Fingerprint) error {
	if !fp.IsValid() {
		return fmt.Errorf("%w: invalid fingerprint %q", domain.ErrInvalidInput, fp)
	}

	unlock := s.lock(fp)
	defer unlock()

	dir := s.Dir(fp)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("index %s: %w", fp, domain.ErrNotFound)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove index %s: %w", fp, err)
	}
	logger.Info("Removed index %s", fp)
	return nil
}

// SaveUpload copies the document bytes into the upload directory, named by
// fingerprint, and returns the written path. Existing copies are kept.
func (s *IndexService) SaveUpload(_ context.Context, doc *domain.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if s.settings.UploadDir == "" {
		return "", fmt.Errorf("%w: upload directory is not set", domain.ErrConfiguration)
	}
	if err := os.MkdirAll(s.settings.UploadDir, 0o700); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	name := doc.Fingerprint().String() + filepath.Ext(doc.Name)
	path := filepath.Join(s.settings.UploadDir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := writeFileAtomic(path, doc.Content); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// build creates a fresh index in dir. Metadata is written only after every
// batch has been persisted; a failure leaves dir without metadata. A document
// that yields no chunks fails before dir is created.
func (s *IndexService) build(
	ctx context.Context, doc *domain.Document, fp domain.Fingerprint, dir string,
) (driving.SearchableIndex, error) {
	s.emit(ctx, domain.StageLoad, "Creating new index for %s", doc.Name)

	chunks, err := s.chunks.Split(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.Name, domain.ErrEmptyDocument)
	}
	s.emit(ctx, domain.StageSplit, "Split %s into %d chunks", doc.Name, len(chunks))

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	store, err := s.engine.Create(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", s.engine.Name(), err)
	}

	if err := s.populate(ctx, store, fp, chunks); err != nil {
		_ = store.Close()
		return nil, err
	}

	meta := domain.IndexMetadata{
		Hash:           fp,
		ChunkCount:     len(chunks),
		EmbeddingModel: s.embedder.ModelName(),
		CreatedAt:      s.now().UTC(),
	}
	if err := writeMetadata(dir, meta); err != nil {
		_ = store.Close()
		return nil, err
	}
	s.emit(ctx, domain.StagePersist, "Index for %s saved with %d chunks", doc.Name, len(chunks))

	return newSearchableIndex(fp, store, s.embedder, len(chunks)), nil
}

// populate embeds chunks batch by batch, pausing between batches.
// Batches run strictly in sequence.
func (s *IndexService) populate(
	ctx context.Context, store driven.VectorStore, fp domain.Fingerprint, chunks []domain.Chunk,
) error {
	batches := partition(chunks, s.settings.BatchSize)

	for i, batch := range batches {
		s.emit(ctx, domain.StageEmbed, "Processing batch %d/%d", i+1, len(batches))

		vectors, err := s.embedBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("%w: batch %d/%d: %w", domain.ErrEmbeddingService, i+1, len(batches), err)
		}

		records := make([]domain.IndexRecord, len(batch))
		for j, c := range batch {
			records[j] = domain.IndexRecord{Chunk: c, Embedding: vectors[j], IndexID: fp}
		}
		if err := store.Add(ctx, records); err != nil {
			return fmt.Errorf("store batch %d/%d: %w", i+1, len(batches), err)
		}

		if i < len(batches)-1 && s.settings.BatchDelay > 0 {
			s.emit(ctx, domain.StageWait, "Waiting for %d seconds before the next batch",
				int(s.settings.BatchDelay/time.Second))
			if err := s.pause(ctx, s.settings.BatchDelay); err != nil {
				return fmt.Errorf("pause after batch %d/%d: %w", i+1, len(batches), err)
			}
		}
	}
	return nil
}

// embedBatch issues one embedding call for the batch, retried with bounded
// exponential backoff.
func (s *IndexService) embedBatch(ctx context.Context, batch []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	attempts := s.settings.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	return backoff.Retry(ctx,
		func() ([][]float32, error) {
			vectors, err := s.embedder.EmbedBatch(ctx, texts)
			if errors.Is(err, domain.ErrConfiguration) {
				return nil, backoff.Permanent(err)
			}
			if err != nil {
				return nil, err
			}
			if len(vectors) != len(texts) {
				return nil, backoff.Permanent(fmt.Errorf("got %d embeddings for %d texts", len(vectors), len(texts)))
			}
			return vectors, nil
		},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("Embedding batch failed, retrying in %s: %v", next, err)
		}),
	)
}

func (s *IndexService) open(ctx context.Context, fp domain.Fingerprint, dir string) (driving.SearchableIndex, error) {
	store, err := s.engine.Open(ctx, dir)
	if err != nil {
		return nil, err
	}
	n, err := store.Count(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return newSearchableIndex(fp, store, s.embedder, n), nil
}

// checkModel reports a reused index whose vectors came from another embedding
// model. Queries against it score every record as zero.
func (s *IndexService) checkModel(ctx context.Context, meta *domain.IndexMetadata) {
	current := s.embedder.ModelName()
	if meta.EmbeddingModel == "" || meta.EmbeddingModel == current {
		return
	}
	logger.Warn("Index %s was built with %s but queries use %s", meta.Hash, meta.EmbeddingModel, current)
	s.emit(ctx, domain.StageLoad, "Warning: index built with %s, now embedding with %s; run 'docqa index rm' to rebuild",
		meta.EmbeddingModel, current)
}

// discard removes a stale or incomplete index directory.
func (s *IndexService) discard(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	logger.Info("Discarding incomplete index at %s", dir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: remove %s: %w", domain.ErrIndexIncomplete, dir, err)
	}
	return nil
}

func (s *IndexService) lock(fp domain.Fingerprint) func() {
	v, _ := s.locks.LoadOrStore(fp, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *IndexService) emit(ctx context.Context, stage domain.Stage, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Debug("%s: %s", stage, msg)
	s.observer.OnEvent(ctx, domain.Event{Stage: stage, Message: msg})
}

// partition splits chunks into consecutive batches of at most size elements.
func partition(chunks []domain.Chunk, size int) [][]domain.Chunk {
	if size < 1 {
		size = 1
	}
	batches := make([][]domain.Chunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		batches = append(batches, chunks[start:end])
	}
	return batches
}

func readMetadata(dir string) (*domain.IndexMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFilename))
	if err != nil {
		return nil, err
	}
	var meta domain.IndexMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrIndexIncomplete, MetadataFilename, err)
	}
	return &meta, nil
}

func writeMetadata(dir string, meta domain.IndexMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, MetadataFilename), data); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultRetryInitialInterval
	b.Multiplier = DefaultRetryMultiplier
	b.MaxInterval = DefaultRetryMaxInterval
	return b
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
