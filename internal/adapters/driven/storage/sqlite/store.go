package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/vecmath"
)

// DatabaseFilename is the file created inside each index directory.
const DatabaseFilename = "index.db"

// Ensure the engine and store implement the interfaces.
var (
	_ driven.VectorStoreEngine = (*Engine)(nil)
	_ driven.VectorStore       = (*Store)(nil)
)

// Engine creates and opens SQLite vector stores inside index directories.
type Engine struct{}

// NewEngine creates a new SQLite vector store engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Name returns "sqlite".
func (e *Engine) Name() string {
	return "sqlite"
}

// Create initialises an empty store in dir, replacing any existing database.
func (e *Engine) Create(ctx context.Context, dir string) (driven.VectorStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dir, DatabaseFilename)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("removing old database: %w", err)
		}
	}

	return openStore(ctx, dbPath)
}

// Open opens the store previously created in dir.
func (e *Engine) Open(ctx context.Context, dir string) (driven.VectorStore, error) {
	dbPath := filepath.Join(dir, DatabaseFilename)
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("vector store %s: %w", dbPath, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("stat database: %w", err)
	}
	return openStore(ctx, dbPath)
}

// Store is a SQLite-backed vector store for one index.
type Store struct {
	db   *sql.DB
	path string

	mu     sync.RWMutex
	cached []cachedRecord
	loaded bool
}

type cachedRecord struct {
	chunk     domain.Chunk
	embedding []float32
}

func openStore(ctx context.Context, dbPath string) (*Store, error) {
	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores records in a single transaction.
func (s *Store) Add(ctx context.Context, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO records (position, index_id, page, content, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %d has no embedding", domain.ErrInvalidInput, r.Chunk.Index)
		}
		if _, err := stmt.ExecContext(ctx, r.Chunk.Index, r.IndexID.String(), r.Chunk.Page,
			r.Chunk.Text, float32SliceToBytes(r.Embedding)); err != nil {
			return fmt.Errorf("saving record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.mu.Lock()
	s.loaded = false
	s.cached = nil
	s.mu.Unlock()
	return nil
}

// Search returns the k records most similar to query, most similar first.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}

	ranked := vecmath.NewTopK(k)
	for i := range records {
		ranked.Push(i, vecmath.Cosine(query, records[i].embedding))
	}

	hits := make([]driven.VectorHit, 0, ranked.Len())
	for _, r := range ranked.Sorted() {
		hits = append(hits, driven.VectorHit{Chunk: records[r.ID].chunk, Similarity: r.Score})
	}
	return hits, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// records returns every stored record ordered by position, reading the
// table on first use after an Add.
func (s *Store) records(ctx context.Context) ([]cachedRecord, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.cached, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.cached, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, page, content, embedding
		FROM records
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []cachedRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r cachedRecord
		var blob []byte
		if err := rows.Scan(&r.chunk.Index, &r.chunk.Page, &r.chunk.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.embedding = bytesToFloat32Slice(blob)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	s.cached = out
	s.loaded = true
	return out, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_vectors.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
