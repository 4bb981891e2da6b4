package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "library.db"

// pragmas apply to every pooled connection; foreign_keys is per connection.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Store owns the library database. The storage ports are thin views over it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens dataDir/library.db, creating it and applying pending
// migrations. An empty dataDir means ~/.marginalia/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".marginalia", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// DocumentStore returns the documents table as a port.
func (s *Store) DocumentStore() driven.DocumentStore { return &documentStore{store: s} }

// ChapterCache returns the chapters table as a port.
func (s *Store) ChapterCache() driven.ChapterCache { return &chapterCache{store: s} }

// ChunkStore returns the chunks table as a port. Closing it leaves the
// database open.
func (s *Store) ChunkStore() driven.ChunkStore { return &chunkStore{store: s} }

// SchemaVersion returns the number of the last applied migration.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

type migration struct {
	version int
	name    string
}

// migrate applies each NNN_name.up.sql newer than PRAGMA user_version, in
// order. Every file runs in its own transaction together with the version
// bump, so a failed migration leaves the previous schema intact.
func (s *Store) migrate(fsys fs.FS) error {
	current, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	pending, err := pendingMigrations(fsys, current)
	if err != nil {
		return err
	}

	for _, m := range pending {
		script, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(string(script)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", m.name, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.Exec("PRAGMA user_version = " + strconv.Itoa(m.version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", m.name, err)
		}
		logger.Debug("Applied migration %s", m.name)
	}
	return nil
}

// pendingMigrations lists the up migrations above version, oldest first.
// Files without a numeric prefix are ignored.
func pendingMigrations(fsys fs.FS, version int) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}
	var out []migration
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		n, err := strconv.Atoi(prefix)
		if !ok || err != nil || n <= version {
			continue
		}
		out = append(out, migration{version: n, name: name})
	}
	slices.SortFunc(out, func(a, b migration) int { return a.version - b.version })
	return out, nil
}

// float32SliceToBytes encodes a vector as little-endian float32s.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(floats))
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice decodes a stored vector. Trailing bytes short of a
// whole float are ignored.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return floats
}
