package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
	_ "modernc.org/sqlite"
)

// versionDirPrefix names bundle directories under the models root,
// e.g. kbk-1.2.0.
const versionDirPrefix = "kbk-"

// SQLiteStore implements ArtifactStore with a SQLite metadata table and
// bundle part files under a models directory.
type SQLiteStore struct {
	db   *sql.DB
	root string
}

// NewSQLite opens the metadata database and ensures the models
// directory exists.
func NewSQLite(dbPath, modelsDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create models directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, root: modelsDir}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS model_versions (
		version TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		accuracy REAL NOT NULL,
		cv_accuracy REAL NOT NULL,
		overfitting_score REAL NOT NULL,
		sample_count INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		model_path TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// ListMetadata returns metadata for every stored version.
func (s *SQLiteStore) ListMetadata(ctx context.Context) ([]domain.ModelMetadata, error) {
	query := `
		SELECT version, name, description, accuracy, cv_accuracy,
		       overfitting_score, sample_count, created_at, model_path
		FROM model_versions`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query model versions: %w", err)
	}
	defer rows.Close()

	var metas []domain.ModelMetadata
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, *meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model versions: %w", err)
	}
	return metas, nil
}

// GetMetadata retrieves the metadata record for one version.
func (s *SQLiteStore) GetMetadata(ctx context.Context, version domain.Version) (*domain.ModelMetadata, error) {
	query := `
		SELECT version, name, description, accuracy, cv_accuracy,
		       overfitting_score, sample_count, created_at, model_path
		FROM model_versions WHERE version = ?`

	row := s.db.QueryRowContext(ctx, query, version.String())
	meta, err := scanMetadata(row)
	if err == sql.ErrNoRows {
		return nil, ErrNoMetadata
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (*domain.ModelMetadata, error) {
	var meta domain.ModelMetadata
	var createdAt int64

	err := row.Scan(
		&meta.Version, &meta.Name, &meta.Description,
		&meta.Accuracy, &meta.CVAccuracy, &meta.OverfittingScore,
		&meta.SampleCount, &createdAt, &meta.ModelPath,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan model version row: %w", err)
	}
	meta.CreatedAt = time.Unix(createdAt, 0)
	return &meta, nil
}

func (s *SQLiteStore) versionDir(version domain.Version) string {
	return filepath.Join(s.root, versionDirPrefix+version.String())
}

// ReadPart reads one serialized bundle part for a version.
func (s *SQLiteStore) ReadPart(version domain.Version, part string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.versionDir(version), part))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s for version %s", ErrNoPart, part, version)
	}
	if err != nil {
		return nil, fmt.Errorf("read part %s for version %s: %w", part, version, err)
	}
	return data, nil
}

// SaveBundle persists all bundle parts and the metadata record. Parts
// are written to a temporary directory renamed into place; the metadata
// insert is the commit point, so a concurrent load can never observe a
// half-written bundle.
func (s *SQLiteStore) SaveBundle(ctx context.Context, version domain.Version, parts map[string][]byte, meta domain.ModelMetadata) (*domain.ModelMetadata, error) {
	if _, ok := parts[PartModel]; !ok {
		return nil, fmt.Errorf("save bundle %s: missing %s part", version, PartModel)
	}
	if _, ok := parts[PartVectorizer]; !ok {
		return nil, fmt.Errorf("save bundle %s: missing %s part", version, PartVectorizer)
	}

	finalDir := s.versionDir(version)
	if _, err := os.Stat(finalDir); err == nil {
		return nil, fmt.Errorf("save bundle: version %s already exists", version)
	}

	tmpDir := filepath.Join(s.root, ".tmp-"+version.String()+"-"+randomSuffix())
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp bundle directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	for part, data := range parts {
		if err := os.WriteFile(filepath.Join(tmpDir, part), data, 0o644); err != nil {
			return nil, fmt.Errorf("write part %s: %w", part, err)
		}
	}

	if err := os.Rename(tmpDir, finalDir); err != nil {
		return nil, fmt.Errorf("publish bundle directory: %w", err)
	}

	meta.Version = version.String()
	meta.CreatedAt = time.Now()
	meta.ModelPath = finalDir

	query := `
		INSERT INTO model_versions (
			version, name, description, accuracy, cv_accuracy,
			overfitting_score, sample_count, created_at, model_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		meta.Version, meta.Name, meta.Description,
		meta.Accuracy, meta.CVAccuracy, meta.OverfittingScore,
		meta.SampleCount, meta.CreatedAt.Unix(), meta.ModelPath,
	)
	if err != nil {
		// The bundle directory is unreachable without its metadata row;
		// remove it so a retry is not blocked by the exists check.
		os.RemoveAll(finalDir)
		return nil, fmt.Errorf("insert model version: %w", err)
	}
	return &meta, nil
}

// HasLegacyArtifact reports whether an unversioned bundle exists
// directly under the models root.
func (s *SQLiteStore) HasLegacyArtifact() bool {
	_, modelErr := os.Stat(filepath.Join(s.root, PartModel))
	_, vecErr := os.Stat(filepath.Join(s.root, PartVectorizer))
	return modelErr == nil && vecErr == nil
}

// ReadLegacyPart reads one part of the unversioned legacy bundle.
func (s *SQLiteStore) ReadLegacyPart(part string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, part))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: legacy %s", ErrNoPart, part)
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy part %s: %w", part, err)
	}
	return data, nil
}

func randomSuffix() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
