// Package registry persists versioned scorer parameters in sqlite.
// Versions are immutable once written.
package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/kartoza/rockburst/internal/predictor"
)

// ErrNotFound is returned when a version is not registered
var ErrNotFound = errors.New("model version not found")

// ErrVersionExists is returned when saving a version that already exists
var ErrVersionExists = errors.New("model version already exists")

// Record is a stored parameter set
type Record struct {
	ID        string           `json:"id"`
	Version   string           `json:"version"`
	Kind      predictor.Kind   `json:"kind"`
	CreatedAt string           `json:"createdAt"`
	Params    predictor.Params `json:"params"`
}

// Store manages the parameter database
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

const schema = `CREATE TABLE IF NOT EXISTS scorer_params (
	id         TEXT PRIMARY KEY,
	version    TEXT NOT NULL UNIQUE,
	kind       TEXT NOT NULL,
	params     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trained_models (
	version    TEXT PRIMARY KEY REFERENCES scorer_params(version),
	model      BLOB NOT NULL,
	created_at TEXT NOT NULL
)`

// Open opens (and if needed creates) the registry database at path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open registry %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create registry schema: %w", err)
	}

	return &Store{db: db}, nil
}

// EnsureDefaults registers the built-in parameter sets that are missing
func (s *Store) EnsureDefaults() error {
	for _, p := range predictor.DefaultParams() {
		_, err := s.Get(p.Version)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if _, err := s.Save(p); err != nil {
			return err
		}
		log.Info().Str("version", p.Version).Str("kind", string(p.Kind)).Msg("registered default model parameters")
	}
	return nil
}

// Save stores a new parameter version
func (s *Store) Save(p predictor.Params) (*Record, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to save invalid parameters: %w", err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameters: %w", err)
	}

	rec := &Record{
		ID:        uuid.New().String(),
		Version:   p.Version,
		Kind:      p.Kind,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Params:    p,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow("SELECT count(*) FROM scorer_params WHERE version = ?", p.Version).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to check version %s: %w", p.Version, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%s: %w", p.Version, ErrVersionExists)
	}

	_, err = s.db.Exec(
		"INSERT INTO scorer_params (id, version, kind, params, created_at) VALUES (?, ?, ?, ?, ?)",
		rec.ID, rec.Version, string(rec.Kind), string(data), rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save version %s: %w", p.Version, err)
	}
	return rec, nil
}

// Get loads a parameter version
func (s *Store) Get(version string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT id, version, kind, params, created_at FROM scorer_params WHERE version = ?", version)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", version, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load version %s: %w", version, err)
	}
	return rec, nil
}

// List returns all versions, oldest first
func (s *Store) List() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, version, kind, params, created_at FROM scorer_params ORDER BY created_at, version")
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveModel stores the trained artefact of a version. Like parameters,
// a stored model is never replaced.
func (s *Store) SaveModel(version string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow("SELECT count(*) FROM trained_models WHERE version = ?", version).Scan(&count); err != nil {
		return fmt.Errorf("failed to check model %s: %w", version, err)
	}
	if count > 0 {
		return fmt.Errorf("%s model: %w", version, ErrVersionExists)
	}

	_, err := s.db.Exec(
		"INSERT INTO trained_models (version, model, created_at) VALUES (?, ?, ?)",
		version, data, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save model %s: %w", version, err)
	}
	return nil
}

// GetModel loads the trained artefact of a version
func (s *Store) GetModel(version string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	err := s.db.QueryRow("SELECT model FROM trained_models WHERE version = ?", version).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s model: %w", version, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", version, err)
	}
	return data, nil
}

// Predictor builds the scorer of a registered version. A forest is trained
// the first time its version is loaded and the trees are stored, so every
// later load, in this process or another, scores identically.
func (s *Store) Predictor(version string) (predictor.Predictor, error) {
	rec, err := s.Get(version)
	if err != nil {
		return nil, err
	}
	if rec.Kind != predictor.KindForest {
		return predictor.New(rec.Params)
	}

	data, err := s.GetModel(version)
	if err == nil {
		return predictor.LoadForestScorer(rec.Params, data)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	f, err := predictor.NewForestScorer(rec.Params)
	if err != nil {
		return nil, err
	}
	if data, err = f.MarshalModel(); err != nil {
		return nil, err
	}

	if err := s.SaveModel(version, data); err != nil {
		if !errors.Is(err, ErrVersionExists) {
			return nil, err
		}
		// Another process stored its forest first; use that one
		if data, err = s.GetModel(version); err != nil {
			return nil, err
		}
	} else {
		log.Info().Str("version", version).Int("bytes", len(data)).Msg("stored trained forest")
	}

	return predictor.LoadForestScorer(rec.Params, data)
}

// Close closes the database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec  Record
		kind string
		data string
	)
	if err := row.Scan(&rec.ID, &rec.Version, &kind, &data, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Kind = predictor.Kind(kind)
	if err := json.Unmarshal([]byte(data), &rec.Params); err != nil {
		return nil, fmt.Errorf("failed to parse parameters of %s: %w", rec.Version, err)
	}
	return &rec, nil
}
