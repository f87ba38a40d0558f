package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/bpe-tokenizer/bpet/tokenizer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "github.com/tursodatabase/go-libsql"
)

// ErrModelNotFound is returned when no stored model matches a lookup.
var ErrModelNotFound = errors.New("model not found")

// ModelInfo describes a stored model without loading its symbols.
type ModelInfo struct {
	ID        uuid.UUID
	Name      string
	VocabSize int
	Merges    int
	CreatedAt time.Time
}

// ModelStore keeps trained models in a libsql database. Every save creates
// a new version; names are not unique.
type ModelStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

type Option func(*ModelStore)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *ModelStore) { s.logger = logger }
}

// Open connects to dsn and creates the schema if needed. Local "file:"
// DSNs get their parent directory created.
func Open(dsn string, opts ...Option) (*ModelStore, error) {
	if path, ok := strings.CutPrefix(dsn, "file:"); ok {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("could not create store directory: %w", err)
		}
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open model store: %w", err)
	}

	s := &ModelStore{db: db, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug().Str("dsn", dsn).Msg("model store opened")
	return s, nil
}

func (s *ModelStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS models (
		id TEXT PRIMARY KEY UNIQUE,
		name TEXT NOT NULL,
		vocab_size INTEGER NOT NULL,
		merge_count INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create models table: %w", err)
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS symbols (
		model_id TEXT NOT NULL,
		token_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		PRIMARY KEY (model_id, token_id)
	)`)
	if err != nil {
		return fmt.Errorf("failed to create symbols table: %w", err)
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS merges (
		model_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		left_symbol TEXT NOT NULL,
		right_symbol TEXT NOT NULL,
		PRIMARY KEY (model_id, position)
	)`)
	if err != nil {
		return fmt.Errorf("failed to create merges table: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *ModelStore) Close() error {
	return s.db.Close()
}

// SaveModel stores m under name and returns the new version's metadata.
func (s *ModelStore) SaveModel(ctx context.Context, name string, m *tokenizer.Model) (*ModelInfo, error) {
	if name == "" {
		return nil, errors.New("model name must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	info := ModelInfo{
		ID:        uuid.New(),
		Name:      name,
		VocabSize: m.Vocabulary.Len(),
		Merges:    m.Merges.Len(),
		CreatedAt: time.Now(),
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO models (id, name, vocab_size, merge_count, created_at) VALUES (?, ?, ?, ?, ?)",
		info.ID, info.Name, info.VocabSize, info.Merges, info.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert model: %w", err)
	}

	for id, sym := range m.Vocabulary.Symbols() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO symbols (model_id, token_id, symbol) VALUES (?, ?, ?)",
			info.ID, id, sym); err != nil {
			return nil, fmt.Errorf("failed to insert symbol %d: %w", id, err)
		}
	}

	for pos, r := range m.Merges.Rules() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO merges (model_id, position, left_symbol, right_symbol) VALUES (?, ?, ?, ?)",
			info.ID, pos, r.Pair.Left, r.Pair.Right); err != nil {
			return nil, fmt.Errorf("failed to insert merge %d: %w", pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().
		Str("id", info.ID.String()).
		Str("name", name).
		Int("vocab_size", info.VocabSize).
		Int("merges", info.Merges).
		Msg("model saved")
	return &info, nil
}

// GetModel loads the model with the given id.
func (s *ModelStore) GetModel(ctx context.Context, id uuid.UUID) (*tokenizer.Model, *ModelInfo, error) {
	info, err := s.scanInfo(s.db.QueryRowContext(ctx,
		"SELECT id, name, vocab_size, merge_count, created_at FROM models WHERE id = ?", id))
	if err != nil {
		return nil, nil, err
	}
	m, err := s.loadModel(ctx, info.ID)
	if err != nil {
		return nil, nil, err
	}
	return m, info, nil
}

// GetLatestModel loads the most recently saved model called name. An empty
// name matches any model.
func (s *ModelStore) GetLatestModel(ctx context.Context, name string) (*tokenizer.Model, *ModelInfo, error) {
	var row *sql.Row
	if name == "" {
		row = s.db.QueryRowContext(ctx,
			"SELECT id, name, vocab_size, merge_count, created_at FROM models ORDER BY created_at DESC, rowid DESC LIMIT 1")
	} else {
		row = s.db.QueryRowContext(ctx,
			"SELECT id, name, vocab_size, merge_count, created_at FROM models WHERE name = ? ORDER BY created_at DESC, rowid DESC LIMIT 1", name)
	}
	info, err := s.scanInfo(row)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.loadModel(ctx, info.ID)
	if err != nil {
		return nil, nil, err
	}
	return m, info, nil
}

// ListModels returns every stored model, newest first.
func (s *ModelStore) ListModels(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, vocab_size, merge_count, created_at FROM models ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var out []ModelInfo
	for rows.Next() {
		info, err := s.scanInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate models: %w", err)
	}
	return out, nil
}

// DeleteModel removes a model and its symbols and merges.
func (s *ModelStore) DeleteModel(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM models WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM symbols WHERE model_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete symbols: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM merges WHERE model_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete merges: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.Info().Str("id", id.String()).Msg("model deleted")
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *ModelStore) scanInfo(row rowScanner) (*ModelInfo, error) {
	var (
		info    ModelInfo
		created int64
	)
	err := row.Scan(&info.ID, &info.Name, &info.VocabSize, &info.Merges, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan model: %w", err)
	}
	info.CreatedAt = time.Unix(0, created)
	return &info, nil
}

func (s *ModelStore) loadModel(ctx context.Context, id uuid.UUID) (*tokenizer.Model, error) {
	symRows, err := s.db.QueryContext(ctx,
		"SELECT symbol FROM symbols WHERE model_id = ? ORDER BY token_id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer symRows.Close()

	var symbols []string
	for symRows.Next() {
		var sym string
		if err := symRows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	if err := symRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate symbols: %w", err)
	}

	mergeRows, err := s.db.QueryContext(ctx,
		"SELECT left_symbol, right_symbol FROM merges WHERE model_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query merges: %w", err)
	}
	defer mergeRows.Close()

	var rules []tokenizer.MergeRule
	for mergeRows.Next() {
		var p tokenizer.Pair
		if err := mergeRows.Scan(&p.Left, &p.Right); err != nil {
			return nil, fmt.Errorf("failed to scan merge: %w", err)
		}
		rules = append(rules, tokenizer.MergeRule{Pair: p, Result: p.Merged()})
	}
	if err := mergeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate merges: %w", err)
	}

	m, err := tokenizer.NewModel(symbols, rules)
	if err != nil {
		return nil, fmt.Errorf("stored model %s is corrupt: %w", id, err)
	}
	return m, nil
}
