package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLite is the local backend used when no remote credentials are
// configured: a single embedded database file, no cross-session change
// notification. The stand-in for the original's browser-local storage.
type SQLite struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLite opens (or creates) the local database, ensures the envelope
// tables exist, and seeds default categories and card types on first run.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	// A single writer keeps SQLite happy.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, logger: util.GetLogger()}
	if err := s.ensureTables(); err != nil {
		return nil, err
	}
	if err := s.seedDefaults(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureTables() error {
	for table := range knownTables {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				data TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`, table)
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// seedDefaults populates empty category and card-type tables with the
// default sets. Products and orders start empty.
func (s *SQLite) seedDefaults() error {
	seedTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var nCategories int
	if err := s.db.Get(&nCategories, "SELECT COUNT(*) FROM categories"); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if nCategories == 0 {
		for i, c := range models.DefaultCategories() {
			if err := s.seedRow(models.TableCategories, c.ID, c, seedTime.Add(time.Duration(i)*time.Second)); err != nil {
				return err
			}
		}
		s.logger.Info("Seeded default categories")
	}

	var nCardTypes int
	if err := s.db.Get(&nCardTypes, "SELECT COUNT(*) FROM card_types"); err != nil {
		return fmt.Errorf("failed to count card types: %w", err)
	}
	if nCardTypes == 0 {
		for i, ct := range models.DefaultCardTypes() {
			if err := s.seedRow(models.TableCardTypes, ct.ID, ct, seedTime.Add(time.Duration(i)*time.Second)); err != nil {
				return err
			}
		}
		s.logger.Info("Seeded default card types")
	}

	return nil
}

func (s *SQLite) seedRow(table, id string, entity interface{}, at time.Time) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal seed row: %w", err)
	}
	query := fmt.Sprintf("INSERT INTO %s (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)", table)
	if _, err := s.db.Exec(query, id, string(data), at, at); err != nil {
		return fmt.Errorf("failed to seed %s: %w", table, err)
	}
	return nil
}

// Close closes the database file.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqliteRecord struct {
	ID        string    `db:"id"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Select retrieves all rows of a table in creation order.
func (s *SQLite) Select(ctx context.Context, table string) ([]Record, error) {
	if err := checkTable("select", table); err != nil {
		return nil, err
	}

	var rows []sqliteRecord
	query := fmt.Sprintf("SELECT id, data, created_at, updated_at FROM %s ORDER BY created_at, id", table)
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, &models.PersistenceError{Op: "select", Err: err}
	}

	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = Record{ID: r.ID, Data: json.RawMessage(r.Data), CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
	}
	return records, nil
}

// Insert persists a new row, generating an id when none is given.
func (s *SQLite) Insert(ctx context.Context, table, id string, data json.RawMessage) (Record, error) {
	if err := checkTable("insert", table); err != nil {
		return Record{}, err
	}
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	query := fmt.Sprintf("INSERT INTO %s (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)", table)
	if _, err := s.db.ExecContext(ctx, query, id, string(data), now, now); err != nil {
		return Record{}, &models.PersistenceError{Op: "insert", Err: err}
	}

	return Record{ID: id, Data: data, CreatedAt: now, UpdatedAt: now}, nil
}

// Update replaces a row's document.
func (s *SQLite) Update(ctx context.Context, table, id string, data json.RawMessage) error {
	if err := checkTable("update", table); err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET data = ?, updated_at = ? WHERE id = ?", table)
	res, err := s.db.ExecContext(ctx, query, string(data), time.Now().UTC(), id)
	if err != nil {
		return &models.PersistenceError{Op: "update", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &models.PersistenceError{Op: "update", Err: fmt.Errorf("no row with id %s in %s", id, table)}
	}
	return nil
}

// Delete removes a row. Deleting an absent id is not an error.
func (s *SQLite) Delete(ctx context.Context, table, id string) error {
	if err := checkTable("delete", table); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return &models.PersistenceError{Op: "delete", Err: err}
	}
	return nil
}

// Subscribe is a no-op: the local backend has no cross-session
// notification.
func (s *SQLite) Subscribe(table string, onChange func()) (func(), error) {
	if err := checkTable("subscribe", table); err != nil {
		return nil, err
	}
	return func() {}, nil
}
