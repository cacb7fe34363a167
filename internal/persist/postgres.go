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
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Postgres is the remote backend: a hosted row store with change
// notification fanned out through Redis pub/sub.
type Postgres struct {
	db       *sqlx.DB
	notifier Notifier
	logger   *zap.Logger
}

// NewPostgres connects to the remote row store and ensures the envelope
// tables exist.
func NewPostgres(databaseURL string, notifier Notifier) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{db: db, notifier: notifier, logger: util.GetLogger()}
	if err := p.ensureTables(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureTables() error {
	for table := range knownTables {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				data JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, table)
		if _, err := p.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Select retrieves all rows of a table in creation order.
func (p *Postgres) Select(ctx context.Context, table string) ([]Record, error) {
	if err := checkTable("select", table); err != nil {
		return nil, err
	}

	var records []Record
	query := fmt.Sprintf("SELECT id, data, created_at, updated_at FROM %s ORDER BY created_at, id", table)
	if err := p.db.SelectContext(ctx, &records, query); err != nil {
		return nil, &models.PersistenceError{Op: "select", Err: err}
	}
	return records, nil
}

// Insert persists a new row, generating an id when none is given.
func (p *Postgres) Insert(ctx context.Context, table, id string, data json.RawMessage) (Record, error) {
	if err := checkTable("insert", table); err != nil {
		return Record{}, err
	}
	if id == "" {
		id = uuid.New().String()
	}

	var rec Record
	query := fmt.Sprintf(`
		INSERT INTO %s (id, data, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, data, created_at, updated_at`, table)
	if err := p.db.GetContext(ctx, &rec, query, id, data); err != nil {
		return Record{}, &models.PersistenceError{Op: "insert", Err: err}
	}

	p.publish(ctx, table)
	return rec, nil
}

// Update replaces a row's document.
func (p *Postgres) Update(ctx context.Context, table, id string, data json.RawMessage) error {
	if err := checkTable("update", table); err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET data = $1, updated_at = NOW() WHERE id = $2", table)
	res, err := p.db.ExecContext(ctx, query, data, id)
	if err != nil {
		return &models.PersistenceError{Op: "update", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &models.PersistenceError{Op: "update", Err: fmt.Errorf("no row with id %s in %s", id, table)}
	}

	p.publish(ctx, table)
	return nil
}

// Delete removes a row. Deleting an absent id is not an error.
func (p *Postgres) Delete(ctx context.Context, table, id string) error {
	if err := checkTable("delete", table); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)
	if _, err := p.db.ExecContext(ctx, query, id); err != nil {
		return &models.PersistenceError{Op: "delete", Err: err}
	}

	p.publish(ctx, table)
	return nil
}

// Subscribe registers a change callback for a table via the notifier.
func (p *Postgres) Subscribe(table string, onChange func()) (func(), error) {
	if err := checkTable("subscribe", table); err != nil {
		return nil, err
	}
	if p.notifier == nil {
		return func() {}, nil
	}
	return p.notifier.SubscribeChanges(table, onChange)
}

func (p *Postgres) publish(ctx context.Context, table string) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishChange(ctx, table); err != nil {
		p.logger.Warn("Failed to publish change notification",
			zap.String("table", table),
			zap.Error(err))
	}
}
