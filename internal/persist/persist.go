package persist

import (
	"context"
	"encoding/json"
	"time"

	"pos-service/internal/models"
)

// Record is the generic row envelope every backend speaks. Entity fields
// live inside Data as a JSON document; the adapter only knows about ids
// and timestamps.
type Record struct {
	ID        string          `db:"id" json:"id"`
	Data      json.RawMessage `db:"data" json:"data"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Adapter is the uniform interface over the interchangeable persistence
// backends. Select returns rows in creation order. Insert generates an id
// when the given one is empty and stamps timestamps. Subscribe registers
// a callback fired after any remote change to the table; backends without
// cross-session notification return a no-op unsubscribe.
//
// Every failure is wrapped in *models.PersistenceError.
type Adapter interface {
	Select(ctx context.Context, table string) ([]Record, error)
	Insert(ctx context.Context, table, id string, data json.RawMessage) (Record, error)
	Update(ctx context.Context, table, id string, data json.RawMessage) error
	Delete(ctx context.Context, table, id string) error
	Subscribe(table string, onChange func()) (func(), error)
}

// Notifier carries change events between processes for the remote
// backend. Implemented by redisclient.Client.
type Notifier interface {
	PublishChange(ctx context.Context, table string) error
	SubscribeChanges(table string, onChange func()) (func(), error)
}

var knownTables = map[string]bool{
	models.TableProducts:   true,
	models.TableOrders:     true,
	models.TableCategories: true,
	models.TableCardTypes:  true,
}

func checkTable(op, table string) error {
	if !knownTables[table] {
		return &models.PersistenceError{Op: op, Err: errUnknownTable(table)}
	}
	return nil
}

type errUnknownTable string

func (e errUnknownTable) Error() string { return "unknown table: " + string(e) }
