package persist

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"pos-service/internal/models"

	"github.com/google/uuid"
)

// Memory is an in-memory adapter for tests. It honors the full Adapter
// contract and can be told to fail so error propagation is testable.
type Memory struct {
	mu      sync.Mutex
	tables  map[string]map[string]memoryRow
	subs    map[string][]func()
	seq     int64
	failErr error
}

type memoryRow struct {
	rec Record
	seq int64
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{
		tables: map[string]map[string]memoryRow{},
		subs:   map[string][]func(){},
	}
}

// FailWith makes every subsequent operation fail with a PersistenceError
// wrapping err. Pass nil to restore normal behavior.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

func (m *Memory) fail(op string) error {
	if m.failErr != nil {
		return &models.PersistenceError{Op: op, Err: m.failErr}
	}
	return nil
}

func (m *Memory) table(name string) map[string]memoryRow {
	t, ok := m.tables[name]
	if !ok {
		t = map[string]memoryRow{}
		m.tables[name] = t
	}
	return t
}

// Select returns all rows of a table in insertion order.
func (m *Memory) Select(ctx context.Context, table string) ([]Record, error) {
	if err := checkTable("select", table); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("select"); err != nil {
		return nil, err
	}

	rows := make([]memoryRow, 0, len(m.table(table)))
	for _, r := range m.table(table) {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = r.rec
	}
	return records, nil
}

// Insert stores a new row, generating an id when none is given.
func (m *Memory) Insert(ctx context.Context, table, id string, data json.RawMessage) (Record, error) {
	if err := checkTable("insert", table); err != nil {
		return Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("insert"); err != nil {
		return Record{}, err
	}

	if id == "" {
		id = uuid.New().String()
	}
	m.seq++
	now := time.Now().UTC()
	rec := Record{ID: id, Data: append(json.RawMessage(nil), data...), CreatedAt: now, UpdatedAt: now}
	m.table(table)[id] = memoryRow{rec: rec, seq: m.seq}
	return rec, nil
}

// Update replaces a row's document.
func (m *Memory) Update(ctx context.Context, table, id string, data json.RawMessage) error {
	if err := checkTable("update", table); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("update"); err != nil {
		return err
	}

	row, ok := m.table(table)[id]
	if !ok {
		return &models.PersistenceError{Op: "update", Err: errors.New("no row with id " + id)}
	}
	row.rec.Data = append(json.RawMessage(nil), data...)
	row.rec.UpdatedAt = time.Now().UTC()
	m.table(table)[id] = row
	return nil
}

// Delete removes a row. Deleting an absent id is not an error.
func (m *Memory) Delete(ctx context.Context, table, id string) error {
	if err := checkTable("delete", table); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("delete"); err != nil {
		return err
	}

	delete(m.table(table), id)
	return nil
}

// Subscribe registers a change callback, fired by NotifyChange.
func (m *Memory) Subscribe(table string, onChange func()) (func(), error) {
	if err := checkTable("subscribe", table); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs[table] = append(m.subs[table], onChange)
	idx := len(m.subs[table]) - 1
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if idx < len(m.subs[table]) {
			m.subs[table][idx] = nil
		}
	}, nil
}

// NotifyChange fires the subscribers of a table, simulating a remote
// change event in tests.
func (m *Memory) NotifyChange(table string) {
	m.mu.Lock()
	subs := append(make([]func(), 0, len(m.subs[table])), m.subs[table]...)
	m.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn()
		}
	}
}
