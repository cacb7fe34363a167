package persist

import (
	"context"
	"encoding/json"
	"testing"

	"pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownTableRejected(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Select(ctx, "users")
	var persistErr *models.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Contains(t, err.Error(), "unknown table")

	_, err = m.Insert(ctx, "users", "", json.RawMessage(`{}`))
	assert.ErrorAs(t, err, &persistErr)
}

func TestMemoryInsertGeneratesID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec, err := m.Insert(ctx, models.TableProducts, "", json.RawMessage(`{"name":"Aqua"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	rec2, err := m.Insert(ctx, models.TableProducts, "fixed", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "fixed", rec2.ID)
}

func TestMemorySelectInsertionOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		_, err := m.Insert(ctx, models.TableCategories, id, json.RawMessage(`{}`))
		require.NoError(t, err)
	}

	records, err := m.Select(ctx, models.TableCategories)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, "b", records[2].ID)
}

func TestMemoryUpdateMissingRow(t *testing.T) {
	m := NewMemory()

	err := m.Update(context.Background(), models.TableProducts, "missing", json.RawMessage(`{}`))
	var persistErr *models.PersistenceError
	assert.ErrorAs(t, err, &persistErr)
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Insert(ctx, models.TableOrders, "o1", json.RawMessage(`{}`))
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, models.TableOrders, "o1"))
	assert.NoError(t, m.Delete(ctx, models.TableOrders, "o1"))
}

func TestMemorySubscribeAndUnsubscribe(t *testing.T) {
	m := NewMemory()

	fired := 0
	unsubscribe, err := m.Subscribe(models.TableProducts, func() { fired++ })
	require.NoError(t, err)

	m.NotifyChange(models.TableProducts)
	m.NotifyChange(models.TableOrders)
	assert.Equal(t, 1, fired, "only the subscribed table fires")

	unsubscribe()
	m.NotifyChange(models.TableProducts)
	assert.Equal(t, 1, fired)
}

func TestMemoryFailureInjection(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.FailWith(assert.AnError)
	_, err := m.Select(ctx, models.TableProducts)
	var persistErr *models.PersistenceError
	require.ErrorAs(t, err, &persistErr)

	m.FailWith(nil)
	_, err = m.Select(ctx, models.TableProducts)
	assert.NoError(t, err)
}
