package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

type failingBackend struct {
	loadErr  error
	storeErr error
	stored   int
}

func (f *failingBackend) Load(context.Context) ([]models.HistoryEntry, error) { return nil, f.loadErr }
func (f *failingBackend) Store(context.Context, []models.HistoryEntry) error {
	f.stored++
	return f.storeErr
}
func (f *failingBackend) Clear(context.Context) error { return f.storeErr }

func result(disease string) models.DiagnosisResult {
	return models.DiagnosisResult{Prediction: models.Prediction{
		Disease: disease, Confidence: 0.9, SeverityPercent: 30, Stage: "early",
	}}
}

func newCache(b Backend) *Cache {
	c := New(b, logging.NewNop())
	n := 0
	c.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	c.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestCache_Add_PrependsAndBuildsEntry(t *testing.T) {
	c := newCache(NewMemoryBackend())
	ctx := context.Background()

	first := c.Add(ctx, result("Early Blight"), "tomato")
	second := c.Add(ctx, result("Leaf Mold"), "tomato")

	assert.Equal(t, "id-1", first.ID)
	assert.Equal(t, "tomato", first.Crop)
	assert.Equal(t, "Early Blight", first.Disease)
	assert.Equal(t, "2025-03-01T10:00:00Z", first.CreatedAt)
	assert.NotEmpty(t, first.FullData)

	list := c.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestCache_Add_CropFallsBackToPrediction(t *testing.T) {
	c := newCache(NewMemoryBackend())
	r := result("Blast")
	r.Prediction.Crop = "rice"

	e := c.Add(context.Background(), r, "")
	assert.Equal(t, "rice", e.Crop)
}

func TestCache_Add_KeepsRawBody(t *testing.T) {
	c := newCache(NewMemoryBackend())
	r := result("Rust")
	r.Raw = json.RawMessage(`{"prediction":{"disease":"Rust"},"extra":1}`)

	e := c.Add(context.Background(), r, "wheat")
	assert.JSONEq(t, string(r.Raw), string(e.FullData))
}

func TestCache_CappedAtTwenty_OldestDropped(t *testing.T) {
	c := newCache(NewMemoryBackend())
	ctx := context.Background()

	var added []models.HistoryEntry
	for i := 0; i < 21; i++ {
		added = append(added, c.Add(ctx, result("Late Blight"), "tomato"))
	}

	list := c.List(ctx)
	require.Len(t, list, MaxEntries)
	assert.Equal(t, added[20].ID, list[0].ID, "21st entry is newest")
	for _, e := range list {
		assert.NotEqual(t, added[0].ID, e.ID, "first entry must be evicted")
	}
}

func TestCache_NeverExceedsCap(t *testing.T) {
	c := newCache(NewMemoryBackend())
	ctx := context.Background()

	for i := 1; i <= 50; i++ {
		c.Add(ctx, result("x"), "maize")
		list := c.List(ctx)
		assert.LessOrEqual(t, len(list), MaxEntries)
		assert.Equal(t, fmt.Sprintf("id-%d", i), list[0].ID)
	}
}

func TestCache_Clear(t *testing.T) {
	c := newCache(NewMemoryBackend())
	ctx := context.Background()
	c.Add(ctx, result("x"), "potato")

	c.Clear(ctx)
	assert.Empty(t, c.List(ctx))
}

func TestCache_BackendFailuresDegrade(t *testing.T) {
	b := &failingBackend{loadErr: errors.New("corrupt"), storeErr: errors.New("quota")}
	c := newCache(b)
	ctx := context.Background()

	assert.Empty(t, c.List(ctx))

	e := c.Add(ctx, result("x"), "potato")
	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, 1, b.stored)

	c.Clear(ctx)
}

func TestRedisSessionBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	b := NewRedisSessionBackend(rdb, "cropdoc", "sess-1", 30*time.Minute)
	c := newCache(b)

	c.Add(ctx, result("Early Blight"), "tomato")
	c.Add(ctx, result("Leaf Mold"), "tomato")

	key := "cropdoc:session:sess-1:guest_diagnosis_history"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 30*time.Minute, mr.TTL(key))

	list := c.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "Leaf Mold", list[0].Disease)

	t.Run("other session sees nothing", func(t *testing.T) {
		other := newCache(NewRedisSessionBackend(rdb, "cropdoc", "sess-2", time.Minute))
		assert.Empty(t, other.List(ctx))
	})

	t.Run("expires with the session", func(t *testing.T) {
		mr.FastForward(31 * time.Minute)
		assert.Empty(t, c.List(ctx))
	})

	t.Run("close removes the key", func(t *testing.T) {
		c.Add(ctx, result("x"), "tomato")
		require.NoError(t, b.Close(ctx))
		assert.False(t, mr.Exists(key))
	})

	t.Run("corrupt payload reads as empty", func(t *testing.T) {
		require.NoError(t, mr.Set(key, "not-json"))
		assert.Empty(t, c.List(ctx))
	})
}
