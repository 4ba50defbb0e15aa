// Package history keeps the last diagnoses of a guest user for the current
// session only. Nothing here outlives the process (native) or the browser
// session (web).
package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

// MaxEntries bounds the list; older entries are dropped from the tail.
const MaxEntries = 20

// StorageKey names the list in session storage.
const StorageKey = "guest_diagnosis_history"

// Backend holds the serialized list.
type Backend interface {
	Load(ctx context.Context) ([]models.HistoryEntry, error)
	Store(ctx context.Context, entries []models.HistoryEntry) error
	Clear(ctx context.Context) error
}

type Cache struct {
	mu      sync.Mutex
	backend Backend
	log     logging.Logger

	now   func() time.Time
	newID func() string
}

func New(backend Backend, log logging.Logger) *Cache {
	return &Cache{
		backend: backend,
		log:     log.With("component", "history"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// List returns the entries newest first. A backend failure reads as an
// empty list.
func (c *Cache) List(ctx context.Context) []models.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *Cache) load(ctx context.Context) []models.HistoryEntry {
	entries, err := c.backend.Load(ctx)
	if err != nil {
		c.log.Warn(ctx, "guest history unreadable, starting empty", "error", err)
		return nil
	}
	return entries
}

// Add records result at the front of the list and trims it to MaxEntries.
// The entry is returned even when the backend refused the write.
func (c *Cache) Add(ctx context.Context, result models.DiagnosisResult, crop string) models.HistoryEntry {
	if crop == "" {
		crop = result.Prediction.Crop
	}

	entry := models.HistoryEntry{
		ID:              c.newID(),
		Crop:            crop,
		Disease:         result.Prediction.Disease,
		Confidence:      result.Prediction.Confidence,
		SeverityPercent: result.Prediction.SeverityPercent,
		Stage:           result.Prediction.Stage,
		CreatedAt:       c.now().UTC().Format(time.RFC3339),
		FullData:        fullData(result),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries := append([]models.HistoryEntry{entry}, c.load(ctx)...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	if err := c.backend.Store(ctx, entries); err != nil {
		c.log.Warn(ctx, "guest history not saved", "error", err)
	}
	return entry
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.Clear(ctx); err != nil {
		c.log.Warn(ctx, "guest history not cleared", "error", err)
	}
}

func fullData(result models.DiagnosisResult) json.RawMessage {
	if len(result.Raw) > 0 {
		return result.Raw
	}
	b, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	return b
}
