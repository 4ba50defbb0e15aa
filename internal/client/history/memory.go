package history

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/cropdoc/internal/client/models"
)

// MemoryBackend is the native backend: a process-local slice.
type MemoryBackend struct {
	entries []models.HistoryEntry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Load(context.Context) ([]models.HistoryEntry, error) {
	return slices.Clone(m.entries), nil
}

func (m *MemoryBackend) Store(_ context.Context, entries []models.HistoryEntry) error {
	m.entries = slices.Clone(entries)
	return nil
}

func (m *MemoryBackend) Clear(context.Context) error {
	m.entries = nil
	return nil
}
