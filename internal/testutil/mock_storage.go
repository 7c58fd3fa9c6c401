// mock_storage.go - Mock preset store for testing
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/inkboard/backend/internal/models"
	"github.com/inkboard/backend/internal/storage"
)

// MockPresetStore implements storage.PresetStore in memory
type MockPresetStore struct {
	mu      sync.RWMutex
	presets map[string]*models.DrawingPreset
	infos   map[string]*models.PresetInfo

	// SaveErr, when set, is returned by every Save call
	SaveErr error
}

// NewMockPresetStore creates an empty mock store
func NewMockPresetStore() *MockPresetStore {
	return &MockPresetStore{
		presets: make(map[string]*models.DrawingPreset),
		infos:   make(map[string]*models.PresetInfo),
	}
}

func (m *MockPresetStore) Save(id string, r io.Reader) (*models.PresetInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	if err := storage.ValidateID(id); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	d, err := storage.DecodePreset(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return m.put(id, d, int64(len(data))), nil
}

func (m *MockPresetStore) put(id string, d *models.DrawingPreset, size int64) *models.PresetInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := &models.PresetInfo{
		ID:          id,
		Size:        size,
		AspectRatio: d.AspectRatio,
		StrokeCount: len(d.Strokes),
		PointCount:  d.PointCount(),
		UpdatedAt:   time.Now().UnixMilli(),
	}
	m.presets[id] = d
	m.infos[id] = info
	return info
}

func (m *MockPresetStore) Get(id string) (*models.DrawingPreset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.presets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return d, nil
}

func (m *MockPresetStore) Info(id string) (*models.PresetInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.infos[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return info, nil
}

func (m *MockPresetStore) List(limit int) ([]*models.PresetInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.PresetInfo, 0, len(m.infos))
	for _, info := range m.infos {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockPresetStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.presets[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	delete(m.presets, id)
	delete(m.infos, id)
	return nil
}

// Ensure MockPresetStore implements storage.PresetStore
var _ storage.PresetStore = (*MockPresetStore)(nil)

// Test Helper Methods

// AddPreset stores a preset directly, bypassing validation
func (m *MockPresetStore) AddPreset(id string, d *models.DrawingPreset) *models.PresetInfo {
	data, _ := json.Marshal(d)
	return m.put(id, d, int64(len(data)))
}

// Count returns the number of stored presets
func (m *MockPresetStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.presets)
}

// SamplePreset returns a small two-stroke drawing
func SamplePreset() *models.DrawingPreset {
	return &models.DrawingPreset{
		Version:     models.CurrentPresetVersion,
		AspectRatio: 2,
		Strokes: []models.Stroke{
			{{X: 0, Y: 0, Pressure: 0.5}, {X: 0.5, Y: 0.5, Pressure: 0.5}, {X: 1, Y: 1, Pressure: 0.5}},
			{{X: 0, Y: 1, Pressure: 0.5}, {X: 1, Y: 0, Pressure: 0.5}},
		},
	}
}
