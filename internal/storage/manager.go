package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inkboard/backend/internal/models"
)

var (
	// ErrNotFound is returned for ids with no stored asset.
	ErrNotFound = errors.New("preset not found")
	// ErrInvalidPreset wraps decoding and validation failures.
	ErrInvalidPreset = errors.New("invalid preset")
	// ErrInvalidID is returned for ids that cannot name a file.
	ErrInvalidID = errors.New("invalid preset id")
)

// MaxPresetBytes bounds a single uploaded asset.
const MaxPresetBytes = 8 << 20

const presetExt = ".json"

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// PresetStore defines the interface for drawing asset storage.
type PresetStore interface {
	Save(id string, r io.Reader) (*models.PresetInfo, error)
	Get(id string) (*models.DrawingPreset, error)
	Info(id string) (*models.PresetInfo, error)
	List(limit int) ([]*models.PresetInfo, error)
	Delete(id string) error
}

// ValidateID checks that id is usable as an asset name.
func ValidateID(id string) error {
	if !validID.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// IDFromFile derives an asset id from a file name such as "hello.json".
func IDFromFile(name string) string {
	return strings.TrimSuffix(filepath.Base(name), presetExt)
}

// DecodePreset reads and validates a DrawingPreset document.
func DecodePreset(r io.Reader) (*models.DrawingPreset, error) {
	var d models.DrawingPreset
	dec := json.NewDecoder(io.LimitReader(r, MaxPresetBytes))
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return &d, nil
}

func infoFor(id string, size int64, modTime time.Time, d *models.DrawingPreset) *models.PresetInfo {
	return &models.PresetInfo{
		ID:          id,
		Size:        size,
		AspectRatio: d.AspectRatio,
		StrokeCount: len(d.Strokes),
		PointCount:  d.PointCount(),
		UpdatedAt:   modTime.UnixMilli(),
	}
}

// LocalStore implements PresetStore using the local filesystem, one
// <id>.json file per asset.
type LocalStore struct {
	mu    sync.RWMutex
	dir   string
	index map[string]*models.PresetInfo
}

// NewLocalStore creates the directory if needed and indexes the valid
// assets already in it. Invalid files are skipped.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating presets directory: %w", err)
	}

	s := &LocalStore{dir: dir, index: make(map[string]*models.PresetInfo)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading presets directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), presetExt) {
			continue
		}
		id := IDFromFile(e.Name())
		if ValidateID(id) != nil {
			continue
		}
		if info, err := s.readInfo(id); err == nil {
			s.index[id] = info
		}
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.dir, id+presetExt)
}

func (s *LocalStore) readInfo(id string) (*models.PresetInfo, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	d, err := DecodePreset(f)
	if err != nil {
		return nil, err
	}
	return infoFor(id, st.Size(), st.ModTime(), d), nil
}

// Save validates the asset and writes it atomically, replacing any
// existing asset with the same id.
func (s *LocalStore) Save(id string, r io.Reader) (*models.PresetInfo, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	d, err := DecodePreset(r)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding preset: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+id+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing preset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing preset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return nil, fmt.Errorf("renaming preset: %w", err)
	}

	info := infoFor(id, int64(len(data)), time.Now(), d)
	s.index[id] = info
	return info, nil
}

// Get loads and validates an asset.
func (s *LocalStore) Get(id string) (*models.DrawingPreset, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("opening preset: %w", err)
	}
	defer f.Close()

	return DecodePreset(f)
}

// Info returns listing metadata for an asset.
func (s *LocalStore) Info(id string) (*models.PresetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *info
	return &cp, nil
}

// List returns the most recently updated assets. A non-positive limit
// returns all of them.
func (s *LocalStore) List(limit int) ([]*models.PresetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.PresetInfo, 0, len(s.index))
	for _, info := range s.index {
		cp := *info
		list = append(list, &cp)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].UpdatedAt == list[j].UpdatedAt {
			return list[i].ID < list[j].ID
		}
		return list[i].UpdatedAt > list[j].UpdatedAt
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Delete removes an asset.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting preset: %w", err)
	}
	delete(s.index, id)
	return nil
}

var _ PresetStore = (*LocalStore)(nil)
