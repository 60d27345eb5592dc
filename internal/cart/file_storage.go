package cart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	storageKey  = "cart"
	storageFile = "cart.json"
)

// FileStorage keeps the cart as {"cart": [...]} in <dir>/cart.json.
type FileStorage struct {
	path string
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{path: filepath.Join(dir, storageFile)}
}

func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Load() ([]Line, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc map[string][]Line
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc[storageKey], nil
}

// Save replaces the file via rename.
func (f *FileStorage) Save(lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.MarshalIndent(map[string][]Line{storageKey: lines}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// MemoryStorage is a Storage held in process memory.
type MemoryStorage struct {
	Lines   []Line
	LoadErr error
	SaveErr error
	Saves   int
}

func (m *MemoryStorage) Load() ([]Line, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return append([]Line(nil), m.Lines...), nil
}

func (m *MemoryStorage) Save(lines []Line) error {
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Lines = append([]Line(nil), lines...)
	return nil
}
