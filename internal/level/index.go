package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Index file names, in lookup order.
var indexNames = []string{"index.yaml", "index.yml", "index.json"}

var (
	// ErrIndexMissing is returned when a levels directory has no index file.
	ErrIndexMissing = errors.New("level: index file missing")
	// ErrNotFound is returned for a level id absent from the index.
	ErrNotFound = errors.New("level: not found")
)

// IndexEntry maps a level id to its file, relative to the index.
type IndexEntry struct {
	ID   string `json:"id" yaml:"id"`
	File string `json:"file" yaml:"file"`
}

// Index lists the levels of a directory in play order.
type Index struct {
	Levels []IndexEntry `json:"levels" yaml:"levels"`
	Dir    string       `json:"-" yaml:"-"`
}

// LoadIndex reads the index of dir.
func LoadIndex(dir string) (*Index, error) {
	for _, name := range indexNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("level: read index %s: %w", path, err)
		}

		var idx Index
		if filepath.Ext(name) == ".json" {
			err = json.Unmarshal(data, &idx)
		} else {
			err = yaml.Unmarshal(data, &idx)
		}
		if err != nil {
			return nil, fmt.Errorf("level: parse index %s: %w", path, err)
		}
		idx.Dir = dir
		if err := idx.validate(); err != nil {
			return nil, fmt.Errorf("level: index %s: %w", path, err)
		}
		return &idx, nil
	}
	return nil, fmt.Errorf("%w in %s", ErrIndexMissing, dir)
}

func (idx *Index) validate() error {
	if len(idx.Levels) == 0 {
		return errors.New("no levels listed")
	}
	seen := make(map[string]bool, len(idx.Levels))
	for i, e := range idx.Levels {
		if e.ID == "" || e.File == "" {
			return fmt.Errorf("entry %d: id and file are required", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("entry %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// Lookup returns the entry for id.
func (idx *Index) Lookup(id string) (IndexEntry, bool) {
	for _, e := range idx.Levels {
		if e.ID == id {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// IDs returns the level ids in index order.
func (idx *Index) IDs() []string {
	ids := make([]string, len(idx.Levels))
	for i, e := range idx.Levels {
		ids[i] = e.ID
	}
	return ids
}

// Path returns the absolute path of an entry's file.
func (idx *Index) Path(e IndexEntry) string {
	if filepath.IsAbs(e.File) {
		return e.File
	}
	return filepath.Join(idx.Dir, e.File)
}

// LoadFile reads and parses one level file.
func LoadFile(path string) (*Level, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("level: read %s: %w", path, err)
	}
	l, warnings, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, warnings, fmt.Errorf("level: %s: %w", path, err)
	}
	l.FilePath = path
	return l, warnings, nil
}
