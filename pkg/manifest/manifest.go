package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// File represents one generated file entry in the manifest. Path is
// slash-separated and relative to the manifest's directory.
type File struct {
	Path   string `yaml:"path" json:"path"`
	Owner  string `yaml:"owner" json:"owner"`
	SHA256 string `yaml:"sha256" json:"sha256"`
}

// Manifest tracks the files written by the last generation run.
type Manifest struct {
	Module string `yaml:"module,omitempty" json:"module,omitempty"`
	Files  []File `yaml:"files" json:"files"`
}

// Sum is the hex sha256 of content.
func Sum(content []byte) string {
	s := sha256.Sum256(content)
	return hex.EncodeToString(s[:])
}

// Load reads a manifest from the provided path. If the file does not exist,
// an empty manifest is returned.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "unmarshal manifest %s", path)
	}

	return &m, nil
}

// Save writes the manifest to the provided path, creating parent directories as needed.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create manifest directory")
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal manifest")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write manifest")
	}

	return nil
}

// Lookup returns the entry recorded for path, if present.
func (m *Manifest) Lookup(path string) (File, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

// Replace swaps the recorded file set for files, sorted by path. It returns
// the paths recorded before that are no longer generated.
func (m *Manifest) Replace(files []File) (stale []string) {
	next := make(map[string]bool, len(files))
	for _, f := range files {
		next[f.Path] = true
	}
	for _, f := range m.Files {
		if !next[f.Path] {
			stale = append(stale, f.Path)
		}
	}

	m.Files = append([]File(nil), files...)
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
	sort.Strings(stale)
	return stale
}
