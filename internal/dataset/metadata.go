package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Metadata holds information about a loaded dataset
type Metadata struct {
	SHA256     string    `json:"sha256"`
	LoadedAt   time.Time `json:"loaded_at"`
	Foods      int       `json:"foods"`
	Nutrients  int       `json:"nutrients"`
	Categories int       `json:"categories"`
}

// NewMetadata summarizes a loaded store
func NewMetadata(store *Store) *Metadata {
	return &Metadata{
		SHA256:     store.Fingerprint,
		LoadedAt:   store.LoadedAt,
		Foods:      len(store.Foods),
		Nutrients:  len(store.Taxonomy.Nutrients),
		Categories: len(store.Taxonomy.Categories),
	}
}

// LoadMetadata loads metadata from the metadata file
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// SaveMetadata saves metadata to the metadata file
func SaveMetadata(path string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Fingerprint computes a SHA256 over taxonomy.json and every JSON file under
// foods/, in path order. Two directories with the same fingerprint load to
// the same store.
func Fingerprint(dir string) (string, error) {
	files := []string{filepath.Join(dir, TaxonomyFile)}

	foodsDir := filepath.Join(dir, FoodsDir)
	if _, err := os.Stat(filepath.Join(foodsDir, IndexFile)); err != nil {
		return "", &LoadError{Path: filepath.Join(foodsDir, IndexFile), Err: err}
	}

	entries, err := os.ReadDir(foodsDir)
	if err != nil {
		return "", &LoadError{Path: foodsDir, Err: err}
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(foodsDir, entry.Name()))
	}
	sort.Strings(files)

	hash := sha256.New()
	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		io.WriteString(hash, filepath.ToSlash(rel))
		hash.Write([]byte{0})

		if err := hashFile(hash, path); err != nil {
			return "", &LoadError{Path: path, Err: err}
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// hashFile streams the file at path into w
func hashFile(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return fmt.Errorf("failed to open: %w", err)
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}
