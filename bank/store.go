package bank

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	solutionsFile = "solutions.json"
	metadataFile  = "metadata.json"

	// primaryImagesDir is the canonical image folder inside a paper
	// folder. Older runs used the legacy names below.
	primaryImagesDir = "images"
)

// legacyImageDirs are the fallback folder names searched, in order, when
// the primary images folder is absent. The empty string means the paper
// folder itself.
var legacyImageDirs = []string{"extracted_images", "question_images", ""}

// Store persists question banks under a root directory with one folder
// per paper.
type Store struct {
	Root string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Root: dir}
}

// Dir returns the absolute path of a paper folder.
func (s *Store) Dir(folder string) string {
	return filepath.Join(s.Root, folder)
}

// Save writes the bank into the paper's canonical folder.
func (s *Store) Save(paper Paper, b *Bank) error {
	return s.SaveFolder(paper.FolderName(), b)
}

// SaveFolder writes solutions.json and metadata.json into the named
// paper folder, creating it if needed.
func (s *Store) SaveFolder(folder string, b *Bank) error {
	dir := s.Dir(folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create paper folder")
	}

	if err := writeJSON(filepath.Join(dir, solutionsFile), b); err != nil {
		return errors.Wrap(err, "failed to write solutions")
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), b.Metadata); err != nil {
		return errors.Wrap(err, "failed to write metadata")
	}
	return nil
}

// Load reads the bank from the paper's canonical folder.
func (s *Store) Load(paper Paper) (*Bank, error) {
	return s.LoadFolder(paper.FolderName())
}

// LoadFolder reads solutions.json from the named paper folder.
func (s *Store) LoadFolder(folder string) (*Bank, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(folder), solutionsFile))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read solutions for %s", folder)
	}

	var b Bank
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrapf(err, "failed to parse solutions for %s", folder)
	}
	return &b, nil
}

// Deploy copies extraction-run images into the paper folder's primary
// images directory and returns how many were copied.
func (s *Store) Deploy(folder string, imagePaths []string) (int, error) {
	dst := filepath.Join(s.Dir(folder), primaryImagesDir)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, errors.Wrap(err, "failed to create images folder")
	}

	deployed := 0
	for _, src := range imagePaths {
		if err := copyFile(src, filepath.Join(dst, filepath.Base(src))); err != nil {
			return deployed, errors.Wrapf(err, "failed to deploy %s", filepath.Base(src))
		}
		deployed++
	}
	return deployed, nil
}

// ResolveImagesDir finds the directory holding a paper's question
// images: the primary folder first, then legacy folder names, then the
// paper folder itself. It only accepts a directory that actually
// contains PNG files.
func (s *Store) ResolveImagesDir(folder string) (string, error) {
	candidates := append([]string{primaryImagesDir}, legacyImageDirs...)
	for _, name := range candidates {
		dir := filepath.Join(s.Dir(folder), name)
		if hasPNGs(dir) {
			return dir, nil
		}
	}
	return "", errors.Errorf("no question images found for %s", folder)
}

// ImagePaths returns the sorted PNG paths for a paper, using the folder
// resolution fallback order.
func (s *Store) ImagePaths(folder string) ([]string, error) {
	dir, err := s.ResolveImagesDir(folder)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read images folder")
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func hasPNGs(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			return true
		}
	}
	return false
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
