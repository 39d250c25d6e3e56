package bank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/axcelscore/examsplit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))
	return path
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	paper := testPaper()

	original := Build([]examsplit.QuestionImage{
		{Number: 1, Filename: "question_01_enhanced.png", Page: 2, Strategy: "standalone_number", Confidence: 0.90},
		{Number: 2, Filename: "question_02_enhanced.png", Page: 2, Strategy: "number_with_text", Confidence: 0.85},
	}, paper)
	original.Questions[0].CorrectAnswer = "B"
	original.Questions[0].ConfidenceScore = 0.95
	original.Questions[0].AISolved = true
	original.Questions[1].NeedsReview = true
	original.Questions[1].FlagReason = "Low confidence: 0.60"

	require.NoError(t, store.Save(paper, original))

	// Both artifacts exist in the paper folder.
	dir := store.Dir(paper.FolderName())
	assert.FileExists(t, filepath.Join(dir, "solutions.json"))
	assert.FileExists(t, filepath.Join(dir, "metadata.json"))

	loaded, err := store.Load(paper)
	require.NoError(t, err)
	assert.Equal(t, original.Metadata, loaded.Metadata)
	assert.Equal(t, original.Questions, loaded.Questions)
}

func TestStore_LoadMissingFolder(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.LoadFolder("physics_1999_mar_13")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "physics_1999_mar_13")
}

func TestStore_Deploy(t *testing.T) {
	store := NewStore(t.TempDir())
	runDir := t.TempDir()

	src1 := writePNG(t, runDir, "question_01_enhanced.png")
	src2 := writePNG(t, runDir, "question_02_enhanced.png")

	deployed, err := store.Deploy("physics_2024_mar_13", []string{src1, src2})
	require.NoError(t, err)
	assert.Equal(t, 2, deployed)

	imagesDir := filepath.Join(store.Dir("physics_2024_mar_13"), "images")
	assert.FileExists(t, filepath.Join(imagesDir, "question_01_enhanced.png"))
	assert.FileExists(t, filepath.Join(imagesDir, "question_02_enhanced.png"))
}

func TestStore_ResolveImagesDir_FallbackOrder(t *testing.T) {
	const folder = "physics_2024_mar_13"

	cases := []struct {
		name     string
		imageDir string // relative to the paper folder; "" means the folder root
	}{
		{"primary", "images"},
		{"legacy extracted_images", "extracted_images"},
		{"legacy question_images", "question_images"},
		{"folder root", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore(t.TempDir())
			dir := filepath.Join(store.Dir(folder), tc.imageDir)
			writePNG(t, dir, "question_01_enhanced.png")

			resolved, err := store.ResolveImagesDir(folder)
			require.NoError(t, err)
			assert.Equal(t, dir, resolved)
		})
	}
}

func TestStore_ResolveImagesDir_PrimaryWinsOverLegacy(t *testing.T) {
	store := NewStore(t.TempDir())
	const folder = "physics_2024_mar_13"

	writePNG(t, filepath.Join(store.Dir(folder), "extracted_images"), "question_01_enhanced.png")
	writePNG(t, filepath.Join(store.Dir(folder), "images"), "question_01_enhanced.png")

	resolved, err := store.ResolveImagesDir(folder)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(folder), "images"), resolved)
}

func TestStore_ResolveImagesDir_NoImages(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(store.Dir("empty_folder"), "images"), 0o755))

	_, err := store.ResolveImagesDir("empty_folder")
	assert.Error(t, err)
}

func TestStore_ImagePaths_Sorted(t *testing.T) {
	store := NewStore(t.TempDir())
	const folder = "physics_2024_mar_13"
	imagesDir := filepath.Join(store.Dir(folder), "images")

	writePNG(t, imagesDir, "question_10_enhanced.png")
	writePNG(t, imagesDir, "question_02_enhanced.png")
	writePNG(t, imagesDir, "question_01_enhanced.png")
	// Non-PNG entries are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "notes.txt"), []byte("x"), 0o644))

	paths, err := store.ImagePaths(folder)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, "question_01_enhanced.png", filepath.Base(paths[0]))
	assert.Equal(t, "question_02_enhanced.png", filepath.Base(paths[1]))
	assert.Equal(t, "question_10_enhanced.png", filepath.Base(paths[2]))
}
