package examsplit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "images", config.OutputDir)
	assert.Equal(t, 50, config.MaxQuestions)
	assert.Equal(t, 2.0, config.Zoom)
	assert.Equal(t, 1.05, config.EnhancementFactor)
}

func TestConfigDefaults_FillsZeroFields(t *testing.T) {
	var config Config
	config.defaults()

	assert.Equal(t, "images", config.OutputDir)
	assert.Equal(t, 50, config.MaxQuestions)
	assert.Equal(t, 2.0, config.Zoom)
	assert.Equal(t, 1.05, config.EnhancementFactor)
	assert.NotNil(t, config.Logger)
}

func TestConfigDefaults_KeepsExplicitValues(t *testing.T) {
	config := Config{OutputDir: "out", MaxQuestions: 40, Zoom: 3.0, EnhancementFactor: 1.2}
	config.defaults()

	assert.Equal(t, "out", config.OutputDir)
	assert.Equal(t, 40, config.MaxQuestions)
	assert.Equal(t, 3.0, config.Zoom)
	assert.Equal(t, 1.2, config.EnhancementFactor)
}

func TestExtractFile_MissingFile(t *testing.T) {
	e := NewExtractorWithConfig(nil, Config{
		OutputDir: filepath.Join(t.TempDir(), "images"),
	})

	result := e.ExtractFile(filepath.Join(t.TempDir(), "does-not-exist.pdf"))
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "PDF file not found", result.Error)
	assert.Empty(t, result.Images)
}

func TestResetOutputDir_RemovesStaleImages(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "images")
	e := NewExtractorWithConfig(nil, Config{OutputDir: outputDir})

	require.NoError(t, os.MkdirAll(outputDir, 0o755))
	stale := filepath.Join(outputDir, "question_01_enhanced.png")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	require.NoError(t, e.resetOutputDir())
	assert.NoFileExists(t, stale)
	assert.DirExists(t, outputDir)

	// Safe to run again on an already-clean directory.
	require.NoError(t, e.resetOutputDir())
	assert.DirExists(t, outputDir)
}

func TestBoundaryHeight(t *testing.T) {
	b := Boundary{StartY: 100, EndY: 380}
	assert.Equal(t, 280.0, b.Height())
}
