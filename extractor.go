package examsplit

import (
	"fmt"
	"os"
	"sort"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
)

// Extractor splits exam paper PDFs into per-question images using pdfium
// text extraction and rendering.
type Extractor struct {
	instance pdfium.Pdfium
	config   Config
}

// NewExtractor creates a new question extractor with default configuration.
func NewExtractor(instance pdfium.Pdfium) *Extractor {
	return NewExtractorWithConfig(instance, DefaultConfig())
}

// NewExtractorWithConfig creates a new question extractor with custom
// configuration. Zero-valued config fields fall back to defaults.
func NewExtractorWithConfig(instance pdfium.Pdfium, config Config) *Extractor {
	config.defaults()
	return &Extractor{
		instance: instance,
		config:   config,
	}
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config {
	return e.config
}

// ExtractFile splits a PDF file into per-question images. The returned
// Result is always well formed: failures, including panics from the
// underlying PDF library, are reported through Result.Error rather than
// propagated.
func (e *Extractor) ExtractFile(filePath string) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			e.config.Logger.Error("extraction panicked", "path", filePath, "panic", r)
			result = failure(fmt.Sprintf("extraction failed: %v", r))
		}
	}()

	if _, err := os.Stat(filePath); err != nil {
		return failure("PDF file not found")
	}

	if err := e.resetOutputDir(); err != nil {
		e.config.Logger.Error("failed to prepare output directory", "dir", e.config.OutputDir, "error", err)
		return failure(fmt.Sprintf("failed to prepare output directory: %v", err))
	}

	doc, err := e.instance.OpenDocument(&requests.OpenDocument{
		FilePath: &filePath,
	})
	if err != nil {
		return failure(fmt.Sprintf("failed to open PDF document: %v", err))
	}
	defer e.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	return e.extractDocument(doc.Document)
}

// extractDocument runs detection, boundary analysis and rendering over an
// open document.
func (e *Extractor) extractDocument(docRef references.FPDF_DOCUMENT) *Result {
	spans, pages, err := collectSpans(e.instance, docRef)
	if err != nil {
		return failure(fmt.Sprintf("failed to extract text: %v", err))
	}

	starts := mergeStarts(detectStarts(spans, e.config.MaxQuestions))
	if len(starts) == 0 {
		return failure("no questions detected in PDF")
	}
	e.config.Logger.Info("detected question starts", "count", len(starts))

	bounds := computeBoundaries(starts, spans, pages)

	images := make([]QuestionImage, 0, len(bounds))
	for _, b := range bounds {
		img, err := e.renderBoundary(docRef, b, pages[b.Page-1])
		if err != nil {
			// One bad question must not sink the run.
			e.config.Logger.Warn("failed to extract question",
				"question", b.Number, "page", b.Page, "error", err)
			continue
		}
		e.config.Logger.Info("extracted question",
			"question", b.Number, "page", b.Page,
			"strategy", b.Strategy, "file", img.Filename)
		images = append(images, img)
	}

	if len(images) == 0 {
		return failure("no images could be extracted")
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Number < images[j].Number
	})

	return &Result{
		Success:        true,
		QuestionsFound: len(images),
		Images:         images,
	}
}

// resetOutputDir deletes and recreates the output directory so each run
// starts from a clean slate.
func (e *Extractor) resetOutputDir() error {
	if err := os.RemoveAll(e.config.OutputDir); err != nil {
		return errors.Wrap(err, "failed to remove output directory")
	}
	if err := os.MkdirAll(e.config.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	return nil
}

// GetDocumentInfo returns basic information about a PDF without
// extracting from it.
func (e *Extractor) GetDocumentInfo(filePath string) (*DocumentInfo, error) {
	doc, err := e.instance.OpenDocument(&requests.OpenDocument{
		FilePath: &filePath,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PDF document")
	}
	defer e.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	pageCount, err := e.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page count")
	}

	return &DocumentInfo{
		PageCount: pageCount.PageCount,
	}, nil
}

// DocumentInfo contains basic information about a PDF document.
type DocumentInfo struct {
	PageCount int
}

func failure(msg string) *Result {
	return &Result{
		Success: false,
		Error:   msg,
	}
}
