package examsplit

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
)

const (
	// Crop padding around the computed boundary, in points: a narrow
	// strip on each side plus a little extra room above the start marker
	// and below the last option line.
	cropMarginX   = 5
	cropPadTop    = 5
	cropPadBottom = 10

	// basePDFDPI is the native resolution of PDF point coordinates.
	basePDFDPI = 72
)

// renderBoundary rasterizes one question region and saves it as an
// enhanced PNG in the output directory.
func (e *Extractor) renderBoundary(doc references.FPDF_DOCUMENT, b Boundary, dim PageDim) (QuestionImage, error) {
	pageIndex := b.Page - 1

	render, err := e.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		DPI: int(e.config.Zoom * basePDFDPI),
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: doc,
				Index:    pageIndex,
			},
		},
	})
	if err != nil {
		return QuestionImage{}, errors.Wrapf(err, "failed to render page %d", b.Page)
	}
	defer render.Cleanup()

	ratio := render.Result.PointToPixelRatio
	crop := image.Rect(
		int(cropMarginX*ratio),
		int(math.Max(0, b.StartY-cropPadTop)*ratio),
		int((dim.Width-cropMarginX)*ratio),
		int(math.Min(dim.Height, b.EndY+cropPadBottom)*ratio),
	)
	crop = crop.Intersect(render.Result.Image.Bounds())
	if crop.Empty() {
		return QuestionImage{}, errors.Errorf("empty crop region for question %d", b.Number)
	}

	region := imaging.Crop(render.Result.Image, crop)
	enhanced := enhanceImage(region, e.config.EnhancementFactor)

	filename := fmt.Sprintf("question_%02d_enhanced.png", b.Number)
	path := filepath.Join(e.config.OutputDir, filename)

	err = imaging.Save(enhanced, path, imaging.PNGCompressionLevel(png.BestCompression))
	if err != nil {
		return QuestionImage{}, errors.Wrapf(err, "failed to save %s", filename)
	}

	return QuestionImage{
		Number:     b.Number,
		Filename:   filename,
		Path:       path,
		Width:      crop.Dx(),
		Height:     crop.Dy(),
		Page:       b.Page,
		Strategy:   b.Strategy,
		Confidence: b.Confidence,
	}, nil
}

// enhanceImage applies the light contrast and sharpness boost. The factor
// follows the convention of multiplicative enhancement factors, where 1.0
// leaves the image untouched.
func enhanceImage(img image.Image, factor float64) *image.NRGBA {
	contrasted := imaging.AdjustContrast(img, (factor-1)*100)
	return imaging.Sharpen(contrasted, (factor-1)*10)
}
