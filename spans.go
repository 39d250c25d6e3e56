package examsplit

import (
	"math"
	"strings"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
)

// spanChar is a single character with its metadata, before grouping.
type spanChar struct {
	text       rune
	box        Rect
	fontSize   float64
	fontWeight int
}

func (c spanChar) bold() bool { return c.fontWeight >= 700 }

// collectSpans walks every page of the document and returns the full
// text-span inventory in document order (page-major, then the order the
// text structure emits spans in), plus the point dimensions of each
// page. Pages without text contribute no spans and no error.
func collectSpans(instance pdfium.Pdfium, doc references.FPDF_DOCUMENT) ([]TextSpan, []PageDim, error) {
	pageCount, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get page count")
	}

	var spans []TextSpan
	dims := make([]PageDim, 0, pageCount.PageCount)

	for i := 0; i < pageCount.PageCount; i++ {
		pageSpans, dim, err := collectPageSpans(instance, doc, i)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to collect spans on page %d", i+1)
		}
		spans = append(spans, pageSpans...)
		dims = append(dims, dim)
	}

	return spans, dims, nil
}

// collectPageSpans extracts the styled text spans of a single page.
func collectPageSpans(instance pdfium.Pdfium, doc references.FPDF_DOCUMENT, pageIndex int) ([]TextSpan, PageDim, error) {
	pageResp, err := instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: doc,
		Index:    pageIndex,
	})
	if err != nil {
		return nil, PageDim{}, errors.Wrap(err, "failed to load page")
	}
	defer instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: pageResp.Page,
	})

	pageWidth, err := instance.FPDF_GetPageWidthF(&requests.FPDF_GetPageWidthF{
		Page: requests.Page{
			ByReference: &pageResp.Page,
		},
	})
	if err != nil {
		return nil, PageDim{}, errors.Wrap(err, "failed to get page width")
	}

	pageHeight, err := instance.FPDF_GetPageHeightF(&requests.FPDF_GetPageHeightF{
		Page: requests.Page{
			ByReference: &pageResp.Page,
		},
	})
	if err != nil {
		return nil, PageDim{}, errors.Wrap(err, "failed to get page height")
	}

	dim := PageDim{
		Width:  float64(pageWidth.PageWidth),
		Height: float64(pageHeight.PageHeight),
	}

	textPage, err := instance.FPDFText_LoadPage(&requests.FPDFText_LoadPage{
		Page: requests.Page{
			ByReference: &pageResp.Page,
		},
	})
	if err != nil {
		return nil, PageDim{}, errors.Wrap(err, "failed to load text page")
	}
	defer instance.FPDFText_ClosePage(&requests.FPDFText_ClosePage{
		TextPage: textPage.TextPage,
	})

	charCount, err := instance.FPDFText_CountChars(&requests.FPDFText_CountChars{
		TextPage: textPage.TextPage,
	})
	if err != nil {
		return nil, PageDim{}, errors.Wrap(err, "failed to count characters")
	}
	if charCount.Count == 0 {
		return nil, dim, nil
	}

	chars, err := extractChars(instance, textPage.TextPage, charCount.Count, dim.Height)
	if err != nil {
		return nil, PageDim{}, errors.Wrap(err, "failed to extract characters")
	}

	return groupCharsIntoSpans(chars, pageIndex+1), dim, nil
}

// extractChars pulls every character with its box, font size and weight.
func extractChars(instance pdfium.Pdfium, textPage references.FPDF_TEXTPAGE, count int, pageHeight float64) ([]spanChar, error) {
	chars := make([]spanChar, 0, count)

	for i := range count {
		unicodeRes, err := instance.FPDFText_GetUnicode(&requests.FPDFText_GetUnicode{
			TextPage: textPage,
			Index:    i,
		})
		if err != nil || unicodeRes.Unicode == 0 {
			continue
		}

		charBox, err := instance.FPDFText_GetCharBox(&requests.FPDFText_GetCharBox{
			TextPage: textPage,
			Index:    i,
		})
		if err != nil {
			continue
		}

		// Convert PDF coordinates (origin bottom-left) to standard
		// (origin top-left).
		box := Rect{
			X0: charBox.Left,
			Y0: pageHeight - charBox.Top,
			X1: charBox.Right,
			Y1: pageHeight - charBox.Bottom,
		}

		fontSizeVal := 12.0 // Default
		fontSize, err := instance.FPDFText_GetFontSize(&requests.FPDFText_GetFontSize{
			TextPage: textPage,
			Index:    i,
		})
		if err == nil {
			fontSizeVal = fontSize.FontSize
		}

		fontWeightVal := 400 // Default normal weight
		fontWeight, err := instance.FPDFText_GetFontWeight(&requests.FPDFText_GetFontWeight{
			TextPage: textPage,
			Index:    i,
		})
		if err == nil {
			fontWeightVal = fontWeight.FontWeight
		}

		chars = append(chars, spanChar{
			text:       rune(unicodeRes.Unicode),
			box:        box,
			fontSize:   fontSizeVal,
			fontWeight: fontWeightVal,
		})
	}

	return chars, nil
}

// groupCharsIntoSpans groups characters into styled line runs. A new span
// starts on a baseline shift, a style change (size or weight class), a
// horizontal gap wider than one em, or when X jumps backwards (line
// wrap). Whitespace characters stay inside the current span so that
// patterns like "1 The" can match a single span; whitespace-only spans
// are dropped.
func groupCharsIntoSpans(chars []spanChar, pageNumber int) []TextSpan {
	if len(chars) == 0 {
		return nil
	}

	var spans []TextSpan
	var current []spanChar

	flush := func() {
		if span, ok := buildSpan(current, pageNumber); ok {
			spans = append(spans, span)
		}
		current = nil
	}

	for _, c := range chars {
		if len(current) > 0 {
			prev := current[len(current)-1]
			if spanBreak(prev, c) {
				flush()
			}
		}
		current = append(current, c)
	}
	flush()

	return spans
}

// spanBreak reports whether c starts a new span after prev.
func spanBreak(prev, c spanChar) bool {
	if isSpaceRune(c.text) || isSpaceRune(prev.text) {
		// Whitespace boxes are unreliable; only a baseline shift splits
		// across them.
		return baselineShift(prev, c)
	}
	if baselineShift(prev, c) {
		return true
	}
	if math.Abs(c.fontSize-prev.fontSize) > 0.1 {
		return true
	}
	if c.bold() != prev.bold() {
		return true
	}
	em := math.Max(c.fontSize, prev.fontSize)
	if c.box.X0-prev.box.X1 > em {
		return true
	}
	if c.box.X0 < prev.box.X0-1 {
		return true
	}
	return false
}

func baselineShift(prev, c spanChar) bool {
	return math.Abs(c.box.Y1-prev.box.Y1) > 2.0
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// buildSpan aggregates a run of characters into one TextSpan. The box
// covers every non-whitespace character; the text is trimmed. Returns
// false for whitespace-only runs.
func buildSpan(chars []spanChar, pageNumber int) (TextSpan, bool) {
	var sb strings.Builder
	var box Rect
	var fontSizeTotal float64
	boldCount := 0
	visible := 0

	for _, c := range chars {
		sb.WriteRune(c.text)
		if isSpaceRune(c.text) {
			continue
		}
		if visible == 0 {
			box = c.box
		} else {
			box.X0 = math.Min(box.X0, c.box.X0)
			box.Y0 = math.Min(box.Y0, c.box.Y0)
			box.X1 = math.Max(box.X1, c.box.X1)
			box.Y1 = math.Max(box.Y1, c.box.Y1)
		}
		fontSizeTotal += c.fontSize
		if c.bold() {
			boldCount++
		}
		visible++
	}

	text := strings.TrimSpace(sb.String())
	if text == "" || visible == 0 {
		return TextSpan{}, false
	}

	return TextSpan{
		Text:     text,
		Page:     pageNumber,
		Box:      box,
		FontSize: fontSizeTotal / float64(visible),
		IsBold:   boldCount*2 > visible,
	}, true
}
