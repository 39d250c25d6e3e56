package examsplit

import (
	"math"
	"regexp"
	"sort"
)

const (
	// minQuestionHeight and maxQuestionHeight clamp the computed extent of
	// a question region in points.
	minQuestionHeight = 80
	maxQuestionHeight = 600

	// nextQuestionGap is the visual gap left above the next question's
	// start marker.
	nextQuestionGap = 15

	// contentPadding is added below the last meaningful span.
	contentPadding = 5
)

var (
	optionLetterRe   = regexp.MustCompile(`^[A-D]$`)
	optionWithTextRe = regexp.MustCompile(`^[A-D]\s+\w+`)
	optionNumericRe  = regexp.MustCompile(`^\d+\s*[A-Za-z]*$`)
	optionParenRe    = regexp.MustCompile(`^[A-D]\)`)
	bareNumberOnlyRe = regexp.MustCompile(`^\d+$`)
)

// footerPatterns match page boilerplate: copyright lines, exam-board
// paper codes and layout instructions. The first footer match terminates
// the end-boundary scan, so question text that happens to contain one of
// these phrases truncates the region early. Known heuristic limitation.
var footerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)©\s*UCLES`),
	regexp.MustCompile(`(?i)UCLES\s+\d+`),
	regexp.MustCompile(`(?i)\d+/\d+/[A-Z]/[A-Z]/\d+`),
	regexp.MustCompile(`(?i)0625/\d+/[A-Z]/[A-Z]/\d+`),
	regexp.MustCompile(`(?i)Turn over`),
	regexp.MustCompile(`(?i)^\[Turn over\]$`),
	regexp.MustCompile(`(?i)Cambridge International`),
	regexp.MustCompile(`(?i)IGCSE`),
	regexp.MustCompile(`(?i)Do not write`),
	regexp.MustCompile(`(?i)Permission to reproduce`),
	regexp.MustCompile(`(?i)End of Question Paper`),
}

// computeBoundaries turns the merged start list into per-question
// boundaries by scanning forward for each question's end.
func computeBoundaries(starts []StartCandidate, spans []TextSpan, pages []PageDim) []Boundary {
	bounds := make([]Boundary, 0, len(starts))

	for i, start := range starts {
		pageHeight := pages[start.Span.Page-1].Height
		startY := start.Span.Y()
		endY := findEndBoundary(starts, i, spans, pageHeight)

		bounds = append(bounds, Boundary{
			Number:     start.Number,
			Page:       start.Span.Page,
			StartY:     startY,
			EndY:       endY,
			Strategy:   start.Strategy,
			Confidence: start.Confidence,
		})
	}

	return bounds
}

// findEndBoundary locates where the question starting at starts[index]
// ends. The default end is the next question's start minus a visual gap
// (same page only), or the page height. Within that window the scan
// tracks the lowest answer-option or body-content span and stops outright
// at the first footer match.
func findEndBoundary(starts []StartCandidate, index int, spans []TextSpan, pageHeight float64) float64 {
	start := starts[index]
	page := start.Span.Page
	startY := start.Span.Y()

	defaultEnd := pageHeight
	if index+1 < len(starts) && starts[index+1].Span.Page == page {
		defaultEnd = starts[index+1].Span.Y() - nextQuestionGap
	}

	window := make([]TextSpan, 0, 32)
	for _, s := range spans {
		if s.Page == page && s.Y() >= startY && s.Y() <= defaultEnd {
			window = append(window, s)
		}
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Y() < window[j].Y()
	})

	lastContent := startY + minQuestionHeight
	lastOption := startY + minQuestionHeight

	for _, s := range window {
		switch {
		case isAnswerOption(s):
			lastOption = s.Y() + s.Height() + contentPadding
			lastContent = math.Max(lastContent, lastOption)
		case isFooterContent(s.Text):
			// Footer boilerplate always terminates the question region.
			return clampEnd(startY, lastContent, lastOption, defaultEnd)
		case isQuestionContent(s):
			lastContent = math.Max(lastContent, s.Y()+s.Height()+contentPadding)
		}
	}

	return clampEnd(startY, lastContent, lastOption, defaultEnd)
}

func clampEnd(startY, lastContent, lastOption, defaultEnd float64) float64 {
	end := math.Min(math.Max(lastContent, lastOption), defaultEnd)

	if end-startY < minQuestionHeight {
		end = startY + minQuestionHeight
	} else if end-startY > maxQuestionHeight {
		end = startY + maxQuestionHeight
	}

	return math.Min(end, defaultEnd)
}

// isAnswerOption reports whether the span looks like a multiple-choice
// option line (bare letter, letter with text, numeric option, or the
// "A)" style).
func isAnswerOption(s TextSpan) bool {
	if optionLetterRe.MatchString(s.Text) && s.X() < 250 {
		return true
	}
	if optionWithTextRe.MatchString(s.Text) && s.X() < 300 {
		return true
	}
	if optionNumericRe.MatchString(s.Text) && s.X() > 30 && s.X() < 350 && s.FontSize >= 8 {
		return true
	}
	if optionParenRe.MatchString(s.Text) && s.X() < 200 {
		return true
	}
	return false
}

// isQuestionContent reports whether the span is meaningful question body
// text rather than a bare number, a bare option letter, or decoration.
func isQuestionContent(s TextSpan) bool {
	if len(s.Text) < 2 {
		return false
	}
	if bareNumberOnlyRe.MatchString(s.Text) {
		return false
	}
	if optionLetterRe.MatchString(s.Text) {
		return false
	}
	if s.FontSize < 6 || s.FontSize > 20 {
		return false
	}
	return true
}

// isFooterContent reports whether the text matches any footer pattern.
func isFooterContent(text string) bool {
	for _, re := range footerPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
