package examsplit

// Rect represents a bounding box in page coordinates.
// The origin is top-left (after conversion from PDF coordinates),
// so Y grows downward like the rendered page.
type Rect struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// Horizontal position thresholds used by the detection heuristics.
// Exam papers set question numbers hard against the left margin; bold
// or oversized numbers drift slightly further in.
const (
	leftMarginX = 100
	nearLeftX   = 150
)

// TextSpan is one contiguous run of text with uniform styling. Spans are
// produced fresh for each extraction run and discarded afterwards.
type TextSpan struct {
	Text     string
	Page     int // 1-indexed
	Box      Rect
	FontSize float64
	IsBold   bool
}

// X returns the left edge of the span.
func (s TextSpan) X() float64 { return s.Box.X0 }

// Y returns the top edge of the span.
func (s TextSpan) Y() float64 { return s.Box.Y0 }

// Width returns the horizontal extent of the span.
func (s TextSpan) Width() float64 { return s.Box.Width() }

// Height returns the vertical extent of the span.
func (s TextSpan) Height() float64 { return s.Box.Height() }

// AtLeftMargin reports whether the span starts at the page's left margin.
func (s TextSpan) AtLeftMargin() bool { return s.Box.X0 < leftMarginX }

// NearLeft reports whether the span starts near the left margin.
func (s TextSpan) NearLeft() bool { return s.Box.X0 < nearLeftX }

// PageDim holds the point dimensions of one page.
type PageDim struct {
	Width  float64
	Height float64
}

// StartCandidate is one detection heuristic's proposal for where a
// question begins. After merging, at most one candidate survives per
// question number.
type StartCandidate struct {
	Number     int
	Span       TextSpan
	Strategy   string
	Confidence float64
}

// Boundary is the computed vertical extent of one question on a page.
type Boundary struct {
	Number     int
	Page       int
	StartY     float64
	EndY       float64
	Strategy   string
	Confidence float64
}

// Height returns the vertical size of the boundary.
func (b Boundary) Height() float64 {
	return b.EndY - b.StartY
}

// QuestionImage describes one extracted question image on disk.
type QuestionImage struct {
	Number     int
	Filename   string
	Path       string
	Width      int // pixels
	Height     int // pixels
	Page       int
	Strategy   string
	Confidence float64
}

// Result is the structured outcome of one extraction run. Failures are
// reported here rather than as raised errors so that callers always
// receive a well-formed envelope.
type Result struct {
	Success        bool
	QuestionsFound int
	Images         []QuestionImage // ordered by question number
	Error          string
}
