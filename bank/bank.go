// Package bank builds and persists question banks: the solutions.json
// and metadata.json artifacts that downstream solving and review tooling
// consume, laid out in per-paper folders.
package bank

import (
	"fmt"
	"strings"
	"time"

	"github.com/axcelscore/examsplit"
)

// Paper identifies one exam paper within the question bank.
type Paper struct {
	Subject   string `json:"subject"`
	Year      int    `json:"year"`
	Month     string `json:"month"`
	PaperCode string `json:"paper_code"`
}

// FolderName returns the canonical per-paper folder name, e.g.
// "physics_2024_mar_13".
func (p Paper) FolderName() string {
	return fmt.Sprintf("%s_%d_%s_%s",
		strings.ToLower(p.Subject), p.Year, strings.ToLower(p.Month), p.PaperCode)
}

// monthDisplay maps exam-session month codes to display names. Sessions
// that span two months keep the combined form used on the papers.
var monthDisplay = map[string]string{
	"jan": "January",
	"feb": "February",
	"mar": "March",
	"may": "May/June",
	"jun": "June",
	"oct": "October/November",
	"nov": "November",
	"dec": "December",
}

// MonthDisplay returns the display name of the paper's exam session
// month. Unknown codes are title-cased as-is.
func (p Paper) MonthDisplay() string {
	code := strings.ToLower(p.Month)
	if name, ok := monthDisplay[code]; ok {
		return name
	}
	return titleCase(code)
}

// Session returns the exam session string, e.g. "May/June 2024".
func (p Paper) Session() string {
	return fmt.Sprintf("%s %d", p.MonthDisplay(), p.Year)
}

// DisplayName returns the human-readable paper title.
func (p Paper) DisplayName() string {
	return fmt.Sprintf("Cambridge IGCSE %s Paper %s", titleCase(strings.ToLower(p.Subject)), p.PaperCode)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Options holds the four multiple-choice option labels. Extraction fills
// placeholders; the text lives in the question image.
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// DefaultOptions returns placeholder option labels.
func DefaultOptions() Options {
	return Options{A: "Option A", B: "Option B", C: "Option C", D: "Option D"}
}

// Question is one entry in solutions.json. Extraction populates the
// identity and image fields; the solver fills in answers and confidence;
// review tooling maintains the flag fields.
type Question struct {
	ID             string  `json:"id"`
	QuestionNumber int     `json:"question_number"`
	QuestionText   string  `json:"question_text"`
	Options        Options `json:"options"`
	ImageFilename  string  `json:"image_filename,omitempty"`
	Page           int     `json:"page,omitempty"`
	Marks          int     `json:"marks"`
	Subject        string  `json:"subject"`
	Difficulty     string  `json:"difficulty"`

	// Solver fields.
	CorrectAnswer   string   `json:"correct_answer"`
	Explanation     string   `json:"explanation"`
	SyllabusTopic   string   `json:"syllabus_topic,omitempty"`
	SubTopic        string   `json:"sub_topic,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	DifficultyLevel string   `json:"difficulty_level,omitempty"`
	FormulaUsed     []string `json:"formula_used,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`

	// Status.
	HasImages        bool   `json:"has_images"`
	AISolved         bool   `json:"ai_solved"`
	AISolverVersion  string `json:"ai_solver_version,omitempty"`
	SolvingTimestamp string `json:"solving_timestamp,omitempty"`

	// Quality control flags.
	NeedsReview          bool   `json:"needs_review"`
	FlaggedBadImage      bool   `json:"flagged_bad_image"`
	FlaggedWrongAnswer   bool   `json:"flagged_wrong_answer"`
	FlaggedLowConfidence bool   `json:"flagged_low_confidence"`
	AutoFlagged          bool   `json:"auto_flagged"`
	FlagReason           string `json:"flag_reason,omitempty"`

	// Manual updates.
	ImageManuallyUpdated bool   `json:"image_manually_updated"`
	ManuallyVerified     bool   `json:"manually_verified"`
	LastUpdated          string `json:"last_updated,omitempty"`

	// Extraction metadata.
	ExtractionMethod     string  `json:"extraction_method"`
	DetectionStrategy    string  `json:"detection_strategy,omitempty"`
	ExtractionConfidence float64 `json:"extraction_confidence"`
}

// Metadata describes the bank as a whole.
type Metadata struct {
	ExamPaper        string `json:"exam_paper"`
	ExamSession      string `json:"exam_session"`
	ExtractionDate   string `json:"extraction_date"`
	ExtractionMethod string `json:"extraction_method"`
	TotalQuestions   int    `json:"total_questions"`
	Subject          string `json:"subject"`
	Year             int    `json:"year"`
	Month            string `json:"month"`
	MonthDisplay     string `json:"month_display"`
	PaperCode        string `json:"paper_code"`
	ImagesFolder     string `json:"images_folder"`
	Filename         string `json:"filename"`

	EnhancementApplied bool `json:"enhancement_applied"`
	ExtractionSuccess  bool `json:"extraction_success"`
}

// Bank is a complete question bank for one paper.
type Bank struct {
	Metadata  Metadata   `json:"metadata"`
	Questions []Question `json:"questions"`
}

const extractionMethod = "multi_strategy_boundary_detection"

// Build assembles a question bank from extracted images. One question per
// image, ordered by question number, with placeholder text and options
// until the solver fills them in.
func Build(images []examsplit.QuestionImage, paper Paper) *Bank {
	questions := make([]Question, 0, len(images))
	for _, img := range images {
		questions = append(questions, Question{
			ID:                   fmt.Sprintf("%s_q%02d", strings.ToLower(paper.Subject), img.Number),
			QuestionNumber:       img.Number,
			QuestionText:         fmt.Sprintf("Question %d - See image for full question", img.Number),
			Options:              DefaultOptions(),
			ImageFilename:        img.Filename,
			Page:                 img.Page,
			Marks:                1,
			Subject:              strings.ToLower(paper.Subject),
			Difficulty:           "medium",
			HasImages:            true,
			ExtractionMethod:     extractionMethod,
			DetectionStrategy:    img.Strategy,
			ExtractionConfidence: img.Confidence,
		})
	}

	return &Bank{
		Metadata: Metadata{
			ExamPaper:          paper.DisplayName(),
			ExamSession:        paper.Session(),
			ExtractionDate:     time.Now().Format(time.RFC3339),
			ExtractionMethod:   extractionMethod,
			TotalQuestions:     len(questions),
			Subject:            strings.ToLower(paper.Subject),
			Year:               paper.Year,
			Month:              strings.ToLower(paper.Month),
			MonthDisplay:       paper.MonthDisplay(),
			PaperCode:          paper.PaperCode,
			ImagesFolder:       "images",
			Filename:           paper.FolderName() + ".json",
			EnhancementApplied: true,
			ExtractionSuccess:  true,
		},
		Questions: questions,
	}
}

// Question returns the question with the given number, or nil.
func (b *Bank) Question(number int) *Question {
	for i := range b.Questions {
		if b.Questions[i].QuestionNumber == number {
			return &b.Questions[i]
		}
	}
	return nil
}
