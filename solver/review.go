package solver

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/axcelscore/examsplit/bank"
)

const (
	// ConfidenceThreshold is the minimum solving confidence before a
	// question is flagged for human review.
	ConfidenceThreshold = 0.85

	// ValidationThreshold selects solved questions for re-validation;
	// stricter than the review threshold so borderline passes get a
	// second look.
	ValidationThreshold = 0.92

	// RandomSampleRate is the fraction of clean solved questions pulled
	// into validation as a spot check.
	RandomSampleRate = 0.05

	minQuestionTextLen = 10
)

// uncertainKeywords mark hedged explanations. A solution whose
// explanation hedges is re-validated regardless of its confidence score.
var uncertainKeywords = []string{
	"unclear",
	"uncertain",
	"approximately",
	"assume",
	"error",
	"unable to determine",
	"insufficient information",
	"cannot calculate",
	"probably",
	"likely",
	"seems",
	"appears",
	"might be",
}

// Review runs the quality check over a freshly solved question and sets
// its flag fields. Existing flags are overwritten; manual verification
// is left untouched.
func Review(q *bank.Question) {
	var issues []string

	if q.ConfidenceScore < ConfidenceThreshold {
		issues = append(issues, fmt.Sprintf("Low confidence: %.0f%%", q.ConfidenceScore*100))
		q.FlaggedLowConfidence = true
	} else {
		q.FlaggedLowConfidence = false
	}

	if q.CorrectAnswer == "" {
		issues = append(issues, "No answer provided")
	}

	if len(q.QuestionText) < minQuestionTextLen {
		issues = append(issues, "Question text too short or missing")
	}

	if len(issues) > 0 {
		q.NeedsReview = true
		q.AutoFlagged = true
		q.FlagReason = strings.Join(issues, "; ")
	} else {
		q.NeedsReview = false
		q.AutoFlagged = false
		q.FlagReason = ""
	}
}

// ValidationReason explains why a question was selected for
// re-validation.
type ValidationReason string

const (
	ReasonLowConfidence     ValidationReason = "confidence below validation threshold"
	ReasonEmptyAnswer       ValidationReason = "empty answer"
	ReasonUncertainLanguage ValidationReason = "uncertain language in explanation"
	ReasonRandomSample      ValidationReason = "random sample"
)

// ValidationPick is one question selected for re-validation.
type ValidationPick struct {
	QuestionNumber int
	Reason         ValidationReason
}

// SelectForValidation chooses solved questions worth a second pass:
// low-confidence solutions, empty answers, hedged explanations, plus a
// random sample of the clean remainder. rng makes the sample
// reproducible under a fixed seed.
func SelectForValidation(questions []bank.Question, rng *rand.Rand) []ValidationPick {
	var picks []ValidationPick

	for _, q := range questions {
		if !q.AISolved {
			continue
		}

		switch {
		case q.CorrectAnswer == "":
			picks = append(picks, ValidationPick{q.QuestionNumber, ReasonEmptyAnswer})
		case q.ConfidenceScore < ValidationThreshold:
			picks = append(picks, ValidationPick{q.QuestionNumber, ReasonLowConfidence})
		case hasUncertainLanguage(q.Explanation):
			picks = append(picks, ValidationPick{q.QuestionNumber, ReasonUncertainLanguage})
		case rng.Float64() < RandomSampleRate:
			picks = append(picks, ValidationPick{q.QuestionNumber, ReasonRandomSample})
		}
	}

	return picks
}

func hasUncertainLanguage(explanation string) bool {
	lower := strings.ToLower(explanation)
	for _, kw := range uncertainKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
