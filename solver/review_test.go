package solver

import (
	"math/rand"
	"testing"

	"github.com/axcelscore/examsplit/bank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solvedQuestion(number int, answer string, confidence float64) bank.Question {
	return bank.Question{
		QuestionNumber:  number,
		QuestionText:    "Which resistor combination gives the largest current?",
		CorrectAnswer:   answer,
		ConfidenceScore: confidence,
		AISolved:        true,
	}
}

func TestReview_CleanSolutionPasses(t *testing.T) {
	q := solvedQuestion(1, "B", 0.95)
	Review(&q)

	assert.False(t, q.NeedsReview)
	assert.False(t, q.AutoFlagged)
	assert.False(t, q.FlaggedLowConfidence)
	assert.Empty(t, q.FlagReason)
}

func TestReview_LowConfidence(t *testing.T) {
	q := solvedQuestion(1, "B", 0.60)
	Review(&q)

	assert.True(t, q.NeedsReview)
	assert.True(t, q.FlaggedLowConfidence)
	assert.True(t, q.AutoFlagged)
	assert.Contains(t, q.FlagReason, "Low confidence: 60%")
}

func TestReview_EmptyAnswer(t *testing.T) {
	q := solvedQuestion(1, "", 0.95)
	Review(&q)

	assert.True(t, q.NeedsReview)
	assert.False(t, q.FlaggedLowConfidence)
	assert.Equal(t, "No answer provided", q.FlagReason)
}

func TestReview_ShortQuestionText(t *testing.T) {
	q := solvedQuestion(1, "A", 0.95)
	q.QuestionText = "Q1"
	Review(&q)

	assert.True(t, q.NeedsReview)
	assert.Equal(t, "Question text too short or missing", q.FlagReason)
}

func TestReview_MultipleIssuesJoined(t *testing.T) {
	q := solvedQuestion(1, "", 0.40)
	q.QuestionText = ""
	Review(&q)

	assert.Equal(t, "Low confidence: 40%; No answer provided; Question text too short or missing", q.FlagReason)
}

func TestReview_ClearsStaleFlags(t *testing.T) {
	q := solvedQuestion(1, "C", 0.96)
	q.NeedsReview = true
	q.AutoFlagged = true
	q.FlagReason = "Low confidence: 50%"
	q.FlaggedLowConfidence = true

	Review(&q)
	assert.False(t, q.NeedsReview)
	assert.Empty(t, q.FlagReason)
	assert.False(t, q.FlaggedLowConfidence)
}

func TestSelectForValidation(t *testing.T) {
	questions := []bank.Question{
		solvedQuestion(1, "A", 0.99), // clean
		solvedQuestion(2, "B", 0.85), // below validation threshold
		solvedQuestion(3, "", 0.99),  // empty answer
		solvedQuestion(4, "D", 0.99), // hedged explanation
		{QuestionNumber: 5},          // unsolved, never selected
	}
	questions[3].Explanation = "The value is approximately 3 N, assuming the scale is linear."

	// Seeded rng whose first draw exceeds the sample rate, so question 1
	// stays out.
	rng := rand.New(rand.NewSource(1))
	picks := SelectForValidation(questions, rng)

	require.Len(t, picks, 3)
	byNumber := map[int]ValidationReason{}
	for _, p := range picks {
		byNumber[p.QuestionNumber] = p.Reason
	}
	assert.Equal(t, ReasonLowConfidence, byNumber[2])
	assert.Equal(t, ReasonEmptyAnswer, byNumber[3])
	assert.Equal(t, ReasonUncertainLanguage, byNumber[4])
	assert.NotContains(t, byNumber, 5)
}

func TestSelectForValidation_RandomSample(t *testing.T) {
	questions := make([]bank.Question, 0, 200)
	for i := 1; i <= 200; i++ {
		questions = append(questions, solvedQuestion(i, "A", 0.99))
	}

	rng := rand.New(rand.NewSource(42))
	picks := SelectForValidation(questions, rng)

	// Every pick is a random sample; the count should sit near 5% of 200.
	for _, p := range picks {
		assert.Equal(t, ReasonRandomSample, p.Reason)
	}
	assert.Greater(t, len(picks), 0)
	assert.Less(t, len(picks), 40)

	// Same seed, same selection.
	again := SelectForValidation(questions, rand.New(rand.NewSource(42)))
	assert.Equal(t, picks, again)
}

func TestHasUncertainLanguage(t *testing.T) {
	assert.True(t, hasUncertainLanguage("This seems to be option B."))
	assert.True(t, hasUncertainLanguage("Unable to determine the scale."))
	assert.True(t, hasUncertainLanguage("The reading is APPROXIMATELY 2.5 V."))
	assert.False(t, hasUncertainLanguage("The current is 2 A by Ohm's law."))
}
