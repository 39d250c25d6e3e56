package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSolution_FencedBlock(t *testing.T) {
	body := "Here is my analysis.\n```json\n{\"question_text\": \"Which unit measures current?\", \"correct_answer\": \"B\", \"confidence_score\": 0.95}\n```\nLet me know if you need more."

	s := ParseSolution(body)
	assert.Equal(t, "Which unit measures current?", s.QuestionText)
	assert.Equal(t, "B", s.CorrectAnswer)
	assert.Equal(t, 0.95, s.ConfidenceScore)
}

func TestParseSolution_BareObject(t *testing.T) {
	body := `The answer is below. {"correct_answer": "C", "confidence_score": 0.9, "options": {"A": "1 N", "B": "2 N", "C": "3 N", "D": "4 N"}} Hope that helps.`

	s := ParseSolution(body)
	assert.Equal(t, "C", s.CorrectAnswer)
	assert.Equal(t, "3 N", s.Options["C"])
}

func TestParseSolution_LargestObjectWins(t *testing.T) {
	body := `{"note": "ignore me"} and then {"question_text": "A longer object with more fields", "correct_answer": "A", "confidence_score": 0.8}`

	s := ParseSolution(body)
	assert.Equal(t, "A", s.CorrectAnswer)
	assert.Equal(t, "A longer object with more fields", s.QuestionText)
}

func TestParseSolution_WholeBody(t *testing.T) {
	// No fence, no prose: the whole body is the JSON document.
	body := `{"correct_answer": "D", "confidence_score": 1.0}`

	s := ParseSolution(body)
	assert.Equal(t, "D", s.CorrectAnswer)
	assert.Equal(t, 1.0, s.ConfidenceScore)
}

func TestParseSolution_TrailingCommas(t *testing.T) {
	body := "```json\n{\"correct_answer\": \"A\", \"confidence_score\": 0.9,}\n```"

	s := ParseSolution(body)
	assert.Equal(t, "A", s.CorrectAnswer)
}

func TestParseSolution_QuotedConfidence(t *testing.T) {
	s := ParseSolution(`{"correct_answer": "B", "confidence_score": "0.85"}`)
	assert.Equal(t, 0.85, s.ConfidenceScore)

	// A non-numeric string coerces to zero rather than failing the parse.
	s = ParseSolution(`{"correct_answer": "B", "confidence_score": "high"}`)
	assert.Equal(t, "B", s.CorrectAnswer)
	assert.Equal(t, 0.0, s.ConfidenceScore)
}

func TestParseSolution_Unparseable(t *testing.T) {
	s := ParseSolution("I could not read the image, sorry.")

	require.NotNil(t, s)
	assert.Equal(t, "Failed to parse response", s.QuestionText)
	assert.Empty(t, s.CorrectAnswer)
	assert.Equal(t, 0.0, s.ConfidenceScore)
	assert.NotNil(t, s.Options)
}

func TestParseSolution_AnswerTrimmed(t *testing.T) {
	s := ParseSolution(`{"correct_answer": " A ", "confidence_score": 0.9}`)
	assert.Equal(t, "A", s.CorrectAnswer)
}
