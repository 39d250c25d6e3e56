// Package solver answers extracted question images with the Anthropic
// API and maintains the quality-control state of the resulting
// solutions.
package solver

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"
)

const (
	// DefaultModel is the primary solving model.
	DefaultModel = "claude-sonnet-4-20250514"

	// Pricing per million tokens for the primary model.
	inputCostPerMTok  = 3.0
	outputCostPerMTok = 15.0

	maxResponseTokens = 8192
)

// defaultFallbackModels are tried in order when the primary model call
// fails.
var defaultFallbackModels = []string{
	"claude-3-7-sonnet-latest",
	"claude-3-5-sonnet-latest",
}

// Solution is one parsed model answer for a question image.
type Solution struct {
	QuestionText    string            `json:"question_text"`
	Options         map[string]string `json:"options"`
	CorrectAnswer   string            `json:"correct_answer"`
	SimpleAnswer    string            `json:"simple_answer"`
	Topic           string            `json:"topic"`
	Difficulty      string            `json:"difficulty"`
	ConfidenceScore float64           `json:"confidence_score"`

	// Model is the model that produced this solution.
	Model string `json:"-"`
}

// Usage accumulates token and cost accounting across calls.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	Cost         float64
	Calls        int
	Failures     int
}

// QuestionSolver is the solving interface the workflow depends on.
// Implemented by Client; test code substitutes stubs.
type QuestionSolver interface {
	Solve(ctx context.Context, imagePath, subject string, questionNumber int) (*Solution, error)
}

// Client solves question images through the Anthropic Messages API.
type Client struct {
	api       anthropic.Client
	model     string
	fallbacks []string
	logger    *slog.Logger

	mu    sync.Mutex
	usage Usage
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithModel overrides the primary model.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithFallbackModels overrides the fallback model list.
func WithFallbackModels(models ...string) ClientOption {
	return func(c *Client) { c.fallbacks = models }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a solving client authenticated with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		api:       anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     DefaultModel,
		fallbacks: defaultFallbackModels,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Solve sends one question image to the model and parses the answer.
// The primary model is tried first, then each fallback in order; the
// last error is returned when every model fails.
func (c *Client) Solve(ctx context.Context, imagePath, subject string, questionNumber int) (*Solution, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read question image %s", imagePath)
	}

	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(data)),
		anthropic.NewTextBlock(solvePrompt(subject, questionNumber)),
	}

	var lastErr error
	for _, model := range append([]string{c.model}, c.fallbacks...) {
		text, err := c.send(ctx, model, blocks)
		if err != nil {
			lastErr = err
			c.recordFailure()
			c.logger.Warn("model call failed",
				"model", model, "question", questionNumber, "error", err)
			continue
		}

		solution := ParseSolution(text)
		solution.Model = model
		return solution, nil
	}

	return nil, errors.Wrapf(lastErr, "all models failed for question %d", questionNumber)
}

func (c *Client) send(ctx context.Context, model string, blocks []anthropic.ContentBlockParamUnion) (string, error) {
	message, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			{
				Role:    anthropic.MessageParamRoleUser,
				Content: blocks,
			},
		},
	})
	if err != nil {
		return "", err
	}

	c.recordUsage(message.Usage.InputTokens, message.Usage.OutputTokens)

	var text string
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

func (c *Client) recordUsage(in, out int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage.Calls++
	c.usage.InputTokens += in
	c.usage.OutputTokens += out
	c.usage.Cost += float64(in)/1e6*inputCostPerMTok + float64(out)/1e6*outputCostPerMTok
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage.Failures++
}

// Usage returns a snapshot of the accumulated token and cost totals.
func (c *Client) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// solvePrompt is the fixed instruction sent alongside each question
// image. The model must answer in the JSON shape ParseSolution expects.
func solvePrompt(subject string, questionNumber int) string {
	return fmt.Sprintf(`You are an expert %s tutor analyzing a multiple-choice question image. Respond with JSON in exactly this format:

{
    "question_text": "Full transcription of the question text",
    "options": {"A": "...", "B": "...", "C": "...", "D": "..."},
    "correct_answer": "A",
    "simple_answer": "Brief explanation of why this answer is correct",
    "topic": "Specific topic",
    "difficulty": "easy/medium/hard",
    "confidence_score": 0.95
}

Transcribe the question accurately, identify all options, and lower the confidence score if any part of the image is unclear.

Question %d Analysis:`, subject, questionNumber)
}
