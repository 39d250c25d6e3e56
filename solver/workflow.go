package solver

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/axcelscore/examsplit/bank"
	"github.com/pkg/errors"
)

const (
	defaultBatchSize  = 3
	defaultBatchDelay = 2 * time.Second
)

// Workflow drives the solving loop for a whole paper: it maps question
// images to bank entries, solves unsolved questions in batches, and
// persists the bank after every batch so progress survives interruption.
type Workflow struct {
	Solver QuestionSolver
	Store  *bank.Store

	// BatchSize is the number of questions solved concurrently per batch
	// (default: 3).
	BatchSize int

	// Delay is the pause between batches (default: 2s).
	Delay time.Duration

	Logger *slog.Logger
}

// Stats summarizes one ProcessPaper run.
type Stats struct {
	Total     int
	Processed int
	Flagged   int
	Skipped   int
	Errors    int
}

// ProcessPaper solves every unsolved question of the named paper folder.
// Already-solved questions and questions without an image are skipped.
// The bank is saved after each batch; a save failure aborts the run.
func (w *Workflow) ProcessPaper(ctx context.Context, folder string) (*Stats, error) {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := w.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	delay := w.Delay
	if delay <= 0 {
		delay = defaultBatchDelay
	}

	b, err := w.Store.LoadFolder(folder)
	if err != nil {
		return nil, err
	}

	imageByNumber, err := w.mapImages(folder)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(b.Questions)}

	var pending []*bank.Question
	for i := range b.Questions {
		q := &b.Questions[i]
		if q.AISolved {
			stats.Skipped++
			continue
		}
		if _, ok := imageByNumber[q.QuestionNumber]; !ok {
			logger.Warn("no image for question", "folder", folder, "question", q.QuestionNumber)
			stats.Skipped++
			continue
		}
		pending = append(pending, q)
	}

	logger.Info("solving paper",
		"folder", folder, "pending", len(pending), "batch_size", batchSize)

	subject := b.Metadata.Subject
	for start := 0; start < len(pending); start += batchSize {
		end := min(start+batchSize, len(pending))
		w.solveBatch(ctx, pending[start:end], imageByNumber, subject, stats, logger)

		if err := w.Store.SaveFolder(folder, b); err != nil {
			return stats, errors.Wrap(err, "failed to save progress")
		}

		if end < len(pending) {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	logger.Info("paper complete",
		"folder", folder, "processed", stats.Processed,
		"flagged", stats.Flagged, "errors", stats.Errors, "skipped", stats.Skipped)
	return stats, nil
}

func (w *Workflow) solveBatch(ctx context.Context, batch []*bank.Question, images map[int]string, subject string, stats *Stats, logger *slog.Logger) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, q := range batch {
		wg.Add(1)
		go func(q *bank.Question) {
			defer wg.Done()

			solution, err := w.Solver.Solve(ctx, images[q.QuestionNumber], subject, q.QuestionNumber)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("failed to solve question",
					"question", q.QuestionNumber, "error", err)
				stats.Errors++
				return
			}

			applySolution(q, solution)
			Review(q)
			if q.NeedsReview {
				stats.Flagged++
			}
			stats.Processed++
		}(q)
	}

	wg.Wait()
}

// applySolution copies a parsed solution into the bank entry and stamps
// it solved.
func applySolution(q *bank.Question, s *Solution) {
	now := time.Now().Format(time.RFC3339)

	if s.QuestionText != "" {
		q.QuestionText = s.QuestionText
	}
	if len(s.Options) > 0 {
		q.Options = bank.Options{
			A: optionOr(s.Options, "A", q.Options.A),
			B: optionOr(s.Options, "B", q.Options.B),
			C: optionOr(s.Options, "C", q.Options.C),
			D: optionOr(s.Options, "D", q.Options.D),
		}
	}
	q.CorrectAnswer = s.CorrectAnswer
	q.Explanation = s.SimpleAnswer
	q.SyllabusTopic = s.Topic
	q.DifficultyLevel = s.Difficulty
	q.ConfidenceScore = s.ConfidenceScore
	q.AISolved = true
	q.AISolverVersion = s.Model
	q.SolvingTimestamp = now
	q.LastUpdated = now
}

func optionOr(options map[string]string, key, fallback string) string {
	if v, ok := options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// mapImages resolves the paper's image directory and indexes image paths
// by the question number parsed from each filename.
func (w *Workflow) mapImages(folder string) (map[int]string, error) {
	paths, err := w.Store.ImagePaths(folder)
	if err != nil {
		return nil, err
	}

	byNumber := make(map[int]string, len(paths))
	for _, path := range paths {
		n, ok := questionNumberFromFilename(filepath.Base(path))
		if !ok {
			continue
		}
		if _, exists := byNumber[n]; !exists {
			byNumber[n] = path
		}
	}
	return byNumber, nil
}

// Filename patterns tried in order: "question_07_enhanced.png", "q7.png",
// "07.png", then any number anywhere in the name.
var filenameNumberRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)question[_\s]*(\d+)`),
	regexp.MustCompile(`(?i)^q(\d+)`),
	regexp.MustCompile(`^(\d+)`),
	regexp.MustCompile(`(\d+)`),
}

func questionNumberFromFilename(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, re := range filenameNumberRes {
		if m := re.FindStringSubmatch(base); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}
