package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/urfave/cli/v3"

	"github.com/axcelscore/examsplit"
	"github.com/axcelscore/examsplit/bank"
	"github.com/axcelscore/examsplit/solver"
)

func main() {
	// Optional .env for ANTHROPIC_API_KEY.
	godotenv.Load()

	banksFlag := &cli.StringFlag{
		Name:  "banks",
		Usage: "Question banks root directory",
		Value: "question_banks",
	}

	cmd := &cli.Command{
		Name:  "examsplit",
		Usage: "Split exam paper PDFs into per-question images and solve them",
		Commands: []*cli.Command{
			{
				Name:  "extract",
				Usage: "Extract question images from a PDF into a question bank",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Input PDF file path",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "subject",
						Usage:    "Subject name, e.g. physics",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "year",
						Usage:    "Exam year, e.g. 2024",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "month",
						Usage:    "Exam session month code (mar, may, oct, ...)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "paper",
						Usage:    "Paper code, e.g. 13",
						Required: true,
					},
					banksFlag,
				},
				Action: extractAction,
			},
			{
				Name:  "solve",
				Usage: "Solve unsolved questions of a paper with the Anthropic API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "paper",
						Usage:    "Paper folder name, e.g. physics_2024_mar_13",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch",
						Usage: "Questions solved concurrently per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "delay",
						Usage: "Pause between batches",
						Value: 2 * time.Second,
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Override the primary model",
						Value: solver.DefaultModel,
					},
					banksFlag,
				},
				Action: solveAction,
			},
			{
				Name:  "validate",
				Usage: "Report solved questions that deserve re-validation",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "paper",
						Usage:    "Paper folder name, e.g. physics_2024_mar_13",
						Required: true,
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "Random sample seed",
						Value: time.Now().UnixNano(),
					},
					banksFlag,
				},
				Action: validateAction,
			},
			{
				Name:  "info",
				Usage: "Show basic information about a PDF",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Input PDF file path",
						Required: true,
					},
				},
				Action: infoAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// withInstance initialises the pdfium WebAssembly pool and hands a
// single instance to fn.
func withInstance(fn func(instance pdfium.Pdfium) error) error {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise pdfium: %w", err)
	}
	defer pool.Close()

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		return fmt.Errorf("failed to get pdfium instance: %w", err)
	}

	return fn(instance)
}

func extractAction(_ context.Context, cmd *cli.Command) error {
	paper := bank.Paper{
		Subject:   cmd.String("subject"),
		Year:      cmd.Int("year"),
		Month:     cmd.String("month"),
		PaperCode: cmd.String("paper"),
	}
	store := bank.NewStore(cmd.String("banks"))

	return withInstance(func(instance pdfium.Pdfium) error {
		config := examsplit.DefaultConfig()
		config.OutputDir = filepath.Join(os.TempDir(), "examsplit", paper.FolderName())

		pipeline := &bank.Pipeline{
			Extractor: examsplit.NewExtractorWithConfig(instance, config),
			Store:     store,
			Logger:    slog.Default(),
		}

		result, err := pipeline.Run(cmd.String("input"), paper)
		if err != nil {
			return err
		}

		fmt.Printf("Extracted %d questions into %s (%d images deployed)\n",
			result.Questions, store.Dir(result.Folder), result.DeployedImages)
		return nil
	})
}

func solveAction(ctx context.Context, cmd *cli.Command) error {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	client := solver.NewClient(apiKey, solver.WithModel(cmd.String("model")))
	w := &solver.Workflow{
		Solver:    client,
		Store:     bank.NewStore(cmd.String("banks")),
		BatchSize: cmd.Int("batch"),
		Delay:     cmd.Duration("delay"),
		Logger:    slog.Default(),
	}

	stats, err := w.ProcessPaper(ctx, cmd.String("paper"))
	if err != nil {
		return err
	}

	usage := client.Usage()
	fmt.Printf("Solved %d/%d questions (%d flagged, %d errors, %d skipped)\n",
		stats.Processed, stats.Total, stats.Flagged, stats.Errors, stats.Skipped)
	fmt.Printf("Tokens: %d in / %d out, cost $%.4f across %d calls\n",
		usage.InputTokens, usage.OutputTokens, usage.Cost, usage.Calls)
	return nil
}

func validateAction(_ context.Context, cmd *cli.Command) error {
	store := bank.NewStore(cmd.String("banks"))

	b, err := store.LoadFolder(cmd.String("paper"))
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cmd.Int64("seed")))
	picks := solver.SelectForValidation(b.Questions, rng)
	if len(picks) == 0 {
		fmt.Println("No questions selected for re-validation")
		return nil
	}

	fmt.Printf("%d of %d questions selected for re-validation:\n", len(picks), len(b.Questions))
	for _, p := range picks {
		fmt.Printf("  Q%02d: %s\n", p.QuestionNumber, p.Reason)
	}
	return nil
}

func infoAction(_ context.Context, cmd *cli.Command) error {
	return withInstance(func(instance pdfium.Pdfium) error {
		extractor := examsplit.NewExtractor(instance)
		info, err := extractor.GetDocumentInfo(cmd.String("input"))
		if err != nil {
			return err
		}
		fmt.Printf("Pages: %d\n", info.PageCount)
		return nil
	})
}
