package bank

import (
	"log/slog"

	"github.com/axcelscore/examsplit"
	"github.com/pkg/errors"
)

// Pipeline runs one paper end to end: extract question images, build the
// bank, persist it and deploy the images into the paper folder.
type Pipeline struct {
	Extractor *examsplit.Extractor
	Store     *Store
	Logger    *slog.Logger
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	Folder         string
	Questions      int
	DeployedImages int
}

// Run extracts pdfPath into paper's bank folder.
func (p *Pipeline) Run(pdfPath string, paper Paper) (*RunResult, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := p.Extractor.ExtractFile(pdfPath)
	if !result.Success {
		return nil, errors.Errorf("extraction failed: %s", result.Error)
	}
	logger.Info("extraction complete",
		"paper", paper.FolderName(), "questions", result.QuestionsFound)

	b := Build(result.Images, paper)
	if err := p.Store.Save(paper, b); err != nil {
		return nil, errors.Wrap(err, "failed to save question bank")
	}

	paths := make([]string, 0, len(result.Images))
	for _, img := range result.Images {
		paths = append(paths, img.Path)
	}
	deployed, err := p.Store.Deploy(paper.FolderName(), paths)
	if err != nil {
		return nil, errors.Wrap(err, "failed to deploy images")
	}
	logger.Info("deployed question bank",
		"folder", paper.FolderName(), "images", deployed)

	return &RunResult{
		Folder:         paper.FolderName(),
		Questions:      len(b.Questions),
		DeployedImages: deployed,
	}, nil
}
