package gherkin

import (
	"context"
	"fmt"
	"io"
	"os"

	gherkin "github.com/cucumber/gherkin/go/v26"
	"github.com/google/uuid"
	"github.com/vk/stepgrid/internal/ctxlog"
	"github.com/vk/stepgrid/internal/fsutil"
	"github.com/vk/stepgrid/internal/model"
)

// Extension is the file extension of feature files.
const Extension = ".feature"

// LoadFeatures discovers and compiles every feature file under paths. Each
// path may be a file or a directory.
func LoadFeatures(ctx context.Context, paths ...string) ([]*model.Scenario, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, p := range paths {
		found, err := fsutil.FindFilesByExtension(p, Extension)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", p, err)
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered feature files.", "count", len(files))

	var scenarios []*model.Scenario
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open feature file %s: %w", file, err)
		}
		compiled, err := Compile(f, file)
		f.Close()
		if err != nil {
			return nil, err
		}
		logger.Debug("Feature file compiled.", "path", file, "scenarios", len(compiled))
		scenarios = append(scenarios, compiled...)
	}
	return scenarios, nil
}

// Compile parses one feature document and returns its scenarios in source
// order.
func Compile(r io.Reader, uri string) ([]*model.Scenario, error) {
	newID := func() string { return uuid.NewString() }

	doc, err := gherkin.ParseGherkinDocument(r, newID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature file %s: %w", uri, err)
	}
	doc.Uri = uri
	if doc.Feature == nil {
		return nil, nil
	}

	idx := newIndex(doc.Feature)
	pickles := gherkin.Pickles(*doc, uri, newID)

	scenarios := make([]*model.Scenario, 0, len(pickles))
	for _, p := range pickles {
		sc, err := idx.scenario(p, uri)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", uri, err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}
