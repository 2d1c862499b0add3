// Package pipeline runs processing stages over annotated documents.
//
// A stage reads a document and adds annotations to it. A Pipeline applies
// its stages in order to one document; RunAll spreads many documents over a
// worker pool where every document is owned by exactly one worker, so stages
// never need to lock.
package pipeline

import (
	"context"
	"time"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/core/errors"
	"github.com/FocuswithJustin/standoff/internal/logging"
)

// Stage is one processing step.
type Stage interface {
	Name() string
	Process(ctx context.Context, doc *annot.Document) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, doc *annot.Document) error
}

// Name returns the stage name.
func (f StageFunc) Name() string { return f.StageName }

// Process calls Fn.
func (f StageFunc) Process(ctx context.Context, doc *annot.Document) error {
	return f.Fn(ctx, doc)
}

// Pipeline is an ordered list of stages.
type Pipeline struct {
	stages []Stage
}

// New creates a pipeline running stages in the given order.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Add appends a stage.
func (p *Pipeline) Add(s Stage) *Pipeline {
	p.stages = append(p.stages, s)
	return p
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run applies every stage to doc, stopping at the first failure or when
// ctx is done.
func (p *Pipeline) Run(ctx context.Context, doc *annot.Document) error {
	if logging.DocumentID(ctx) == "" {
		ctx = logging.WithDocumentID(ctx, doc.ID())
	}
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := doc.AnnotationCount()
		start := time.Now()
		if err := s.Process(ctx, doc); err != nil {
			logging.StageError(ctx, s.Name(), err)
			return errors.Wrapf(err, "stage %s on document %s", s.Name(), doc.ID())
		}
		logging.StageRun(ctx, s.Name(), doc.AnnotationCount()-before, time.Since(start))
	}
	return nil
}

// RunAll runs the pipeline over docs with at most workers goroutines. Each
// document is handed to a single worker. All failures are returned joined,
// in document order. A document listed twice is rejected before any work
// starts.
func (p *Pipeline) RunAll(ctx context.Context, docs []*annot.Document, workers int) error {
	seen := make(map[*annot.Document]bool, len(docs))
	for _, d := range docs {
		if seen[d] {
			return errors.NewValidation("documents", "document "+d.ID()+" listed twice")
		}
		seen[d] = true
	}
	if len(docs) == 0 {
		return nil
	}

	type result struct {
		index int
		err   error
	}
	pool := NewWorkerPool[int, result](workers, len(docs))
	pool.Start(func(i int) result {
		return result{index: i, err: p.Run(logging.WithDocumentID(ctx, docs[i].ID()), docs[i])}
	})
	for i := range docs {
		pool.Submit(i)
	}
	pool.Close()

	errs := make([]error, len(docs))
	for r := range pool.Results() {
		errs[r.index] = r.err
	}
	return errors.Join(errs...)
}
