package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docmock/internal/chunker"
	"github.com/dgallion1/docmock/internal/classify"
	"github.com/dgallion1/docmock/internal/doctree"
	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/extract"
	"github.com/dgallion1/docmock/internal/parser"
	"github.com/dgallion1/docmock/internal/store"
)

// Repository is the persistence the pipeline writes to.
type Repository interface {
	SaveDefinition(ctx context.Context, d *endpoint.Definition) error
	ReplaceSourceFile(ctx context.Context, fileName string, defs []*endpoint.Definition) (int, error)
	GetScene(ctx context.Context, id string) (*store.Scene, error)
	SaveUploadedFile(ctx context.Context, f *store.UploadedFile) error
	AddLog(ctx context.Context, l store.OpLog) error
}

// WindowConfig sizes whole-document extraction windows, in estimated tokens.
type WindowConfig struct {
	Tokens  int
	Overlap int
}

// Worker processes a single document job.
type Worker struct {
	extractor *extract.Extractor
	repo      Repository
	log       *slog.Logger
	rules     classify.Rules
	windows   WindowConfig

	maxConcurrentExtract int
}

func NewWorker(ex *extract.Extractor, repo Repository, log *slog.Logger, rules classify.Rules, windows WindowConfig, maxExtract int) *Worker {
	if maxExtract <= 0 {
		maxExtract = 1
	}
	return &Worker{
		extractor:            ex,
		repo:                 repo,
		log:                  log,
		rules:                rules,
		windows:              windows,
		maxConcurrentExtract: maxExtract,
	}
}

// Process runs the full ingest pipeline for a job and persists its outcome.
// It never returns an error; failures land on the job and its upload record.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("file_id", job.FileID, "file_name", job.FileName)
	defer job.releaseData()

	job.SetStatus(store.StatusProcessing, "parsing")
	w.persist(ctx, log, job)

	saved, err := w.run(ctx, log, job)
	if err != nil {
		log.Error("document failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(store.StatusFailed, "failed")
	} else {
		log.Info("document processed", "endpoints", saved)
		job.SetStatus(store.StatusCompleted, "done")
	}
	w.persist(ctx, log, job)
}

func (w *Worker) run(ctx context.Context, log *slog.Logger, job *Job) (int, error) {
	data := job.FileData()
	doc, err := parser.Parse(bytes.NewReader(data), job.FileName)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	job.mu.Lock()
	job.ContentHash = ContentHashHex(data)
	job.mu.Unlock()

	rules := w.sceneRules(ctx, log, job.SceneID)

	job.SetPhase("extracting")
	var (
		batches [][]endpoint.Candidate
		failed  int
	)
	if job.FullAI {
		batches, failed, err = w.extractWindows(ctx, log, job, doc, rules)
	} else {
		batches, failed, err = w.extractChunks(ctx, log, job, doc, rules)
	}
	if err != nil {
		return 0, err
	}

	job.SetPhase("storing")
	norm := endpoint.NewNormalizer(endpoint.Source{
		SceneID:        job.SceneID,
		SceneName:      job.SceneName,
		SourceFileID:   job.FileID,
		SourceFileName: job.FileName,
		ByIDOnly:       job.FullAI,
	})
	found := 0
	var defs []*endpoint.Definition
	for _, batch := range batches {
		for _, c := range batch {
			found++
			d, err := norm.Build(c)
			if err != nil {
				log.Warn("candidate dropped", "title", c.Title, "method", c.Method, "path", c.APIPath, "reason", err)
				continue
			}
			defs = append(defs, d)
		}
	}
	saved := 0
	if len(defs) > 0 {
		removed, err := w.repo.ReplaceSourceFile(ctx, job.FileName, defs)
		if err != nil {
			job.AddCandidates(found, 0)
			return 0, fmt.Errorf("save definitions: %w", err)
		}
		saved = len(defs)
		if removed > 0 {
			log.Info("replaced previous upload", "definitions", removed)
			w.addLog(ctx, log, store.OpLog{
				Type:           store.LogDocDelete,
				SourceFileName: job.FileName,
				Message:        fmt.Sprintf("re-upload removed %d definitions", removed),
			})
		}
	}
	job.AddCandidates(found, saved)
	log.Info("extraction complete", "candidates", found, "saved", saved, "failed_calls", failed)

	w.addLog(ctx, log, store.OpLog{
		Type:           store.LogUploadMock,
		SourceFileName: job.FileName,
		Message:        fmt.Sprintf("generated %d mock endpoints", saved),
	})
	if saved == 0 && failed > 0 {
		return 0, fmt.Errorf("no endpoints generated, %d extraction calls failed", failed)
	}
	return saved, nil
}

// extractChunks asks for the candidates of every chunk with bounded
// concurrency, keeping document order.
func (w *Worker) extractChunks(ctx context.Context, log *slog.Logger, job *Job, doc *doctree.Document, rules classify.Rules) ([][]endpoint.Candidate, int, error) {
	chunks := chunker.Chunk(doc.Sections, rules)
	log.Info("chunked document", "chunks", len(chunks))
	return w.extractAll(ctx, log, job, len(chunks), func(ctx context.Context, i int) ([]endpoint.Candidate, error) {
		return w.extractor.Chunk(ctx, rules, doc.Title, chunks[i])
	})
}

// extractWindows sends the whole relevant text, split into token windows.
func (w *Worker) extractWindows(ctx context.Context, log *slog.Logger, job *Job, doc *doctree.Document, rules classify.Rules) ([][]endpoint.Candidate, int, error) {
	text := chunker.Document(doc.Sections, rules)
	windows := chunker.Windows(text, w.windows.Tokens, w.windows.Overlap)
	log.Info("split document into windows", "windows", len(windows), "tokens", chunker.EstimateTokens(text))
	return w.extractAll(ctx, log, job, len(windows), func(ctx context.Context, i int) ([]endpoint.Candidate, error) {
		return w.extractor.Window(ctx, windows[i], i, len(windows))
	})
}

func (w *Worker) extractAll(ctx context.Context, log *slog.Logger, job *Job, n int, fn func(context.Context, int) ([]endpoint.Candidate, error)) ([][]endpoint.Candidate, int, error) {
	job.SetTotalChunks(n)
	results := make([][]endpoint.Candidate, n)
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrentExtract)
	for i := range n {
		g.Go(func() error {
			defer job.IncrChunksProcessed()
			cands, err := fn(gctx, i)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("extraction failed", "chunk", i, "error", err)
				job.AddError(fmt.Sprintf("chunk %d: %s", i, err))
				failed.Add(1)
				return nil
			}
			results[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return results, int(failed.Load()), nil
}

// sceneRules overlays the scene's keywords on the base rules.
func (w *Worker) sceneRules(ctx context.Context, log *slog.Logger, sceneID string) classify.Rules {
	if sceneID == "" {
		return w.rules
	}
	scene, err := w.repo.GetScene(ctx, sceneID)
	if err != nil {
		log.Warn("scene lookup failed, using global keywords", "scene_id", sceneID, "error", err)
		return w.rules
	}
	return w.rules.WithKeywords(classify.ParseKeywords(scene.Keywords))
}

// persist writes the job's upload record, even after ctx is canceled.
func (w *Worker) persist(ctx context.Context, log *slog.Logger, job *Job) {
	if err := w.repo.SaveUploadedFile(context.WithoutCancel(ctx), job.Record()); err != nil {
		log.Error("save upload record failed", "error", err)
	}
}

func (w *Worker) addLog(ctx context.Context, log *slog.Logger, l store.OpLog) {
	if err := w.repo.AddLog(ctx, l); err != nil {
		log.Warn("operation log failed", "type", l.Type, "error", err)
	}
}
