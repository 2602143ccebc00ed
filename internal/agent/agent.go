package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/ingestion"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/logger"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/ranking"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/scoring"
)

var (
	// ErrNoDocuments is returned when a batch holds no supported document
	ErrNoDocuments = errors.New("no documents to process")
	// ErrNoResults is returned when a report is requested before any batch ran
	ErrNoResults = errors.New("no results available, run a batch first")
)

// ProgressCallback is called to report progress during processing
type ProgressCallback func(current, total int, message string)

// TextExtractor turns a document into plain text
type TextExtractor interface {
	Preflight(ctx context.Context) error
	ExtractText(ctx context.Context, doc models.Document) string
}

// FieldExtractor derives the candidate profile from plain text
type FieldExtractor interface {
	Preflight(ctx context.Context) error
	Extract(ctx context.Context, text string) models.CandidateProfile
}

// DocumentArchive keeps a copy of processed documents
type DocumentArchive interface {
	Store(ctx context.Context, batchID string, doc models.Document) (string, error)
}

// DocumentSource fetches documents from a mailbox
type DocumentSource interface {
	FetchDocuments(ctx context.Context, subject string) ([]models.Document, error)
}

// CVRankingAgent orchestrates extraction, scoring and ranking of a batch of CVs
type CVRankingAgent struct {
	FileHandler *ingestion.FileHandler

	text    TextExtractor
	fields  FieldExtractor
	archive DocumentArchive
	workers int
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	preflightOnce sync.Once
	preflightErr  error

	mu         sync.RWMutex
	snapshot   *models.Snapshot
	progressCb ProgressCallback
}

// Option configures the agent
type Option func(*CVRankingAgent)

// WithWorkers sets how many documents are processed at the same time. Values below 2 keep
// processing strictly sequential.
func WithWorkers(n int) Option {
	return func(a *CVRankingAgent) { a.workers = n }
}

// WithArchive stores every document before it is processed
func WithArchive(archive DocumentArchive) Option {
	return func(a *CVRankingAgent) { a.archive = archive }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(a *CVRankingAgent) { a.logger = l }
}

// WithClock overrides the snapshot timestamp source
func WithClock(now func() time.Time) Option {
	return func(a *CVRankingAgent) { a.now = now }
}

// WithIDGenerator overrides how batch identifiers are generated
func WithIDGenerator(gen func() string) Option {
	return func(a *CVRankingAgent) { a.newID = gen }
}

// NewCVRankingAgent creates a new agent
func NewCVRankingAgent(fileHandler *ingestion.FileHandler, text TextExtractor, fields FieldExtractor, opts ...Option) *CVRankingAgent {
	a := &CVRankingAgent{
		FileHandler: fileHandler,
		text:        text,
		fields:      fields,
		workers:     1,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.OrNop(a.logger)
	return a
}

// SetProgressCallback sets the progress callback function
func (a *CVRankingAgent) SetProgressCallback(cb ProgressCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progressCb = cb
}

// reportProgress calls the progress callback if set
func (a *CVRankingAgent) reportProgress(current, total int, message string) {
	a.mu.RLock()
	cb := a.progressCb
	a.mu.RUnlock()

	if cb != nil {
		cb(current, total, message)
	}
}

// Preflight checks the OCR engine and the named-entity model.
// It runs once per agent; later calls return the first result.
func (a *CVRankingAgent) Preflight(ctx context.Context) error {
	a.preflightOnce.Do(func() {
		if err := a.text.Preflight(ctx); err != nil {
			a.preflightErr = err
			return
		}
		a.preflightErr = a.fields.Preflight(ctx)
	})
	return a.preflightErr
}

// IngestFromUpload processes the documents found in the uploads directory
func (a *CVRankingAgent) IngestFromUpload(ctx context.Context, jobDescription string) (models.Snapshot, error) {
	if err := a.Preflight(ctx); err != nil {
		return models.Snapshot{}, err
	}

	documents, err := a.FileHandler.LoadDocuments()
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to load documents: %w", err)
	}

	return a.Process(ctx, documents, jobDescription)
}

// IngestFromGmail processes the CV attachments of messages matching the subject
func (a *CVRankingAgent) IngestFromGmail(ctx context.Context, source DocumentSource, subject, jobDescription string) (models.Snapshot, error) {
	if err := a.Preflight(ctx); err != nil {
		return models.Snapshot{}, err
	}

	a.reportProgress(0, 100, "Fetching emails from Gmail...")

	documents, err := source.FetchDocuments(ctx, subject)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to fetch Gmail attachments: %w", err)
	}

	return a.Process(ctx, documents, jobDescription)
}

// Process extracts, scores and ranks a batch of documents.
// A document that cannot be read still yields a record with empty fields.
func (a *CVRankingAgent) Process(ctx context.Context, documents []models.Document, jobDescription string) (models.Snapshot, error) {
	if err := a.Preflight(ctx); err != nil {
		return models.Snapshot{}, err
	}
	if len(documents) == 0 {
		return models.Snapshot{}, ErrNoDocuments
	}

	batchID := a.newID()
	log := a.logger.With(zap.String(logger.FieldBatch, batchID))
	scorer := scoring.NewScorer(jobDescription)

	log.Info("processing batch",
		zap.Int("documents", len(documents)),
		zap.Int("workers", a.workers),
		zap.Bool("job_description", scorer.JobDescriptionPresent()),
	)

	records, err := a.processDocuments(ctx, batchID, scorer, documents, log)
	if err != nil {
		return models.Snapshot{}, err
	}

	snap := ranking.Rank(models.Snapshot{
		BatchID:               batchID,
		CreatedAt:             a.now(),
		JobDescriptionPresent: scorer.JobDescriptionPresent(),
	}.WithRecords(records))

	a.mu.Lock()
	a.snapshot = &snap
	a.mu.Unlock()

	a.reportProgress(len(documents), len(documents), "Processing complete!")
	log.Info("batch ranked", zap.Int("candidates", snap.Len()))

	return snap, nil
}

// processDocuments builds one record per document.
// Results are written by position so the output order never depends on scheduling.
func (a *CVRankingAgent) processDocuments(ctx context.Context, batchID string, scorer *scoring.Scorer, documents []models.Document, log *zap.Logger) ([]models.CandidateRecord, error) {
	records := make([]models.CandidateRecord, len(documents))
	total := len(documents)
	var done atomic.Int64

	finish := func(doc models.Document) {
		n := int(done.Add(1))
		a.reportProgress(n, total, fmt.Sprintf("Evaluated %s (%d/%d)", doc.Name, n, total))
	}

	if a.workers <= 1 {
		for i, doc := range documents {
			// Check for cancellation
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			records[i] = a.processDocument(ctx, batchID, scorer, doc, log)
			finish(doc)
		}
		return records, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, doc := range documents {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			records[i] = a.processDocument(gCtx, batchID, scorer, doc, log)
			finish(doc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (a *CVRankingAgent) processDocument(ctx context.Context, batchID string, scorer *scoring.Scorer, doc models.Document, log *zap.Logger) models.CandidateRecord {
	log = log.With(zap.String(logger.FieldDocument, doc.Name), zap.Int(logger.FieldIndex, doc.Index))

	if a.archive != nil {
		if name, err := a.archive.Store(ctx, batchID, doc); err != nil {
			log.Warn("archiving document failed", zap.Error(err))
		} else {
			log.Debug("document archived", zap.String("object", name))
		}
	}

	text := a.text.ExtractText(ctx, doc)
	profile := a.fields.Extract(ctx, text)
	record := scorer.ScoreCandidate(doc, text, profile)

	log.Info("candidate evaluated",
		zap.Int("experience_years", profile.ExperienceYears),
		zap.Int("skills", profile.Skills.Len()),
		zap.Float64("relevance", record.RelevanceScore),
		zap.Float64("score", record.CompositeScore),
	)
	return record
}

// GetReport returns the snapshot of the last batch
func (a *CVRankingAgent) GetReport() (models.Snapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.snapshot == nil {
		return models.Snapshot{}, ErrNoResults
	}
	return *a.snapshot, nil
}
