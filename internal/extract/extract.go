// Package extract runs the periodic PDF text-extraction job. Each invocation
// processes a small bounded batch; a failure on one item is recorded on that
// item and never aborts the rest of the batch.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/callcoachhq/callcoach/internal/events"
	"github.com/callcoachhq/callcoach/internal/store"
)

const batchSize = 5

type recordStore interface {
	PendingExtractions(ctx context.Context, limit int) ([]store.Record, error)
	SetTextContent(ctx context.Context, id uuid.UUID, text string) error
	FailAnalysis(ctx context.Context, id uuid.UUID, message string) error
}

type objectStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// ItemResult reports the outcome for a single record in the batch.
type ItemResult struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"` // "success" or "error"
	Error  string    `json:"error,omitempty"`
}

type Runner struct {
	store   recordStore
	storage objectStore
	events  *events.Publisher
	logger  *slog.Logger
	textFn  func([]byte) (string, error)
}

func NewRunner(s recordStore, objects objectStore, ev *events.Publisher, logger *slog.Logger) *Runner {
	return &Runner{store: s, storage: objects, events: ev, logger: logger, textFn: pdfText}
}

// ProcessBatch extracts text for up to batchSize pending PDF records.
func (r *Runner) ProcessBatch(ctx context.Context) ([]ItemResult, error) {
	pending, err := r.store.PendingExtractions(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("list pending extractions: %w", err)
	}

	r.logger.Info("pdf extraction batch starting", "pending", len(pending))

	results := make([]ItemResult, 0, len(pending))
	for _, rec := range pending {
		if err := r.extractOne(ctx, rec); err != nil {
			r.logger.Error("pdf extraction failed", "analysis_id", rec.ID, "error", err)
			if failErr := r.store.FailAnalysis(ctx, rec.ID, err.Error()); failErr != nil {
				r.logger.Error("failed to record extraction error", "analysis_id", rec.ID, "error", failErr)
			}
			results = append(results, ItemResult{ID: rec.ID, Status: "error", Error: err.Error()})
			continue
		}
		results = append(results, ItemResult{ID: rec.ID, Status: "success"})
	}

	succeeded := 0
	for _, res := range results {
		if res.Status == "success" {
			succeeded++
		}
	}
	r.logger.Info("pdf extraction batch complete", "processed", len(results), "succeeded", succeeded)

	if err := r.events.Publish(events.SubjectExtractBatch, map[string]any{
		"processed": len(results),
		"succeeded": succeeded,
	}); err != nil {
		r.logger.Warn("failed to publish extract batch event", "error", err)
	}

	return results, nil
}

func (r *Runner) extractOne(ctx context.Context, rec store.Record) error {
	if rec.TranscriptURL == "" {
		return fmt.Errorf("no transcript file on record")
	}

	data, err := r.storage.Download(ctx, rec.TranscriptURL)
	if err != nil {
		return fmt.Errorf("download transcript: %w", err)
	}

	text, err := r.textFn(data)
	if err != nil {
		return fmt.Errorf("extract pdf text: %w", err)
	}

	if err := r.store.SetTextContent(ctx, rec.ID, text); err != nil {
		return fmt.Errorf("store extracted text: %w", err)
	}

	r.logger.Info("pdf extracted", "analysis_id", rec.ID, "chars", len(text))
	return nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
