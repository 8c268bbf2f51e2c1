package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/callcoachhq/callcoach/internal/analysis"
)

// Analysis record lifecycle. A record moves uploaded -> processing ->
// completed|error, with pending_extraction preceding uploaded for PDFs.
// error is terminal: recovery is a brand-new upload, never an in-place retry.
const (
	StatusUploaded          = "uploaded"
	StatusPendingExtraction = "pending_extraction"
	StatusProcessing        = "processing"
	StatusCompleted         = "completed"
	StatusError             = "error"
)

// Record is one row of the analyses table. Records are never deleted.
type Record struct {
	ID            uuid.UUID        `json:"id"`
	UserID        string           `json:"user_id"`
	Title         string           `json:"title"`
	CustomerName  string           `json:"customer_name"`
	CallType      string           `json:"call_type"`
	CSMName       string           `json:"csm_name,omitempty"`
	FileType      string           `json:"file_type"`
	Status        string           `json:"status"`
	TranscriptURL string           `json:"transcript_url,omitempty"`
	TextContent   string           `json:"text_content,omitempty"`
	Results       *analysis.Result `json:"results,omitempty"`
	ErrorMessage  string           `json:"error_message,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

const recordColumns = `id, user_id, title, customer_name, call_type,
	COALESCE(csm_name, ''), file_type, status,
	COALESCE(transcript_url, ''), COALESCE(text_content, ''),
	results, COALESCE(error_message, ''), created_at, completed_at`

// CreateAnalysis inserts a new record. The caller assigns the id up front so
// the object path and the row can be produced concurrently.
func (s *Store) CreateAnalysis(ctx context.Context, rec *Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analyses (id, user_id, title, customer_name, call_type, csm_name, file_type, status, transcript_url, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), now())`,
		rec.ID, rec.UserID, rec.Title, rec.CustomerName, rec.CallType, rec.CSMName,
		rec.FileType, rec.Status, rec.TranscriptURL,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis fetches one record by id.
func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM analyses WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch analysis: %w", err)
	}
	return rec, nil
}

// ListAnalyses returns the caller's records, newest first.
func (s *Store) ListAnalyses(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM analyses
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// UpdateStatus moves a record to a new lifecycle status.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE analyses SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteAnalysis stores the parsed result and closes out the record.
func (s *Store) CompleteAnalysis(ctx context.Context, id uuid.UUID, result *analysis.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE analyses
		SET status = $1, results = $2, error_message = NULL, completed_at = now(), updated_at = now()
		WHERE id = $3`,
		StatusCompleted, payload, id,
	)
	if err != nil {
		return fmt.Errorf("complete analysis: %w", err)
	}
	return nil
}

// FailAnalysis moves the record to error with the failure reason stored for
// diagnosis. A handled failure must never leave a record in processing.
func (s *Store) FailAnalysis(ctx context.Context, id uuid.UUID, message string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE analyses SET status = $1, error_message = $2, updated_at = now() WHERE id = $3`,
		StatusError, message, id,
	)
	if err != nil {
		return fmt.Errorf("fail analysis: %w", err)
	}
	return nil
}

// SetTextContent stores extracted transcript text and, for records waiting on
// extraction, releases them for processing.
func (s *Store) SetTextContent(ctx context.Context, id uuid.UUID, text string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE analyses
		SET text_content = $1,
		    status = CASE WHEN status = $2 THEN $3 ELSE status END,
		    updated_at = now()
		WHERE id = $4`,
		text, StatusPendingExtraction, StatusUploaded, id,
	)
	if err != nil {
		return fmt.Errorf("set text content: %w", err)
	}
	return nil
}

// PendingExtractions returns up to limit PDF records still waiting for text
// extraction. The status filter keeps records the extractor already moved to
// error out of later batches; without it a handful of permanently bad PDFs
// would occupy the whole batch on every run.
func (s *Store) PendingExtractions(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM analyses
		WHERE file_type = 'application/pdf' AND status = $1
		  AND (text_content IS NULL OR text_content = '')
		ORDER BY created_at ASC LIMIT $2`, StatusPendingExtraction, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending extractions: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var results []byte
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Title, &rec.CustomerName, &rec.CallType,
		&rec.CSMName, &rec.FileType, &rec.Status,
		&rec.TranscriptURL, &rec.TextContent,
		&results, &rec.ErrorMessage, &rec.CreatedAt, &rec.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		var parsed analysis.Result
		if err := json.Unmarshal(results, &parsed); err != nil {
			return nil, fmt.Errorf("decode stored results: %w", err)
		}
		rec.Results = &parsed
	}
	return &rec, nil
}
