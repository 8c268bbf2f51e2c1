package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/callcoachhq/callcoach/internal/analysis"
	"github.com/callcoachhq/callcoach/internal/anthropic"
	"github.com/callcoachhq/callcoach/internal/events"
	"github.com/callcoachhq/callcoach/internal/ratelimit"
	"github.com/callcoachhq/callcoach/internal/report"
	"github.com/callcoachhq/callcoach/internal/store"
)

const maxUploadBytes = 10 << 20 // 10 MB

var allowedFileTypes = map[string]string{
	".txt":  "text/plain",
	".json": "application/json",
	".pdf":  "application/pdf",
}

var validCallTypes = map[string]bool{
	"discovery": true,
	"qbr":       true,
	"followup":  true,
	"other":     true,
}

// createAnalysis accepts the multipart upload form, creates the record and
// stores the transcript object. The two side effects run concurrently and are
// joined before responding; a half-applied pair ends in error status, never in
// a silently incomplete record.
func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	// Allow some slack over the file cap for the other form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file exceeds the 10 MB limit")
			return
		}
		respondError(w, http.StatusBadRequest, "malformed multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	customerName := strings.TrimSpace(r.FormValue("customer_name"))
	callType := strings.TrimSpace(r.FormValue("call_type"))
	csmName := strings.TrimSpace(r.FormValue("csm_name"))

	if title == "" || customerName == "" || callType == "" {
		respondError(w, http.StatusBadRequest, "title, customer_name and call_type are required")
		return
	}
	if !validCallTypes[callType] {
		respondError(w, http.StatusBadRequest, "call_type must be one of: discovery, qbr, followup, other")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "a transcript file is required")
		return
	}
	defer file.Close()

	fileType, ok := allowedFileTypes[strings.ToLower(filepath.Ext(header.Filename))]
	if !ok {
		respondError(w, http.StatusBadRequest, "supported formats: .txt, .json, .pdf")
		return
	}
	if header.Size > maxUploadBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "file exceeds the 10 MB limit")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	status := store.StatusUploaded
	if fileType == "application/pdf" {
		status = store.StatusPendingExtraction
	}

	rec := &store.Record{
		ID:           uuid.New(),
		UserID:       userID(r),
		Title:        title,
		CustomerName: customerName,
		CallType:     callType,
		CSMName:      csmName,
		FileType:     fileType,
		Status:       status,
	}
	rec.TranscriptURL = fmt.Sprintf("%s/%s", rec.ID, filepath.Base(header.Filename))

	g, gctx := errgroup.WithContext(r.Context())
	var insertErr, uploadErr error
	g.Go(func() error {
		insertErr = s.deps.Store.CreateAnalysis(gctx, rec)
		return insertErr
	})
	g.Go(func() error {
		uploadErr = s.deps.Objects.Upload(gctx, rec.TranscriptURL, data, fileType)
		return uploadErr
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("upload failed", "analysis_id", rec.ID, "insert_error", insertErr, "upload_error", uploadErr)
		cleanupCtx := context.WithoutCancel(r.Context())
		switch {
		case insertErr == nil && uploadErr != nil:
			// Record exists but the object never landed: settle it as error.
			if failErr := s.deps.Store.FailAnalysis(cleanupCtx, rec.ID, "file upload failed: "+uploadErr.Error()); failErr != nil {
				s.logger.Error("failed to settle record after upload failure", "analysis_id", rec.ID, "error", failErr)
			}
		case insertErr != nil && uploadErr == nil:
			// Object landed but the record never did: remove the orphan.
			if delErr := s.deps.Objects.Delete(cleanupCtx, rec.TranscriptURL); delErr != nil {
				s.logger.Error("failed to remove orphaned transcript object", "analysis_id", rec.ID, "path", rec.TranscriptURL, "error", delErr)
			}
		}
		respondError(w, http.StatusInternalServerError, "upload failed: "+err.Error())
		return
	}

	s.logger.Info("analysis created",
		"analysis_id", rec.ID,
		"customer", rec.CustomerName,
		"call_type", rec.CallType,
		"file_type", rec.FileType,
		"size", len(data),
	)
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	recs, err := s.deps.Store.ListAnalyses(r.Context(), userID(r))
	if err != nil {
		s.logger.Error("list analyses failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"analyses": recs})
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ownedRecord(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// processAnalysis runs the stored transcript through the model and settles the
// record as completed or error. A handled failure never leaves the record in
// processing.
func (s *Server) processAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, ok := s.ownedRecord(w, r)
	if !ok {
		return
	}

	switch rec.Status {
	case store.StatusUploaded:
		// Proceed.
	case store.StatusPendingExtraction:
		respondError(w, http.StatusConflict, "transcript text has not been extracted yet, try again later")
		return
	case store.StatusProcessing:
		respondError(w, http.StatusConflict, "analysis is already processing")
		return
	default:
		respondError(w, http.StatusConflict, "analysis already settled, upload a new transcript to re-analyze")
		return
	}

	if err := s.deps.Store.UpdateStatus(ctx, rec.ID, store.StatusProcessing); err != nil {
		s.logger.Error("failed to mark processing", "analysis_id", rec.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update analysis status")
		return
	}

	transcript, err := s.resolveTranscript(r, rec)
	if err != nil {
		s.settleFailure(ctx, rec.ID, err)
		respondError(w, http.StatusBadGateway, "failed to fetch transcript: "+err.Error())
		return
	}

	result, err := s.deps.Analyzer.Analyze(ctx, transcript, analysis.Metadata{
		CustomerName: rec.CustomerName,
		CallType:     rec.CallType,
		CSMName:      rec.CSMName,
	})
	if err != nil {
		s.settleFailure(ctx, rec.ID, err)
		respondError(w, llmErrorStatus(err), err.Error())
		return
	}

	if err := s.deps.Store.CompleteAnalysis(context.WithoutCancel(ctx), rec.ID, result); err != nil {
		s.settleFailure(ctx, rec.ID, fmt.Errorf("save analysis results: %w", err))
		respondError(w, http.StatusInternalServerError, "failed to save analysis results")
		return
	}

	if err := s.deps.Events.Publish(events.SubjectAnalysisCompleted, map[string]any{
		"analysis_id": rec.ID.String(),
		"customer":    rec.CustomerName,
		"call_type":   rec.CallType,
		"score":       result.Summary.Score,
	}); err != nil {
		s.logger.Warn("failed to publish completion event", "analysis_id", rec.ID, "error", err)
	}

	s.logger.Info("analysis processed", "analysis_id", rec.ID, "score", result.Summary.Score)
	respondJSON(w, http.StatusOK, map[string]any{
		"message":     "analysis completed successfully",
		"analysis_id": rec.ID,
		"results":     result,
	})
}

func (s *Server) exportAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.ownedRecord(w, r)
	if !ok {
		return
	}
	if rec.Status != store.StatusCompleted || rec.Results == nil {
		respondError(w, http.StatusConflict, "analysis has no results to export")
		return
	}

	wb, err := report.Workbook(rec)
	if err != nil {
		s.logger.Error("export failed", "analysis_id", rec.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "analysis-"+rec.ID.String()+".xlsx"))
	if err := wb.Write(w); err != nil {
		s.logger.Error("failed to stream export", "analysis_id", rec.ID, "error", err)
	}
}

// ownedRecord parses {id}, fetches the record, and enforces ownership. Records
// owned by someone else are indistinguishable from missing ones.
func (s *Server) ownedRecord(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid analysis id")
		return nil, false
	}
	rec, err := s.deps.Store.GetAnalysis(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "analysis not found")
			return nil, false
		}
		s.logger.Error("fetch analysis failed", "analysis_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to fetch analysis")
		return nil, false
	}
	if rec.UserID != userID(r) {
		respondError(w, http.StatusNotFound, "analysis not found")
		return nil, false
	}
	return rec, true
}

func (s *Server) resolveTranscript(r *http.Request, rec *store.Record) (string, error) {
	if rec.TextContent != "" {
		return rec.TextContent, nil
	}
	if rec.FileType == "application/pdf" {
		return "", fmt.Errorf("pdf transcript has no extracted text")
	}
	if rec.TranscriptURL == "" {
		return "", fmt.Errorf("no transcript file on record")
	}
	data, err := s.deps.Objects.Download(r.Context(), rec.TranscriptURL)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// settleFailure records the failure reason and moves the record to error, then
// emits the failed event. Called on every processing failure path. Settlement
// runs on a detached context: a client disconnect mid-dispatch cancels the
// request context, and the record must still leave processing.
func (s *Server) settleFailure(ctx context.Context, id uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)
	s.logger.Error("analysis processing failed", "analysis_id", id, "error", cause)
	if err := s.deps.Store.FailAnalysis(ctx, id, cause.Error()); err != nil {
		s.logger.Error("failed to settle record after processing failure", "analysis_id", id, "error", err)
	}
	if err := s.deps.Events.Publish(events.SubjectAnalysisFailed, map[string]any{
		"analysis_id": id.String(),
		"error":       cause.Error(),
	}); err != nil {
		s.logger.Warn("failed to publish failure event", "analysis_id", id, "error", err)
	}
}

// llmErrorStatus maps a dispatch failure onto the response taxonomy: local
// rate limiting is 429, credential problems are 401, everything reaching or
// failing at the vendor is a 502.
func llmErrorStatus(err error) int {
	var denied *ratelimit.DeniedError
	if errors.As(err, &denied) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, analysis.ErrNotConfigured) {
		return http.StatusUnauthorized
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}
