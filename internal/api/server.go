// Package api exposes the ranking agent over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/agent"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/export"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/ingestion"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/logger"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/ranking"
)

const maxUploadSize = 32 << 20

// Server handles HTTP requests
type Server struct {
	agent  *agent.CVRankingAgent
	gmail  agent.DocumentSource
	logger *zap.Logger
}

// NewServer creates a new API server. gmail may be nil, in which case the gmail method is rejected.
func NewServer(a *agent.CVRankingAgent, gmail agent.DocumentSource, log *zap.Logger) *Server {
	return &Server{
		agent:  a,
		gmail:  gmail,
		logger: logger.OrNop(log),
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /rank", s.handleRank)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /report.xlsx", s.handleReportExcel)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s.loggingMiddleware(mux)
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "CV Analysis and Ranking",
		"endpoints": map[string]string{
			"POST /rank":       "Upload CVs or fetch them from Gmail, then score and rank them",
			"GET /report":      "Ranked candidates of the last batch, filters accepted as query parameters",
			"GET /report.xlsx": "Excel report of the last batch",
			"GET /health":      "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// handleRank processes a batch and returns the filtered ranking
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}

	opts, err := parseFilterOptions(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobDescription := r.FormValue("job_description")

	var snap models.Snapshot
	switch method := r.FormValue("method"); method {
	case "", "upload":
		docs, err := s.readUploads(r)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.saveUploads(docs); err != nil {
			s.logger.Error("failed to store uploads", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		snap, err = s.agent.Process(r.Context(), docs, jobDescription)
		if err != nil {
			s.respondProcessError(w, err)
			return
		}
	case "gmail":
		subject := r.FormValue("gmail_subject")
		if subject == "" {
			s.respondError(w, http.StatusBadRequest, "gmail_subject is required for gmail method")
			return
		}
		if s.gmail == nil {
			s.respondError(w, http.StatusBadRequest, "gmail is not configured")
			return
		}
		snap, err = s.agent.IngestFromGmail(r.Context(), s.gmail, subject, jobDescription)
		if err != nil {
			s.respondProcessError(w, err)
			return
		}
	default:
		s.respondError(w, http.StatusBadRequest, "method must be 'upload' or 'gmail'")
		return
	}

	s.respondJSON(w, http.StatusOK, s.buildResponse(snap, opts))
}

// readUploads turns the multipart files into documents in upload order
func (s *Server) readUploads(r *http.Request) ([]models.Document, error) {
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		return nil, fmt.Errorf("no files uploaded")
	}

	docs := make([]models.Document, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file %s: %w", fileHeader.Filename, err)
		}

		format, ok := ingestion.DetectFormat(fileHeader.Filename, data)
		if !ok {
			s.logger.Warn("skipping unsupported file type", zap.String(logger.FieldDocument, fileHeader.Filename))
			continue
		}

		docs = append(docs, models.Document{
			Name:   fileHeader.Filename,
			Format: format,
			Data:   data,
			Index:  len(docs),
		})
	}
	return docs, nil
}

// saveUploads replaces the content of the uploads directory with the batch.
// It does nothing when the agent has no file handler.
func (s *Server) saveUploads(docs []models.Document) error {
	fh := s.agent.FileHandler
	if fh == nil {
		return nil
	}

	if err := fh.ClearUploads(); err != nil {
		return err
	}
	for _, doc := range docs {
		if _, err := fh.SaveUploadedFile(doc.Name, bytes.NewReader(doc.Data)); err != nil {
			return fmt.Errorf("failed to save file %s: %w", doc.Name, err)
		}
		s.logger.Debug("saved upload", zap.String(logger.FieldDocument, doc.Name))
	}
	return nil
}

// handleReport returns the last snapshot, filtered by the query parameters
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	opts, err := parseFilterOptions(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.agent.GetReport()
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, s.buildResponse(snap, opts))
}

// handleReportExcel streams the last snapshot as a workbook
func (s *Server) handleReportExcel(w http.ResponseWriter, r *http.Request) {
	snap, err := s.agent.GetReport()
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "candidates_"+snap.BatchID+".xlsx"))
	if err := export.WriteExcel(w, snap); err != nil {
		s.logger.Error("failed to write Excel report", zap.Error(err))
	}
}

func (s *Server) buildResponse(snap models.Snapshot, opts models.FilterOptions) models.RankResponse {
	filtered := ranking.Apply(snap, opts, s.logger.With(zap.String(logger.FieldBatch, snap.BatchID)))

	resp := models.RankResponse{
		Snapshot: filtered,
		Rows:     export.ToFlatRecords(filtered),
		Bounds:   ranking.ComputeBounds(snap.Records),
	}
	if len(resp.Rows) > 0 {
		best := resp.Rows[0]
		resp.Best = &best
	}
	return resp
}

// parseFilterOptions reads min_experience, min_score and required_skills from the form or query
func parseFilterOptions(r *http.Request) (models.FilterOptions, error) {
	var opts models.FilterOptions

	if v := strings.TrimSpace(r.FormValue("min_experience")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("min_experience must be a non-negative integer")
		}
		opts.MinExperience = n
	}

	if v := strings.TrimSpace(r.FormValue("min_score")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return opts, fmt.Errorf("min_score must be a non-negative number")
		}
		opts.MinScore = f
	}

	for _, skill := range strings.Split(r.FormValue("required_skills"), ",") {
		if skill = strings.TrimSpace(skill); skill != "" {
			opts.RequiredSkills = append(opts.RequiredSkills, skill)
		}
	}

	return opts, nil
}

func (s *Server) respondProcessError(w http.ResponseWriter, err error) {
	var cfgErr *models.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, agent.ErrNoDocuments):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("batch failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
