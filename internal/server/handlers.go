package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/research-analyzer/internal/db"
	"github.com/jonathan/research-analyzer/internal/logger"
	"github.com/jonathan/research-analyzer/internal/pipeline"
	"github.com/jonathan/research-analyzer/internal/types"
)

// maxBodyBytes bounds an analysis request body.
const maxBodyBytes = 64 << 10

// AnalyseResponse is the success envelope of POST /analyse.
type AnalyseResponse struct {
	Status    string                `json:"status"`
	Data      *types.AnalysisReport `json:"data"`
	Timestamp string                `json:"timestamp"`
}

func decodeRequest(r *http.Request) (types.ResearchRequest, error) {
	var req types.ResearchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return req, &ErrValidation{Message: "invalid request body: " + err.Error()}
	}
	return req, nil
}

// handleAnalyse runs one analysis synchronously
func (s *Server) handleAnalyse(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	report, err := s.analyzer.Run(r.Context(), req, nil)
	if err != nil {
		logger.Log.Errorf("analysis failed: %v", err)
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, AnalyseResponse{
		Status:    "success",
		Data:      report,
		Timestamp: s.timestamp(),
	})
}

// handleAnalyseStream runs one analysis and streams progress via SSE
func (s *Server) handleAnalyseStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	// Validation errors are reported before the stream opens.
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := s.analyzer.Run(r.Context(), req, func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			logger.Log.Debugf("Error writing SSE event: %v", err)
		}
	})
	if err != nil {
		logger.Log.Errorf("streaming analysis failed: %v", err)
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(report, s.timestamp())
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.timestamp(),
	})
}

// handleRoot lists the available endpoints
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Welcome to the Research Analysis API!",
		"endpoints": map[string]string{
			"POST /analyse":        "Perform research analysis",
			"POST /analyse/stream": "Perform research analysis with Server-Sent Events progress",
			"GET /health":          "Check API health",
			"GET /reports":         "List stored reports",
			"GET /reports/{id}":    "Fetch a stored report",
		},
	})
}

// handleGetReport returns one stored report
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		err := &ErrUnavailable{Service: "report storage"}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		logger.Log.Errorf("failed to load report %s: %v", id, err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	if report == nil {
		nf := &ErrNotFound{Resource: "report", ID: idStr}
		s.errorResponse(w, HTTPStatus(nf), nf.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleListReports returns the newest report summaries
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		err := &ErrUnavailable{Service: "report storage"}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	limit := db.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	summaries, err := s.store.ListReports(r.Context(), limit)
	if err != nil {
		logger.Log.Errorf("failed to list reports: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if summaries == nil {
		summaries = []db.ReportSummary{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"reports": summaries,
		"count":   len(summaries),
	})
}
