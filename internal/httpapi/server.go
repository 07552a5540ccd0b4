// Package httpapi is the HTTP front-end collaborator described by
// spec.md §6: a thin request/response layer over internal/engine.
// Grounded on SaptarshiBorgohain-fr33Crawler's internal/api/server.go
// (Server struct holding the domain object and a logger, *http.ServeMux
// routes registered in a routes() method, jsonResponse helper).
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/arterning/gofts/internal/engine"
)

// Server is the HTTP front-end; it holds the engine and a logger and
// exposes the routes spec.md §6 names.
type Server struct {
	Engine *engine.Engine
	Logger *logrus.Entry
	Router *http.ServeMux
}

// NewServer builds a Server with its routes registered.
func NewServer(eng *engine.Engine, logger *logrus.Entry) *Server {
	s := &Server{Engine: eng, Logger: logger, Router: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("/health", s.handleHealth)
	s.Router.HandleFunc("/documents", s.handleDocuments)
	s.Router.HandleFunc("/documents/batch", s.handleDocumentsBatch)
	s.Router.HandleFunc("/documents/", s.handleDocumentByID)
	s.Router.HandleFunc("/search", s.handleSearch)
	s.Router.HandleFunc("/stats", s.handleStats)
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.Logger.Infof("starting HTTP server on %s", addr)
	return http.ListenAndServe(addr, s.Router)
}

type errorResponse struct {
	Error string `json:"error"`
}

type documentRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type batchRequest struct {
	Documents []documentRequest `json:"documents"`
}

type searchResponse struct {
	Documents []documentRequest `json:"documents"`
	Total     int               `json:"total"`
	Scores    []float64         `json:"scores,omitempty"`
}

type statsResponse struct {
	DocumentCount int64   `json:"document_count"`
	TotalTerms    int     `json:"total_terms"`
	AvgDocLength  float64 `json:"avg_doc_length"`
}

func toDocument(r documentRequest) engine.Document {
	return engine.Document{ID: r.ID, Title: r.Title, Content: r.Content, URL: r.URL}
}

func fromDocument(d engine.Document) documentRequest {
	return documentRequest{ID: d.ID, Title: d.Title, Content: d.Content, URL: d.URL}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	if err := s.Engine.UpsertDocument(toDocument(req)); err != nil {
		s.writeEngineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"id": req.ID, "status": "ok"})
}

func (s *Server) handleDocumentsBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	docs := make([]engine.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = toDocument(d)
	}

	if err := s.Engine.UpsertBatch(docs); err != nil {
		s.writeEngineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"count": len(docs)})
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/documents/")
	if id == "" {
		http.Error(w, "document id required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, found, err := s.Engine.GetDocument(id)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		if !found {
			jsonResponse(w, http.StatusNotFound, errorResponse{Error: "document not found"})
			return
		}
		jsonResponse(w, http.StatusOK, fromDocument(doc))

	case http.MethodPut:
		var req documentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
			return
		}
		if req.ID != id {
			jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "body id must match path id"})
			return
		}
		if err := s.Engine.UpsertDocument(toDocument(req)); err != nil {
			s.writeEngineError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"id": id, "status": "ok"})

	case http.MethodDelete:
		removed, err := s.Engine.DeleteDocument(id)
		if err != nil {
			s.writeEngineError(w, err)
			return
		}
		if !removed {
			jsonResponse(w, http.StatusNotFound, errorResponse{Error: "document not found"})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	opts := engine.DefaultSearchOptions()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, errorResponse{Error: "invalid offset"})
			return
		}
		opts.Offset = n
	}
	if v := strings.ToUpper(q.Get("mode")); v == "OR" {
		opts.Mode = engine.ModeOR
	}
	if v := q.Get("ranked"); v != "" {
		opts.Ranked = v != "false"
	}

	results, err := s.Engine.Search(q.Get("query"), opts)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	resp := searchResponse{
		Documents: make([]documentRequest, len(results.Documents)),
		Total:     results.Total,
		Scores:    results.Scores,
	}
	for i, d := range results.Documents {
		resp.Documents[i] = fromDocument(d)
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats, err := s.Engine.Stats()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, statsResponse{
		DocumentCount: stats.DocumentCount,
		TotalTerms:    stats.TotalTerms,
		AvgDocLength:  stats.AvgDocLength,
	})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, engine.ErrInvalidInput) {
		status = http.StatusBadRequest
	}
	s.Logger.WithError(err).Warn("request failed")
	jsonResponse(w, status, errorResponse{Error: err.Error()})
}

func jsonResponse(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
