// Package server exposes the discovery pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/ocr"
)

// ErrNotPDF is returned for uploads whose filename is not a .pdf.
var ErrNotPDF = eris.New("Only PDF files are allowed.")

const (
	previewChars       = 500
	defaultMaxUploadMB = 32
)

// Runner executes a discovery run for a project description.
type Runner interface {
	Run(ctx context.Context, projectText string) (*model.RunResult, error)
}

// Server holds the HTTP handlers.
type Server struct {
	runner      Runner
	converter   ocr.Extractor
	maxUpload   int64
	corsOrigins []string
	now         func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadMB caps the multipart body size.
func WithMaxUploadMB(mb int64) Option {
	return func(s *Server) {
		if mb > 0 {
			s.maxUpload = mb << 20
		}
	}
}

// WithCORSOrigins sets the allowed origins. Default: all.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// New creates a Server.
func New(runner Runner, converter ocr.Extractor, opts ...Option) *Server {
	s := &Server{
		runner:      runner,
		converter:   converter,
		maxUpload:   defaultMaxUploadMB << 20,
		corsOrigins: []string{"*"},
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/upload", s.handleUpload)
	r.Post("/discover", s.handleDiscover)

	return r
}

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	Status                   string               `json:"status"`
	Filename                 string               `json:"filename"`
	Metadata                 model.UploadMetadata `json:"metadata"`
	Preview                  string               `json:"preview"`
	CleanedText              string               `json:"cleaned_text"`
	StakeholderDetails       []model.Stakeholder  `json:"stakeholder_details"`
	StakeholderDetailsLength int                  `json:"stakeholder_details_length"`
	RunID                    string               `json:"run_id"`
	RunError                 string               `json:"run_error,omitempty"`
}

// DiscoverResponse is the body returned by POST /discover: the run result
// plus the error that stopped the run early, if any.
type DiscoverResponse struct {
	*model.RunResult
	RunError string `json:"run_error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	log := zap.L().With(zap.String("filename", header.Filename))
	log.Info("server: received upload")

	if err := checkPDF(header.Filename); err != nil {
		log.Warn("server: rejected upload", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	text, err := s.converter.ExtractText(r.Context(), data)
	if err != nil {
		log.Error("server: text extraction failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "failed to extract text from PDF")
		return
	}

	cleaned := strings.Join(strings.Fields(text), " ")
	meta := model.UploadMetadata{
		Filename:   header.Filename,
		UploadTime: s.now().UTC(),
		WordCount:  len(strings.Fields(cleaned)),
	}

	resp := UploadResponse{
		Status:             "success",
		Filename:           header.Filename,
		Metadata:           meta,
		Preview:            preview(cleaned, previewChars),
		CleanedText:        cleaned,
		StakeholderDetails: []model.Stakeholder{},
	}

	result, err := s.runner.Run(r.Context(), cleaned)
	if err != nil {
		log.Error("server: discovery run failed", zap.Error(err))
		resp.RunError = err.Error()
	}
	if result != nil {
		resp.RunID = result.RunID
		if result.Stakeholders != nil {
			resp.StakeholderDetails = result.Stakeholders
		}
	}
	resp.StakeholderDetailsLength = len(resp.StakeholderDetails)

	writeJSON(w, http.StatusOK, resp)
}

type discoverRequest struct {
	ProjectText string `json:"project_text"`
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ProjectText) == "" {
		writeError(w, http.StatusBadRequest, "project_text is required")
		return
	}

	result, err := s.runner.Run(r.Context(), req.ProjectText)
	if result == nil {
		result = model.NewRunResult("", s.now())
	}
	resp := DiscoverResponse{RunResult: result}
	if err != nil {
		zap.L().Error("server: discovery run failed", zap.String("run_id", result.RunID), zap.Error(err))
		resp.RunError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func checkPDF(filename string) error {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return ErrNotPDF
	}
	return nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("server: listening", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}
