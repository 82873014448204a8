// Package server exposes the two pipelines over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"papercast/internal/app"
	"papercast/internal/podcast"
	"papercast/internal/storage"
)

const maxRemarkLength = 2000

// AbstractRunner and PodcastRunner are satisfied by the app pipelines.
type AbstractRunner interface {
	Run(ctx context.Context, req app.Request) (*app.AbstractResult, error)
}

type PodcastRunner interface {
	Run(ctx context.Context, req app.Request, progress podcast.ProgressFunc) (*app.PodcastResult, error)
}

type Options struct {
	Abstract       AbstractRunner
	Podcast        PodcastRunner
	Store          storage.Store
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

type Server struct {
	abstract       AbstractRunner
	podcast        PodcastRunner
	store          storage.Store
	maxUploadBytes int64
	requestTimeout time.Duration
}

func New(opts Options) *Server {
	return &Server{
		abstract:       opts.Abstract,
		podcast:        opts.Podcast,
		store:          opts.Store,
		maxUploadBytes: opts.MaxUploadBytes,
		requestTimeout: opts.RequestTimeout,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if s.requestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.requestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/abstract", s.handleAbstract)
	r.Post("/podcast", s.handlePodcast)
	r.Get("/runs/{runID}", s.handleRun)
	r.Get("/runs/{runID}/{artifact}", s.handleArtifact)

	return r
}

type abstractResponse struct {
	RunID            string            `json:"run_id"`
	Workflow         string            `json:"workflow"`
	Diagram          string            `json:"diagram"`
	Components       json.RawMessage   `json:"components"`
	ComponentsSource string            `json:"components_source"`
	Repaired         []string          `json:"repaired,omitempty"`
	SVG              string            `json:"svg"`
	Notices          []app.Notice      `json:"notices"`
	Artifacts        map[string]string `json:"artifacts"`
}

type podcastLine struct {
	Role    string `json:"role"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type podcastResponse struct {
	RunID     string            `json:"run_id"`
	Script    string            `json:"script"`
	Lines     []podcastLine     `json:"lines"`
	Ignored   int               `json:"ignored"`
	Segments  int               `json:"segments"`
	Failed    int               `json:"failed"`
	Playable  bool              `json:"playable"`
	Notices   []app.Notice      `json:"notices"`
	Artifacts map[string]string `json:"artifacts"`
}

type runResponse struct {
	RunID     string            `json:"run_id"`
	Artifacts map[string]string `json:"artifacts"`
}

type errorResponse struct {
	Error   string       `json:"error"`
	Kind    string       `json:"kind,omitempty"`
	Stage   string       `json:"stage,omitempty"`
	RunID   string       `json:"run_id,omitempty"`
	Notices []app.Notice `json:"notices,omitempty"`
}

func (s *Server) handleAbstract(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	result, err := s.abstract.Run(r.Context(), req)
	if err != nil {
		if result == nil {
			result = &app.AbstractResult{}
		}
		s.writeRunError(w, err, result.RunID, result.Notices)
		return
	}

	paper, err := result.Components.Paper.JSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, abstractResponse{
		RunID:            result.RunID,
		Workflow:         result.WorkflowText,
		Diagram:          result.Diagram,
		Components:       paper,
		ComponentsSource: string(result.Components.Source),
		Repaired:         result.Components.Repaired,
		SVG:              result.SVG,
		Notices:          nonNil(result.Notices),
		Artifacts:        artifactLinks(result.RunID, result.Artifacts),
	})
}

func (s *Server) handlePodcast(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	req.Remark = r.FormValue("remark")
	if len(req.Remark) > maxRemarkLength {
		writeError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("remark exceeds %d characters", maxRemarkLength)})
		return
	}

	result, err := s.podcast.Run(r.Context(), req, nil)
	if err != nil {
		if result == nil {
			result = &app.PodcastResult{}
		}
		s.writeRunError(w, err, result.RunID, result.Notices)
		return
	}

	resp := podcastResponse{
		RunID:     result.RunID,
		Script:    result.RawScript,
		Lines:     []podcastLine{},
		Playable:  result.Playable(),
		Notices:   nonNil(result.Notices),
		Artifacts: artifactLinks(result.RunID, result.Artifacts),
	}
	if result.Script != nil {
		resp.Ignored = result.Script.Ignored
		for _, line := range result.Script.Lines {
			resp.Lines = append(resp.Lines, podcastLine{Role: string(line.Role), Speaker: line.Speaker, Text: line.Text})
		}
	}
	if result.Synthesis != nil {
		resp.Segments = len(result.Synthesis.Segments)
		resp.Failed = result.Synthesis.Failed
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	names, err := s.store.List(r.Context(), runID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, errorResponse{Error: "run not found", RunID: runID})
		return
	}
	if err != nil {
		slog.Warn("Failed to list run", "run", runID, "error", err)
		writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	published := make(map[string]string, len(names))
	for _, name := range names {
		if app.KnownArtifact(name) {
			published[name] = name
		}
	}
	writeJSON(w, http.StatusOK, runResponse{RunID: runID, Artifacts: artifactLinks(runID, published)})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	name := chi.URLParam(r, "artifact")
	if !app.KnownArtifact(name) {
		writeError(w, http.StatusNotFound, errorResponse{Error: "unknown artifact"})
		return
	}

	rc, err := s.store.Open(r.Context(), runID, name)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, errorResponse{Error: "artifact not found"})
		return
	}
	if err != nil {
		slog.Warn("Failed to open artifact", "run", runID, "artifact", name, "error", err)
		writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", storage.ContentType(name))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("Failed to stream artifact", "run", runID, "artifact", name, "error", err)
	}
}

// readUpload pulls the PDF out of the multipart "file" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (app.Request, bool) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("upload exceeds %d bytes", s.maxUploadBytes)})
			return app.Request{}, false
		}
		writeError(w, http.StatusBadRequest, errorResponse{Error: "missing PDF in form field \"file\""})
		return app.Request{}, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("read upload: %v", err)})
		return app.Request{}, false
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "uploaded file is empty"})
		return app.Request{}, false
	}

	return app.Request{PDF: data, Name: header.Filename}, true
}

func (s *Server) writeRunError(w http.ResponseWriter, err error, runID string, notices []app.Notice) {
	resp := errorResponse{Error: err.Error(), RunID: runID, Notices: notices}
	status := http.StatusInternalServerError

	var stageErr *app.StageError
	if errors.As(err, &stageErr) {
		resp.Stage = string(stageErr.Stage)
		resp.Kind = stageErr.Kind.Error()
		switch {
		case errors.Is(err, app.ErrExtraction):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, app.ErrService):
			status = http.StatusBadGateway
		case errors.Is(err, app.ErrEmptyResult), errors.Is(err, app.ErrParse):
			status = http.StatusUnprocessableEntity
		}
	}

	slog.Warn("Run failed", "run", runID, "error", err)
	writeError(w, status, resp)
}

// artifactLinks maps each artifact to the path it can be fetched from.
func artifactLinks(runID string, artifacts map[string]string) map[string]string {
	links := make(map[string]string, len(artifacts))
	for name := range artifacts {
		links[name] = fmt.Sprintf("/runs/%s/%s", runID, name)
	}
	return links
}

func nonNil(ns []app.Notice) []app.Notice {
	if ns == nil {
		return []app.Notice{}
	}
	return ns
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	writeJSON(w, status, resp)
}
