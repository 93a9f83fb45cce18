// Package server exposes the analysis steps over HTTP. Every analysis
// endpoint takes a multipart upload with the recording in the "file" field.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"call-compliance-go/internal/audio"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/types"
)

// Service is the analysis backend the handlers call.
type Service interface {
	Transcribe(ctx context.Context, filename string, data []byte) (types.Transcription, error)
	Compliance(ctx context.Context, filename string, data []byte) (types.ComplianceResult, error)
	Profanity(ctx context.Context, filename string, data []byte) ([]string, error)
	PII(ctx context.Context, filename string, data []byte) (types.PIIMatches, error)
	MaskTranscript(ctx context.Context, filename string, data []byte) (string, error)
	Sentiment(ctx context.Context, filename string, data []byte) (types.Sentiment, error)
	Categorize(ctx context.Context, filename string, data []byte) (string, error)
	Diarize(ctx context.Context, filename string, data []byte) (types.DiarizationMetrics, error)
	FullAnalysis(ctx context.Context, filename string, data []byte, pre *types.Transcription) (types.Report, error)
}

type Info struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Endpoints   []string `json:"endpoints"`
}

type Server struct {
	svc       Service
	info      Info
	maxUpload int64
	mux       *http.ServeMux
}

// Endpoints lists the analysis routes in the order they are documented.
var Endpoints = []string{
	"/analyze", "/transcribe", "/compliance", "/profanity", "/pii",
	"/mask_transcript", "/sentiment_analysis", "/categorization", "/diarization",
}

func New(svc Service, title, description string, maxUploadBytes int64) *Server {
	s := &Server{
		svc:       svc,
		info:      Info{Title: title, Description: description, Endpoints: Endpoints},
		maxUpload: maxUploadBytes,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the mux wrapped in request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	return WithLogging(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.info)
	})

	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /transcribe", s.upload("transcribe", func(ctx context.Context, name string, data []byte) (any, error) {
		return s.svc.Transcribe(ctx, name, data)
	}))
	s.mux.HandleFunc("POST /compliance", s.upload("compliance", func(ctx context.Context, name string, data []byte) (any, error) {
		return s.svc.Compliance(ctx, name, data)
	}))
	s.mux.HandleFunc("POST /profanity", s.upload("profanity", func(ctx context.Context, name string, data []byte) (any, error) {
		words, err := s.svc.Profanity(ctx, name, data)
		return map[string][]string{"Profanity": words}, err
	}))
	s.mux.HandleFunc("POST /pii", s.upload("pii", func(ctx context.Context, name string, data []byte) (any, error) {
		return s.svc.PII(ctx, name, data)
	}))
	s.mux.HandleFunc("POST /mask_transcript", s.upload("mask_transcript", func(ctx context.Context, name string, data []byte) (any, error) {
		masked, err := s.svc.MaskTranscript(ctx, name, data)
		return map[string]string{"masked_text": masked}, err
	}))
	s.mux.HandleFunc("POST /sentiment_analysis", s.upload("sentiment_analysis", func(ctx context.Context, name string, data []byte) (any, error) {
		return s.svc.Sentiment(ctx, name, data)
	}))
	s.mux.HandleFunc("POST /categorization", s.upload("categorization", func(ctx context.Context, name string, data []byte) (any, error) {
		cat, err := s.svc.Categorize(ctx, name, data)
		return map[string]string{"Call_Category": cat}, err
	}))
	s.mux.HandleFunc("POST /diarization", s.upload("diarization", func(ctx context.Context, name string, data []byte) (any, error) {
		m, err := s.svc.Diarize(ctx, name, data)
		return map[string]types.DiarizationMetrics{"diarization_metrics": m}, err
	}))
}

type stepFunc func(ctx context.Context, name string, data []byte) (any, error)

// upload reads and validates the recording and runs step on it.
func (s *Server) upload(handler string, step stepFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", handler)
		name, data, ok := s.readAudio(w, r, reqLog)
		if !ok {
			return
		}
		reqLog = reqLog.WithField("file", name)
		reqLog.Info("request received")

		start := time.Now()
		res, err := step(r.Context(), name, data)
		reqLog = reqLog.WithField("duration_ms", time.Since(start).Milliseconds())
		if err != nil {
			writeError(w, reqLog, err)
			return
		}
		reqLog.Info("request completed")
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "analyze")
	name, data, ok := s.readAudio(w, r, reqLog)
	if !ok {
		return
	}
	reqLog = reqLog.WithField("file", name)
	reqLog.Info("analysis request received")

	// Transcribe through the cache first so repeated uploads skip the backend.
	tr, err := s.svc.Transcribe(r.Context(), name, data)
	if err != nil {
		writeError(w, reqLog, err)
		return
	}
	rep, err := s.svc.FullAnalysis(r.Context(), name, data, &tr)
	if err != nil {
		status, _ := classify(err)
		reqLog.WithError(err).WithField("status", status).Error("analysis failed")
		writeJSON(w, status, rep)
		return
	}
	reqLog.WithField("category", rep.Category).WithField("duration_ms", rep.DurationMs).Info("analysis completed")
	writeJSON(w, http.StatusOK, rep)
}

// readAudio returns the uploaded file. On failure it has already written
// the error response.
func (s *Server) readAudio(w http.ResponseWriter, r *http.Request, log *logrus.Entry) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.WithField("limit_bytes", s.maxUpload).Warn("upload too large")
			writeDetail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large, limit is %d bytes", s.maxUpload))
			return "", nil, false
		}
		log.WithError(err).Warn("missing upload")
		writeDetail(w, http.StatusBadRequest, "No file uploaded in field 'file'")
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.WithError(err).Warn("reading upload failed")
		writeDetail(w, http.StatusBadRequest, "Could not read uploaded file")
		return "", nil, false
	}
	if _, err := audio.Inspect(hdr.Filename, data); err != nil {
		log.WithError(err).WithField("file", hdr.Filename).Warn("rejected upload")
		switch {
		case errors.Is(err, audio.ErrEmpty):
			writeDetail(w, http.StatusBadRequest, "Uploaded file is empty")
		default:
			writeDetail(w, http.StatusUnsupportedMediaType, "Invalid file type. Please upload an audio file.")
		}
		return "", nil, false
	}
	return hdr.Filename, data, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.New().WithError(err).Error("failed to write response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
