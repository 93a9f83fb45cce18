package frontend

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/server"
)

//go:embed templates/index.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/index.html"))

// Backend runs the selected features against one recording.
type Backend interface {
	Analyze(ctx context.Context, filename string, data []byte, features []string) Results
}

type option struct {
	Name    string
	Checked bool
}

type box struct {
	Label string
	Text  string
	Rows  int
}

type view struct {
	Title       string
	Description string
	Options     []option
	File        string
	Error       string
	Boxes       []box
}

type Server struct {
	backend     Backend
	title       string
	description string
	maxUpload   int64
	mux         *http.ServeMux
}

func NewServer(backend Backend, maxUploadBytes int64) *Server {
	s := &Server{
		backend:     backend,
		title:       "Call Compliance Analyzer",
		description: "Analyze audio calls for compliance, PII, and quality metrics",
		maxUpload:   maxUploadBytes,
		mux:         http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	s.mux.HandleFunc("GET /{$}", s.handleForm)
	s.mux.HandleFunc("POST /{$}", s.handleSubmit)
	return s
}

func (s *Server) Handler() http.Handler {
	return server.WithLogging(s.mux)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, s.newView(nil))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	log := logger.New().WithRequest(r).WithField("handler", "frontend")
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		v := s.newView(nil)
		if errors.As(err, &mbe) {
			v.Error = fmt.Sprintf("File too large, limit is %d bytes", s.maxUpload)
			s.render(w, r, http.StatusRequestEntityTooLarge, v)
			return
		}
		v.Error = "Could not read the submitted form"
		s.render(w, r, http.StatusBadRequest, v)
		return
	}
	selected := r.MultipartForm.Value["options"]
	v := s.newView(selected)

	f, hdr, err := r.FormFile("audio")
	if err != nil {
		v.Error = "Please upload an audio file"
		s.render(w, r, http.StatusBadRequest, v)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		v.Error = "Could not read the uploaded file"
		s.render(w, r, http.StatusBadRequest, v)
		return
	}
	v.File = hdr.Filename

	features := Features(selected)
	log.WithField("file", hdr.Filename).WithField("features", features).Info("analysis requested")
	res := s.backend.Analyze(r.Context(), hdr.Filename, data, features)
	texts := Format(res, selected)
	for i, label := range Options {
		v.Boxes = append(v.Boxes, box{Label: label, Text: texts[i], Rows: rows(texts[i])})
	}
	s.render(w, r, http.StatusOK, v)
}

func (s *Server) newView(selected []string) view {
	sel := map[string]bool{}
	for _, o := range selected {
		sel[o] = true
	}
	v := view{Title: s.title, Description: s.description}
	for _, o := range Options {
		v.Options = append(v.Options, option{Name: o, Checked: sel[o]})
	}
	return v
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, v view) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Execute(w, v); err != nil {
		logger.New().WithRequest(r).WithError(err).Error("failed to render page")
	}
}

func rows(text string) int {
	n := strings.Count(text, "\n") + 1
	if n < 2 {
		return 2
	}
	if n > 20 {
		return 20
	}
	return n
}
