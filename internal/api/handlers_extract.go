package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/doctext/internal/config"
	"github.com/dgallion1/doctext/internal/doctree"
	"github.com/dgallion1/doctext/internal/parser"
	"github.com/dgallion1/doctext/internal/pipeline"
	"github.com/dgallion1/doctext/internal/sink"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// httpSinks are the sinks a request may name. stdout and file belong to the
// CLI.
var httpSinks = []any{"response", "discard", "clipboard", "pathstore", "s3"}

type extractParams struct {
	Scope string
	Sink  string
}

func (p extractParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Scope, validation.Required, validation.In(config.Scopes...)),
		validation.Field(&p.Sink, validation.Required, validation.In(httpSinks...)),
	)
}

// params reads scope and sink from the form, falling back to the configured
// defaults.
func (s *Server) params(r *http.Request) (extractParams, error) {
	p := extractParams{
		Scope: strings.ToLower(strings.TrimSpace(r.FormValue("scope"))),
		Sink:  strings.ToLower(strings.TrimSpace(r.FormValue("sink"))),
	}
	if p.Scope == "" {
		p.Scope = s.cfg.DefaultScope
	}
	if p.Sink == "" {
		p.Sink = s.cfg.DefaultSink
		if validation.Validate(p.Sink, validation.In(httpSinks...)) != nil {
			p.Sink = "response"
		}
	}
	return p, p.Validate()
}

func (s *Server) parsers() parser.Options {
	return parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext}
}

// handleExtract renders one uploaded document and publishes the text before
// responding.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	params, err := s.params(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := s.readUpload(file)
	if err != nil {
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	p, err := s.parsers().ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "parse failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	docID := pipeline.ContentHashHex(data)[:16]
	out, err := s.sinks.New(params.Sink, docID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	scope, _ := doctree.ParseScope(params.Scope)
	res := s.extractor.Render(tree, scope)
	res, err = s.extractor.Publish(r.Context(), res, out)
	if err != nil {
		if sink.IsBusy(err) {
			jsonError(w, err.Error(), http.StatusLocked)
			return
		}
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id": docID,
		"text":   res.Text,
		"bytes":  res.Bytes,
		"scope":  res.Scope,
		"sink":   res.Sink,
	})
}

func (s *Server) handleBatchExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	params, err := s.params(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}
		data, err := s.readUpload(f)
		f.Close()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(filename, params.Scope, params.Sink, data)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"job_id":   job.ID,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"doc_id":   job.DocID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/extract/%s/status", job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleExtractStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	text, ok := job.Text()
	if !ok {
		jsonError(w, "text not ready", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text)
}

// readUpload reads at most MaxUploadBytes from f.
func (s *Server) readUpload(f multipart.File) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
