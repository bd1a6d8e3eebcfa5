package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/doctext/internal/config"
	"github.com/dgallion1/doctext/internal/extract"
	"github.com/dgallion1/doctext/internal/pathstore"
	"github.com/dgallion1/doctext/internal/pipeline"
	"github.com/dgallion1/doctext/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "secret"

type upload struct {
	field, name, body string
}

func newTestServer(t *testing.T, ps *pathstore.Client) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.WorkerCount = 1

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sinks := &sink.Factory{PathstorePrefix: cfg.PathstorePrefix}
	if ps != nil {
		sinks.Pathstore = ps
	}
	ex := extract.NewExtractor(log, extract.NewStats(time.Hour))
	orch := pipeline.NewOrchestrator(cfg, ex, sinks, ps, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, ex, sinks, log, cfg)
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authed(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/stats/extract", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/extract", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = serve(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api key", decode(t, rec)["error"])
}

func TestExtract(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/api/extract", nil,
		upload{"file", "notes.md", "# Weekly Notes\n\nMonday tasks\n"})

	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "Weekly Notes\n\nMonday tasks\n", out["text"])
	assert.EqualValues(t, len("Weekly Notes\n\nMonday tasks\n"), out["bytes"])
	assert.Equal(t, "all", out["scope"])
	assert.Equal(t, "response", out["sink"])
	assert.Len(t, out["doc_id"], 16)
}

func TestExtractRegion(t *testing.T) {
	s := newTestServer(t, nil)
	page := `<Page><Outline><OEChildren>
<OE><T>Monday tasks</T></OE>
<OE><List><Number text="3."/></List><T selected="all">Buy milk</T></OE>
</OEChildren></Outline></Page>`
	req := multipartRequest(t, "/api/extract", map[string]string{"scope": "auto"},
		upload{"file", "page.xml", page})

	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "region", out["scope"])
	assert.Equal(t, "3. Buy milk\n", out["text"])
}

func TestExtractBadRequests(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name   string
		fields map[string]string
		file   upload
		code   int
	}{
		{"bad scope", map[string]string{"scope": "page-ish"}, upload{"file", "a.txt", "x"}, http.StatusBadRequest},
		{"cli-only sink", map[string]string{"sink": "stdout"}, upload{"file", "a.txt", "x"}, http.StatusBadRequest},
		{"unsupported type", nil, upload{"file", "a.exe", "x"}, http.StatusBadRequest},
		{"missing file", nil, upload{"other", "a.txt", "x"}, http.StatusBadRequest},
		{"malformed page", nil, upload{"file", "page.xml", "<Page><Outline>"}, http.StatusUnprocessableEntity},
		{"unconfigured sink", map[string]string{"sink": "pathstore"}, upload{"file", "a.txt", "x"}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		rec := serve(s, multipartRequest(t, "/api/extract", tt.fields, tt.file))
		assert.Equal(t, tt.code, rec.Code, "%s: %s", tt.name, rec.Body.String())
	}
}

func TestExtractBusyTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node locked", http.StatusLocked)
	}))
	defer ts.Close()

	s := newTestServer(t, pathstore.NewClient(ts.URL, ""))
	req := multipartRequest(t, "/api/extract", map[string]string{"sink": "pathstore"},
		upload{"file", "a.txt", "Hello."})

	rec := serve(s, req)
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "transport busy")
}

func TestBatchExtract(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/api/extract/batch", map[string]string{"scope": "all"},
		upload{"files", "a.txt", "Alpha."},
		upload{"files", "b.bin", "nope"},
	)

	rec := serve(s, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var out struct {
		Jobs []map[string]any `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Jobs, 2)
	assert.Contains(t, out.Jobs[1]["error"], "unsupported file type")

	jobID, _ := out.Jobs[0]["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "/api/extract/"+jobID+"/status", out.Jobs[0]["poll_url"])

	require.Eventually(t, func() bool {
		rec := serve(s, authed(http.MethodGet, "/api/extract/"+jobID+"/status"))
		var snap pipeline.JobSnapshot
		return json.Unmarshal(rec.Body.Bytes(), &snap) == nil && snap.Status == pipeline.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	rec = serve(s, authed(http.MethodGet, "/api/extract/"+jobID+"/text"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Alpha.\n", rec.Body.String())
}

func TestJobNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, serve(s, authed(http.MethodGet, "/api/extract/nope/status")).Code)
	assert.Equal(t, http.StatusNotFound, serve(s, authed(http.MethodGet, "/api/extract/nope/text")).Code)
}

func TestExtractStats(t *testing.T) {
	s := newTestServer(t, nil)
	serve(s, multipartRequest(t, "/api/extract", nil, upload{"file", "a.txt", "x"}))

	rec := serve(s, authed(http.MethodGet, "/api/stats/extract"))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	stats, ok := out["stats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, stats["count"])
	assert.EqualValues(t, 0, out["queue_depth"])
}

func TestListAndDeleteExtracts(t *testing.T) {
	var deleted string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/kv/doctext/extracts/*", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"nodes":[
				{"key_path":"doctext/extracts/abc123/text","value":{"doc_id":"abc123","bytes":12,"published_at":"2026-01-02T03:04:05Z"}},
				{"key_path":"doctext/extracts/abc123/meta","value":{}},
				{"key_path":"doctext/other/text","value":{}}
			]}`)
		case http.MethodDelete:
			deleted = r.URL.Path + "?" + r.URL.RawQuery
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer ts.Close()

	s := newTestServer(t, pathstore.NewClient(ts.URL, ""))

	rec := serve(s, authed(http.MethodGet, "/api/extracts"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Extracts []map[string]any `json:"extracts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Extracts, 1)
	assert.Equal(t, "abc123", list.Extracts[0]["doc_id"])
	assert.EqualValues(t, 12, list.Extracts[0]["bytes"])

	rec = serve(s, authed(http.MethodDelete, "/api/extracts/abc123"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/kv/doctext/extracts/abc123?children=true", deleted)

	rec = serve(s, authed(http.MethodDelete, "/api/extracts/a.b"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractsNeedPathstore(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serve(s, authed(http.MethodGet, "/api/extracts")).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(s, authed(http.MethodDelete, "/api/extracts/abc")).Code)
}

func TestExtractDocID(t *testing.T) {
	tests := []struct {
		prefix, key, want string
		ok                bool
	}{
		{"doctext/extracts", "doctext/extracts/abc/text", "abc", true},
		{"doctext/extracts", "doctext/extracts/abc/meta", "", false},
		{"doctext/extracts", "elsewhere/abc/text", "", false},
		{"doctext/extracts", "doctext/extracts/a/b/text", "", false},
		{"", "abc/text", "abc", true},
	}
	for _, tt := range tests {
		got, ok := extractDocID(tt.prefix, tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "notes.md", sanitizeFilename("../../etc/notes.md"))
	assert.Equal(t, "notes.md", sanitizeFilename(`C:\Users\me\notes.md`))
	assert.Equal(t, "unnamed", sanitizeFilename(""))
}
