package sink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/doctext/internal/pathstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKey(t *testing.T) {
	assert.Equal(t, "doc-1/text", ExtractKey("", "doc-1"))
	assert.Equal(t, "extracts/doc-1/text", ExtractKey("/extracts/", "doc-1"))
}

func TestPathstorePublish(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody pathstore.NodeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPut, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := pathstore.NewClient(srv.URL, "secret")
	ps := NewPathstore(client, "extracts", "doc-1")
	ps.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, ps.Publish(context.Background(), "hello\n"))
	assert.Equal(t, "/kv/extracts/doc-1/text", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "doctext", gotBody.Source)

	value, ok := gotBody.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "doc-1", value["doc_id"])
	assert.Equal(t, "hello\n", value["text"])
	assert.EqualValues(t, 6, value["bytes"])
	assert.Equal(t, "2026-01-02T03:04:05Z", value["published_at"])
}

func TestPathstoreStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		busy   bool
	}{
		{http.StatusConflict, true},
		{http.StatusLocked, true},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusInternalServerError, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))

		err := NewPathstore(pathstore.NewClient(srv.URL, ""), "", "doc").Publish(context.Background(), "x")
		srv.Close()

		require.Error(t, err, "status %d", tt.status)
		assert.Equal(t, tt.busy, IsBusy(err), "status %d", tt.status)

		var se *pathstore.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, tt.status, se.StatusCode)
	}
}

type fakeNodeWriter struct{ err error }

func (f fakeNodeWriter) PutNode(context.Context, string, pathstore.NodeRequest) error {
	return f.err
}

func TestPathstoreErrors(t *testing.T) {
	err := NewPathstore(fakeNodeWriter{err: errors.New("connection refused")}, "", "doc").
		Publish(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, IsBusy(err))
	assert.Contains(t, err.Error(), "store extract")

	err = NewPathstore(fakeNodeWriter{}, "", "").Publish(context.Background(), "x")
	assert.Error(t, err)
}
