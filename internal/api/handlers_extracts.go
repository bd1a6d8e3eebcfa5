package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// handleListExtracts lists the extracts published to pathstore.
func (s *Server) handleListExtracts(w http.ResponseWriter, r *http.Request) {
	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "pathstore is not configured", http.StatusServiceUnavailable)
		return
	}

	prefix := strings.Trim(s.cfg.PathstorePrefix, "/")
	children, err := ps.ListChildren(r.Context(), prefix, 200)
	if err != nil {
		jsonError(w, "failed to list extracts: "+err.Error(), http.StatusBadGateway)
		return
	}

	extracts := make([]map[string]any, 0, len(children))
	for _, child := range children {
		docID, ok := extractDocID(prefix, child.Key)
		if !ok {
			continue
		}
		entry := map[string]any{"doc_id": docID, "key": child.Key}
		if m, ok := child.Value.(map[string]any); ok {
			entry["bytes"] = m["bytes"]
			entry["published_at"] = m["published_at"]
		}
		extracts = append(extracts, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{"extracts": extracts})
}

// handleDeleteExtract removes a published extract and everything under it.
func (s *Server) handleDeleteExtract(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := validation.Validate(docID, validation.Required, is.Alphanumeric); err != nil {
		jsonError(w, "doc_id: "+err.Error(), http.StatusBadRequest)
		return
	}

	ps := s.orchestrator.PathstoreClient()
	if ps == nil {
		jsonError(w, "pathstore is not configured", http.StatusServiceUnavailable)
		return
	}

	key := docID
	if prefix := strings.Trim(s.cfg.PathstorePrefix, "/"); prefix != "" {
		key = prefix + "/" + docID
	}
	if err := ps.DeleteNode(r.Context(), key, true); err != nil {
		jsonError(w, "failed to delete extract: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}

// extractDocID returns the document id of a "<prefix>/<doc>/text" key.
func extractDocID(prefix, key string) (string, bool) {
	rest := key
	if prefix != "" {
		var ok bool
		if rest, ok = strings.CutPrefix(key, prefix+"/"); !ok {
			return "", false
		}
	}
	docID, ok := strings.CutSuffix(rest, "/text")
	if !ok || docID == "" || strings.Contains(docID, "/") {
		return "", false
	}
	return docID, true
}
