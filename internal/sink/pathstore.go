package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/doctext/internal/pathstore"
)

// NodeWriter is the part of the pathstore client the sink needs.
type NodeWriter interface {
	PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error
}

// Pathstore publishes the text as a node under Prefix/DocID.
type Pathstore struct {
	Client NodeWriter
	Prefix string
	DocID  string
	Source string
	now    func() time.Time
}

func NewPathstore(client NodeWriter, prefix, docID string) *Pathstore {
	return &Pathstore{Client: client, Prefix: prefix, DocID: docID, Source: "doctext", now: time.Now}
}

func (p *Pathstore) Name() string { return "pathstore" }

// Key is the node path the text is stored at.
func (p *Pathstore) Key() string {
	return ExtractKey(p.Prefix, p.DocID)
}

// ExtractKey joins a pathstore prefix and document id into the text node path.
func ExtractKey(prefix, docID string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return docID + "/text"
	}
	return prefix + "/" + docID + "/text"
}

func (p *Pathstore) Publish(ctx context.Context, text string) error {
	if p.DocID == "" {
		return errors.New("pathstore sink: no document id")
	}
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	err := p.Client.PutNode(ctx, p.Key(), pathstore.NodeRequest{
		Value: map[string]any{
			"doc_id":       p.DocID,
			"text":         text,
			"bytes":        len(text),
			"published_at": now().UTC().Format(time.RFC3339),
		},
		Source: p.Source,
	})
	if err == nil {
		return nil
	}

	var se *pathstore.StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusConflict, http.StatusLocked, http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return &BusyError{Transport: p.Name(), Err: err}
		}
	}
	return fmt.Errorf("store extract: %w", err)
}
