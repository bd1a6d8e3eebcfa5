package sink

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Names lists the sink names Factory.New accepts.
var Names = []string{"response", "discard", "stdout", "clipboard", "file", "pathstore", "s3"}

// Factory builds a sink per extraction from a configured name.
type Factory struct {
	Stdout io.Writer

	Clipboard *Clipboard

	FilePath string

	Pathstore       NodeWriter
	PathstorePrefix string

	S3       ObjectPutter
	S3Bucket string
	S3Prefix string
}

// New returns the sink called name. docID names the published artifact for
// transports that store one (pathstore, s3).
func (f *Factory) New(name, docID string) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "response":
		return &Memory{}, nil
	case "discard", "none":
		return Discard{}, nil
	case "stdout", "-":
		w := f.Stdout
		if w == nil {
			w = os.Stdout
		}
		return NewWriter(w, "stdout"), nil
	case "clipboard":
		if f.Clipboard == nil {
			return NewClipboard(), nil
		}
		return f.Clipboard, nil
	case "file":
		if f.FilePath == "" {
			return nil, fmt.Errorf("file sink requires an output path")
		}
		return NewFile(f.FilePath), nil
	case "pathstore":
		if f.Pathstore == nil {
			return nil, fmt.Errorf("pathstore sink is not configured")
		}
		return NewPathstore(f.Pathstore, f.PathstorePrefix, docID), nil
	case "s3":
		if f.S3 == nil || f.S3Bucket == "" {
			return nil, fmt.Errorf("s3 sink is not configured")
		}
		return NewS3(f.S3, f.S3Bucket, f.S3Prefix, docID), nil
	}
	return nil, fmt.Errorf("unknown sink: %q", name)
}
