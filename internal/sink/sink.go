// Package sink publishes extracted text to an external transport.
//
// Publishing is the only step of an extraction that does I/O. A transport
// that cannot accept data right now reports ErrTransportBusy; callers surface
// that to the user and never retry on their own.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrTransportBusy reports that a transport could not accept data, for
// example because another process holds the clipboard.
var ErrTransportBusy = errors.New("transport busy")

// BusyError wraps the transport's own failure. errors.Is(err, ErrTransportBusy)
// holds for every BusyError.
type BusyError struct {
	Transport string
	Err       error
}

func (e *BusyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Transport, ErrTransportBusy)
	}
	return fmt.Sprintf("%s: %s: %v", e.Transport, ErrTransportBusy, e.Err)
}

func (e *BusyError) Unwrap() error { return e.Err }

func (e *BusyError) Is(target error) bool { return target == ErrTransportBusy }

// IsBusy reports whether err is a busy transport.
func IsBusy(err error) bool {
	return errors.Is(err, ErrTransportBusy)
}

// Sink accepts the final text of an extraction.
type Sink interface {
	Name() string
	Publish(ctx context.Context, text string) error
}

// Finalize hands text to s. It is the single publish step of an extraction;
// the text has already been fully built in memory when it is called.
func Finalize(ctx context.Context, s Sink, text string) error {
	if s == nil {
		return errors.New("no sink configured")
	}
	if err := s.Publish(ctx, text); err != nil {
		if IsBusy(err) {
			return err
		}
		return fmt.Errorf("publish to %s: %w", s.Name(), err)
	}
	return nil
}

// Discard accepts and drops everything.
type Discard struct{}

func (Discard) Name() string { return "discard" }

func (Discard) Publish(context.Context, string) error { return nil }

// Writer publishes to an io.Writer such as stdout or an HTTP response.
type Writer struct {
	W     io.Writer
	Label string
}

func NewWriter(w io.Writer, label string) *Writer {
	return &Writer{W: w, Label: label}
}

func (w *Writer) Name() string {
	if w.Label == "" {
		return "writer"
	}
	return w.Label
}

func (w *Writer) Publish(_ context.Context, text string) error {
	_, err := io.WriteString(w.W, text)
	return err
}

// Memory keeps the last published text. Used by the API to return the text
// in the response body after publishing.
type Memory struct {
	Text      string
	Published bool
}

func (m *Memory) Name() string { return "response" }

func (m *Memory) Publish(_ context.Context, text string) error {
	m.Text = text
	m.Published = true
	return nil
}
