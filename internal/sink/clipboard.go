package sink

import (
	"context"
	"errors"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnsupported is returned when no clipboard utility is available
// on this system (xclip, xsel or wl-copy on Linux).
var ErrClipboardUnsupported = errors.New("system clipboard is not supported on this host")

// Clipboard publishes to the system clipboard.
type Clipboard struct {
	// writeAll is swapped out in tests.
	writeAll    func(string) error
	unsupported func() bool
}

func NewClipboard() *Clipboard {
	return &Clipboard{
		writeAll:    clipboard.WriteAll,
		unsupported: func() bool { return clipboard.Unsupported },
	}
}

func (c *Clipboard) Name() string { return "clipboard" }

// Publish copies text to the clipboard. Any failure from the clipboard
// itself means another application holds it, and is reported as busy.
func (c *Clipboard) Publish(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.unsupported != nil && c.unsupported() {
		return ErrClipboardUnsupported
	}
	if err := c.writeAll(text); err != nil {
		return &BusyError{Transport: c.Name(), Err: err}
	}
	return nil
}
