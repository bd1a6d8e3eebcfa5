package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File writes the text to a path. A sibling "<path>.lock" file guards the
// target; when another writer holds it the transport is busy.
type File struct {
	Path string
	Perm os.FileMode
}

func NewFile(path string) *File {
	return &File{Path: path, Perm: 0o644}
}

func (f *File) Name() string { return "file" }

func (f *File) Publish(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Path == "" {
		return errors.New("file sink: no output path")
	}

	lockPath := f.Path + ".lock"
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &BusyError{Transport: f.Name(), Err: fmt.Errorf("%s is locked", f.Path)}
		}
		return fmt.Errorf("create lock file: %w", err)
	}
	lock.Close()
	defer os.Remove(lockPath)

	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".doctext-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	perm := f.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.Path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
