package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	reportout "everest/internal/modules/report/port/out"
	apperrors "everest/internal/platform/errors"
)

type FileDocumentWriter struct {
	dir string
}

func NewFileDocumentWriter(dir string) reportout.DocumentWriter {
	return &FileDocumentWriter{dir: dir}
}

// Write refuses to overwrite: a second export within the same second gets
// a numeric suffix.
func (w *FileDocumentWriter) Write(_ context.Context, filename string, content []byte) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("%w: invalid report filename %q", apperrors.ErrInvalidInput, filename)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for n := 0; n < 100; n++ {
		name := filename
		if n > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		path := filepath.Join(w.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", fmt.Errorf("create report: %w", err)
		}
		if err := writeAndClose(f, content); err != nil {
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("write report: too many reports named %s", filename)
}

// writeAndClose removes the file when the write fails so no truncated report
// is left behind.
func writeAndClose(f *os.File, content []byte) error {
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}
