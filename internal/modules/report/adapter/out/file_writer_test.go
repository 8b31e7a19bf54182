package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	reportout "everest/internal/modules/report/adapter/out"
	apperrors "everest/internal/platform/errors"
)

func TestFileDocumentWriterCreatesDirAndSuffixesDuplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "reports")
	w := reportout.NewFileDocumentWriter(dir)

	first, err := w.Write(ctx, "summary.txt", []byte("one"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	second, err := w.Write(ctx, "summary.txt", []byte("two"))
	if err != nil {
		t.Fatalf("write again: %v", err)
	}
	if first != filepath.Join(dir, "summary.txt") || second != filepath.Join(dir, "summary_1.txt") {
		t.Fatalf("unexpected paths %s %s", first, second)
	}
	raw, _ := os.ReadFile(first)
	if string(raw) != "one" {
		t.Fatalf("first report was overwritten: %q", raw)
	}
}

func TestFileDocumentWriterRejectsPaths(t *testing.T) {
	t.Parallel()
	w := reportout.NewFileDocumentWriter(t.TempDir())
	for _, name := range []string{"", "../escape.txt", "nested/file.txt"} {
		if _, err := w.Write(context.Background(), name, []byte("x")); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%q: expected invalid input, got %v", name, err)
		}
	}
}
