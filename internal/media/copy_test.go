package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileCopier_Copy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	dst := filepath.Join(dir, "dst.mp4")

	content := []byte("fake video bytes")
	if err := os.WriteFile(src, content, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := NewFileCopier().Copy(src, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("destination content mismatch: %q", got)
	}
}

func TestFileCopier_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := NewFileCopier().Copy(filepath.Join(dir, "absent.mp4"), filepath.Join(dir, "out.mp4"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}
