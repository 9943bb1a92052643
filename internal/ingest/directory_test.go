package ingest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func layout(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range []string{
		"b.pdf", "a.JPG", "c.tiff", "notes.txt", ".hidden.png",
		"sub/d.png", "sub/.deep/e.pdf", ".cache/f.pdf",
	} {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestDiscover(t *testing.T) {
	root := layout(t)

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"flat", Options{SkipHidden: true}, []string{"a.JPG", "b.pdf", "c.tiff"}},
		{"flat with hidden", Options{}, []string{".hidden.png", "a.JPG", "b.pdf", "c.tiff"}},
		{"recursive", Options{Recursive: true, SkipHidden: true}, []string{"a.JPG", "b.pdf", "c.tiff", "sub/d.png"}},
		{"recursive with hidden", Options{Recursive: true}, []string{".cache/f.pdf", ".hidden.png", "a.JPG", "b.pdf", "c.tiff", "sub/.deep/e.pdf", "sub/d.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, _, err := Discover(root, tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := rel(t, root, files); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscoverStats(t *testing.T) {
	_, stats, err := Discover(layout(t), Options{SkipHidden: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Matched != 3 || stats.Unsupported != 1 || stats.Hidden != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDiscoverRejectsFile(t *testing.T) {
	root := layout(t)
	if _, _, err := Discover(filepath.Join(root, "b.pdf"), Options{}); err == nil {
		t.Fatal("expected error for a file root")
	}
	if _, _, err := Discover(filepath.Join(root, "missing"), Options{}); err == nil {
		t.Fatal("expected error for a missing root")
	}
}
