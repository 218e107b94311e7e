package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func relPaths(t *testing.T, root string, w *Walker) []string {
	t.Helper()
	files, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	abs, _ := filepath.Abs(root)
	var out []string
	for _, f := range files {
		rel, _ := filepath.Rel(abs, f.Path)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestWalker_DefaultIncludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt", "notes/b.md", "main.go", ".cosim/index.txt")

	w, err := NewWalker(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := relPaths(t, root, w)
	want := []string{"a.txt", "notes/b.md"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestWalker_Excludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "keep/a.txt", "drafts/b.txt", "keep/c.tmp.txt")

	w, err := NewWalker([]string{"**/*.txt"}, []string{"drafts/**", "**/*.tmp.txt"})
	if err != nil {
		t.Fatal(err)
	}
	got := relPaths(t, root, w)
	if len(got) != 1 || got[0] != "keep/a.txt" {
		t.Errorf("expected [keep/a.txt], got %v", got)
	}
}

func TestNewWalker_InvalidGlob(t *testing.T) {
	if _, err := NewWalker([]string{"[unclosed"}, nil); err == nil {
		t.Error("expected error for invalid glob")
	}
}

func TestMatchAny(t *testing.T) {
	cases := []struct {
		patterns []string
		path     string
		want     bool
	}{
		{[]string{"**/*.txt"}, "a/b/c.txt", true},
		{[]string{"**/*.txt"}, "c.txt", true},
		{[]string{"*.md", "*.txt"}, "notes/a.md", false},
		{nil, "a.txt", false},
	}
	for _, tc := range cases {
		if got := matchAny(tc.patterns, tc.path); got != tc.want {
			t.Errorf("matchAny(%v, %q) = %v, want %v", tc.patterns, tc.path, got, tc.want)
		}
	}
}
