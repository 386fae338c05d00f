package raster

import (
	"os/exec"
	"path/filepath"
	"testing"
)

func TestSortPages(t *testing.T) {
	in := []string{
		"/out/page_10.jpg",
		"/out/page_2.jpg",
		"/out/page_1.jpg",
	}
	got := SortPages(in)

	want := []string{
		"/out/page_1.jpg",
		"/out/page_2.jpg",
		"/out/page_10.jpg",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSortPages_DoesNotMutateInput(t *testing.T) {
	in := []string{"/out/page_3.jpg", "/out/page_1.jpg"}
	SortPages(in)

	if in[0] != "/out/page_3.jpg" {
		t.Error("SortPages mutated its input slice")
	}
}

func TestSortPages_UnparseableLast(t *testing.T) {
	in := []string{"/out/cover.jpg", "/out/page_2.jpg"}
	got := SortPages(in)

	if got[0] != "/out/page_2.jpg" {
		t.Errorf("numeric page should sort first, got %s", got[0])
	}
}

func TestRasterize_MissingPDF(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}

	p := NewPoppler(300)
	_, err := p.Rasterize(filepath.Join(t.TempDir(), "missing.pdf"), t.TempDir())
	if err == nil {
		t.Error("expected error for missing PDF")
	}
}
