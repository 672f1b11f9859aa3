package integration_tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rubiojr/ocrsearch/pkg/config"
	"github.com/rubiojr/ocrsearch/pkg/ocr"
	"github.com/rubiojr/ocrsearch/pkg/storage"
)

// CreateTestConfig creates a configuration storing its index under tempDir
func CreateTestConfig(tempDir string) *config.Config {
	return &config.Config{
		StorageDir:    tempDir,
		ContextLength: 10,
		LookupTimeout: config.Duration{Duration: config.DefaultLookupTimeout},
	}
}

// PageFixture describes one OCR page: its size and the words of each line
type PageFixture struct {
	Number int
	Width  int
	Height int
	Lines  [][]string
}

// StandardFixtures returns a small record: a sized page with a phrase that
// breaks across lines, an unsized page and a page without any hit.
func StandardFixtures() []PageFixture {
	return []PageFixture{
		{1, 1000, 2000, [][]string{{"Diese", "Stadt", "ist", "dieser"}, {"schönsten", "Tage", "würdig."}}},
		{2, 0, 0, [][]string{{"Schönste", "Grüße"}}},
		{3, 800, 1200, [][]string{{"Nichts", "hier"}}},
	}
}

// WritePageFiles writes each fixture as a page JSON file and returns the paths
func WritePageFiles(t *testing.T, dir string, fixtures []PageFixture) []string {
	t.Helper()
	var paths []string
	for _, f := range fixtures {
		data, err := buildPage(f).Marshal()
		if err != nil {
			t.Fatalf("marshaling page %d: %v", f.Number, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%03d.json", f.Number))
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
		paths = append(paths, path)
	}
	return paths
}

// IndexPageFiles reads page files back the way the index command does and
// stores them under record
func IndexPageFiles(t *testing.T, cfg *config.Config, record string, paths []string) *storage.PageIndex {
	t.Helper()
	var pages []*ocr.Page
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("opening %s: %v", path, err)
		}
		page, err := ocr.ReadPage(f)
		f.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		pages = append(pages, page)
	}

	idx, err := storage.Open(context.Background(), cfg.IndexPath())
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	t.Cleanup(func() {
		if err := idx.Close(); err != nil {
			t.Logf("Warning: failed to close index: %v", err)
		}
	})

	if _, err := idx.StorePages(context.Background(), record, pages); err != nil {
		t.Fatalf("storing pages: %v", err)
	}
	return idx
}

func buildPage(f PageFixture) *ocr.Page {
	page := &ocr.Page{Number: f.Number, Width: f.Width, Height: f.Height}
	for li, contents := range f.Lines {
		line := &ocr.Line{ID: fmt.Sprintf("line_%d", li+1), Page: f.Number}
		for wi, c := range contents {
			w := &ocr.Word{
				ID:      fmt.Sprintf("line_%d_word_%d", li+1, wi+1),
				Content: c,
				Page:    f.Number,
				BBox:    ocr.BBox{X1: wi * 100, Y1: li * 40, X2: wi*100 + 80, Y2: li*40 + 30},
			}
			line.Words = append(line.Words, w)
			line.BBox = line.BBox.Union(w.BBox)
		}
		page.Lines = append(page.Lines, line)
	}
	return page
}
