package integration_tests

import (
	"context"
	"testing"

	"github.com/rubiojr/ocrsearch/pkg/search"
)

func TestQueryInjectionIntegration(t *testing.T) {
	cfg := CreateTestConfig(t.TempDir())
	idx := IndexPageFiles(t, cfg, "letters", WritePageFiles(t, t.TempDir(), StandardFixtures()))
	svc, _ := newService(idx, cfg.ContextLength)

	attempts := []struct {
		name  string
		query string
	}{
		{"statement terminator", `"; DROP TABLE pages; --`},
		{"quote breakout", `Diese" OR "1"="1`},
		{"fts column filter", `text:Diese`},
		{"fts operators", `Diese AND NOT Stadt`},
		{"fts near group", `NEAR(Diese Stadt)`},
		{"fts initial token", `^Diese`},
		{"regexp syntax", `(Diese|.*)+`},
		{"case marker only", `(?i)`},
		{"lone wildcard", `*`},
	}

	for _, tt := range attempts {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SearchRecord(context.Background(), search.SearchParams{Query: tt.query, Record: "letters"}); err != nil {
				t.Errorf("query %q failed: %v", tt.query, err)
			}
		})
	}

	records, err := idx.Records(context.Background())
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if records["letters"] != 3 {
		t.Errorf("pages table damaged: %v", records)
	}
}
