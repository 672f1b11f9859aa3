package results

import (
	"encoding/json"
	"testing"

	"github.com/rubiojr/ocrsearch/pkg/geometry"
	"github.com/rubiojr/ocrsearch/pkg/ocr"
)

func TestSearchTermListAdd(t *testing.T) {
	var list SearchTermList
	list.Add(NewSearchTerm("dieser"))
	list.Add(NewSearchTerm("Dieser"))
	list.Add(NewSearchTerm("dieser"))
	list.Add(SearchTerm{Match: "schönsten", Count: 3})

	tests := []struct {
		match string
		want  int
	}{
		{"dieser", 2},
		{"Dieser", 1},
		{"schönsten", 3},
		{"absent", 0},
	}
	for _, tt := range tests {
		if got := list.Count(tt.match); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.match, got, tt.want)
		}
	}
	if list.Len() != 3 {
		t.Errorf("expected 3 distinct terms, got %d", list.Len())
	}
	if terms := list.Terms(); terms[0].Match != "dieser" || terms[2].Match != "schönsten" {
		t.Errorf("terms out of first-seen order: %+v", terms)
	}
}

func TestSearchTermListMerge(t *testing.T) {
	var a, b SearchTermList
	a.AddAll(NewSearchTerm("x"), NewSearchTerm("y"))
	b.AddAll(SearchTerm{Match: "y", Count: 4}, NewSearchTerm("z"))

	a.Merge(&b)
	a.Merge(nil)

	if a.Count("x") != 1 || a.Count("y") != 5 || a.Count("z") != 1 {
		t.Errorf("unexpected merge result %+v", a.Terms())
	}
	if b.Count("y") != 4 {
		t.Error("merge must not modify its argument")
	}
}

func TestSearchTermListTermsIsCopy(t *testing.T) {
	var list SearchTermList
	list.Add(NewSearchTerm("x"))
	terms := list.Terms()
	terms[0].Count = 99
	if list.Count("x") != 1 {
		t.Error("Terms must return a copy")
	}
}

func TestAnnotationIDs(t *testing.T) {
	box := ocr.BBox{X1: 1, Y1: 2, X2: 3, Y2: 4}
	a := NewAnnotation("rec", 1, "l1_w1", "Diese", box)
	b := NewAnnotation("rec", 1, "l1_w1", "other text", ocr.BBox{})
	c := NewAnnotation("rec", 2, "l1_w1", "Diese", box)

	if a.ID == "" || !a.Equal(b) {
		t.Errorf("same region must yield the same id: %q %q", a.ID, b.ID)
	}
	if a.Equal(c) {
		t.Error("different pages must yield different ids")
	}
}

func hitWith(terms []string, annotations ...Annotation) *SearchHit {
	h := &SearchHit{Record: "rec", Page: 1, Annotations: annotations}
	for _, term := range terms {
		h.Terms.Add(NewSearchTerm(term))
	}
	return h
}

func TestAnnotationResultListAddDeduplicates(t *testing.T) {
	shared := NewAnnotation("rec", 1, "l1", "Diese Stadt, dieser Berg", ocr.BBox{X2: 10, Y2: 10})
	other := NewAnnotation("rec", 1, "l2", "schönste Grüße", ocr.BBox{X2: 10, Y2: 10})

	list := NewAnnotationResultList()
	list.Add(hitWith([]string{"Diese"}, shared))
	list.Add(hitWith([]string{"dieser"}, shared, other))

	if list.NumHits != 2 || len(list.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", list.NumHits)
	}
	if len(list.Annotations) != 2 {
		t.Errorf("expected 2 distinct annotations, got %d", len(list.Annotations))
	}
	if list.Terms().Len() != 2 {
		t.Errorf("expected 2 terms, got %+v", list.Terms().Terms())
	}
}

func TestAnnotationResultListAddAll(t *testing.T) {
	shared := NewAnnotation("rec", 1, "l1", "line", ocr.BBox{X2: 10, Y2: 10})

	first := NewAnnotationResultList()
	first.Add(hitWith([]string{"dieser"}, shared))
	second := NewAnnotationResultList()
	second.Add(hitWith([]string{"dieser", "schönsten"}, shared))
	second.Add(hitWith([]string{"Dieses"}))

	all := NewAnnotationResultList()
	all.AddAll(first)
	all.AddAll(second)
	all.AddAll(nil)

	if all.NumHits != 3 || len(all.Hits) != 3 {
		t.Errorf("expected 3 hits, got %d (%d)", all.NumHits, len(all.Hits))
	}
	if len(all.Annotations) != 2 {
		t.Errorf("AddAll concatenates annotations, expected 2, got %d", len(all.Annotations))
	}
	terms := all.Terms()
	if terms.Count("dieser") != 2 || terms.Count("schönsten") != 1 || terms.Count("Dieses") != 1 {
		t.Errorf("unexpected terms %+v", terms.Terms())
	}
}

func TestSetDimensions(t *testing.T) {
	hit := hitWith(nil, NewAnnotation("rec", 1, "w", "x", ocr.BBox{X1: 10, Y1: 20, X2: 30, Y2: 40}))
	hit.BBox = ocr.BBox{X1: 50, Y1: 0, X2: 100, Y2: 50}

	hit.SetDimensions(geometry.Dimension{Width: 100, Height: 200})
	if hit.Relative != (geometry.RelBox{X1: 0.5, Y1: 0, X2: 1, Y2: 0.25}) {
		t.Errorf("hit relative box = %+v", hit.Relative)
	}
	if got := hit.Annotations[0].Relative; got != (geometry.RelBox{X1: 0.1, Y1: 0.1, X2: 0.3, Y2: 0.2}) {
		t.Errorf("annotation relative box = %+v", got)
	}

	hit.SetDimensions(geometry.Unavailable)
	if hit.Relative != (geometry.RelBox{}) {
		t.Errorf("unavailable dimensions must clear the relative box, got %+v", hit.Relative)
	}
}

func TestEmptyListJSON(t *testing.T) {
	data, err := json.Marshal(NewAnnotationResultList())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"numHits":0,"annotations":[],"hits":[],"searchTerms":[]}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
