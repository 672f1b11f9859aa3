package results

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rubiojr/ocrsearch/pkg/geometry"
	"github.com/rubiojr/ocrsearch/pkg/ocr"
	"github.com/rubiojr/ocrsearch/pkg/snippet"
)

// annotationNamespace seeds name-based annotation ids.
var annotationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/rubiojr/ocrsearch/annotation"))

// Annotation is one highlighted region on a page: a word or a line.
type Annotation struct {
	ID       string          `json:"id"`
	Record   string          `json:"record"`
	Page     int             `json:"page"`
	Region   string          `json:"region"`
	Text     string          `json:"text"`
	BBox     ocr.BBox        `json:"bbox"`
	Relative geometry.RelBox `json:"relative"`
}

// NewAnnotation builds an annotation for a region. Its id is derived from
// record, page and region, so the same region always gets the same id.
func NewAnnotation(record string, page int, region, text string, box ocr.BBox) Annotation {
	name := fmt.Sprintf("%s/%d/%s", record, page, region)
	return Annotation{
		ID:     uuid.NewSHA1(annotationNamespace, []byte(name)).String(),
		Record: record,
		Page:   page,
		Region: region,
		Text:   text,
		BBox:   box,
	}
}

// Equal compares annotation ids.
func (a Annotation) Equal(o Annotation) bool {
	return a.ID == o.ID
}

// SearchHit is one located occurrence of the query.
type SearchHit struct {
	Record      string          `json:"record"`
	Page        int             `json:"page"`
	Text        string          `json:"text"`
	Context     snippet.Context `json:"context"`
	BBox        ocr.BBox        `json:"bbox"`
	Relative    geometry.RelBox `json:"relative"`
	Terms       SearchTermList  `json:"terms"`
	Annotations []Annotation    `json:"annotations"`
}

// SetDimensions fills relative coordinates of the hit and its annotations.
// Unavailable dimensions leave them zero.
func (h *SearchHit) SetDimensions(d geometry.Dimension) {
	h.Relative = d.Relative(h.BBox)
	for i := range h.Annotations {
		h.Annotations[i].Relative = d.Relative(h.Annotations[i].BBox)
	}
}
