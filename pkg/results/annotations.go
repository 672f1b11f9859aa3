package results

// AnnotationResultList accumulates the answer to one search request.
type AnnotationResultList struct {
	NumHits     int            `json:"numHits"`
	Annotations []Annotation   `json:"annotations"`
	Hits        []*SearchHit   `json:"hits"`
	SearchTerms SearchTermList `json:"searchTerms"`
}

// NewAnnotationResultList returns an empty list.
func NewAnnotationResultList() *AnnotationResultList {
	return &AnnotationResultList{Annotations: []Annotation{}, Hits: []*SearchHit{}}
}

// Add appends a hit, counts it and adds each of its annotations unless an
// equal one is already present.
func (r *AnnotationResultList) Add(hit *SearchHit) {
	r.NumHits++
	r.Hits = append(r.Hits, hit)
	for _, a := range hit.Annotations {
		if !r.hasAnnotation(a) {
			r.Annotations = append(r.Annotations, a)
		}
	}
	r.SearchTerms.Merge(&hit.Terms)
}

// AddAll merges another list: counts are summed, hits and annotations are
// concatenated. Annotations are not deduplicated on this path.
func (r *AnnotationResultList) AddAll(o *AnnotationResultList) {
	if o == nil {
		return
	}
	r.NumHits += o.NumHits
	r.Hits = append(r.Hits, o.Hits...)
	r.Annotations = append(r.Annotations, o.Annotations...)
	r.SearchTerms.Merge(&o.SearchTerms)
}

// Terms returns the distinct matched terms of all hits with their counts.
func (r *AnnotationResultList) Terms() *SearchTermList {
	return &r.SearchTerms
}

func (r *AnnotationResultList) hasAnnotation(a Annotation) bool {
	for _, existing := range r.Annotations {
		if existing.Equal(a) {
			return true
		}
	}
	return false
}
