package results

import "encoding/json"

// SearchTerm is a matched substring and how often it was found.
// Two terms are equal when their matched substrings are equal; counts are
// not compared.
type SearchTerm struct {
	Match string `json:"match"`
	Count int    `json:"count"`
}

// NewSearchTerm returns a term seen once.
func NewSearchTerm(match string) SearchTerm {
	return SearchTerm{Match: match, Count: 1}
}

// Equal compares matched substrings, case-sensitively.
func (t SearchTerm) Equal(o SearchTerm) bool {
	return t.Match == o.Match
}

// SearchTermList holds distinct terms in first-seen order.
// The zero value is ready to use.
type SearchTermList struct {
	terms []SearchTerm
}

// Add merges t into the list. An existing equal term has its count raised by
// t.Count instead of a second element being appended.
func (l *SearchTermList) Add(t SearchTerm) {
	// Lists stay small per response, a linear scan is enough.
	for i := range l.terms {
		if l.terms[i].Equal(t) {
			l.terms[i].Count += t.Count
			return
		}
	}
	l.terms = append(l.terms, t)
}

// AddAll merges every term through Add.
func (l *SearchTermList) AddAll(terms ...SearchTerm) {
	for _, t := range terms {
		l.Add(t)
	}
}

// Merge folds another list into l.
func (l *SearchTermList) Merge(o *SearchTermList) {
	if o == nil {
		return
	}
	l.AddAll(o.terms...)
}

// Terms returns a copy of the list.
func (l *SearchTermList) Terms() []SearchTerm {
	out := make([]SearchTerm, len(l.terms))
	copy(out, l.terms)
	return out
}

// Len returns the number of distinct terms.
func (l *SearchTermList) Len() int { return len(l.terms) }

// Count returns the count of match, or 0 when absent.
func (l *SearchTermList) Count(match string) int {
	for _, t := range l.terms {
		if t.Match == match {
			return t.Count
		}
	}
	return 0
}

func (l SearchTermList) MarshalJSON() ([]byte, error) {
	if l.terms == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.terms)
}
