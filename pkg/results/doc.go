// Package results holds the payload of a highlighting search: hits, the
// annotations they reference and the frequency-annotated list of matched
// terms.
//
// SearchTermList merges instead of duplicating: adding a term whose matched
// substring is already present raises that term's count. AnnotationResultList
// deduplicates annotations when single hits are added but concatenates them
// when whole lists are merged with AddAll.
package results
