// Package search runs the full-text highlighting engine over OCR pages.
//
// # Overview
//
// A search takes a free-text query, possibly with '*' wildcards and several
// words, and locates it in the words or lines of OCR pages. Every hit carries
// the matched text, a word-safe context snippet on both sides, its bounding
// box in page pixels and relative to the page size, the annotations of the
// regions it covers and the search terms it consists of.
//
// # Pipeline
//
//  1. The query is compiled once per request (pkg/query)
//  2. Each page is scanned by word runs or by joined line text (pkg/match)
//  3. Context is cut around each hit (pkg/snippet)
//  4. The page size is resolved through a shared, cached resolver (pkg/geometry)
//  5. Hits are folded into one AnnotationResultList (pkg/results)
//
// Pages whose size cannot be resolved still produce hits; their relative
// coordinates are zero.
//
// # Usage
//
//	resolver := geometry.NewResolver(index)
//	service := search.NewService(resolver, search.WithPageSource(index))
//	list, err := service.SearchRecord(ctx, search.SearchParams{
//		Query:  "diese* schönste*",
//		Record: "PPN123",
//	})
//
// Suggest completes a word prefix from page words and Similar ranks page
// words close to a misspelled query, both with occurrence counts.
//
// Parsing HTTP parameters:
//
//	params, err := search.ParseSearchParams(r.URL.Query())
//
// # Concurrency
//
// Service is safe for concurrent use. Patterns and result lists are created
// per call; the resolver cache is the only shared state.
package search
