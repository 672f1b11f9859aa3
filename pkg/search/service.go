package search

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/rubiojr/ocrsearch/pkg/geometry"
	"github.com/rubiojr/ocrsearch/pkg/log"
	"github.com/rubiojr/ocrsearch/pkg/match"
	"github.com/rubiojr/ocrsearch/pkg/ocr"
	"github.com/rubiojr/ocrsearch/pkg/query"
	"github.com/rubiojr/ocrsearch/pkg/results"
	"github.com/rubiojr/ocrsearch/pkg/snippet"
)

// MatchMode selects which OCR structure hits are located in.
type MatchMode string

const (
	// MatchWords reports runs of consecutive words.
	MatchWords MatchMode = "words"
	// MatchLines reports matches over the joined line text.
	MatchLines MatchMode = "lines"
)

// QueryMode selects how the query text is compiled.
type QueryMode string

const (
	// QueryPhrase expands wildcards and joins adjacent query tokens.
	QueryPhrase QueryMode = "phrase"
	// QuerySingleWord only accepts the query as a standalone word.
	QuerySingleWord QueryMode = "single"
)

// DefaultContextLength is the snippet length used when none is configured.
const DefaultContextLength = 50

// SearchParams represents all parameters of a highlighting search.
type SearchParams struct {
	// Query is the free-text query. It may contain '*' wildcards and
	// several words.
	Query string

	// Record identifies the document whose pages are searched. It is used
	// for page size lookups and annotation ids.
	Record string

	// Mode selects word or line matching. Defaults to MatchWords.
	Mode MatchMode

	// Match selects phrase or single-word matching. Defaults to QueryPhrase.
	Match QueryMode

	// ContextLength is the nominal snippet length on each side of a hit,
	// in runes. Defaults to the service's configured length when zero.
	ContextLength int

	// Limit caps the number of hits. Zero means no limit.
	Limit int
}

// PageSource loads the OCR pages of a record. A non-empty query may be used
// to skip pages that cannot contain a hit.
type PageSource interface {
	Pages(ctx context.Context, record, query string) ([]*ocr.Page, error)
}

// Service executes highlighting searches.
//
// A Service is safe for concurrent use. Every call builds its own pattern
// and result list; the only shared state is the geometry resolver's cache.
type Service struct {
	resolver      *geometry.Resolver
	pages         PageSource
	contextLength int
	log           *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithContextLength sets the default snippet length.
func WithContextLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.contextLength = n
		}
	}
}

// WithPageSource sets where SearchRecord loads pages from.
func WithPageSource(src PageSource) Option {
	return func(s *Service) {
		s.pages = src
	}
}

// NewService creates a search service.
//
// Parameters:
//   - resolver: Resolves page sizes for relative coordinates. May be shared
//     with other services to keep its cache warm.
//   - opts: Optional settings
//
// Returns:
//   - *Service: A service ready to execute searches
func NewService(resolver *geometry.Resolver, opts ...Option) *Service {
	s := &Service{
		resolver:      resolver,
		contextLength: DefaultContextLength,
		log:           log.ForService("search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchRecord loads the candidate pages of params.Record from the page
// source and searches them.
//
// Returns:
//   - *results.AnnotationResultList: Hits of every page in page order
//   - error: If no page source is configured or loading pages fails
func (s *Service) SearchRecord(ctx context.Context, params SearchParams) (*results.AnnotationResultList, error) {
	if s.pages == nil {
		return nil, fmt.Errorf("no page source configured")
	}
	pages, err := s.pages.Pages(ctx, params.Record, pageFilter(params))
	if err != nil {
		return nil, fmt.Errorf("loading pages of %s: %w", params.Record, err)
	}
	s.log.Debugf("searching %d candidate pages of %s for %q", len(pages), params.Record, params.Query)
	return s.SearchPages(ctx, pages, params)
}

// pageFilter returns the query a page source may use to skip pages. Phrase
// matches in line text can start inside a longer word, so they get no filter.
func pageFilter(params SearchParams) string {
	if params.Mode == MatchLines && params.Match != QuerySingleWord {
		return ""
	}
	return params.Query
}

// SearchPages searches a sequence of pages and merges the per-page results.
//
// The query is compiled once and reused for every page. Searching stops
// early once params.Limit hits are collected or ctx is done.
func (s *Service) SearchPages(ctx context.Context, pages []*ocr.Page, params SearchParams) (*results.AnnotationResultList, error) {
	pattern, err := compile(params)
	if err != nil {
		return nil, err
	}
	all := results.NewAnnotationResultList()
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remaining := 0
		if params.Limit > 0 {
			remaining = params.Limit - all.NumHits
			if remaining <= 0 {
				break
			}
		}
		pageResults, err := s.searchPage(ctx, page, pattern, params, remaining)
		if err != nil {
			return nil, err
		}
		all.AddAll(pageResults)
	}
	return all, nil
}

// SearchPage searches a single page.
func (s *Service) SearchPage(ctx context.Context, page *ocr.Page, params SearchParams) (*results.AnnotationResultList, error) {
	pattern, err := compile(params)
	if err != nil {
		return nil, err
	}
	return s.searchPage(ctx, page, pattern, params, params.Limit)
}

func compile(params SearchParams) (*query.Pattern, error) {
	switch params.Match {
	case QueryPhrase, "":
		return query.Compile(params.Query), nil
	case QuerySingleWord:
		return query.SingleWord(params.Query), nil
	}
	return nil, fmt.Errorf("unknown query mode %q", params.Match)
}

func (s *Service) searchPage(ctx context.Context, page *ocr.Page, pattern *query.Pattern, params SearchParams, limit int) (*results.AnnotationResultList, error) {
	var hits []*results.SearchHit
	var err error
	switch params.Mode {
	case MatchLines:
		hits, err = s.lineHits(page, pattern, params)
	case MatchWords, "":
		hits, err = s.wordHits(page, pattern, params)
	default:
		return nil, fmt.Errorf("unknown match mode %q", params.Mode)
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	list := results.NewAnnotationResultList()
	if len(hits) == 0 {
		return list, nil
	}

	dim := geometry.Unavailable
	if s.resolver != nil {
		dim = s.resolver.DimensionsFor(ctx, params.Record, page.Number)
	}
	for _, hit := range hits {
		hit.SetDimensions(dim)
		list.Add(hit)
	}
	s.log.Debugf("page %d of %s: %d hits", page.Number, params.Record, list.NumHits)
	return list, nil
}

func (s *Service) wordHits(page *ocr.Page, pattern *query.Pattern, params SearchParams) ([]*results.SearchHit, error) {
	text, _ := match.JoinWords(page.Words)
	var hits []*results.SearchHit
	for _, m := range match.FindWordMatches(page.Words, pattern) {
		ctxt, err := snippet.Around(text, m.Start, m.End, s.contextFor(params))
		if err != nil {
			return nil, fmt.Errorf("cutting context on page %d: %w", page.Number, err)
		}
		hit := &results.SearchHit{
			Record:  params.Record,
			Page:    page.Number,
			Text:    ctxt.Match,
			Context: ctxt,
			BBox:    m.BBox(),
		}
		for _, term := range m.Terms() {
			hit.Terms.Add(results.NewSearchTerm(term))
		}
		for _, w := range m.Words {
			hit.Annotations = append(hit.Annotations,
				results.NewAnnotation(params.Record, page.Number, w.ID, w.Content, w.BBox))
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *Service) lineHits(page *ocr.Page, pattern *query.Pattern, params SearchParams) ([]*results.SearchHit, error) {
	joined := match.JoinLines(page.Lines)
	text := joined.String()
	var hits []*results.SearchHit
	for _, m := range joined.Find(pattern) {
		ctxt, err := snippet.Around(text, m.Range.Start, m.Range.End, s.contextFor(params))
		if err != nil {
			return nil, fmt.Errorf("cutting context on page %d: %w", page.Number, err)
		}
		hit := &results.SearchHit{
			Record:  params.Record,
			Page:    page.Number,
			Text:    m.Text,
			Context: ctxt,
			BBox:    m.BBox(),
		}
		hit.Terms.Add(results.NewSearchTerm(strings.Join(strings.Fields(m.Text), " ")))
		for _, l := range m.Lines {
			hit.Annotations = append(hit.Annotations,
				results.NewAnnotation(params.Record, page.Number, l.ID, l.Text(), l.BBox))
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *Service) contextFor(params SearchParams) int {
	if params.ContextLength > 0 {
		return params.ContextLength
	}
	return s.contextLength
}

// Suggest returns the distinct words of pages that start with prefix, with
// how often each occurs. Words keep their original case.
func (s *Service) Suggest(pages []*ocr.Page, prefix string) *results.SearchTermList {
	pattern := query.Autosuggest(prefix)
	terms := &results.SearchTermList{}
	if pattern.Empty() {
		return terms
	}
	for _, page := range pages {
		for _, w := range page.Words {
			word := strings.Trim(w.Content, query.BoundaryChars)
			if pattern.Matches(word) {
				terms.Add(results.NewSearchTerm(word))
			}
		}
	}
	return terms
}

// SimilarityThreshold is the minimum Jaro-Winkler similarity for Similar.
const SimilarityThreshold = 0.85

// Similar returns up to limit distinct words of pages that resemble word,
// most similar first, ties by frequency. Words equal to word apart from case
// are left out. It backs "did you mean" hints for searches without hits.
func (s *Service) Similar(pages []*ocr.Page, word string, limit int) []results.SearchTerm {
	target := strings.ToLower(strings.Trim(query.Normalize(word), "*"))
	if target == "" {
		return nil
	}

	var seen results.SearchTermList
	for _, page := range pages {
		for _, w := range page.Words {
			if content := strings.Trim(w.Content, query.BoundaryChars); content != "" {
				seen.Add(results.NewSearchTerm(content))
			}
		}
	}

	type scored struct {
		term  results.SearchTerm
		score float32
	}
	var candidates []scored
	for _, t := range seen.Terms() {
		folded := strings.ToLower(t.Match)
		if folded == target {
			continue
		}
		score, err := edlib.StringsSimilarity(target, folded, edlib.JaroWinkler)
		if err != nil || score < SimilarityThreshold {
			continue
		}
		candidates = append(candidates, scored{term: t, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].term.Count > candidates[j].term.Count
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]results.SearchTerm, len(candidates))
	for i, c := range candidates {
		out[i] = c.term
	}
	return out
}

// ParseSearchParams parses HTTP query parameters into a SearchParams struct.
//
// Supported parameters:
//   - q: Query string
//   - record: Record identifier
//   - mode: "words" (default) or "lines"
//   - match: "phrase" (default) or "single"
//   - context: Snippet length, positive integer
//   - limit: Maximum number of hits, positive integer
//
// Invalid numbers are ignored; an unknown mode or match is an error.
//
// Example:
//
//	params, err := ParseSearchParams(r.URL.Query())
//	if err != nil {
//		// Reject the request
//	}
func ParseSearchParams(queryParams map[string][]string) (SearchParams, error) {
	params := SearchParams{Mode: MatchWords}

	if q := queryParams["q"]; len(q) > 0 {
		params.Query = q[0]
	}
	if record := queryParams["record"]; len(record) > 0 {
		params.Record = record[0]
	}

	if mode := queryParams["mode"]; len(mode) > 0 && mode[0] != "" {
		switch MatchMode(mode[0]) {
		case MatchWords, MatchLines:
			params.Mode = MatchMode(mode[0])
		default:
			return params, fmt.Errorf("invalid mode %q", mode[0])
		}
	}

	if m := queryParams["match"]; len(m) > 0 && m[0] != "" {
		switch QueryMode(m[0]) {
		case QueryPhrase, QuerySingleWord:
			params.Match = QueryMode(m[0])
		default:
			return params, fmt.Errorf("invalid match %q", m[0])
		}
	}

	if contextStr := queryParams["context"]; len(contextStr) > 0 && contextStr[0] != "" {
		if parsed, err := strconv.Atoi(contextStr[0]); err == nil && parsed > 0 {
			params.ContextLength = parsed
		}
	}

	if limitStr := queryParams["limit"]; len(limitStr) > 0 && limitStr[0] != "" {
		if parsed, err := strconv.Atoi(limitStr[0]); err == nil && parsed > 0 {
			params.Limit = parsed
		}
	}

	return params, nil
}
