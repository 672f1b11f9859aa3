package query

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Mode selects how a raw query is turned into a pattern.
type Mode int

const (
	// ModePhrase expands wildcards and matches any contiguous run of the query tokens.
	ModePhrase Mode = iota
	// ModeSingleWord matches the query only as a standalone word.
	ModeSingleWord
	// ModeContainedWord is ModeSingleWord whose full match allows arbitrary surrounding text.
	ModeContainedWord
	// ModeAutosuggest matches the query as a prefix of a longer word.
	ModeAutosuggest
)

func (m Mode) String() string {
	switch m {
	case ModePhrase:
		return "phrase"
	case ModeSingleWord:
		return "single"
	case ModeContainedWord:
		return "contained"
	case ModeAutosuggest:
		return "autosuggest"
	}
	return "unknown"
}

const (
	caseMarker = "(?i)"

	// wordChars is what a '*' stands for: letters, digits, underscore and hyphen.
	wordChars = `[\p{L}\p{N}_-]*`

	// BoundaryChars may sit next to a standalone word in addition to whitespace.
	BoundaryChars = ".:,;!?()"
)

// matchNothing never matches; empty queries compile to it.
var matchNothing = regexp.MustCompile(`[^\x00-\x{10FFFF}]`)

// Pattern is a compiled query. It is immutable and safe for concurrent use.
type Pattern struct {
	query   string
	mode    Mode
	re      *regexp.Regexp
	whole   *regexp.Regexp
	bounded bool
}

// Compile builds a phrase pattern, the mode used for highlighting.
func Compile(q string) *Pattern {
	return CompileMode(q, ModePhrase)
}

// SingleWord compiles q in ModeSingleWord.
func SingleWord(q string) *Pattern { return CompileMode(q, ModeSingleWord) }

// ContainedWord compiles q in ModeContainedWord.
func ContainedWord(q string) *Pattern { return CompileMode(q, ModeContainedWord) }

// Autosuggest compiles q in ModeAutosuggest.
func Autosuggest(q string) *Pattern { return CompileMode(q, ModeAutosuggest) }

// CompileMode builds a case-insensitive pattern for q. It never fails: an
// empty query matches nothing and a token made only of wildcards is taken
// literally.
func CompileMode(q string, mode Mode) *Pattern {
	q = Normalize(q)
	p := &Pattern{query: q, mode: mode, bounded: mode == ModeSingleWord || mode == ModeContainedWord}
	if q == "" {
		p.re, p.whole = matchNothing, matchNothing
		return p
	}

	var body string
	switch mode {
	case ModePhrase:
		tokens := strings.Fields(q)
		exprs := make([]string, len(tokens))
		for i, t := range tokens {
			exprs[i] = tokenExpr(t)
		}
		body = `(?:` + strings.Join(exprs, `\s*|\s*`) + `)+`
	case ModeAutosuggest:
		body = regexp.QuoteMeta(q) + wordChars
	default:
		tokens := strings.Fields(q)
		exprs := make([]string, len(tokens))
		for i, t := range tokens {
			exprs[i] = tokenExpr(t)
		}
		body = strings.Join(exprs, `\s+`)
	}

	re, err := regexp.Compile(caseMarker + body)
	if err != nil {
		body = regexp.QuoteMeta(q)
		re = regexp.MustCompile(caseMarker + body)
	}
	re.Longest()
	p.re = re
	p.whole = regexp.MustCompile(caseMarker + `^(?:` + body + `)$`)
	p.whole.Longest()
	return p
}

// Normalize strips case-insensitivity markers, trims the query and brings it
// to NFC. Normalize(Normalize(q)) == Normalize(q).
func Normalize(q string) string {
	return StripCaseMarkers(norm.NFC.String(q))
}

// StripCaseMarkers removes every "(?i)" from q so a derived pattern carries
// exactly one marker.
func StripCaseMarkers(q string) string {
	for strings.Contains(q, caseMarker) {
		q = strings.ReplaceAll(q, caseMarker, "")
	}
	return strings.TrimSpace(q)
}

// tokenExpr quotes a token and expands its wildcards. A token with no
// literal characters keeps its '*' literal.
func tokenExpr(token string) string {
	if strings.Trim(token, "*") == "" {
		return regexp.QuoteMeta(token)
	}
	parts := strings.Split(token, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return strings.Join(parts, wordChars)
}

// Query returns the normalized query the pattern was built from.
func (p *Pattern) Query() string { return p.query }

// Mode returns the compilation mode.
func (p *Pattern) Mode() Mode { return p.mode }

// String returns the regular expression used for searching.
func (p *Pattern) String() string { return p.re.String() }

// Empty reports whether the pattern was built from an empty query.
func (p *Pattern) Empty() bool { return p.query == "" }

// Matches reports whether all of s matches the pattern. In
// ModeContainedWord s only has to contain the query as a standalone word.
func (p *Pattern) Matches(s string) bool {
	if p.mode == ModeContainedWord {
		return p.MatchString(s)
	}
	return p.whole.MatchString(s)
}

// MatchString reports whether s contains a match.
func (p *Pattern) MatchString(s string) bool {
	return len(p.FindAllIndex(s, 1)) > 0
}

// FindAllIndex returns up to n (all if n < 0) non-overlapping, non-empty
// match spans in ascending order. Spans are byte offsets into s.
func (p *Pattern) FindAllIndex(s string, n int) [][]int {
	if p.Empty() || n == 0 {
		return nil
	}
	var out [][]int
	pos := 0
	for pos <= len(s) {
		loc := p.re.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := trimSpace(s, pos+loc[0], pos+loc[1])
		if end > start && (!p.bounded || (boundaryBefore(s, start) && boundaryAfter(s, end))) {
			out = append(out, []int{start, end})
			if n > 0 && len(out) == n {
				break
			}
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(s[pos+loc[0]:])
		if size == 0 {
			break
		}
		pos += loc[0] + size
	}
	return out
}

// IsBoundary reports whether r may delimit a standalone word.
func IsBoundary(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(BoundaryChars, r)
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return IsBoundary(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return IsBoundary(r)
}

// trimSpace shrinks [start,end) so it neither begins nor ends with whitespace.
func trimSpace(s string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}
