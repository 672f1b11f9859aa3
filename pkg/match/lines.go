package match

import (
	"sort"
	"strings"

	"github.com/rubiojr/ocrsearch/pkg/ocr"
	"github.com/rubiojr/ocrsearch/pkg/query"
)

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// LineMatch is one pattern match in the joined line text and the lines it
// touches.
type LineMatch struct {
	Range Range
	Text  string
	Lines []*ocr.Line
}

// BBox returns the union of the matched lines' boxes.
func (m LineMatch) BBox() ocr.BBox {
	var box ocr.BBox
	for _, l := range m.Lines {
		box = box.Union(l.BBox)
	}
	return box
}

// LineText is the text of a sequence of lines joined by newlines, with an
// index from offsets back to lines.
type LineText struct {
	text   string
	starts []int
	ends   []int
	lines  []*ocr.Line
}

// JoinLines builds the joined text and its offset index.
func JoinLines(lines []*ocr.Line) *LineText {
	lt := &LineText{
		starts: make([]int, len(lines)),
		ends:   make([]int, len(lines)),
		lines:  lines,
	}
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		lt.starts[i] = sb.Len()
		sb.WriteString(l.Text())
		lt.ends[i] = sb.Len()
	}
	lt.text = sb.String()
	return lt
}

func (lt *LineText) String() string { return lt.text }

// LinesIn returns the lines whose text overlaps r, in order.
func (lt *LineText) LinesIn(r Range) []*ocr.Line {
	if r.End <= r.Start {
		return nil
	}
	first := sort.Search(len(lt.starts), func(i int) bool { return lt.starts[i] > r.Start }) - 1
	if first < 0 {
		first = 0
	}
	var out []*ocr.Line
	for i := first; i < len(lt.lines) && lt.starts[i] < r.End; i++ {
		if lt.ends[i] > r.Start && lt.ends[i] > lt.starts[i] {
			out = append(out, lt.lines[i])
		}
	}
	return out
}

// FindLineMatches joins lines, applies p to the whole text and maps every
// match back to the lines it covers. Matches are returned in document order.
func FindLineMatches(lines []*ocr.Line, p *query.Pattern) []LineMatch {
	if p == nil || p.Empty() || len(lines) == 0 {
		return nil
	}
	return JoinLines(lines).Find(p)
}

// Find applies p to the joined text.
func (lt *LineText) Find(p *query.Pattern) []LineMatch {
	spans := p.FindAllIndex(lt.text, -1)
	out := make([]LineMatch, 0, len(spans))
	for _, s := range spans {
		r := Range{Start: s[0], End: s[1]}
		out = append(out, LineMatch{Range: r, Text: lt.text[r.Start:r.End], Lines: lt.LinesIn(r)})
	}
	return out
}
