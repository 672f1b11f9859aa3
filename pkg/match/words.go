package match

import (
	"strings"

	"github.com/rubiojr/ocrsearch/pkg/ocr"
	"github.com/rubiojr/ocrsearch/pkg/query"
)

// WordMatch is a run of consecutive words matching a pattern. Start and End
// are byte offsets into the text returned by JoinWords for the same words.
type WordMatch struct {
	Words []*ocr.Word
	Start int
	End   int
}

// BBox returns the union of the words' boxes.
func (m WordMatch) BBox() ocr.BBox {
	var box ocr.BBox
	for _, w := range m.Words {
		box = box.Union(w.BBox)
	}
	return box
}

// Terms returns the matched part of each word.
func (m WordMatch) Terms() []string {
	out := make([]string, 0, len(m.Words))
	for _, w := range m.Words {
		if t := trimBoundary(w.Content); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinWords joins word contents with single spaces and returns the byte
// offset at which each word starts.
func JoinWords(words []*ocr.Word) (string, []int) {
	var sb strings.Builder
	offsets := make([]int, len(words))
	for i, w := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		offsets[i] = sb.Len()
		sb.WriteString(w.Content)
	}
	return sb.String(), offsets
}

// FindWordMatches scans words for runs whose space-joined text matches p as
// a whole. A run starts at a word that matches on its own and grows one word
// at a time while the joined text still matches. Leading and trailing
// boundary punctuation of each word is ignored.
func FindWordMatches(words []*ocr.Word, p *query.Pattern) []WordMatch {
	if p == nil || p.Empty() || len(words) == 0 {
		return nil
	}
	_, offsets := JoinWords(words)

	var out []WordMatch
	for i := 0; i < len(words); {
		phrase := trimBoundary(words[i].Content)
		if phrase == "" || !p.Matches(phrase) {
			i++
			continue
		}
		j := i + 1
		for j < len(words) {
			next := trimBoundary(words[j].Content)
			if next == "" || !p.Matches(phrase+" "+next) {
				break
			}
			phrase += " " + next
			j++
		}

		first, last := words[i].Content, words[j-1].Content
		start := offsets[i] + strings.Index(first, trimBoundary(first))
		lastTrimmed := trimBoundary(last)
		end := offsets[j-1] + strings.Index(last, lastTrimmed) + len(lastTrimmed)
		out = append(out, WordMatch{Words: words[i:j], Start: start, End: end})
		i = j
	}
	return out
}

func trimBoundary(s string) string {
	return strings.Trim(s, query.BoundaryChars+" \t\n")
}
