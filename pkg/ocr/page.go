package ocr

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// BBox is a page-relative bounding box in pixels.
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Empty reports whether the box has no area.
func (b BBox) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1
}

// Union returns the smallest box containing both b and o. Empty boxes are ignored.
func (b BBox) Union(o BBox) BBox {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return BBox{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}

// Word is a single recognized word.
type Word struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	BBox    BBox   `json:"bbox"`
	Page    int    `json:"page"`
}

// Line is an ordered run of words on one page.
type Line struct {
	ID    string  `json:"id"`
	Words []*Word `json:"-"`
	BBox  BBox    `json:"bbox"`
	Page  int     `json:"page"`
}

// Text returns the space-joined content of the line's words.
func (l *Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Content
	}
	return strings.Join(parts, " ")
}

// Page holds the words and lines of one page in reading order.
type Page struct {
	Number int
	// Width and Height are the page size in pixels, 0 when unknown.
	Width  int
	Height int
	Words  []*Word
	Lines  []*Line
}

// pageJSON is the on-disk layout: lines own their words.
type pageJSON struct {
	Number int `json:"page"`
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	Lines  []struct {
		ID    string `json:"id"`
		BBox  BBox   `json:"bbox"`
		Words []Word `json:"words"`
	} `json:"lines"`
}

// ReadPage decodes a JSON page. Word content is normalized to NFC so it
// compares equal to normalized queries.
func ReadPage(r io.Reader) (*Page, error) {
	var raw pageJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding page: %w", err)
	}

	page := &Page{Number: raw.Number, Width: raw.Width, Height: raw.Height}
	for li, rl := range raw.Lines {
		line := &Line{ID: rl.ID, BBox: rl.BBox, Page: raw.Number}
		deriveBox := rl.BBox.Empty()
		if line.ID == "" {
			line.ID = fmt.Sprintf("line_%d", li+1)
		}
		for wi := range rl.Words {
			w := rl.Words[wi]
			w.Content = norm.NFC.String(w.Content)
			w.Page = raw.Number
			if w.ID == "" {
				w.ID = fmt.Sprintf("%s_word_%d", line.ID, wi+1)
			}
			word := &w
			line.Words = append(line.Words, word)
			page.Words = append(page.Words, word)
			if deriveBox {
				line.BBox = line.BBox.Union(word.BBox)
			}
		}
		page.Lines = append(page.Lines, line)
	}
	return page, nil
}

// SetNumber renumbers the page together with its lines and words.
func (p *Page) SetNumber(n int) {
	p.Number = n
	for _, l := range p.Lines {
		l.Page = n
	}
	for _, w := range p.Words {
		w.Page = n
	}
}

// Marshal encodes the page in the layout accepted by ReadPage.
func (p *Page) Marshal() ([]byte, error) {
	var raw pageJSON
	raw.Number, raw.Width, raw.Height = p.Number, p.Width, p.Height
	for _, l := range p.Lines {
		entry := struct {
			ID    string `json:"id"`
			BBox  BBox   `json:"bbox"`
			Words []Word `json:"words"`
		}{ID: l.ID, BBox: l.BBox}
		for _, w := range l.Words {
			entry.Words = append(entry.Words, *w)
		}
		raw.Lines = append(raw.Lines, entry)
	}
	return json.Marshal(raw)
}

// Text returns the page text with words space-separated and lines newline-separated.
func (p *Page) Text() string {
	parts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		parts[i] = l.Text()
	}
	return strings.Join(parts, "\n")
}
