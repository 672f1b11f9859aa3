package query

import (
	"reflect"
	"strings"
	"testing"
)

func TestSingleWordBoundaries(t *testing.T) {
	p := SingleWord("cat")

	tests := []struct {
		text string
		want bool
	}{
		{"a cat.", true},
		{"cat", true},
		{"(cat)", true},
		{"the CAT sat", true},
		{"category", false},
		{"bobcat", false},
		{"cat-like", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := p.MatchString(tt.text); got != tt.want {
				t.Errorf("SingleWord(cat).MatchString(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSingleWordAdjacentMatches(t *testing.T) {
	p := SingleWord("cat")
	got := p.FindAllIndex("cat cat,cat", -1)
	want := [][]int{{0, 3}, {4, 7}, {8, 11}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindAllIndex = %v, want %v", got, want)
	}
}

func TestSingleWordWholeMatch(t *testing.T) {
	p := SingleWord("cat")
	if !p.Matches("Cat") {
		t.Error("expected whole match for Cat")
	}
	if p.Matches("a cat") {
		t.Error("single word mode must not accept surrounding text")
	}
}

func TestContainedWord(t *testing.T) {
	p := ContainedWord("cat")
	if !p.Matches("there is a cat; it sleeps") {
		t.Error("expected contained match")
	}
	if p.Matches("concatenate") {
		t.Error("contained word must not match inside a longer word")
	}
}

func TestPhraseWildcards(t *testing.T) {
	p := Compile("diese* schönste*")

	tests := []struct {
		text string
		want bool
	}{
		{"dieser", true},
		{"Diese", true},
		{"schönsten", true},
		{"dieser schönsten", true},
		{"dieser   schönsten", true},
		{"SCHÖNSTE", true},
		{"schön", false},
		{"dieser Tag", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := p.Matches(tt.text); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestPhraseFindTrimsWhitespace(t *testing.T) {
	p := Compile("diese*")
	text := "Ich sah dieser Tage"
	got := p.FindAllIndex(text, -1)
	if len(got) != 1 {
		t.Fatalf("expected one match, got %v", got)
	}
	if s := text[got[0][0]:got[0][1]]; s != "dieser" {
		t.Errorf("matched %q, want %q", s, "dieser")
	}
}

func TestAutosuggest(t *testing.T) {
	p := Autosuggest("schö")
	if !p.Matches("schönste") {
		t.Error("expected prefix completion to match")
	}
	if p.Matches("unschön") {
		t.Error("prefix must anchor at the start")
	}
}

func TestEmptyQueryMatchesNothing(t *testing.T) {
	for _, q := range []string{"", "   ", "(?i)", "(?i) (?i)"} {
		for _, mode := range []Mode{ModePhrase, ModeSingleWord, ModeContainedWord, ModeAutosuggest} {
			p := CompileMode(q, mode)
			if !p.Empty() {
				t.Errorf("CompileMode(%q, %s) not empty", q, mode)
			}
			if p.MatchString("anything at all") || p.Matches("") {
				t.Errorf("CompileMode(%q, %s) matched", q, mode)
			}
		}
	}
}

func TestWildcardOnlyTokenIsLiteral(t *testing.T) {
	p := Compile("*")
	if p.MatchString("plain words") {
		t.Error("a lone wildcard must not match every word")
	}
	if !p.MatchString("footnote *") {
		t.Error("a lone wildcard should match a literal asterisk")
	}
}

func TestMetacharactersAreQuoted(t *testing.T) {
	p := Compile("a.b")
	if p.MatchString("axb") {
		t.Error("dot must be literal")
	}
	if !p.MatchString("see a.b here") {
		t.Error("expected literal match")
	}
}

func TestCaseMarkerStripping(t *testing.T) {
	queries := []string{"cat", "diese* schönste*", "a.b", "schö"}
	for _, q := range queries {
		for _, mode := range []Mode{ModePhrase, ModeSingleWord, ModeContainedWord, ModeAutosuggest} {
			once := CompileMode("(?i)"+q, mode)
			plain := CompileMode(q, mode)
			twice := CompileMode(once.Query(), mode)

			if once.String() != plain.String() || twice.String() != once.String() {
				t.Errorf("%s %q: patterns differ: %q %q %q", mode, q, once, plain, twice)
			}
			if n := strings.Count(once.String(), "(?i)"); n != 1 {
				t.Errorf("%s %q: %d case markers in %q", mode, q, n, once)
			}
		}
	}
}

func TestDeterministicSpans(t *testing.T) {
	text := "Diese schönste Stadt, dieser Berg und die schönsten Täler."
	for _, q := range []string{"diese* schönste*", "die", "schönste*"} {
		a := Compile(q).FindAllIndex(text, -1)
		b := Compile(q).FindAllIndex(text, -1)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%q: spans differ between compilations: %v vs %v", q, a, b)
		}
	}
}

func TestFindAllIndexLimit(t *testing.T) {
	p := Compile("a")
	if got := p.FindAllIndex("a a a", 2); len(got) != 2 {
		t.Fatalf("expected 2 spans, got %v", got)
	}
	if got := p.FindAllIndex("a a a", 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
