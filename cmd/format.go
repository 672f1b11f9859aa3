package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/ocrsearch/pkg/results"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	highlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("232")).
			Background(lipgloss.Color("220"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	recordStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	summaryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("32")).
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("32")).
			Padding(0, 1).
			Margin(1, 0, 0, 0)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// renderHits renders a result list for the terminal, grouping hits by page
// and highlighting the matched text inside its snippet.
func renderHits(record, q string, list *results.AnnotationResultList) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s: %q", record, q)))
	b.WriteString("\n")

	if list.NumHits == 0 {
		b.WriteString(noDataStyle.Render("No hits."))
		b.WriteString("\n")
		return b.String()
	}

	page := -1
	for _, hit := range list.Hits {
		if hit.Page != page {
			page = hit.Page
			b.WriteString(headerStyle.Render(fmt.Sprintf("Page %d", page)))
			b.WriteString("\n")
		}
		line := hit.Context.Before + highlightStyle.Render(hit.Context.Match) + hit.Context.After
		b.WriteString("  " + strings.Join(strings.Fields(line), " "))
		b.WriteString(" " + metaStyle.Render(formatBox(hit)))
		b.WriteString("\n")
	}

	b.WriteString(summaryStyle.Render(fmt.Sprintf("%s hits: %s", formatNumber(list.NumHits), formatTerms(list.Terms()))))
	b.WriteString("\n")
	return b.String()
}

// formatBox prints relative coordinates when the page size was known and
// pixel coordinates otherwise.
func formatBox(hit *results.SearchHit) string {
	r := hit.Relative
	if r.X2 > 0 || r.Y2 > 0 {
		return fmt.Sprintf("[%.3f,%.3f %.3f,%.3f]", r.X1, r.Y1, r.X2, r.Y2)
	}
	b := hit.BBox
	return fmt.Sprintf("[%d,%d %d,%d px]", b.X1, b.Y1, b.X2, b.Y2)
}

// formatTerms lists terms by descending count, ties in first-seen order.
func formatTerms(list *results.SearchTermList) string {
	terms := list.Terms()
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Count > terms[j].Count })
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = fmt.Sprintf("%s (%d)", t.Match, t.Count)
	}
	return strings.Join(parts, ", ")
}

// renderSimilar formats "did you mean" suggestions, "" when there are none.
func renderSimilar(terms []results.SearchTerm) string {
	if len(terms) == 0 {
		return ""
	}
	words := make([]string, len(terms))
	for i, t := range terms {
		words[i] = recordStyle.Render(t.Match)
	}
	return metaStyle.Render("Did you mean:") + " " + strings.Join(words, ", ")
}
