// Package match locates query patterns in OCR words and lines.
//
// FindWordMatches works on a page's word sequence and reports runs of
// consecutive words. FindLineMatches joins lines into one text, matches the
// whole text and maps each match range back to the lines that contributed
// it. Both are pure; empty inputs give no matches.
package match
