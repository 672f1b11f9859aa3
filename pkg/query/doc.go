// Package query compiles free-text search queries into reusable,
// case-insensitive patterns.
//
// Four modes are supported:
//
//   - ModePhrase: each '*' stands for any run of letters, digits, '_' or '-';
//     whitespace between tokens matches any amount of whitespace and the
//     tokens may follow each other in any contiguous run.
//   - ModeSingleWord: the query as a standalone word. Boundaries are the text
//     ends, whitespace or one of BoundaryChars. RE2 has no lookaround, so
//     the boundaries are checked around each candidate match instead of
//     being part of the expression.
//   - ModeContainedWord: like ModeSingleWord, but Matches accepts surrounding text.
//   - ModeAutosuggest: the literal query followed by any word characters.
//
// Compilation never fails. Queries may carry "(?i)" markers; they are
// stripped before the pattern is derived so the result holds exactly one.
package query
