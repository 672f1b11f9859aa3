// Package ocr holds the word and line structures the highlighter scans.
//
// Words and lines are read-only inputs. They are produced by an OCR format
// reader upstream; ReadPage accepts a small JSON layout where each line lists
// its words with page-relative pixel boxes:
//
//	{"page": 7, "lines": [{"id": "l1", "words": [
//	    {"id": "w1", "content": "Diese", "bbox": {"x1": 10, "y1": 10, "x2": 60, "y2": 30}}]}]}
package ocr
