package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rubiojr/ocrsearch/pkg/db"
	"github.com/rubiojr/ocrsearch/pkg/geometry"
	"github.com/rubiojr/ocrsearch/pkg/log"
	"github.com/rubiojr/ocrsearch/pkg/ocr"
	"github.com/rubiojr/ocrsearch/pkg/query"
)

// ErrPageNotFound is returned when a page is not in the index.
var ErrPageNotFound = fmt.Errorf("page not found: %w", geometry.ErrNoDocument)

// PageIndex stores OCR pages and their sizes in SQLite. Page text is indexed
// with FTS5 so a record search only loads pages that can contain a hit.
type PageIndex struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	log     *log.Logger
}

// Open opens (creating if needed) the index at dbPath and migrates it.
func Open(ctx context.Context, dbPath string) (*PageIndex, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := db.InitializeDatabase(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		conn.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &PageIndex{
		db:      conn,
		encoder: encoder,
		decoder: decoder,
		log:     log.ForService("storage"),
	}, nil
}

// Close releases the database and the codecs.
func (s *PageIndex) Close() error {
	s.decoder.Close()
	if err := s.encoder.Close(); err != nil {
		s.log.Warnf("closing zstd encoder: %v", err)
	}
	return s.db.Close()
}

// StorePages replaces the given pages of record. Pages whose stored
// payload is unchanged are skipped. It returns the number of pages written.
func (s *PageIndex) StorePages(ctx context.Context, record string, pages []*ocr.Page) (int, error) {
	if len(pages) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				s.log.Warnf("rolling back page import: %v", err)
			}
		}
	}()

	written := 0
	for _, page := range pages {
		changed, err := s.storePage(ctx, tx, record, page)
		if err != nil {
			return 0, err
		}
		if changed {
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing pages: %w", err)
	}
	committed = true
	s.log.Debugf("%s: %d of %d pages written", record, written, len(pages))
	return written, nil
}

func (s *PageIndex) storePage(ctx context.Context, tx *sql.Tx, record string, page *ocr.Page) (bool, error) {
	payload, err := page.Marshal()
	if err != nil {
		return false, fmt.Errorf("encoding page %d: %w", page.Number, err)
	}
	checksum := int64(xxhash.Sum64(payload))

	var existing sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT checksum FROM pages WHERE record_id = ? AND page_no = ?",
		record, page.Number).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("reading checksum of page %d: %w", page.Number, err)
	case existing.Valid && existing.Int64 == checksum:
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM pages_fts WHERE rowid IN
			(SELECT rowid FROM pages WHERE record_id = ? AND page_no = ?)`,
		record, page.Number)
	if err != nil {
		return false, fmt.Errorf("clearing page %d from FTS: %w", page.Number, err)
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM pages WHERE record_id = ? AND page_no = ?", record, page.Number)
	if err != nil {
		return false, fmt.Errorf("clearing page %d: %w", page.Number, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO pages (record_id, page_no, width, height, ocr, checksum)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record, page.Number, nullableSize(page.Width), nullableSize(page.Height),
		s.encoder.EncodeAll(payload, nil), checksum)
	if err != nil {
		return false, fmt.Errorf("inserting page %d: %w", page.Number, err)
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("reading rowid of page %d: %w", page.Number, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pages_fts (rowid, text, record_id, page_no)
		VALUES (?, ?, ?, ?)`,
		rowid, page.Text(), record, page.Number)
	if err != nil {
		return false, fmt.Errorf("inserting page %d into FTS: %w", page.Number, err)
	}
	return true, nil
}

func nullableSize(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n > 0}
}

// PageFields returns the stored size fields of a page, keyed by
// geometry.FieldWidth and geometry.FieldHeight. Unknown sizes are omitted.
func (s *PageIndex) PageFields(ctx context.Context, record string, page int) (map[string]any, error) {
	var width, height sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT width, height FROM pages WHERE record_id = ? AND page_no = ?",
		record, page).Scan(&width, &height)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying page %d of %s: %w", page, record, err)
	}

	fields := make(map[string]any, 2)
	if width.Valid {
		fields[geometry.FieldWidth] = width.Int64
	}
	if height.Valid {
		fields[geometry.FieldHeight] = height.Int64
	}
	return fields, nil
}

// Pages loads the pages of record in page order. A non-empty q limits
// the result to pages whose text matches it.
func (s *PageIndex) Pages(ctx context.Context, record, q string) ([]*ocr.Page, error) {
	var rows *sql.Rows
	var err error

	if match := FTSQuery(q); match != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT p.ocr
			FROM pages p
			JOIN pages_fts fts ON p.rowid = fts.rowid
			WHERE pages_fts MATCH ? AND p.record_id = ?
			ORDER BY p.page_no`, match, record)
	} else {
		rows, err = s.db.QueryContext(ctx,
			"SELECT ocr FROM pages WHERE record_id = ? ORDER BY page_no", record)
	}
	if err != nil {
		return nil, fmt.Errorf("querying pages of %s: %w", record, err)
	}
	defer rows.Close()

	var pages []*ocr.Page
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		raw, err := s.decoder.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing page: %w", err)
		}
		page, err := ocr.ReadPage(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// Records lists indexed records with their page counts.
func (s *PageIndex) Records(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT record_id, COUNT(*) FROM pages GROUP BY record_id")
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var record string
		var n int
		if err := rows.Scan(&record, &n); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out[record] = n
	}
	return out, rows.Err()
}

// FTSQuery turns a highlighting query into an FTS5 expression selecting the
// pages that hold a word starting with one of the query tokens. Each token
// becomes a quoted prefix term built from the text before its first
// wildcard, and the terms are OR-ed. It returns "" when a token has no
// letter or digit before its first wildcard, meaning every page must be
// scanned.
func FTSQuery(q string) string {
	tokens := strings.Fields(query.Normalize(q))
	if len(tokens) == 0 {
		return ""
	}
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		prefix, _, _ := strings.Cut(token, "*")
		prefix = strings.Trim(prefix, `.:,;!?()"'`)
		if !strings.ContainsFunc(prefix, isWordRune) {
			return ""
		}
		terms = append(terms, `"`+strings.ReplaceAll(prefix, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " OR ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
