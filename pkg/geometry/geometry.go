// Package geometry resolves the pixel size of pages so hit boxes can be
// reported relative to the page.
//
// A Resolver may be shared between concurrent requests. Its cache is
// populated at most once per page under contention and never invalidated;
// failed lookups are logged, answered with Unavailable and not cached, so a
// later request can retry.
package geometry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rubiojr/ocrsearch/pkg/log"
	"github.com/rubiojr/ocrsearch/pkg/ocr"
	"golang.org/x/sync/singleflight"
)

// Index field names holding the page size.
const (
	FieldWidth  = "WIDTH"
	FieldHeight = "HEIGHT"
)

// ErrNoDocument is returned by an Index when the page is not indexed.
var ErrNoDocument = errors.New("no document")

// Index fetches the stored fields of a page document.
type Index interface {
	PageFields(ctx context.Context, record string, page int) (map[string]any, error)
}

// Dimension is a page size in pixels.
type Dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Unavailable is returned when a page size cannot be resolved.
var Unavailable = Dimension{}

// Available reports whether d holds a usable size.
func (d Dimension) Available() bool {
	return d.Width > 0 && d.Height > 0
}

// RelBox is a bounding box scaled to [0,1] by the page size.
type RelBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Relative scales b by d. It returns the zero box when d is unavailable.
func (d Dimension) Relative(b ocr.BBox) RelBox {
	if !d.Available() {
		return RelBox{}
	}
	w, h := float64(d.Width), float64(d.Height)
	return RelBox{
		X1: float64(b.X1) / w,
		Y1: float64(b.Y1) / h,
		X2: float64(b.X2) / w,
		Y2: float64(b.Y2) / h,
	}
}

// Resolver looks up and caches page sizes.
type Resolver struct {
	index   Index
	timeout time.Duration
	cache   sync.Map // cacheKey -> Dimension
	group   singleflight.Group
	log     *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout bounds every index lookup. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// NewResolver returns a resolver backed by index.
func NewResolver(index Index, opts ...Option) *Resolver {
	r := &Resolver{
		index: index,
		log:   log.ForService("geometry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func cacheKey(record string, page int) string {
	return record + "\x00" + strconv.Itoa(page)
}

// DimensionsFor returns the size of page of record. It never fails: on any
// lookup error it logs and returns Unavailable.
func (r *Resolver) DimensionsFor(ctx context.Context, record string, page int) Dimension {
	key := cacheKey(record, page)
	if v, ok := r.cache.Load(key); ok {
		return v.(Dimension)
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.cache.Load(key); ok {
			return v, nil
		}
		d, err := r.lookup(ctx, record, page)
		if err != nil {
			return nil, err
		}
		r.cache.Store(key, d)
		r.log.Debugf("cached page %d of %s: %dx%d", page, record, d.Width, d.Height)
		return d, nil
	})
	if err != nil {
		r.log.Warnf("page %d of %s: %v", page, record, err)
		return Unavailable
	}
	return v.(Dimension)
}

// Cached returns the cached size of a page without querying the index.
func (r *Resolver) Cached(record string, page int) (Dimension, bool) {
	v, ok := r.cache.Load(cacheKey(record, page))
	if !ok {
		return Unavailable, false
	}
	return v.(Dimension), true
}

func (r *Resolver) lookup(ctx context.Context, record string, page int) (d Dimension, err error) {
	if r.index == nil {
		return Unavailable, errors.New("no index configured")
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("index lookup panicked: %v", p)
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	fields, err := r.index.PageFields(ctx, record, page)
	if err != nil {
		return Unavailable, fmt.Errorf("index lookup: %w", err)
	}
	if fields == nil {
		return Unavailable, ErrNoDocument
	}

	width, err := intField(fields, FieldWidth)
	if err != nil {
		return Unavailable, err
	}
	height, err := intField(fields, FieldHeight)
	if err != nil {
		return Unavailable, err
	}
	return Dimension{Width: width, Height: height}, nil
}

// intField reads a positive integer field. Multi-valued fields use their
// first value.
func intField(fields map[string]any, name string) (int, error) {
	v, ok := fields[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing field %s", name)
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return 0, fmt.Errorf("empty field %s", name)
		}
		v = list[0]
	}

	var n int64
	var err error
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		n = int64(x)
	case json.Number:
		n, err = x.Int64()
	case string:
		n, err = strconv.ParseInt(x, 10, 64)
	case []byte:
		n, err = strconv.ParseInt(string(x), 10, 64)
	default:
		err = fmt.Errorf("unsupported type %T", v)
	}
	if err != nil {
		return 0, fmt.Errorf("malformed field %s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("malformed field %s: %d", name, n)
	}
	return int(n), nil
}
