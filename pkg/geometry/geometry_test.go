package geometry

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rubiojr/ocrsearch/pkg/log"
	"github.com/rubiojr/ocrsearch/pkg/ocr"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeIndex struct {
	mu     sync.Mutex
	fields map[int]map[string]any
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeIndex) PageFields(ctx context.Context, record string, page int) (map[string]any, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.fields[page], nil
}

func (f *fakeIndex) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type panickyIndex struct{}

func (panickyIndex) PageFields(context.Context, string, int) (map[string]any, error) {
	panic("index exploded")
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return buf
}

func TestDimensionsForCachesLookups(t *testing.T) {
	idx := &fakeIndex{fields: map[int]map[string]any{
		7: {FieldWidth: int64(1200), FieldHeight: "1800"},
	}}
	r := NewResolver(idx)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := r.DimensionsFor(ctx, "PPN123", 7)
		if d != (Dimension{Width: 1200, Height: 1800}) {
			t.Fatalf("got %+v", d)
		}
	}
	if n := idx.calls.Load(); n != 1 {
		t.Fatalf("expected 1 index call, got %d", n)
	}
	if _, ok := r.Cached("PPN123", 7); !ok {
		t.Fatal("expected page to be cached")
	}
	if _, ok := r.Cached("PPN999", 7); ok {
		t.Fatal("cache must be keyed by record as well as page")
	}
}

func TestDimensionsForFailureReturnsSentinel(t *testing.T) {
	buf := captureLogs(t)
	idx := &fakeIndex{err: errors.New("connection refused")}
	r := NewResolver(idx)

	d := r.DimensionsFor(context.Background(), "PPN123", 7)
	if d != Unavailable {
		t.Fatalf("expected (0,0), got %+v", d)
	}
	if d.Available() {
		t.Fatal("sentinel must not be available")
	}
	if _, ok := r.Cached("PPN123", 7); ok {
		t.Fatal("failures must not be cached")
	}
	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("expected failure to be logged, got %q", buf.String())
	}

	// The index recovers; the same page resolves on the next request.
	idx.setErr(nil)
	idx.fields = map[int]map[string]any{7: {FieldWidth: 10.0, FieldHeight: 20.0}}
	if d := r.DimensionsFor(context.Background(), "PPN123", 7); d != (Dimension{Width: 10, Height: 20}) {
		t.Fatalf("expected recovery, got %+v", d)
	}
}

func TestDimensionsForMalformedFields(t *testing.T) {
	captureLogs(t)
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"missing document", nil},
		{"missing height", map[string]any{FieldWidth: 100}},
		{"non numeric", map[string]any{FieldWidth: "wide", FieldHeight: 100}},
		{"zero width", map[string]any{FieldWidth: 0, FieldHeight: 100}},
		{"empty multi value", map[string]any{FieldWidth: []any{}, FieldHeight: 100}},
		{"unsupported type", map[string]any{FieldWidth: true, FieldHeight: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&fakeIndex{fields: map[int]map[string]any{1: tt.fields}})
			if d := r.DimensionsFor(context.Background(), "rec", 1); d != Unavailable {
				t.Fatalf("expected sentinel, got %+v", d)
			}
		})
	}
}

func TestDimensionsForMultiValuedFields(t *testing.T) {
	r := NewResolver(&fakeIndex{fields: map[int]map[string]any{
		2: {FieldWidth: []any{"640", "1"}, FieldHeight: []any{480.0}},
	}})
	if d := r.DimensionsFor(context.Background(), "rec", 2); d != (Dimension{Width: 640, Height: 480}) {
		t.Fatalf("got %+v", d)
	}
}

func TestDimensionsForPanickingIndex(t *testing.T) {
	buf := captureLogs(t)
	r := NewResolver(panickyIndex{})
	if d := r.DimensionsFor(context.Background(), "PPN123", 7); d != Unavailable {
		t.Fatalf("expected sentinel, got %+v", d)
	}
	if !strings.Contains(buf.String(), "panicked") {
		t.Fatalf("expected panic to be logged, got %q", buf.String())
	}
}

func TestDimensionsForNilIndex(t *testing.T) {
	captureLogs(t)
	if d := NewResolver(nil).DimensionsFor(context.Background(), "rec", 1); d != Unavailable {
		t.Fatalf("expected sentinel, got %+v", d)
	}
}

func TestDimensionsForTimeout(t *testing.T) {
	captureLogs(t)
	idx := &fakeIndex{delay: time.Second, fields: map[int]map[string]any{1: {FieldWidth: 1, FieldHeight: 1}}}
	r := NewResolver(idx, WithTimeout(10*time.Millisecond))
	if d := r.DimensionsFor(context.Background(), "rec", 1); d != Unavailable {
		t.Fatalf("expected sentinel on timeout, got %+v", d)
	}
}

func TestDimensionsForConcurrentPopulatesOnce(t *testing.T) {
	idx := &fakeIndex{
		delay:  20 * time.Millisecond,
		fields: map[int]map[string]any{3: {FieldWidth: 800, FieldHeight: 600}},
	}
	r := NewResolver(idx)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d := r.DimensionsFor(context.Background(), "rec", 3); d != (Dimension{Width: 800, Height: 600}) {
				t.Errorf("got %+v", d)
			}
		}()
	}
	wg.Wait()

	if n := idx.calls.Load(); n != 1 {
		t.Fatalf("expected a single index lookup, got %d", n)
	}
}

func TestRelative(t *testing.T) {
	d := Dimension{Width: 200, Height: 400}
	got := d.Relative(ocr.BBox{X1: 20, Y1: 40, X2: 100, Y2: 200})
	want := RelBox{X1: 0.1, Y1: 0.1, X2: 0.5, Y2: 0.5}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if Unavailable.Relative(ocr.BBox{X2: 5, Y2: 5}) != (RelBox{}) {
		t.Fatal("unavailable dimensions must give a zero box")
	}
}
