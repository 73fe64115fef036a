package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/sintelhq/go-sintel/pkg/client"
)

// pageStub records which pages were fetched and serves canned per-page
// streams.
type pageStub struct {
	fetched []int
	pages   map[int]func(yield func(client.Result, error) bool)
}

func (s *pageStub) fetch(_ context.Context, page int) client.ResultSeq {
	s.fetched = append(s.fetched, page)
	if fn, ok := s.pages[page]; ok {
		return fn
	}
	return func(yield func(client.Result, error) bool) {}
}

// pageOf builds a one-record page reporting the given max_page.
func pageOf(t *testing.T, page, maxPage int) func(yield func(client.Result, error) bool) {
	t.Helper()
	meta := client.Metadata{"max_page": json.RawMessage(fmt.Sprintf("%d", maxPage))}
	record := client.Record(fmt.Sprintf(`{"page":%d}`, page))
	return func(yield func(client.Result, error) bool) {
		yield(client.Result{Meta: meta, Record: record}, nil)
	}
}

func drain(t *testing.T, seq func(yield func(client.Result, error) bool)) ([]string, error) {
	t.Helper()
	var records []string
	for res, err := range seq {
		if err != nil {
			return records, err
		}
		records = append(records, string(res.Record))
	}
	return records, nil
}

func TestWalk_VisitsEveryPageOnce(t *testing.T) {
	stub := &pageStub{pages: map[int]func(func(client.Result, error) bool){
		1: pageOf(t, 1, 3),
		2: pageOf(t, 2, 3),
		3: pageOf(t, 3, 3),
	}}

	records, err := drain(t, Walk(context.Background(), stub.fetch, 1, 0))
	if err != nil {
		t.Fatalf("walk error = %v", err)
	}

	want := []string{`{"page":1}`, `{"page":2}`, `{"page":3}`}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record[%d] = %s, want %s", i, records[i], want[i])
		}
	}
	if fmt.Sprint(stub.fetched) != "[1 2 3]" {
		t.Errorf("fetched pages = %v, want [1 2 3]", stub.fetched)
	}
}

func TestWalk_ShrinkingHintStopsEarly(t *testing.T) {
	// Page 1 promises 3 pages, page 2 revises down to 2. The walk must
	// believe the newer, smaller bound and never fetch page 3.
	stub := &pageStub{pages: map[int]func(func(client.Result, error) bool){
		1: pageOf(t, 1, 3),
		2: pageOf(t, 2, 2),
		3: pageOf(t, 3, 3),
	}}

	records, err := drain(t, Walk(context.Background(), stub.fetch, 1, 0))
	if err != nil {
		t.Fatalf("walk error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if fmt.Sprint(stub.fetched) != "[1 2]" {
		t.Errorf("fetched pages = %v, want [1 2]", stub.fetched)
	}
}

func TestWalk_CallerBound(t *testing.T) {
	tests := []struct {
		name        string
		first, last int
		serverMax   int
		wantFetched string
	}{
		{
			// The caller asks for fewer pages than the server has.
			name:  "caller bound below server max",
			first: 1, last: 2, serverMax: 5,
			wantFetched: "[1 2]",
		},
		{
			// The caller asks for more pages than exist.
			name:  "server max below caller bound",
			first: 1, last: 10, serverMax: 2,
			wantFetched: "[1 2]",
		},
		{
			name:  "window not starting at one",
			first: 3, last: 4, serverMax: 9,
			wantFetched: "[3 4]",
		},
		{
			name:  "single page corpus",
			first: 1, last: 0, serverMax: 1,
			wantFetched: "[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &pageStub{pages: map[int]func(func(client.Result, error) bool){}}
			for p := 1; p <= 10; p++ {
				stub.pages[p] = pageOf(t, p, tt.serverMax)
			}

			if _, err := drain(t, Walk(context.Background(), stub.fetch, tt.first, tt.last)); err != nil {
				t.Fatalf("walk error = %v", err)
			}
			if got := fmt.Sprint(stub.fetched); got != tt.wantFetched {
				t.Errorf("fetched pages = %v, want %s", stub.fetched, tt.wantFetched)
			}
		})
	}
}

func TestWalk_ErrorStopsWalk(t *testing.T) {
	boom := errors.New("boom")
	stub := &pageStub{pages: map[int]func(func(client.Result, error) bool){
		1: pageOf(t, 1, 3),
		2: func(yield func(client.Result, error) bool) {
			yield(client.Result{}, boom)
		},
		3: pageOf(t, 3, 3),
	}}

	records, err := drain(t, Walk(context.Background(), stub.fetch, 1, 0))
	if !errors.Is(err, boom) {
		t.Fatalf("walk error = %v, want boom", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records before the failure, want 1", len(records))
	}
	if fmt.Sprint(stub.fetched) != "[1 2]" {
		t.Errorf("fetched pages = %v, want [1 2]", stub.fetched)
	}
}

func TestWalk_NoMaxPageTerminates(t *testing.T) {
	// Results without pagination metadata report max_page 1, so wrapping a
	// non-paginated operation in a walk fetches exactly one page.
	stub := &pageStub{pages: map[int]func(func(client.Result, error) bool){
		1: func(yield func(client.Result, error) bool) {
			yield(client.Result{Meta: client.Metadata{}, Record: client.Record(`{"a":1}`)}, nil)
		},
	}}

	records, err := drain(t, WalkAll(context.Background(), stub.fetch))
	if err != nil {
		t.Fatalf("walk error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
	if fmt.Sprint(stub.fetched) != "[1]" {
		t.Errorf("fetched pages = %v, want [1]", stub.fetched)
	}
}

func TestWalk_EmptyFirstPageTerminates(t *testing.T) {
	stub := &pageStub{pages: map[int]func(func(client.Result, error) bool){}}

	records, err := drain(t, WalkAll(context.Background(), stub.fetch))
	if err != nil {
		t.Fatalf("walk error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
	if fmt.Sprint(stub.fetched) != "[1]" {
		t.Errorf("fetched pages = %v, want [1]", stub.fetched)
	}
}

func TestWalk_ConsumerBreakStopsFetching(t *testing.T) {
	stub := &pageStub{pages: map[int]func(func(client.Result, error) bool){
		1: pageOf(t, 1, 5),
		2: pageOf(t, 2, 5),
	}}

	for res, err := range Walk(context.Background(), stub.fetch, 1, 0) {
		if err != nil {
			t.Fatalf("walk error = %v", err)
		}
		if string(res.Record) == `{"page":1}` {
			break
		}
	}

	if fmt.Sprint(stub.fetched) != "[1]" {
		t.Errorf("fetched pages = %v, want [1] after consumer break", stub.fetched)
	}
}
