package client

import (
	"encoding/json"
	"errors"
	"iter"

	"github.com/tidwall/gjson"
)

// Record is one opaque API record, kept verbatim so field order and unknown
// fields survive a round trip through the client.
type Record = json.RawMessage

// Metadata holds every top-level field of an enveloped response except the
// results list. It is nil for NDJSON and error-envelope results. All records
// decoded from one response share the same Metadata value.
type Metadata map[string]json.RawMessage

// MaxPage returns the server-reported pagination bound. A missing or
// non-numeric value falls back to 1 so that wrapping a non-paginated
// response in a page walk terminates after a single page.
func (m Metadata) MaxPage() int {
	raw, ok := m["max_page"]
	if !ok {
		return 1
	}
	v := gjson.ParseBytes(raw)
	if v.Type != gjson.Number {
		return 1
	}
	return int(v.Int())
}

// MyIP returns the caller-visible IP address the user endpoint reports.
func (m Metadata) MyIP() (string, bool) {
	raw, ok := m["myip"]
	if !ok {
		return "", false
	}
	v := gjson.ParseBytes(raw)
	if v.Type != gjson.String {
		return "", false
	}
	return v.String(), true
}

// Result is one (metadata, record) pair yielded by an API call.
type Result struct {
	Meta   Metadata
	Record Record
}

// ResultSeq is the lazy stream of results produced by every API operation.
// Iteration is pull-based: the response body is read one unit at a time as
// the consumer advances, and abandoning the loop aborts the call, closes the
// body and releases the operation's gate permit.
type ResultSeq = iter.Seq2[Result, error]

// ErrNoResults is returned by First when the stream yields nothing.
var ErrNoResults = errors.New("sintel: no results")

// Collect drains a result stream into a slice. It stops on the first error
// and returns the results gathered so far along with that error.
func Collect(seq ResultSeq) ([]Result, error) {
	var results []Result
	for res, err := range seq {
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// First returns the first result of a stream, aborting the underlying call
// afterwards.
func First(seq ResultSeq) (Result, error) {
	for res, err := range seq {
		return res, err
	}
	return Result{}, ErrNoResults
}

// failSeq adapts an eagerly detected error to the stream signature without
// sending any request.
func failSeq(err error) ResultSeq {
	return func(yield func(Result, error) bool) {
		yield(Result{}, err)
	}
}
