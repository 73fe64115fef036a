package client

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

// decodeKind selects how an operation's response body becomes a result
// stream. The binding is static per operation, never inferred from content.
type decodeKind int

const (
	// decodeEnvelope parses one JSON object holding a results list plus
	// arbitrary metadata fields.
	decodeEnvelope decodeKind = iota

	// decodeNDJSON reads one JSON value per line without buffering the
	// whole body. Used for unbounded bulk and export payloads.
	decodeNDJSON

	// decodeErrorEnvelope yields the whole body as a single record. Used
	// for operations whose success response is one object, not a list.
	decodeErrorEnvelope
)

// decodeEnvelopeBody parses the entire body as one JSON object, splits off
// the results list and yields one pair per record. The metadata map is
// shared across every pair of the response.
func decodeEnvelopeBody(body io.Reader, yield func(Result, error) bool) {
	raw, err := io.ReadAll(body)
	if err != nil {
		yield(Result{}, newDecodeError("read response body", err))
		return
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		yield(Result{}, newDecodeError("parse response envelope", err))
		return
	}
	rawResults, ok := top["results"]
	if !ok {
		yield(Result{}, newDecodeError("response envelope has no results field", nil))
		return
	}
	var records []json.RawMessage
	if err := json.Unmarshal(rawResults, &records); err != nil {
		yield(Result{}, newDecodeError("parse results list", err))
		return
	}
	delete(top, "results")
	meta := Metadata(top)
	for _, rec := range records {
		if !yield(Result{Meta: meta, Record: Record(rec)}, nil) {
			return
		}
	}
}

// decodeNDJSONBody reads the body line by line, yielding each non-empty line
// as one record. The producer suspends between lines until the consumer pulls
// the next result, so arbitrarily large streams run in bounded memory. A
// malformed line fails the whole stream; a trailing line without a newline is
// still decoded, so a stream cut mid-record surfaces as a decode error rather
// than silent truncation.
func decodeNDJSONBody(body io.Reader, yield func(Result, error) bool) {
	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if !json.Valid(trimmed) {
				yield(Result{}, newDecodeError("malformed ndjson line", nil))
				return
			}
			if !yield(Result{Record: Record(trimmed)}, nil) {
				return
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			yield(Result{}, newDecodeError("read ndjson stream", err))
			return
		}
	}
}

// decodeErrorEnvelopeBody parses the body as one JSON object and yields it
// verbatim as a single record.
func decodeErrorEnvelopeBody(body io.Reader, yield func(Result, error) bool) {
	raw, err := io.ReadAll(body)
	if err != nil {
		yield(Result{}, newDecodeError("read response body", err))
		return
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		yield(Result{}, newDecodeError("parse response object", err))
		return
	}
	yield(Result{Record: Record(bytes.TrimSpace(raw))}, nil)
}
