package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// request carries one prepared API call through the dispatcher. Exactly one
// of rawBody and jsonBody may be set.
type request struct {
	op       Operation
	path     string // below /api/{version}/, segments already escaped
	page     int    // 0 = no page query parameter
	rawBody  []byte
	jsonBody any
}

// stream is the dispatcher: it returns the lazy result stream for one call.
// The gate permit is acquired on first pull and held until the stream is
// drained, fails, or is abandoned; every exit path runs the deferred release
// and body close, so cancellation can never leak a permit or a connection.
func (c *Client) stream(ctx context.Context, req request) ResultSeq {
	return func(yield func(Result, error) bool) {
		op := req.op.String()

		waitStart := time.Now()
		release, err := c.gates[req.op].Acquire(ctx)
		if err != nil {
			yield(Result{}, fmt.Errorf("acquire %s permit: %w", op, err))
			return
		}
		defer release()
		gateWaitSeconds.WithLabelValues(op).Observe(time.Since(waitStart).Seconds())

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				yield(Result{}, fmt.Errorf("request throttle: %w", err))
				return
			}
		}

		httpReq, err := c.newHTTPRequest(ctx, req)
		if err != nil {
			yield(Result{}, err)
			return
		}

		requestID := uuid.NewString()
		c.logger.Debug().
			Str("request_id", requestID).
			Str("method", httpReq.Method).
			Str("path", httpReq.URL.Path).
			Str("query", httpReq.URL.RawQuery).
			Msg("dispatching request")

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			apiErr := c.classifyTransport(err)
			countError(apiErr)
			c.logger.Error().Str("request_id", requestID).Err(err).Msg("request failed")
			yield(Result{}, apiErr)
			return
		}
		defer resp.Body.Close()

		requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

		if apiErr := classifyStatus(resp); apiErr != nil {
			countError(apiErr)
			c.logger.Error().
				Str("request_id", requestID).
				Int("status", resp.StatusCode).
				Str("kind", string(apiErr.Kind)).
				Msg("request rejected")
			yield(Result{}, apiErr)
			return
		}

		counted := func(res Result, err error) bool {
			if err != nil {
				countError(err)
			} else {
				recordsTotal.WithLabelValues(op).Inc()
			}
			return yield(res, err)
		}

		switch opTable[req.op].decode {
		case decodeNDJSON:
			decodeNDJSONBody(resp.Body, counted)
		case decodeErrorEnvelope:
			decodeErrorEnvelopeBody(resp.Body, counted)
		default:
			decodeEnvelopeBody(resp.Body, counted)
		}
	}
}

// newHTTPRequest builds the outgoing request: base URL, versioned path,
// optional page parameter, auth and content headers, and at most one body.
func (c *Client) newHTTPRequest(ctx context.Context, req request) (*http.Request, error) {
	if req.rawBody != nil && req.jsonBody != nil {
		return nil, fmt.Errorf("sintel: raw and JSON bodies are mutually exclusive")
	}

	var body io.Reader
	if req.rawBody != nil {
		body = bytes.NewReader(req.rawBody)
	} else if req.jsonBody != nil {
		encoded, err := json.Marshal(req.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	rawURL := strings.TrimRight(c.baseURL, "/") + "/api/" + c.apiVersion + "/" + req.path

	httpReq, err := http.NewRequestWithContext(ctx, opTable[req.op].method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if req.page > 0 {
		q := httpReq.URL.Query()
		q.Set("page", strconv.Itoa(req.page))
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "apikey "+c.apiKey)
	return httpReq, nil
}

// classifyTransport maps a transport-level failure. With a proxy configured
// the failure is attributed to the proxy hop; otherwise it stays a plain
// local error, distinguishable from the API taxonomy.
func (c *Client) classifyTransport(err error) error {
	if c.proxied {
		return newProxyUnreachable(err)
	}
	return fmt.Errorf("sintel: transport: %w", err)
}
