// Package testutil provides a configurable mock Sintel API server for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior of a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock Sintel API server. Besides serving
// configured responses it tracks request counts and the peak number of
// simultaneously in-flight requests, which concurrency-gate tests assert on.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc

	requestCount int
	pathCounts   map[string]int
	inFlight     int
	maxInFlight  int
	lastHeader   http.Header
}

// NewMockAPI creates a started mock server. Callers must Close it.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.lastHeader = r.Header.Clone()
		mock.inFlight++
		if mock.inFlight > mock.maxInFlight {
			mock.maxInFlight = mock.inFlight
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.inFlight--
			mock.mu.Unlock()
		}()

		if exists {
			handler(w, r)
			return
		}
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server base URL.
func (m *MockAPI) URL() string { return m.server.URL }

// Close shuts down the mock server.
func (m *MockAPI) Close() { m.server.Close() }

// SetHandler installs a custom handler for a path (below /api/v2/...).
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the total number of requests served.
func (m *MockAPI) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// CountFor returns the number of requests served for one path.
func (m *MockAPI) CountFor(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pathCounts[path]
}

// MaxInFlight returns the peak number of simultaneous requests.
func (m *MockAPI) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockAPI) LastRequestHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeader
}

func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"count":0,"error":0,"max_page":1,"page":1,"status":"ok","total":0,"results":[]}`))
}

// EnvelopeBody builds an enveloped JSON response with the given max_page and
// record objects.
func EnvelopeBody(maxPage int, records ...string) string {
	return fmt.Sprintf(`{"count":%d,"error":0,"max_page":%d,"status":"ok","results":[%s]}`,
		len(records), maxPage, strings.Join(records, ","))
}

// NDJSONBody joins records into a newline-delimited stream with a trailing
// newline.
func NDJSONBody(records ...string) string {
	if len(records) == 0 {
		return ""
	}
	return strings.Join(records, "\n") + "\n"
}

// BadRequestBody builds the {"text","error"} diagnostic body of a 400.
func BadRequestBody(text string, code int) string {
	return fmt.Sprintf(`{"text":%q,"error":%d}`, text, code)
}
