package fetch

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// HTTPFetcher abstracts HTTP calls for testability
type HTTPFetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// RealHTTPFetcher wraps http.Client for production use
type RealHTTPFetcher struct {
	client *http.Client
}

// NewRealHTTPFetcher creates a production HTTP fetcher. Timeouts come from
// the request context, so the client itself carries none.
func NewRealHTTPFetcher(client *http.Client) HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &RealHTTPFetcher{client: client}
}

func (f *RealHTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return f.client.Do(req)
}

type mockReply struct {
	status int
	body   string
	err    error
}

// MockHTTPFetcher simulates HTTP responses for testing. Replies registered
// for the same URL are served in order; the last one repeats.
type MockHTTPFetcher struct {
	mu      sync.Mutex
	replies map[string][]mockReply
	calls   map[string]int
}

// NewMockHTTPFetcher creates a mock HTTP fetcher
func NewMockHTTPFetcher() *MockHTTPFetcher {
	return &MockHTTPFetcher{
		replies: make(map[string][]mockReply),
		calls:   make(map[string]int),
	}
}

// AddResponse queues a response for a URL
func (m *MockHTTPFetcher) AddResponse(urlStr string, statusCode int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[urlStr] = append(m.replies[urlStr], mockReply{status: statusCode, body: body})
}

// AddError queues a transport error for a URL
func (m *MockHTTPFetcher) AddError(urlStr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[urlStr] = append(m.replies[urlStr], mockReply{err: err})
}

// Calls returns how many requests were made for a URL
func (m *MockHTTPFetcher) Calls(urlStr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[urlStr]
}

// TotalCalls returns the number of requests across all URLs
func (m *MockHTTPFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *MockHTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	urlStr := req.URL.String()
	m.mu.Lock()
	idx := m.calls[urlStr]
	m.calls[urlStr]++
	queue := m.replies[urlStr]
	m.mu.Unlock()

	// Return 404 for unknown URLs
	reply := mockReply{status: http.StatusNotFound, body: "Not Found"}
	if len(queue) > 0 {
		if idx >= len(queue) {
			idx = len(queue) - 1
		}
		reply = queue[idx]
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &http.Response{
		StatusCode: reply.status,
		Body:       io.NopCloser(strings.NewReader(reply.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}
