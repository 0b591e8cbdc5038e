package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefix = "/images/logos"

func testConfig(base string) config.FetchConfig {
	cfg := config.Default().Fetch
	cfg.BaseURL = base
	cfg.RetryDelay = 0
	cfg.Timeout = time.Second
	return cfg
}

func newTestClient(t *testing.T, mock *MockHTTPFetcher) *Client {
	t.Helper()
	return NewClient(testConfig("http://site.test"), prefix, mock)
}

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestHasLocalIconAndStripQuery(t *testing.T) {
	assert.True(t, HasLocalIcon("/images/logos/x.webp", prefix))
	assert.True(t, HasLocalIcon("https://cdn.site/images/logos/x.webp", prefix))
	assert.False(t, HasLocalIcon("", prefix))
	assert.False(t, HasLocalIcon("https://other.example/x.png", prefix))

	assert.Equal(t, "/images/logos/x.webp", StripQuery("/images/logos/x.webp?t=1700000000"))
	assert.Equal(t, "/images/logos/x.webp", StripQuery("/images/logos/x.webp"))
}

func TestResolveURLEscapes(t *testing.T) {
	c := newTestClient(t, NewMockHTTPFetcher())
	assert.Equal(t,
		"http://site.test/api/icon-resolve?url=https%3A%2F%2Fgo.dev%2F%3Fq%3D1",
		c.ResolveURL("https://go.dev/?q=1"))
}

func TestResolveSuccessStripsQuery(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	mock.AddResponse(c.ResolveURL("https://go.dev"), 200, `{"icon":"/images/logos/go.webp?t=99","name":"Go"}`)

	icon, attempts, err := c.Resolve(context.Background(), "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "/images/logos/go.webp", icon)
	assert.Equal(t, 1, attempts)
}

func TestResolveRemoteIconIsNotLocal(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	mock.AddResponse(c.ResolveURL("https://x.dev"), 200, `{"icon":"https://x.dev/favicon.ico"}`)

	icon, _, err := c.Resolve(context.Background(), "https://x.dev")
	require.NoError(t, err)
	assert.Empty(t, icon)
}

func TestResolveNeverRetries404(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	target := c.ResolveURL("https://gone.dev")

	_, attempts, err := c.Resolve(context.Background(), "https://gone.dev")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, mock.Calls(target))
}

func TestResolveRetriesTransientFailures(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	target := c.ResolveURL("https://flaky.dev")
	mock.AddResponse(target, 503, "busy")
	mock.AddResponse(target, 200, `{"icon":"/images/logos/flaky.webp"}`)

	icon, attempts, err := c.Resolve(context.Background(), "https://flaky.dev")
	require.NoError(t, err)
	assert.Equal(t, "/images/logos/flaky.webp", icon)
	assert.Equal(t, 2, attempts)
}

func TestResolveGivesUpAfterAttemptLimit(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	target := c.ResolveURL("https://down.dev")
	mock.AddError(target, errors.New("connection refused"))

	_, attempts, err := c.Resolve(context.Background(), "https://down.dev")
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, mock.Calls(target))
}

func TestResolveRejectsMalformedResponse(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	target := c.ResolveURL("https://odd.dev")
	mock.AddResponse(target, 200, `{"icon": 7}`)

	_, attempts, err := c.Resolve(context.Background(), "https://odd.dev")
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, attempts)

	mock.AddResponse(c.ResolveURL("https://html.dev"), 200, `<html>`)
	_, _, err = c.Resolve(context.Background(), "https://html.dev")
	require.ErrorAs(t, err, &re)
}

func TestResolveTimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			<-r.Context().Done()
			return
		}
		_, _ = fmt.Fprint(w, `{"icon":"/images/logos/slow.webp"}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	c := NewClient(cfg, prefix, NewRealHTTPFetcher(srv.Client()))

	icon, attempts, err := c.Resolve(context.Background(), "https://slow.dev")
	require.NoError(t, err)
	assert.Equal(t, "/images/logos/slow.webp", icon)
	assert.Equal(t, 2, attempts)
}

func TestPreflight(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	mock.AddResponse("http://site.test/", 200, "ok")
	require.NoError(t, c.Preflight(context.Background(), time.Second))

	down := NewMockHTTPFetcher()
	down.AddResponse("http://site.test/", 502, "bad gateway")
	err := newTestClient(t, down).Preflight(context.Background(), time.Second)
	var pe *config.PreconditionError
	require.ErrorAs(t, err, &pe)

	gone := NewMockHTTPFetcher()
	gone.AddError("http://site.test/", errors.New("dial tcp: connection refused"))
	err = newTestClient(t, gone).Preflight(context.Background(), time.Second)
	require.ErrorAs(t, err, &pe)

	// A 404 root still proves the server is up.
	require.NoError(t, newTestClient(t, NewMockHTTPFetcher()).Preflight(context.Background(), time.Second))
}

func TestCandidates(t *testing.T) {
	doc := []byte(`{"resources":[
  {"name":"has","icon":"/images/logos/a.webp"},
  {"name":"empty","icon":"","url":"https://e.dev"},
  {"name":"remote","icon":"https://r.dev/x.png","url":"https://r.dev"},
  {"name":"none"}
]}`)
	got := Candidates(doc, prefix)
	require.Len(t, got, 3)
	assert.Equal(t, "empty", got[0].Name)
	assert.Equal(t, "remote", got[1].Name)
	assert.Equal(t, "none", got[2].Name)
}

func seedContent(t *testing.T, mock *MockHTTPFetcher, c *Client) (dir string, docs []string) {
	t.Helper()
	dir = t.TempDir()
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("g%d.json", i)
		body := fmt.Sprintf(`{"name":"G%d","categories":[{"tabs":[{"list":[
  {"name":"A%d","url":"https://a%d.dev"},
  {"name":"B%d","official_site":"https://b%d.dev","icon":""},
  {"name":"C%d","icon":"/images/logos/c.webp"},
  {"name":"D%d"}
]}]}]}`, i, i, i, i, i, i, i)
		docs = append(docs, writeDoc(t, dir, name, body))
		mock.AddResponse(c.ResolveURL(fmt.Sprintf("https://a%d.dev", i)), 200, fmt.Sprintf(`{"icon":"/images/logos/a%d.webp?t=5"}`, i))
	}
	return dir, docs
}

func TestRunnerConcurrent(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	dir, docs := seedContent(t, mock, c)

	res, err := NewRunner(c).Run(context.Background(), Options{Dir: dir, Prefix: prefix, Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	assert.Len(t, res.Tasks, 9)
	assert.Equal(t, 3, res.Count(OutcomeSuccess))
	assert.Equal(t, 3, res.Count(OutcomeFailed))
	assert.Equal(t, 3, res.Count(OutcomeSkipped))
	assert.ElementsMatch(t, docs, res.Written)
	assert.Len(t, res.Written, 3)

	data, err := os.ReadFile(docs[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"icon": "/images/logos/a1.webp"`)
	assert.NotContains(t, string(data), "?t=5")
	assert.Contains(t, string(data), `"icon": "/images/logos/c.webp"`)
}

func TestRunnerSequentialMatchesConcurrent(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	dir, docs := seedContent(t, mock, c)

	res, err := NewRunner(c).Run(context.Background(), Options{Dir: dir, Prefix: prefix, Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count(OutcomeSuccess))
	assert.Equal(t, docs, res.Written)

	again, err := NewRunner(c).Run(context.Background(), Options{Dir: dir, Prefix: prefix, Workers: 1})
	require.NoError(t, err)
	assert.Len(t, again.Tasks, 6)
	assert.Empty(t, again.Written)
}

func TestRunnerDryRunMakesNoCalls(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	dir, docs := seedContent(t, mock, c)
	before, err := os.ReadFile(docs[0])
	require.NoError(t, err)

	res, err := NewRunner(c).Run(context.Background(), Options{Dir: dir, Prefix: prefix, Workers: 5, DryRun: true})
	require.NoError(t, err)
	assert.Len(t, res.Tasks, 9)
	assert.Empty(t, res.Results)
	assert.Zero(t, mock.TotalCalls())

	after, err := os.ReadFile(docs[0])
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunnerSkipsInvalidDocuments(t *testing.T) {
	mock := NewMockHTTPFetcher()
	c := newTestClient(t, mock)
	dir := t.TempDir()
	bad := writeDoc(t, dir, "bad.json", `{`)

	res, err := NewRunner(c).Run(context.Background(), Options{Dir: dir, Prefix: prefix, Workers: 2})
	require.NoError(t, err)
	assert.Contains(t, res.Failed, bad)
	assert.Empty(t, res.Tasks)
}

func TestFileLocksSerializePerPath(t *testing.T) {
	locks := newFileLocks()
	var inside atomic.Int32
	var maxInside atomic.Int32
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func() {
			unlock := locks.lock("same.json")
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(t, int32(1), maxInside.Load())

	unlockA := locks.lock("a.json")
	unlockB := locks.lock("b.json")
	unlockB()
	unlockA()
}
