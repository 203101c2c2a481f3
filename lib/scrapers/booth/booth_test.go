package booth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"boothlist-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const minimalItemPage = `<html><head>
<meta property="og:title" content="test item">
</head><body><h1 class="item-name">test item</h1></body></html>`

// sleepRecorder collects every backoff/rate-limit sleep instead of
// actually sleeping.
type sleepRecorder struct {
	sleeps []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.sleeps = append(r.sleeps, d)
}

func newTestClient(t *testing.T, serverURL string, opts ClientOptions) (*Client, *sleepRecorder) {
	t.Helper()
	cleanup := telemetry.SetupForTesting("test:booth")
	t.Cleanup(cleanup)

	opts.BaseURL = serverURL
	if opts.RateLimit == 0 {
		// effectively disabled unless the test opts in
		opts.RateLimit = time.Nanosecond
	}
	client, err := NewClient(opts)
	require.NoError(t, err)

	recorder := &sleepRecorder{}
	client.sleep = recorder.sleep
	return client, recorder
}

func TestFetchItemSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ja/items/4294967", r.URL.Path)
		w.Write([]byte(minimalItemPage))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, ClientOptions{})
	m := client.FetchItem(context.Background(), 4294967, false)

	require.True(t, m.Ok())
	require.Equal(t, "test item", m.Name)
	require.Equal(t, 4294967, m.ItemID)
	require.NotEmpty(t, m.ScrapedAt)
}

func TestFetchItemRetriesThrottling(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(minimalItemPage))
	}))
	defer server.Close()

	client, recorder := newTestClient(t, server.URL, ClientOptions{MaxRetries: 3})
	m := client.FetchItem(context.Background(), 4294967, false)

	require.True(t, m.Ok())
	require.Equal(t, 3, attempts)
	// exactly the two induced backoff delays, 1s then 2s with jitter
	require.Len(t, recorder.sleeps, 2)
	require.InDelta(t, float64(time.Second), float64(recorder.sleeps[0]), float64(250*time.Millisecond))
	require.InDelta(t, float64(2*time.Second), float64(recorder.sleeps[1]), float64(250*time.Millisecond))
}

func TestFetchItemNotFoundNoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, recorder := newTestClient(t, server.URL, ClientOptions{MaxRetries: 3})
	m := client.FetchItem(context.Background(), 4294967, false)

	require.False(t, m.Ok())
	require.Contains(t, m.Error, "not found")
	require.Equal(t, 1, attempts)
	require.Empty(t, recorder.sleeps)
}

func TestFetchItemRetryBudgetExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, recorder := newTestClient(t, server.URL, ClientOptions{MaxRetries: 3})
	m := client.FetchItem(context.Background(), 4294967, false)

	require.False(t, m.Ok())
	require.Contains(t, m.Error, "HTTP 429")
	require.Equal(t, 3, attempts)
	require.Len(t, recorder.sleeps, 2)
}

func TestRateLimiterGap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(minimalItemPage))
	}))
	defer server.Close()

	client, recorder := newTestClient(t, server.URL, ClientOptions{RateLimit: time.Second})

	ctx := context.Background()
	client.FetchItem(ctx, 1000000, true)
	client.FetchItem(ctx, 1000001, true)
	client.FetchItem(ctx, 1000002, true)

	// the first dispatch goes straight through, every subsequent one
	// waits out the remainder of the interval
	require.Len(t, recorder.sleeps, 2)
	for _, d := range recorder.sleeps {
		require.Greater(t, d, 900*time.Millisecond)
	}
}

func TestFetchItemCacheHit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte(minimalItemPage))
	}))
	defer server.Close()

	store, err := OpenFileStore(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	client, _ := newTestClient(t, server.URL, ClientOptions{Cache: store})

	ctx := context.Background()
	first := client.FetchItem(ctx, 4294967, false)
	require.True(t, first.Ok())
	require.Equal(t, 1, attempts)

	second := client.FetchItem(ctx, 4294967, false)
	require.Equal(t, first, second)
	require.Equal(t, 1, attempts)

	// force refresh bypasses the cache
	client.FetchItem(ctx, 4294967, true)
	require.Equal(t, 2, attempts)
}

func TestFetchItemErrorTTL(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store, err := OpenFileStore(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	client, _ := newTestClient(t, server.URL, ClientOptions{Cache: store, ErrorTTL: 24 * time.Hour})

	base := time.Now()
	client.now = func() time.Time { return base }

	ctx := context.Background()
	m := client.FetchItem(ctx, 4294967, false)
	require.False(t, m.Ok())
	require.Equal(t, 1, attempts)

	// within the ttl the cached error is reused
	client.now = func() time.Time { return base.Add(time.Hour) }
	m = client.FetchItem(ctx, 4294967, false)
	require.False(t, m.Ok())
	require.Equal(t, 1, attempts)

	// past the ttl the id is retried
	client.now = func() time.Time { return base.Add(25 * time.Hour) }
	client.FetchItem(ctx, 4294967, false)
	require.Equal(t, 2, attempts)
}

func TestFetchItemsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(minimalItemPage))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, ClientOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := client.FetchItems(ctx, []int{1000000, 1000001}, false)
	require.Empty(t, results)
}
