package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"boothlist-backend/lib/scrapers/booth"
	"boothlist-backend/lib/telemetry"
	"boothlist-backend/services/catalog/classify"
	"boothlist-backend/services/catalog/input"

	"github.com/stretchr/testify/require"
)

const outfitPage = `<html><head>
<meta property="og:title" content="お出かけ衣装セット">
<meta property="og:description" content="対応アバター：桔梗、セレスティア">
</head><body>
<h1 class="item-name">お出かけ衣装セット</h1>
<div class="price">¥1,500</div>
<div class="download-list">
  <span class="file-name">Kikyo_Outfit_Set.zip</span>
  <span class="file-name">Selestia_Outfit_Set.zip</span>
</div>
</body></html>`

func newTestService(t *testing.T, cachePath string) (Service, *httptest.Server, *int) {
	t.Helper()
	cleanup := telemetry.SetupForTesting("test:catalog")
	t.Cleanup(cleanup)

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch r.URL.Path {
		case "/ja/items/4294967":
			w.Write([]byte(outfitPage))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	var cache booth.Store
	if cachePath != "" {
		store, err := booth.OpenFileStore(cachePath)
		require.NoError(t, err)
		cache = store
	}
	client, err := booth.NewClient(booth.ClientOptions{
		BaseURL:   server.URL,
		RateLimit: time.Nanosecond,
		Cache:     cache,
	})
	require.NoError(t, err)

	return NewService(client, classify.NewClassifier(nil)), server, &requests
}

func TestRunPipeline(t *testing.T) {
	svc, _, requests := newTestService(t, "")

	rawItems := []input.RawItem{
		{ItemID: 4294967},
		{ItemID: 999},     // out of range, skipped
		{ItemID: 1234567}, // 404 upstream
		{ItemID: 4294967}, // duplicate, deduped
	}

	items, summary, err := svc.Run(context.Background(), rawItems, false)
	require.NoError(t, err)

	require.Equal(t, 4, summary.Input)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, 2, summary.Fetched)
	require.Equal(t, 1, summary.Errors)
	require.Equal(t, 1, summary.Classified)
	require.Equal(t, 2, *requests)

	require.Len(t, items, 1)
	item := items[0]
	require.Equal(t, 4294967, item.ItemID)
	require.Equal(t, classify.TypeCostume, item.Type)
	require.Equal(t, []classify.AvatarRef{
		{Code: "Selestia", Name: "セレスティア"},
		{Code: "Kikyo", Name: "桔梗"},
	}, item.Targets)
	require.Len(t, item.Variants, 2)
}

func TestRunUsesCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	svc, _, requests := newTestService(t, cachePath)

	rawItems := []input.RawItem{{ItemID: 4294967}}

	_, summary, err := svc.Run(context.Background(), rawItems, false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Fetched)
	require.Equal(t, 1, *requests)

	_, summary, err = svc.Run(context.Background(), rawItems, false)
	require.NoError(t, err)
	require.Equal(t, 1, summary.FromCache)
	require.Equal(t, 0, summary.Fetched)
	require.Equal(t, 1, *requests)
}

func TestRunCancelled(t *testing.T) {
	svc, _, requests := newTestService(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, _, err := svc.Run(ctx, []input.RawItem{{ItemID: 4294967}}, false)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, items)
	require.Equal(t, 0, *requests)
}
