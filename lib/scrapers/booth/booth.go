// Package booth fetches public marketplace item pages and extracts
// structured metadata from them, with a durable file cache and a
// polite rate-limited, retrying http client in front.
package booth

import (
	"boothlist-backend/lib/restyutil"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/purell"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultBaseURL = "https://booth.pm"

type ClientOptions struct {
	// defaults to https://booth.pm
	BaseURL string
	// minimum gap between request dispatches, defaults to 1s
	RateLimit time.Duration
	// total attempt budget per item, defaults to 3
	MaxRetries int
	// how long a cached error entry suppresses refetching,
	// defaults to 24h
	ErrorTTL time.Duration
	// consulted before any fetch, updated after every fetch.
	// nil disables caching.
	Cache Store
}

type Client struct {
	http *resty.Client
	opts ClientOptions

	// shared "time of last request" clock, the whole process talks
	// to one host so a single global limiter is enough
	lastRequest time.Time

	// overridable in tests
	sleep func(time.Duration)
	now   func() time.Time
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.ErrorTTL == 0 {
		opts.ErrorTTL = 24 * time.Hour
	}
	_, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("accept-language", "ja,en-US;q=0.9,en;q=0.8")
	client.SetTimeout(time.Second * 30)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		http:  client,
		opts:  opts,
		sleep: time.Sleep,
		now:   time.Now,
	}, nil
}

// FetchItem resolves one item id to metadata, via the cache when
// possible. It never returns an error: every outcome is an
// ItemMetadata, failed fetches carry the failure in Error.
func (c *Client) FetchItem(ctx context.Context, itemID int, forceRefresh bool) ItemMetadata {
	ctx, span := tracer.Start(ctx, "client:FetchItem")
	defer span.End()
	span.SetAttributes(attribute.Int("item_id", itemID))

	if !forceRefresh && c.opts.Cache != nil {
		cached, ok := c.opts.Cache.Get(itemID)
		if ok {
			if cached.Ok() {
				span.SetStatus(codes.Ok, "CACHE HIT")
				return cached
			}
			// errors stay cached so permanently dead ids are not
			// re-hit, but they expire so transient failures self-heal
			if c.now().Sub(cached.ScrapedTime()) < c.opts.ErrorTTL {
				span.SetStatus(codes.Ok, "CACHE HIT (error)")
				slog.DebugContext(ctx, "using cached error", "item_id", itemID)
				return cached
			}
			slog.DebugContext(ctx, "cached error expired, refetching", "item_id", itemID)
		}
	}

	metadata := c.fetchOnce(ctx, itemID)
	if c.opts.Cache != nil {
		err := c.opts.Cache.Put(itemID, metadata)
		if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "failed to persist cache entry", "item_id", itemID, "err", err)
		}
	}
	return metadata
}

// Cached reports whether the cache already holds any entry for the
// id, success or error.
func (c *Client) Cached(itemID int) bool {
	if c.opts.Cache == nil {
		return false
	}
	_, ok := c.opts.Cache.Get(itemID)
	return ok
}

// FetchItems processes ids strictly in input order. Cancellation is
// cooperative, checked once per item boundary, never mid-request.
func (c *Client) FetchItems(ctx context.Context, itemIDs []int, forceRefresh bool) map[int]ItemMetadata {
	results := make(map[int]ItemMetadata, len(itemIDs))
	for i, id := range itemIDs {
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "fetch interrupted", "done", i, "total", len(itemIDs))
			break
		}
		slog.InfoContext(ctx, "fetching item", "n", i+1, "total", len(itemIDs), "item_id", id)
		results[id] = c.FetchItem(ctx, id, forceRefresh)
	}
	return results
}

func (c *Client) fetchOnce(ctx context.Context, itemID int) ItemMetadata {
	body, resolvedURL, o, status, err := c.getWithRetry(ctx, CanonicalPath(itemID))
	now := c.now()

	switch o {
	case outcomeSuccess:
		metadata := ExtractMetadata(ctx, body, itemID, resolvedURL)
		metadata.ScrapedAt = now.UTC().Format(time.RFC3339Nano)
		slog.InfoContext(ctx, "fetched item", "item_id", itemID, "name", metadata.Name)
		return metadata
	case outcomeNotFound:
		message := fmt.Sprintf("item %d not found (404)", itemID)
		slog.WarnContext(ctx, "item not found", "item_id", itemID)
		return errorMetadata(itemID, now, message)
	case outcomeThrottled, outcomeHTTPError:
		message := fmt.Sprintf("HTTP %d for item %d", status, itemID)
		slog.WarnContext(ctx, "fetch failed", "item_id", itemID, "status", status)
		return errorMetadata(itemID, now, message)
	case outcomeTimeout:
		message := fmt.Sprintf("timeout fetching item %d after retries", itemID)
		slog.WarnContext(ctx, "fetch timed out", "item_id", itemID)
		return errorMetadata(itemID, now, message)
	default:
		message := fmt.Sprintf("error fetching item %d: %v", itemID, err)
		slog.WarnContext(ctx, "fetch failed", "item_id", itemID, "err", err)
		return errorMetadata(itemID, now, message)
	}
}

// getWithRetry performs the GET with rate limiting before each
// dispatch and exponential backoff on transient outcomes. Terminal
// statuses end the loop immediately and are reported as-is.
func (c *Client) getWithRetry(ctx context.Context, path string) (body []byte, resolvedURL string, o outcome, status int, err error) {
	for attempt := 0; ; attempt++ {
		c.waitRateLimit(ctx)

		res, reqErr := c.http.R().
			SetContext(ctx).
			Get(path)

		o = classifyAttempt(res, reqErr)
		if o == outcomeSuccess {
			return res.Body(), finalURL(res), o, res.StatusCode(), nil
		}
		if res != nil {
			status = res.StatusCode()
		}
		err = reqErr

		delay, retry := retryDelay(attempt, o, c.opts.MaxRetries)
		if !retry {
			return nil, "", o, status, err
		}
		slog.DebugContext(ctx, "backing off", "attempt", attempt+1, "delay", delay)
		c.sleep(delay)
	}
}

func (c *Client) waitRateLimit(ctx context.Context) {
	elapsed := c.now().Sub(c.lastRequest)
	if wait := c.opts.RateLimit - elapsed; wait > 0 {
		slog.DebugContext(ctx, "rate limiting", "wait", wait)
		c.sleep(wait)
	}
	c.lastRequest = c.now()
}

func classifyAttempt(res *resty.Response, err error) outcome {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return outcomeTimeout
		}
		return outcomeTransport
	}
	switch res.StatusCode() {
	case 200:
		return outcomeSuccess
	case 404:
		return outcomeNotFound
	case 429, 503:
		return outcomeThrottled
	default:
		return outcomeHTTPError
	}
}

// finalURL reports the url the request actually resolved to after
// redirects, normalized so equivalent urls compare equal downstream.
func finalURL(res *resty.Response) string {
	if res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil {
		return purell.NormalizeURL(res.RawResponse.Request.URL, purell.FlagsSafe)
	}
	return res.Request.URL
}
