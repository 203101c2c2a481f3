// Package catalog drives the scrape-classify pipeline over a batch
// of raw input records and hands the classified results to the
// exporters.
package catalog

import (
	"context"
	"log/slog"

	"boothlist-backend/lib/scrapers/booth"
	"boothlist-backend/lib/telemetry"
	"boothlist-backend/services/catalog/classify"
	"boothlist-backend/services/catalog/input"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("boothlist.services.catalog")

type Service struct {
	client     *booth.Client
	classifier *classify.Classifier
}

func NewService(client *booth.Client, classifier *classify.Classifier) Service {
	return Service{client: client, classifier: classifier}
}

// Summary counts one pipeline run. Skipped records never reached the
// network, Errors covers both fresh fetch failures and cached error
// entries still inside their ttl.
type Summary struct {
	Input      int
	Skipped    int
	Fetched    int
	FromCache  int
	Errors     int
	Classified int
}

// Run processes the batch sequentially: validate, fetch (cache
// first), classify. A failed item contributes to the error count and
// is dropped from the output, it never aborts the batch. Only context
// cancellation stops the run early, returning what was completed so
// far alongside the error.
func (s Service) Run(ctx context.Context, rawItems []input.RawItem, forceRefresh bool) ([]classify.Item, Summary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.Int("input_items", len(rawItems)))

	summary := Summary{Input: len(rawItems)}
	valid, dropped := input.Validate(input.Dedup(rawItems))
	summary.Skipped = dropped
	if dropped > 0 {
		slog.WarnContext(ctx, "skipped records with out-of-range ids", "count", dropped)
	}

	var items []classify.Item
	for _, raw := range valid {
		err := ctx.Err()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run cancelled")
			return items, summary, err
		}

		cachedBefore := s.client.Cached(raw.ItemID)
		meta := s.client.FetchItem(ctx, raw.ItemID, forceRefresh)
		if cachedBefore && !forceRefresh {
			summary.FromCache++
		} else {
			summary.Fetched++
		}

		if !meta.Ok() {
			summary.Errors++
			slog.WarnContext(ctx, "item failed, dropped from output",
				"item_id", raw.ItemID, "err", meta.Error)
			continue
		}

		items = append(items, s.classifier.Classify(meta, raw.Hints()))
		summary.Classified++
	}

	span.SetAttributes(
		attribute.Int("classified", summary.Classified),
		attribute.Int("errors", summary.Errors),
	)
	slog.InfoContext(ctx, "pipeline run complete",
		"input", summary.Input,
		"skipped", summary.Skipped,
		"fetched", summary.Fetched,
		"from_cache", summary.FromCache,
		"errors", summary.Errors,
		"classified", summary.Classified)
	return items, summary, nil
}
