// Package export writes classified catalog records to the on-disk
// formats downstream consumers read: a catalog.yml with the full
// records, a metrics.yml with aggregate rankings and a static html
// dashboard shell that renders both.
package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"boothlist-backend/lib/telemetry"
	"boothlist-backend/services/catalog/classify"

	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v3"
)

var tracer = telemetry.Tracer("boothlist.services.catalog.export")

type catalogFile struct {
	Items []classify.Item `yaml:"items"`
}

// WriteCatalog writes the full record list. Parent directories are
// created as needed.
func WriteCatalog(ctx context.Context, items []classify.Item, path string) error {
	ctx, span := tracer.Start(ctx, "WriteCatalog")
	defer span.End()

	err := writeYAML(path, catalogFile{Items: items})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write catalog")
		return err
	}
	slog.InfoContext(ctx, "exported catalog", "path", path, "items", len(items))
	return nil
}

func writeYAML(path string, value any) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	err = encoder.Encode(value)
	if closeErr := encoder.Close(); err == nil {
		err = closeErr
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}
