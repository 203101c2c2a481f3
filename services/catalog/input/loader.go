package input

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"boothlist-backend/lib/scrapers/booth"

	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Purchases []RawItem `yaml:"booth_purchases"`
}

// LoadYAML reads a `booth_purchases:` list. Records without an id are
// skipped with a warning.
func LoadYAML(ctx context.Context, path string) ([]RawItem, error) {
	ctx, span := tracer.Start(ctx, "LoadYAML")
	defer span.End()

	raw, err := os.ReadFile(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read file")
		return nil, err
	}
	var file yamlFile
	err = yaml.Unmarshal(raw, &file)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unmarshal")
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var items []RawItem
	for _, item := range file.Purchases {
		if item.ItemID == 0 {
			slog.WarnContext(ctx, "skipping record without id", "file", path, "name", item.Name)
			continue
		}
		items = append(items, withURL(item))
	}
	slog.InfoContext(ctx, "loaded yaml input", "file", path, "items", len(items))
	return items, nil
}

var markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)

// LoadMarkdown scans a markdown dump line by line for item links. A
// `[title](url)` link contributes its title as the name hint.
func LoadMarkdown(ctx context.Context, path string) ([]RawItem, error) {
	ctx, span := tracer.Start(ctx, "LoadMarkdown")
	defer span.End()

	raw, err := os.ReadFile(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read file")
		return nil, err
	}

	var items []RawItem
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		itemID := booth.ExtractItemID(line)
		if itemID == 0 {
			continue
		}
		item := RawItem{ItemID: itemID}
		if m := markdownLinkRegex.FindStringSubmatch(line); m != nil {
			item.Name = m[1]
		}
		items = append(items, withURL(item))
	}
	items = Dedup(items)
	slog.InfoContext(ctx, "loaded markdown input", "file", path, "items", len(items))
	return items, nil
}

var priceCleanRegex = regexp.MustCompile(`[¥,\s]`)

func parsePrice(s string) *int {
	cleaned := priceCleanRegex.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.Atoi(cleaned)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func firstColumn(row map[string]string, names ...string) string {
	for _, name := range names {
		if row[name] != "" {
			return row[name]
		}
	}
	return ""
}

// LoadCSV reads a header-addressed csv export. The item id may live
// in an id column or be embedded in a url/link column.
func LoadCSV(ctx context.Context, path string) ([]RawItem, error) {
	ctx, span := tracer.Start(ctx, "LoadCSV")
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open file")
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read header")
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	var items []RawItem
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "read row")
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		row := map[string]string{}
		for i, value := range record {
			if i < len(header) {
				row[strings.ToLower(strings.TrimSpace(header[i]))] = strings.TrimSpace(value)
			}
		}

		itemID := 0
		for _, column := range []string{"id", "item_id", "url", "link"} {
			if itemID = booth.ExtractItemID(row[column]); itemID != 0 {
				break
			}
		}
		if itemID == 0 {
			slog.WarnContext(ctx, "skipping csv row without item id", "file", path)
			continue
		}

		items = append(items, withURL(RawItem{
			ItemID:    itemID,
			Name:      firstColumn(row, "name", "title"),
			Author:    firstColumn(row, "author", "creator", "shop"),
			Category:  firstColumn(row, "category", "type"),
			Variation: firstColumn(row, "variation", "variant"),
			Notes:     firstColumn(row, "notes", "memo"),
			WishPrice: parsePrice(firstColumn(row, "price", "wish_price")),
		}))
	}
	slog.InfoContext(ctx, "loaded csv input", "file", path, "items", len(items))
	return items, nil
}

// LoadDirectory loads every supported file in a directory (yaml/yml,
// md, csv) and dedups across them, first occurrence wins. Unreadable
// files are logged and skipped, an empty directory is not an error.
func LoadDirectory(ctx context.Context, dir string) ([]RawItem, error) {
	ctx, span := tracer.Start(ctx, "LoadDirectory")
	defer span.End()

	entries, err := os.ReadDir(dir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read dir")
		return nil, err
	}

	var all []RawItem
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		var items []RawItem
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			items, err = LoadYAML(ctx, path)
		case ".md":
			items, err = LoadMarkdown(ctx, path)
		case ".csv":
			items, err = LoadCSV(ctx, path)
		default:
			continue
		}
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable input file", "file", path, "err", err)
			continue
		}
		all = append(all, items...)
	}

	all = Dedup(all)
	slog.InfoContext(ctx, "loaded input directory", "dir", dir, "items", len(all))
	return all, nil
}
