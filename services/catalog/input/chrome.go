package input

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"boothlist-backend/lib/scrapers/booth"

	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

// webkit timestamps count microseconds since 1601-01-01.
const webkitEpochOffsetSeconds = 11644473600

// HistoryVisit is one marketplace item surfaced from browser history.
type HistoryVisit struct {
	ItemID     int
	Title      string
	URL        string
	VisitCount int
	LastVisit  time.Time
}

// DefaultChromeHistoryPath resolves the per-platform location of
// Chrome's History database for the default profile.
func DefaultChromeHistoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	var path string
	switch runtime.GOOS {
	case "windows":
		path = filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data", "Default", "History")
	case "darwin":
		path = filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default", "History")
	default:
		path = filepath.Join(home, ".config", "google-chrome", "Default", "History")
	}
	_, err = os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("chrome history not found at %s: %w", path, err)
	}
	return path, nil
}

// LoadChromeHistory mines item visits from a Chrome History sqlite
// database. The database is copied to a temp file first since Chrome
// holds a lock on the live one while running.
func LoadChromeHistory(ctx context.Context, historyPath string, daysBack int) ([]HistoryVisit, error) {
	ctx, span := tracer.Start(ctx, "LoadChromeHistory")
	defer span.End()

	tempPath, err := copyToTemp(historyPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "copy database")
		return nil, fmt.Errorf("cannot copy chrome history (close chrome and retry): %w", err)
	}
	defer os.Remove(tempPath)

	db, err := sql.Open("sqlite", tempPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open database")
		return nil, err
	}
	defer db.Close()

	cutoff := time.Now().AddDate(0, 0, -daysBack)
	webkitCutoff := (cutoff.Unix() + webkitEpochOffsetSeconds) * 1_000_000

	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT url, title, visit_count, last_visit_time
		FROM urls
		WHERE url LIKE '%booth.pm%'
		  AND url LIKE '%/items/%'
		  AND last_visit_time > ?
		ORDER BY last_visit_time DESC
	`, webkitCutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query urls")
		return nil, err
	}
	defer rows.Close()

	var visits []HistoryVisit
	seen := map[int]bool{}
	for rows.Next() {
		var url string
		var title sql.NullString
		var visitCount int
		var lastVisitTime int64
		err = rows.Scan(&url, &title, &visitCount, &lastVisitTime)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan row")
			return nil, err
		}

		itemID := booth.ExtractItemID(url)
		if itemID == 0 || seen[itemID] {
			continue
		}
		seen[itemID] = true

		visit := HistoryVisit{
			ItemID:     itemID,
			Title:      title.String,
			URL:        booth.ItemURL(itemID),
			VisitCount: visitCount,
			LastVisit:  time.Unix(lastVisitTime/1_000_000-webkitEpochOffsetSeconds, 0),
		}
		if visit.Title == "" {
			visit.Title = fmt.Sprintf("Item %d", itemID)
		}
		visits = append(visits, visit)
	}
	err = rows.Err()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "iterate rows")
		return nil, err
	}

	slog.InfoContext(ctx, "mined items from chrome history",
		"path", historyPath, "days_back", daysBack, "items", len(visits))
	return visits, nil
}

// HistoryItems converts mined visits into raw input records, keeping
// the page title as a name hint.
func HistoryItems(visits []HistoryVisit) []RawItem {
	items := make([]RawItem, 0, len(visits))
	for _, visit := range visits {
		items = append(items, RawItem{
			ItemID: visit.ItemID,
			Name:   visit.Title,
			URL:    visit.URL,
		})
	}
	return items
}

func copyToTemp(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "history-*.db")
	if err != nil {
		return "", err
	}
	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}
