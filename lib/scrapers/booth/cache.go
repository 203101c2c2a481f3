package booth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// Store is the durable item id -> metadata mapping consulted before
// any fetch and updated after every fetch. Put fully replaces the
// prior entry.
type Store interface {
	Get(itemID int) (ItemMetadata, bool)
	Put(itemID int, entry ItemMetadata) error
}

// FileStore keeps the whole cache as a single json object on disk,
// keyed by string(item id). Every Put rewrites the file through a
// temp file + rename so a crash never leaves a half-written cache.
type FileStore struct {
	path    string
	entries map[string]ItemMetadata
}

func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		entries: map[string]ItemMetadata{},
	}

	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]any
	err = json.Unmarshal(contents, &raw)
	if err != nil {
		return nil, fmt.Errorf("cache file %s is corrupt: %w", path, err)
	}

	for key, rawEntry := range raw {
		entry, err := decodeEntry(key, rawEntry)
		if err != nil {
			slog.Warn("dropping unreadable cache entry", "key", key, "err", err)
			continue
		}
		s.entries[key] = entry
	}

	slog.Info("loaded item cache", "path", path, "entries", len(s.entries))
	return s, nil
}

func (s *FileStore) Get(itemID int) (ItemMetadata, bool) {
	entry, ok := s.entries[strconv.Itoa(itemID)]
	return entry, ok
}

func (s *FileStore) Put(itemID int, entry ItemMetadata) error {
	s.entries[strconv.Itoa(itemID)] = entry
	return s.flush()
}

func (s *FileStore) Len() int {
	return len(s.entries)
}

// ErrorCount reports how many cached entries are recorded failures.
func (s *FileStore) ErrorCount() int {
	count := 0
	for _, entry := range s.entries {
		if !entry.Ok() {
			count++
		}
	}
	return count
}

func (s *FileStore) flush() error {
	serialized, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(s.path), 0755)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	err = os.WriteFile(tmp, serialized, 0644)
	if err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// decodeEntry migrates a raw cache entry from any historical shape to
// the current one, then unmarshals it. Legacy entries are migrated on
// read, never dropped.
func decodeEntry(key string, raw map[string]any) (ItemMetadata, error) {
	// canonical_url predates canonical_path
	if canonicalURL, ok := raw["canonical_url"].(string); ok {
		delete(raw, "canonical_url")
		if parsed, err := url.Parse(canonicalURL); err == nil && parsed.Path != "" {
			raw["canonical_path"] = parsed.Path
		}
	}
	if _, ok := raw["canonical_path"]; !ok {
		if id, err := strconv.Atoi(key); err == nil {
			raw["canonical_path"] = CanonicalPath(id)
		}
	}

	// updated_at was split into scraped_at / page_updated_at
	if legacy, ok := raw["updated_at"]; ok {
		delete(raw, "updated_at")
		if _, ok := raw["page_updated_at"]; !ok {
			raw["page_updated_at"] = legacy
		}
	}

	if _, ok := raw["related_item_ids"]; !ok {
		raw["related_item_ids"] = []any{}
	}
	if _, ok := raw["files"]; !ok {
		raw["files"] = []any{}
	}

	serialized, err := json.Marshal(raw)
	if err != nil {
		return ItemMetadata{}, err
	}
	var entry ItemMetadata
	err = json.Unmarshal(serialized, &entry)
	if err != nil {
		return ItemMetadata{}, err
	}
	if entry.ItemID == 0 {
		entry.ItemID, _ = strconv.Atoi(key)
	}
	return entry, nil
}
