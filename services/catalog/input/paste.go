package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"boothlist-backend/lib/scrapers/booth"
)

// ExtractIDs pulls every item id it can find out of free-form pasted
// text, one or more per line, deduplicated and sorted.
func ExtractIDs(r io.Reader) ([]int, error) {
	seen := map[int]bool{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, itemID := range booth.ExtractItemIDs(scanner.Text()) {
			seen[itemID] = true
		}
	}
	err := scanner.Err()
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(seen))
	for itemID := range seen {
		ids = append(ids, itemID)
	}
	sort.Ints(ids)
	return ids, nil
}

// SaveIDs merges ids into a dated id list under dir, one id per line.
// Ids already in today's file are kept, so repeated paste sessions
// accumulate.
func SaveIDs(dir string, ids []int, now time.Time) (string, int, error) {
	path := filepath.Join(dir, now.Format("20060102")+".txt")

	merged := map[int]bool{}
	for _, itemID := range ids {
		merged[itemID] = true
	}
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return "", 0, err
	}
	for _, line := range strings.Split(string(existing), "\n") {
		itemID, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && booth.ValidID(itemID) {
			merged[itemID] = true
		}
	}

	all := make([]int, 0, len(merged))
	for itemID := range merged {
		all = append(all, itemID)
	}
	sort.Ints(all)

	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return "", 0, err
	}
	var sb strings.Builder
	for _, itemID := range all {
		fmt.Fprintf(&sb, "%d\n", itemID)
	}
	err = os.WriteFile(path, []byte(sb.String()), 0o644)
	if err != nil {
		return "", 0, err
	}
	return path, len(all), nil
}
