// Package report flattens the lineage graph into per-asset rollups and
// renders them as JSON, CSV, or an HTML dashboard.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/DrSkyle/assetline/pkg/asset"
	"github.com/DrSkyle/assetline/pkg/lineage"
)

// Item matches the JSON/CSV structure.
type Item struct {
	Key           string   `json:"key"`
	Name          string   `json:"name,omitempty"`
	Owners        []string `json:"owners,omitempty"`
	Events        int      `json:"events"`
	LastWorkUnit  string   `json:"last_work_unit,omitempty"`
	LastEventTime string   `json:"last_event_time,omitempty"`
	Upstream      []string `json:"upstream,omitempty"`
	Downstream    []string `json:"downstream,omitempty"`
}

// Items flattens the graph into one row per asset, ordered by key.
// Keys render in redacted form, and assets on the ignore list are
// dropped. A nil ignore list keeps everything.
func Items(g *lineage.Graph, ignore *IgnoreList) []Item {
	var items []Item
	for _, key := range g.Keys() {
		if ignore.Has(key.Redacted()) {
			continue
		}
		n := g.Node(key)

		item := Item{
			Key:          key.Redacted(),
			Events:       n.Events,
			LastWorkUnit: n.LastUnit,
			Upstream:     keyStrings(g.Upstream(key)),
			Downstream:   keyStrings(g.Downstream(key)),
		}
		if !n.LastEvent.IsZero() {
			item.LastEventTime = n.LastEvent.UTC().Format(time.RFC3339)
		}
		if n.Properties != nil {
			if n.Properties.Name != nil {
				item.Name = *n.Properties.Name
			}
			if n.Properties.Owners != nil {
				item.Owners = append([]string(nil), (*n.Properties.Owners)...)
			}
		}
		items = append(items, item)
	}
	return items
}

// GenerateCSV writes the asset rollup to a CSV file.
func GenerateCSV(g *lineage.Graph, ignore *IgnoreList, path string) error {
	items := Items(g, ignore)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"Key",
		"Name",
		"Owners",
		"Events",
		"LastWorkUnit",
		"LastEventTime",
		"Upstream",
		"Downstream",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, item := range items {
		record := []string{
			item.Key,
			item.Name,
			strings.Join(item.Owners, ";"),
			fmt.Sprintf("%d", item.Events),
			item.LastWorkUnit,
			item.LastEventTime,
			strings.Join(item.Upstream, ";"),
			strings.Join(item.Downstream, ";"),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// GenerateJSON writes the asset rollup to a JSON file.
func GenerateJSON(g *lineage.Graph, ignore *IgnoreList, path string) error {
	items := Items(g, ignore)

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func keyStrings(keys []asset.Key) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Redacted()
	}
	return out
}
