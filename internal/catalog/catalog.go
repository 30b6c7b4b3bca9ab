// Package catalog turns the raw emoji database into the ordered, grouped
// text corpus that is cached as emojis.cherry.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/thingsiplay/emojicherrypick/internal/errors"
)

// Group is the priority group of a catalog entry.
type Group int

const (
	GroupFace Group = iota
	GroupGesture
	GroupOther
)

// String returns the group name.
func (g Group) String() string {
	switch g {
	case GroupFace:
		return "face"
	case GroupGesture:
		return "gesture"
	default:
		return "other"
	}
}

// RawEntry is one element of the "emojis" array in emojis.json.
// Pointer fields detect missing keys; every field is required.
type RawEntry struct {
	Emoji     *string `json:"emoji"`
	Name      *string `json:"name"`
	Shortname *string `json:"shortname"`
	Category  *string `json:"category"`
	Order     *int    `json:"order"`
}

// Database is the raw emoji database document.
type Database struct {
	Emojis []RawEntry `json:"emojis"`
}

// Entry is a normalized catalog entry.
type Entry struct {
	Glyph    string
	Name     string
	Category string
	Group    Group
}

// Line renders the entry as a corpus line: "<glyph> <name> ~ <category>".
func (e Entry) Line() string {
	return e.Glyph + " " + e.Name + " ~ " + e.Category
}

// Catalog holds normalized entries partitioned by group.
type Catalog struct {
	Face    []Entry
	Gesture []Entry
	Other   []Entry
}

// Entries returns all entries: faces, then gestures, then the rest.
func (c Catalog) Entries() []Entry {
	all := make([]Entry, 0, c.Len())
	all = append(all, c.Face...)
	all = append(all, c.Gesture...)
	return append(all, c.Other...)
}

// Lines returns the rendered corpus lines in group order.
func (c Catalog) Lines() []string {
	entries := c.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line()
	}
	return lines
}

// Text returns the corpus as newline separated lines without a trailing newline.
func (c Catalog) Text() string {
	return strings.TrimSuffix(strings.Join(c.Lines(), "\n"), "\n")
}

// Len returns the number of entries.
func (c Catalog) Len() int {
	return len(c.Face) + len(c.Gesture) + len(c.Other)
}

// Parse decodes emojis.json. Any entry missing a field fails the whole parse.
func Parse(data []byte) ([]RawEntry, error) {
	var db Database
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&db); err != nil {
		return nil, errors.NewCatalogMalformed(fmt.Sprintf("invalid emoji database: %v", err))
	}
	if db.Emojis == nil {
		return nil, errors.NewCatalogMalformed(`invalid emoji database: missing "emojis" array`)
	}
	for i, e := range db.Emojis {
		if missing := e.missingFields(); len(missing) > 0 {
			return nil, errors.NewCatalogMalformed(fmt.Sprintf("emoji entry %d is missing %s", i, strings.Join(missing, ", ")))
		}
	}
	return db.Emojis, nil
}

func (e RawEntry) missingFields() []string {
	var missing []string
	if e.Emoji == nil {
		missing = append(missing, "emoji")
	}
	if e.Name == nil {
		missing = append(missing, "name")
	}
	if e.Shortname == nil {
		missing = append(missing, "shortname")
	}
	if e.Category == nil {
		missing = append(missing, "category")
	}
	if e.Order == nil {
		missing = append(missing, "order")
	}
	return missing
}

// Normalize sorts, filters, renders and groups raw entries.
// Entries with an empty name are dropped; with ignoreSkinVariants, entries
// whose name contains "skin" or whose shortname contains "skin_tone" are
// dropped as well. Entries whose rendered line repeats an earlier one are
// dropped. Entries must have passed Parse.
func Normalize(entries []RawEntry, ignoreSkinVariants bool) Catalog {
	sorted := make([]RawEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return *sorted[i].Order < *sorted[j].Order
	})

	var c Catalog
	seen := make(map[string]bool, len(sorted))
	for _, raw := range sorted {
		if Excluded(raw, ignoreSkinVariants) {
			continue
		}

		entry := Entry{
			Glyph:    strings.TrimSpace(*raw.Emoji),
			Name:     strings.TrimSpace(*raw.Name),
			Category: strings.TrimSpace(*raw.Category),
		}
		line := entry.Line()
		if seen[line] {
			continue
		}
		seen[line] = true

		entry.Group = Classify(*raw.Name, *raw.Category)
		switch entry.Group {
		case GroupFace:
			c.Face = append(c.Face, entry)
		case GroupGesture:
			c.Gesture = append(c.Gesture, entry)
		default:
			c.Other = append(c.Other, entry)
		}
	}
	return c
}

// Excluded reports whether raw is left out of the catalog.
func Excluded(raw RawEntry, ignoreSkinVariants bool) bool {
	if *raw.Name == "" {
		return true
	}
	if ignoreSkinVariants {
		return strings.Contains(*raw.Name, "skin") || strings.Contains(*raw.Shortname, "skin_tone")
	}
	return false
}

// Classify returns the priority group for an emoji name and category.
func Classify(name, category string) Group {
	switch {
	case strings.Contains(name, "face") || strings.Contains(category, "face"):
		return GroupFace
	case strings.Contains(category, "finger"):
		return GroupGesture
	default:
		return GroupOther
	}
}
