// Package i18n resolves UI strings for the active language. Lookups never
// fail: a key missing from the active table falls back to the bundled
// English table, then to the key itself.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed locales/*.json
var locales embed.FS

type Table map[string]string

// Bundled returns the table shipped with the binary for lang.
func Bundled(lang string) (Table, error) {
	b, err := locales.ReadFile("locales/" + lang + ".json")
	if err != nil {
		return nil, fmt.Errorf("no bundled table for %q: %w", lang, err)
	}
	var t Table
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse bundled table %q: %w", lang, err)
	}
	return t, nil
}

// overlay returns base with top's non-empty values on top.
func overlay(base, top Table) Table {
	out := make(Table, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Lookup returns t[key] when present and non-empty, fallback otherwise.
func (t Table) Lookup(key, fallback string) string {
	if v, ok := t[key]; ok && v != "" {
		return v
	}
	return fallback
}
