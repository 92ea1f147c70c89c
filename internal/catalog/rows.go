// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"sort"
	"strings"
)

// CatalogURL is where a model is described in the portal.
func CatalogURL(name string) string {
	if name == "" {
		return ""
	}
	return "https://ai.azure.com/explore/models/" + name
}

// ModelRow is a catalog entry shaped for output.
type ModelRow struct {
	ID          string `jsonapi:"primary,models"`
	Provider    string `jsonapi:"attr,provider"`
	Name        string `jsonapi:"attr,name"`
	Version     string `jsonapi:"attr,version"`
	SKU         string `jsonapi:"attr,sku,omitempty"`
	Format      string `jsonapi:"attr,format,omitempty"`
	MaxCapacity *int64 `jsonapi:"attr,max_capacity,omitempty"`
	CatalogURL  string `jsonapi:"attr,catalog_url,omitempty"`
}

// ModelRows emits one row per catalog entry.
func ModelRows(models []Model) []*ModelRow {
	rows := make([]*ModelRow, 0, len(models))
	for _, m := range models {
		rows = append(rows, &ModelRow{
			ID:          rowID(m.Name, m.Version, m.SKUName),
			Provider:    m.Kind,
			Name:        m.Name,
			Version:     m.Version,
			SKU:         m.SKUName,
			Format:      m.Format,
			MaxCapacity: m.MaxCapacity,
			CatalogURL:  CatalogURL(m.Name),
		})
	}
	return rows
}

// SKURow is one SKU of a model with its capacity bounds.
type SKURow struct {
	ID      string `jsonapi:"primary,skus"`
	Model   string `jsonapi:"attr,model"`
	Version string `jsonapi:"attr,version"`
	SKU     string `jsonapi:"attr,sku"`
	Min     *int64 `jsonapi:"attr,min,omitempty"`
	Max     *int64 `jsonapi:"attr,max,omitempty"`
	Default *int64 `jsonapi:"attr,default,omitempty"`
}

// SKURows emits one row per model SKU.
func SKURows(models []Model) []*SKURow {
	var rows []*SKURow
	for _, m := range models {
		for _, s := range m.SKUs {
			rows = append(rows, &SKURow{
				ID:      rowID(m.Name, m.Version, s.Name),
				Model:   m.Name,
				Version: m.Version,
				SKU:     s.Name,
				Min:     s.Minimum,
				Max:     s.Maximum,
				Default: s.Default,
			})
		}
	}
	return rows
}

// Providers returns the unique non-empty model kinds, sorted.
func Providers(models []Model) []string {
	seen := map[string]bool{}
	var kinds []string
	for _, m := range models {
		if m.Kind != "" && !seen[m.Kind] {
			seen[m.Kind] = true
			kinds = append(kinds, m.Kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// ProviderRow wraps a provider name for the output pipeline.
type ProviderRow struct {
	ID string `jsonapi:"primary,providers"`
}

// ProviderRows wraps Providers for output.
func ProviderRows(models []Model) []*ProviderRow {
	var rows []*ProviderRow
	for _, p := range Providers(models) {
		rows = append(rows, &ProviderRow{ID: p})
	}
	return rows
}

func rowID(parts ...string) string {
	return strings.Join(parts, "/")
}
