// Package materiality implements the stakeholder materiality-matrix pipeline:
// response aggregation, stakeholder group selection, point collection,
// overlap resolution and plot assembly.  Every function in this package is
// pure; callers own persistence of SelectionState and dashboard payloads.
package materiality

import (
	"encoding/json"
	"strings"
)

// Category is the closed set of ESG categories a question can belong to.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryEnvironment
	CategorySocial
	CategoryGovernance
)

// categoryInfo is the single mapping from variant to presentation data.
type categoryInfo struct {
	Key         string
	DisplayName string
	Color       string
}

var categoryTable = map[Category]categoryInfo{
	CategoryEnvironment: {Key: "environment", DisplayName: "Environment", Color: "#2E7D32"},
	CategorySocial:      {Key: "social", DisplayName: "Social", Color: "#1565C0"},
	CategoryGovernance:  {Key: "governance", DisplayName: "Governance", Color: "#EF6C00"},
	CategoryUnknown:     {Key: "unknown", DisplayName: "Other", Color: "#757575"},
}

// SeriesOrder is the fixed order in which category series are emitted.
var SeriesOrder = []Category{CategoryEnvironment, CategorySocial, CategoryGovernance, CategoryUnknown}

// categoryAliases maps lower-cased raw names onto variants.
var categoryAliases = map[string]Category{
	"environment":          CategoryEnvironment,
	"environmental":        CategoryEnvironment,
	"e":                    CategoryEnvironment,
	"umwelt":               CategoryEnvironment,
	"social":               CategorySocial,
	"s":                    CategorySocial,
	"soziales":             CategorySocial,
	"gesellschaft":         CategorySocial,
	"governance":           CategoryGovernance,
	"g":                    CategoryGovernance,
	"unternehmensführung":  CategoryGovernance,
	"unternehmensfuehrung": CategoryGovernance,
}

// ParseCategory maps a raw category name onto its variant.  Unrecognised
// names yield CategoryUnknown.
func ParseCategory(name string) Category {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return CategoryUnknown
}

// Key returns the stable machine key ("environment", "social", ...).
func (c Category) Key() string { return c.info().Key }

// DisplayName returns the label used for legends and series names.
func (c Category) DisplayName() string { return c.info().DisplayName }

// Color returns the fixed series colour.
func (c Category) Color() string { return c.info().Color }

func (c Category) String() string { return c.Key() }

// IsKnown reports whether c is one of the three ESG categories.
func (c Category) IsKnown() bool {
	return c == CategoryEnvironment || c == CategorySocial || c == CategoryGovernance
}

func (c Category) info() categoryInfo {
	if info, ok := categoryTable[c]; ok {
		return info
	}
	return categoryTable[CategoryUnknown]
}

// MarshalJSON encodes the category as its key.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Key())
}

// UnmarshalJSON accepts any raw name understood by ParseCategory.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseCategory(s)
	return nil
}
