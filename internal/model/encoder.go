package model

import (
	"slices"

	"github.com/couchcryptid/flight-delay-etl/internal/features"
)

// OneHotEncoder maps each categorical feature to one indicator column per
// category seen during fit. Categories unseen at fit time encode as all zeros.
type OneHotEncoder struct {
	Features   []string
	Categories [][]string // sorted, per feature
	Offsets    []int      // first column of each feature
	Width      int

	index []map[string]int
}

// FitOneHot learns the categories of every categorical column.
func FitOneHot(names []string, rows []features.Vector) *OneHotEncoder {
	seen := make([]map[string]struct{}, len(names))
	for i := range seen {
		seen[i] = map[string]struct{}{}
	}
	for _, r := range rows {
		for i, v := range r.Categorical {
			seen[i][v] = struct{}{}
		}
	}

	e := &OneHotEncoder{
		Features:   slices.Clone(names),
		Categories: make([][]string, len(names)),
		Offsets:    make([]int, len(names)),
	}
	for i := range names {
		cats := make([]string, 0, len(seen[i]))
		for c := range seen[i] {
			cats = append(cats, c)
		}
		slices.Sort(cats)
		e.Categories[i] = cats
		e.Offsets[i] = e.Width
		e.Width += len(cats)
	}
	e.buildIndex()
	return e
}

// buildIndex prepares the lookup maps. It must run after fit and after
// decoding, before the encoder is shared.
func (e *OneHotEncoder) buildIndex() {
	e.index = make([]map[string]int, len(e.Categories))
	for i, cats := range e.Categories {
		m := make(map[string]int, len(cats))
		for j, c := range cats {
			m[c] = e.Offsets[i] + j
		}
		e.index[i] = m
	}
}

// Encode returns the active indicator columns of one row in ascending order.
// Unknown categories contribute no column.
func (e *OneHotEncoder) Encode(cats []string) []int32 {
	out := make([]int32, 0, len(cats))
	for i, v := range cats {
		if col, ok := e.index[i][v]; ok {
			out = append(out, int32(col))
		}
	}
	return out
}

// ColumnFeature returns the index of the categorical feature that owns an
// indicator column.
func (e *OneHotEncoder) ColumnFeature(col int) int {
	for i := len(e.Offsets) - 1; i >= 0; i-- {
		if col >= e.Offsets[i] {
			return i
		}
	}
	return 0
}

// ColumnName renders an indicator column as "feature=category".
func (e *OneHotEncoder) ColumnName(col int) string {
	f := e.ColumnFeature(col)
	return e.Features[f] + "=" + e.Categories[f][col-e.Offsets[f]]
}
