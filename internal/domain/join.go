package domain

import "slices"

// FeatureRender describes how one boundary feature is drawn.
type FeatureRender struct {
	Code int64
	// Layers lists the layers drawing the feature, bottom first.
	Layers []LayerRole
	// Row is the index into Lookup.Rows of the matched row, -1 when unmatched.
	Row int
}

// Matched reports whether the feature is colored by the data layer.
func (f FeatureRender) Matched() bool { return f.Row >= 0 }

// Resolve evaluates the spec's left join against the region codes of the
// boundary features, in feature order. Every feature is drawn by the base
// layer; matched features are drawn a second time by the data layer. When
// several rows share a code the last one wins, as in the renderer's lookup
// index where each row overwrites the entry for its key.
func Resolve(spec PlotSpec, codes []int64) []FeatureRender {
	index := make(map[int64]int, len(spec.Lookup.Rows))
	for i, row := range spec.Lookup.Rows {
		index[row.Key] = i
	}

	out := make([]FeatureRender, len(codes))
	for i, code := range codes {
		fr := FeatureRender{Code: code, Layers: []LayerRole{RoleBase}, Row: -1}
		if row, ok := index[code]; ok {
			fr.Layers = append(fr.Layers, RoleData)
			fr.Row = row
		}
		out[i] = fr
	}
	return out
}

// Coverage summarizes how a dataset lines up with the boundary regions.
type Coverage struct {
	Regions int `json:"regions"`
	Matched int `json:"matched"`
	// MissingRegions are region codes without a row; they show the missing color.
	MissingRegions []int64 `json:"missing_regions"`
	// UnknownCodes are row codes without a boundary feature; they are never drawn.
	UnknownCodes []int64 `json:"unknown_codes"`
	// DuplicateCodes appear on more than one row.
	DuplicateCodes []int64 `json:"duplicate_codes"`
}

// CheckCoverage compares the dataset's join key with the boundary region codes.
// Code lists in the result are sorted and free of repeats.
func CheckCoverage(ds Dataset, codes []int64) Coverage {
	rows := make(map[int64]int, len(ds.JoinKey))
	for _, k := range ds.JoinKey {
		rows[k]++
	}
	regions := make(map[int64]bool, len(codes))
	for _, c := range codes {
		regions[c] = true
	}

	cov := Coverage{
		Regions:        len(regions),
		MissingRegions: []int64{},
		UnknownCodes:   []int64{},
		DuplicateCodes: []int64{},
	}
	for c := range regions {
		if rows[c] > 0 {
			cov.Matched++
		} else {
			cov.MissingRegions = append(cov.MissingRegions, c)
		}
	}
	for k, n := range rows {
		if !regions[k] {
			cov.UnknownCodes = append(cov.UnknownCodes, k)
		}
		if n > 1 {
			cov.DuplicateCodes = append(cov.DuplicateCodes, k)
		}
	}
	slices.Sort(cov.MissingRegions)
	slices.Sort(cov.UnknownCodes)
	slices.Sort(cov.DuplicateCodes)
	return cov
}
