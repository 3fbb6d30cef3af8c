package domain

import "context"

// BoundaryRef points at a TopoJSON document and the feature layer holding the regions.
type BoundaryRef struct {
	URL     string `json:"url"`
	Feature string `json:"feature"`
	// KeyProperty is the geometry property holding the region code.
	KeyProperty string `json:"key_property"`
}

// DefaultBoundary is the Belgian municipalities dataset.
var DefaultBoundary = BoundaryRef{
	URL:         "https://gist.githubusercontent.com/jandot/ba7eff2e15a38c6f809ba5e8bd8b6977/raw/eb49ce8dd2604e558e10e15d9a3806f114744e80/belgium_municipalities_topojson.json",
	Feature:     "BE_municipalities",
	KeyProperty: "CODE_INS",
}

// LookupPath returns the feature field path the data layer joins on, e.g. "properties.CODE_INS".
func (b BoundaryRef) LookupPath() string {
	return "properties." + b.KeyProperty
}

// BoundarySource resolves a boundary reference into the region codes of its features.
type BoundarySource interface {
	RegionCodes(ctx context.Context, ref BoundaryRef) ([]int64, error)
}
