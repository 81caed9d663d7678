// Package shapefile loads the borough and ZCTA boundary polygons used for
// choropleth rendering. Boundaries carry no incident-level state; they exist
// only so aggregates can be drawn and ZIP codes validated against map keys.
package shapefile

import (
	"fmt"
	"math"
	"strings"

	shp "github.com/jonas-p/go-shp"
)

// Boundary is one named polygon (possibly multi-part) from a boundary layer.
type Boundary struct {
	Key   string         // join key: borough name or ZIP-like code
	Rings [][][2]float64 // each ring is a closed sequence of [lon, lat]

	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

// BoundarySet is a loaded boundary layer with key-based lookup and the
// combined bounding box of all features.
type BoundarySet struct {
	Boundaries []Boundary

	MinLon, MinLat float64
	MaxLon, MaxLat float64

	byKey map[string]int
}

// NewBoundarySet indexes the given boundaries by key and computes the
// combined bounding box. The only way to build a working set; Has and Get
// depend on the index it creates.
func NewBoundarySet(boundaries []Boundary) *BoundarySet {
	set := &BoundarySet{
		Boundaries: boundaries,
		MinLon:     math.MaxFloat64,
		MinLat:     math.MaxFloat64,
		MaxLon:     -math.MaxFloat64,
		MaxLat:     -math.MaxFloat64,
		byKey:      make(map[string]int, len(boundaries)),
	}
	for i, b := range boundaries {
		set.MinLon = math.Min(set.MinLon, b.MinLon)
		set.MaxLon = math.Max(set.MaxLon, b.MaxLon)
		set.MinLat = math.Min(set.MinLat, b.MinLat)
		set.MaxLat = math.Max(set.MaxLat, b.MaxLat)
		set.byKey[b.Key] = i
	}
	return set
}

// Load reads a polygon shapefile and indexes its features by the given DBF
// attribute (matched case-insensitively). Non-polygon shapes are skipped.
func Load(path, keyField string) (*BoundarySet, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	keyIdx := -1
	for i, f := range fields {
		if strings.EqualFold(f.String(), keyField) {
			keyIdx = i
			break
		}
	}
	if keyIdx == -1 {
		return nil, fmt.Errorf("shapefile %s: no attribute %q", path, keyField)
	}

	var boundaries []Boundary
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		b := Boundary{
			Key:    strings.TrimSpace(r.ReadAttribute(idx, keyIdx)),
			Rings:  polygonRings(poly),
			MinLon: math.MaxFloat64, MinLat: math.MaxFloat64,
			MaxLon: -math.MaxFloat64, MaxLat: -math.MaxFloat64,
		}
		for _, ring := range b.Rings {
			for _, pt := range ring {
				b.MinLon = math.Min(b.MinLon, pt[0])
				b.MaxLon = math.Max(b.MaxLon, pt[0])
				b.MinLat = math.Min(b.MinLat, pt[1])
				b.MaxLat = math.Max(b.MaxLat, pt[1])
			}
		}
		boundaries = append(boundaries, b)
	}

	if len(boundaries) == 0 {
		return nil, fmt.Errorf("shapefile %s: no polygon features", path)
	}
	return NewBoundarySet(boundaries), nil
}

// Get returns the boundary for a join key.
func (s *BoundarySet) Get(key string) (Boundary, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return Boundary{}, false
	}
	return s.Boundaries[i], true
}

// Has reports whether the join key resolves to a feature.
func (s *BoundarySet) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// polygonRings splits a shapefile polygon's flat point slice into its parts,
// each as a closed [lon, lat] ring.
func polygonRings(poly *shp.Polygon) [][][2]float64 {
	numParts := len(poly.Parts)
	rings := make([][][2]float64, numParts)

	for partIdx := 0; partIdx < numParts; partIdx++ {
		start := poly.Parts[partIdx]
		end := int32(len(poly.Points))
		if partIdx+1 < numParts {
			end = poly.Parts[partIdx+1]
		}
		ring := make([][2]float64, 0, end-start)
		for i := start; i < end; i++ {
			pt := poly.Points[i]
			ring = append(ring, [2]float64{pt.X, pt.Y})
		}
		rings[partIdx] = ring
	}
	return rings
}
