package dolly

import (
	"fmt"
	"math"
)

// RangeError describes a field outside its documented range.
type RangeError struct {
	PathIndex int     `json:"path_index"`
	Index     int     `json:"index"`
	Field     string  `json:"field"`
	Value     float64 `json:"value"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

func (e RangeError) Error() string {
	return fmt.Sprintf("path %d point %d: %s = %g, want %g..%g", e.PathIndex, e.Index, e.Field, e.Value, e.Min, e.Max)
}

type fieldRange struct {
	name     string
	min, max float64
	get      func(Point) float64
}

var fieldRanges = []fieldRange{
	{"FocalDistance", 0, 10, func(p Point) float64 { return p.FocalDistance }},
	{"Aperture", 1.4, 32, func(p Point) float64 { return p.Aperture }},
	{"Hue", 0, 360, func(p Point) float64 { return p.Hue }},
	{"Saturation", 0, 100, func(p Point) float64 { return p.Saturation }},
	{"Lightness", 0, 100, func(p Point) float64 { return p.Lightness }},
	{"LookAtMeXOffset", -25, 25, func(p Point) float64 { return p.LookAtMeXOffset }},
	{"LookAtMeYOffset", -25, 25, func(p Point) float64 { return p.LookAtMeYOffset }},
	{"Zoom", 20, 150, func(p Point) float64 { return p.Zoom }},
	{"Speed", 0.1, 15, func(p Point) float64 { return p.Speed }},
	{"Duration", 0.1, 60, func(p Point) float64 { return p.Duration }},
}

// Validate reports every field outside its documented range. Vector
// components only need to be finite.
func (p Point) Validate() []RangeError {
	var errs []RangeError
	for _, r := range fieldRanges {
		v := r.get(p)
		if math.IsNaN(v) || v < r.min || v > r.max {
			errs = append(errs, RangeError{PathIndex: p.PathIndex, Index: p.Index, Field: r.name, Value: v, Min: r.min, Max: r.max})
		}
	}
	vectors := []struct {
		name string
		v    Vector3
	}{{"Position", p.Position}, {"Rotation", p.Rotation}}
	for _, vec := range vectors {
		axes := []struct {
			axis string
			v    float64
		}{{"X", vec.v.X}, {"Y", vec.v.Y}, {"Z", vec.v.Z}}
		for _, a := range axes {
			if math.IsNaN(a.v) || math.IsInf(a.v, 0) {
				errs = append(errs, RangeError{
					PathIndex: p.PathIndex, Index: p.Index, Field: vec.name + "." + a.axis,
					Value: a.v, Min: -math.MaxFloat64, Max: math.MaxFloat64,
				})
			}
		}
	}
	return errs
}

// ValidatePaths checks every point of every path, plus the capacity and
// index-mirror invariants of the collection.
func ValidatePaths(paths []Path) (rangeErrs []RangeError, structural []error) {
	if total := CountPoints(paths); total > MaxTotalPoints {
		structural = append(structural, fmt.Errorf("%w: %d points", ErrCollectionFull, total))
	}
	for i, p := range paths {
		if len(p.Points) > MaxPointsPerPath {
			structural = append(structural, fmt.Errorf("%w: path %d has %d points", ErrPathFull, i, len(p.Points)))
		}
		if p.Index != i {
			structural = append(structural, fmt.Errorf("path at %d has Index %d", i, p.Index))
		}
		for j, pt := range p.Points {
			if pt.Index != j || pt.PathIndex != i {
				structural = append(structural, fmt.Errorf("point at %d/%d has Index %d PathIndex %d", i, j, pt.Index, pt.PathIndex))
			}
			rangeErrs = append(rangeErrs, pt.Validate()...)
		}
	}
	return rangeErrs, structural
}

// WrapDegrees maps v into [0, 360).
func WrapDegrees(v float64) float64 {
	w := math.Mod(v, 360)
	if w < 0 {
		w += 360
	}
	return w
}

// WrapRotation wraps each rotation axis into [0, 360).
func WrapRotation(r Vector3) Vector3 {
	return Vector3{X: WrapDegrees(r.X), Y: WrapDegrees(r.Y), Z: WrapDegrees(r.Z)}
}
