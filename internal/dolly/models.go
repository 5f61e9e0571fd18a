// Package dolly holds the camera dolly data model: points grouped into paths,
// the collection manager that keeps their indices consistent, and the flat
// document codec used for files and for the external application.
package dolly

import "errors"

const (
	// MaxPointsPerPath is the ceiling for a single path.
	MaxPointsPerPath = 50
	// MaxTotalPoints is the ceiling across every path in a collection.
	MaxTotalPoints = 100

	// UIFieldPrefix marks presentation-only fields in the document form.
	UIFieldPrefix = "ui_"
)

var (
	ErrPathFull        = errors.New("path is at capacity")
	ErrCollectionFull  = errors.New("collection is at capacity")
	ErrPathIndex       = errors.New("path index out of range")
	ErrPointIndex      = errors.New("point index out of range")
	ErrNoPoints        = errors.New("document contains no points")
	ErrInvalidDocument = errors.New("invalid dolly document")
)

// IsCapacity reports whether err is a capacity rejection.
func IsCapacity(err error) bool {
	return errors.Is(err, ErrPathFull) || errors.Is(err, ErrCollectionFull)
}

type Vector3 struct {
	X float64 `json:"X" yaml:"X"`
	Y float64 `json:"Y" yaml:"Y"`
	Z float64 `json:"Z" yaml:"Z"`
}

// Point is a single camera keyframe. Index and PathIndex mirror the point's
// structural position and are rewritten by the Manager.
type Point struct {
	Index           int     `json:"Index" yaml:"Index"`
	PathIndex       int     `json:"PathIndex" yaml:"PathIndex"`
	FocalDistance   float64 `json:"FocalDistance" yaml:"FocalDistance"`
	Aperture        float64 `json:"Aperture" yaml:"Aperture"`
	Hue             float64 `json:"Hue" yaml:"Hue"`
	Saturation      float64 `json:"Saturation" yaml:"Saturation"`
	Lightness       float64 `json:"Lightness" yaml:"Lightness"`
	LookAtMeXOffset float64 `json:"LookAtMeXOffset" yaml:"LookAtMeXOffset"`
	LookAtMeYOffset float64 `json:"LookAtMeYOffset" yaml:"LookAtMeYOffset"`
	Zoom            float64 `json:"Zoom" yaml:"Zoom"`
	Speed           float64 `json:"Speed" yaml:"Speed"`
	Duration        float64 `json:"Duration" yaml:"Duration"`
	Position        Vector3 `json:"Position" yaml:"Position"`
	Rotation        Vector3 `json:"Rotation" yaml:"Rotation"`
	IsLocal         bool    `json:"IsLocal" yaml:"IsLocal"`

	Name        string `json:"ui_Name,omitempty" yaml:"ui_Name,omitempty"`
	IsCollapsed bool   `json:"ui_IsCollapsed,omitempty" yaml:"ui_IsCollapsed,omitempty"`
}

type Path struct {
	Index  int     `json:"Index" yaml:"Index"`
	Points []Point `json:"Points" yaml:"Points"`
}

// DefaultPoint returns a keyframe with the editor's starting values.
func DefaultPoint(index, pathIndex int) Point {
	return Point{
		Index:         index,
		PathIndex:     pathIndex,
		FocalDistance: 2.0,
		Aperture:      15.0,
		Hue:           120.0,
		Saturation:    100.0,
		Lightness:     50.0,
		Zoom:          45.0,
		Speed:         3.0,
		Duration:      2.0,
		IsLocal:       true,
	}
}

// NewPath returns a path at index holding one default point.
func NewPath(index int) Path {
	return Path{Index: index, Points: []Point{DefaultPoint(0, index)}}
}

// CountPoints sums the points of every path.
func CountPoints(paths []Path) int {
	total := 0
	for _, p := range paths {
		total += len(p.Points)
	}
	return total
}

func clonePath(p Path) Path {
	out := Path{Index: p.Index, Points: make([]Point, len(p.Points))}
	copy(out.Points, p.Points)
	return out
}

// ClonePaths deep-copies a path list.
func ClonePaths(paths []Path) []Path {
	out := make([]Path, len(paths))
	for i, p := range paths {
		out[i] = clonePath(p)
	}
	return out
}
