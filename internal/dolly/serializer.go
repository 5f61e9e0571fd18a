package dolly

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Flatten concatenates every path's points in path order then point order,
// with presentation-only fields cleared.
func Flatten(paths []Path) []Point {
	out := make([]Point, 0, CountPoints(paths))
	for _, p := range paths {
		for _, pt := range p.Points {
			out = append(out, StripUI(pt))
		}
	}
	return out
}

// Group partitions a flat point list into paths by PathIndex. Paths are
// ordered by ascending PathIndex and points keep their order of appearance.
// Indices of the result are renumbered to mirror position, which leaves an
// already consistent document unchanged.
func Group(points []Point) []Path {
	if len(points) == 0 {
		return []Path{}
	}

	groups := make(map[int][]Point)
	keys := make([]int, 0)
	for _, pt := range points {
		if _, ok := groups[pt.PathIndex]; !ok {
			keys = append(keys, pt.PathIndex)
		}
		groups[pt.PathIndex] = append(groups[pt.PathIndex], pt)
	}
	sort.Ints(keys)

	paths := make([]Path, len(keys))
	for i, k := range keys {
		pts := groups[k]
		for j := range pts {
			pts[j].Index = j
			pts[j].PathIndex = i
		}
		paths[i] = Path{Index: i, Points: pts}
	}
	return paths
}

// StripUI zeroes every field whose document name carries UIFieldPrefix.
func StripUI(p Point) Point {
	v := reflect.ValueOf(&p).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if strings.HasPrefix(name, UIFieldPrefix) {
			v.Field(i).Set(reflect.Zero(t.Field(i).Type))
		}
	}
	return p
}

// Encode flattens paths into a document.
func Encode(paths []Path, format Format) ([]byte, error) {
	points := Flatten(paths)
	switch format {
	case FormatYAML:
		return yaml.Marshal(points)
	default:
		return json.MarshalIndent(points, "", "  ")
	}
}

// MarshalDocument is Encode with FormatJSON, the form the external
// application accepts.
func MarshalDocument(paths []Path) (string, error) {
	data, err := Encode(paths, FormatJSON)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParsePoints decodes a flat point list. An empty list yields ErrNoPoints.
func ParsePoints(data []byte, format Format) ([]Point, error) {
	var points []Point
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &points); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&points); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	return points, nil
}

// Decode parses a document and groups it into paths.
func Decode(data []byte, format Format) ([]Path, error) {
	points, err := ParsePoints(data, format)
	if err != nil {
		return nil, err
	}
	return Group(points), nil
}
