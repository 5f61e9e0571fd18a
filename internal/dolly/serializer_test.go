package dolly

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sampleCollection() []Path {
	p0 := pointsPath(0, 2)
	p0.Points[0].Name = "start"
	p0.Points[0].IsCollapsed = true
	p0.Points[1].Position = Vector3{X: 1.5, Y: -2, Z: 3}
	p1 := pointsPath(1, 3)
	p1.Points[2].Rotation = Vector3{Y: 90}
	return []Path{p0, p1}
}

func TestFlatten_OrderAndStripsUI(t *testing.T) {
	flat := Flatten(sampleCollection())

	if len(flat) != 5 {
		t.Fatalf("len(flat) = %d, want 5", len(flat))
	}
	wantOrder := [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {1, 2}}
	for i, w := range wantOrder {
		if flat[i].PathIndex != w[0] || flat[i].Index != w[1] {
			t.Errorf("flat[%d] = (%d, %d), want %v", i, flat[i].PathIndex, flat[i].Index, w)
		}
	}
	if flat[0].Name != "" || flat[0].IsCollapsed {
		t.Errorf("flat[0] kept UI fields: %+v", flat[0])
	}
}

func TestEncode_JSONOmitsUIKeys(t *testing.T) {
	data, err := Encode(sampleCollection(), FormatJSON)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if strings.Contains(string(data), UIFieldPrefix) {
		t.Fatalf("document contains %q fields: %s", UIFieldPrefix, data)
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("document is not a JSON array: %v", err)
	}
	if _, ok := raw[1]["Position"].(map[string]interface{})["X"]; !ok {
		t.Errorf("Position.X missing: %v", raw[1])
	}
}

func TestGroup_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			want := sampleCollection()
			data, err := Encode(want, format)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(data, format)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			for i := range want {
				for j := range want[i].Points {
					want[i].Points[j] = StripUI(want[i].Points[j])
				}
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
			}
		})
	}
}

func TestGroup_OrdersByPathIndex(t *testing.T) {
	flat := []Point{DefaultPoint(0, 3), DefaultPoint(0, 1), DefaultPoint(1, 3)}
	flat[0].Zoom = 30
	flat[2].Zoom = 31

	paths := Group(flat)
	if len(paths) != 2 {
		t.Fatalf("len(paths) = %d, want 2", len(paths))
	}
	if len(paths[1].Points) != 2 || paths[1].Points[0].Zoom != 30 || paths[1].Points[1].Zoom != 31 {
		t.Fatalf("paths[1] = %+v", paths[1])
	}
	for i, p := range paths {
		if p.Index != i {
			t.Errorf("paths[%d].Index = %d", i, p.Index)
		}
		for j, pt := range p.Points {
			if pt.Index != j || pt.PathIndex != i {
				t.Errorf("paths[%d].Points[%d] = (%d, %d)", i, j, pt.Index, pt.PathIndex)
			}
		}
	}
}

func TestGroup_Empty(t *testing.T) {
	if got := Group(nil); len(got) != 0 {
		t.Fatalf("Group(nil) = %v, want empty", got)
	}
}

func TestParsePoints_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "empty array", data: "[]", want: ErrNoPoints},
		{name: "null", data: "null", want: ErrNoPoints},
		{name: "object", data: `{"Index": 0}`, want: ErrInvalidDocument},
		{name: "garbage", data: "not json", want: ErrInvalidDocument},
		{name: "wrong field type", data: `[{"Index": "zero"}]`, want: ErrInvalidDocument},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePoints([]byte(tc.data), FormatJSON)
			if !errors.Is(err, tc.want) {
				t.Fatalf("ParsePoints(%q) error = %v, want %v", tc.data, err, tc.want)
			}
		})
	}
}

func TestParsePoints_IgnoresUIKeys(t *testing.T) {
	doc := `[{"Index":0,"PathIndex":0,"Zoom":45,"ui_Name":"cam","ui_Unknown":1}]`
	points, err := ParsePoints([]byte(doc), FormatJSON)
	if err != nil {
		t.Fatalf("ParsePoints() error = %v", err)
	}
	if points[0].Name != "cam" || points[0].Zoom != 45 {
		t.Errorf("point = %+v", points[0])
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"paths.json":  FormatJSON,
		"paths.YAML":  FormatYAML,
		"paths.yml":   FormatYAML,
		"paths":       FormatJSON,
		"/a/b.c.json": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
