package export

type TimelineRequest struct {
	Title     string  `json:"title"`
	FrameRate float64 `json:"frame_rate"`
	OutputDir string  `json:"output_dir"`
}

type TimelineResponse struct {
	Status     string `json:"status"`
	OutputPath string `json:"output_path"`
	PathCount  int    `json:"path_count"`
	PointCount int    `json:"point_count"`
}

// Cue is one keyframe placed on its path's timeline.
type Cue struct {
	PathIndex int
	Index     int
	Name      string
	StartMs   int
	EndMs     int
	Speed     float64
	Zoom      float64
}
