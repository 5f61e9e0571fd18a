package api

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
	"github.com/vrcdolly/dolly-agent/internal/export"
)

func exportTimelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.TimelineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		outputPath, title, err := export.TimelinePath(req.OutputDir, req.Title)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		paths := cfg.Manager.Paths()
		if len(paths) == 0 {
			WriteError(w, http.StatusBadRequest, "no paths to export", "BAD_REQUEST")
			return
		}

		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = export.DefaultFrameRate
		}

		text := export.GenerateTimeline(paths, title, frameRate)
		if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write timeline file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, export.TimelineResponse{
			Status:     "ok",
			OutputPath: outputPath,
			PathCount:  len(paths),
			PointCount: dolly.CountPoints(paths),
		})
	}
}
