package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

func listPathsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writePaths(w, http.StatusOK, cfg.Manager)
	}
}

func setPathsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetPathsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Manager.SetPaths(req.Paths)
		writePaths(w, http.StatusOK, cfg.Manager)
	}
}

func addPathHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var path dolly.Path
		if !decodeOptional(w, r, &path) {
			return
		}
		if err := cfg.Manager.AddPath(path); err != nil {
			writeCollectionError(w, err)
			return
		}
		writePaths(w, http.StatusCreated, cfg.Manager)
	}
}

func updatePathHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathIndex, ok := intParam(w, r, "path")
		if !ok {
			return
		}
		var path dolly.Path
		if err := json.NewDecoder(r.Body).Decode(&path); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := cfg.Manager.UpdatePath(pathIndex, path); err != nil {
			writeCollectionError(w, err)
			return
		}
		writePaths(w, http.StatusOK, cfg.Manager)
	}
}

func removePathHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathIndex, ok := intParam(w, r, "path")
		if !ok {
			return
		}
		if err := cfg.Manager.RemovePath(pathIndex); err != nil {
			writeCollectionError(w, err)
			return
		}
		writePaths(w, http.StatusOK, cfg.Manager)
	}
}

func addPointHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathIndex, ok := intParam(w, r, "path")
		if !ok {
			return
		}
		point := dolly.DefaultPoint(0, pathIndex)
		if !decodeOptional(w, r, &point) {
			return
		}
		if err := cfg.Manager.AddPoint(point, pathIndex); err != nil {
			writeCollectionError(w, err)
			return
		}
		writePaths(w, http.StatusCreated, cfg.Manager)
	}
}

func insertPointHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathIndex, ok := intParam(w, r, "path")
		if !ok {
			return
		}
		index, ok := intParam(w, r, "index")
		if !ok {
			return
		}
		point := dolly.DefaultPoint(index, pathIndex)
		if !decodeOptional(w, r, &point) {
			return
		}
		if err := cfg.Manager.InsertPoint(index, point, pathIndex); err != nil {
			writeCollectionError(w, err)
			return
		}
		writePaths(w, http.StatusCreated, cfg.Manager)
	}
}

// updatePointHandler replaces the point at {index}. The body's PathIndex
// names the path the point currently lives in; {path} is where it should
// end up.
func updatePointHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathIndex, ok := intParam(w, r, "path")
		if !ok {
			return
		}
		index, ok := intParam(w, r, "index")
		if !ok {
			return
		}
		var point dolly.Point
		if err := json.NewDecoder(r.Body).Decode(&point); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := cfg.Manager.UpdatePoint(index, point, pathIndex); err != nil {
			writeCollectionError(w, err)
			return
		}
		writePaths(w, http.StatusOK, cfg.Manager)
	}
}

func removePointHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathIndex, ok := intParam(w, r, "path")
		if !ok {
			return
		}
		index, ok := intParam(w, r, "index")
		if !ok {
			return
		}
		if err := cfg.Manager.RemovePoint(index, pathIndex); err != nil {
			writeCollectionError(w, err)
			return
		}
		writePaths(w, http.StatusOK, cfg.Manager)
	}
}

func duplicatePointHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathIndex, ok := intParam(w, r, "path")
		if !ok {
			return
		}
		index, ok := intParam(w, r, "index")
		if !ok {
			return
		}
		if err := cfg.Manager.DuplicatePoint(index, pathIndex); err != nil {
			writeCollectionError(w, err)
			return
		}
		writePaths(w, http.StatusCreated, cfg.Manager)
	}
}

func movePointHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pathIndex, ok := intParam(w, r, "path")
		if !ok {
			return
		}
		index, ok := intParam(w, r, "index")
		if !ok {
			return
		}
		var req MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.To == nil {
			WriteError(w, http.StatusBadRequest, "to is required", "BAD_REQUEST")
			return
		}
		if err := cfg.Manager.MovePoint(index, *req.To, pathIndex); err != nil {
			writeCollectionError(w, err)
			return
		}
		writePaths(w, http.StatusOK, cfg.Manager)
	}
}

func writePaths(w http.ResponseWriter, status int, m *dolly.Manager) {
	paths := m.Paths()
	WriteJSON(w, status, PathsResponse{
		Paths:       paths,
		TotalPoints: dolly.CountPoints(paths),
		Version:     m.Version(),
	})
}

func writeCollectionError(w http.ResponseWriter, err error) {
	switch {
	case dolly.IsCapacity(err):
		WriteError(w, http.StatusConflict, err.Error(), "CAPACITY_EXCEEDED")
	case errors.Is(err, dolly.ErrPathIndex), errors.Is(err, dolly.ErrPointIndex):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, dolly.ErrNoPoints):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, dolly.ErrInvalidDocument):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "INVALID_DOCUMENT")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		WriteError(w, http.StatusBadRequest, name+" must be an integer", "BAD_REQUEST")
		return 0, false
	}
	return v, true
}

// decodeOptional decodes a JSON body into dst, leaving dst untouched when
// the body is empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
	return false
}
