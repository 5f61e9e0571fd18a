package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
	"github.com/vrcdolly/dolly-agent/internal/library"
)

const (
	maxDocumentBytes = 4 << 20
	defaultListLimit = 50
)

func getDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, documentResponse(cfg))
	}
}

func newDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Library.New()
		WriteJSON(w, http.StatusOK, documentResponse(cfg))
	}
}

func openDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		result, err := cfg.Library.Open(r.Context(), req.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
				return
			}
			writeCollectionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, LoadResponse{Document: documentResponse(cfg), Result: result})
	}
}

func saveDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := cfg.Library.Save(r.Context()); err != nil {
			if errors.Is(err, library.ErrNoPath) {
				WriteError(w, http.StatusConflict, "document has no file path; use save-as", "NO_FILE_PATH")
				return
			}
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, documentResponse(cfg))
	}
}

func saveAsDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if strings.TrimSpace(req.Path) == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}
		if err := cfg.Library.SaveAs(r.Context(), req.Path); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusOK, documentResponse(cfg))
	}
}

// exportDocumentHandler returns the flattened document the real-time
// application reads, as JSON or, with ?format=yaml, YAML.
func exportDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := queryFormat(r)
		data, err := dolly.Encode(cfg.Manager.Paths(), format)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to encode document", "INTERNAL_ERROR")
			return
		}
		if format == dolly.FormatYAML {
			w.Header().Set("Content-Type", "application/yaml")
		} else {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func importDocumentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := readDocument(w, r)
		if !ok {
			return
		}
		result, err := cfg.Library.Import(r.Context(), data, queryFormat(r), library.SourceImport)
		if err != nil {
			writeCollectionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, LoadResponse{Document: documentResponse(cfg), Result: result})
	}
}

// validateHandler checks the request body, or the current collection when
// the body is empty, without changing anything.
func validateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := readDocument(w, r)
		if !ok {
			return
		}

		var paths []dolly.Path
		if len(data) == 0 {
			paths = cfg.Manager.Paths()
		} else {
			decoded, err := dolly.Decode(data, queryFormat(r))
			if err != nil {
				WriteJSON(w, http.StatusOK, ValidateResponse{Valid: false, Errors: []string{err.Error()}})
				return
			}
			paths = decoded
		}

		rangeErrs, structural := dolly.ValidatePaths(paths)
		resp := ValidateResponse{
			Valid:  len(rangeErrs) == 0 && len(structural) == 0,
			Paths:  len(paths),
			Points: dolly.CountPoints(paths),
		}
		for _, e := range rangeErrs {
			resp.RangeErrors = append(resp.RangeErrors, e.Error())
		}
		for _, e := range structural {
			resp.Errors = append(resp.Errors, e.Error())
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listSnapshotsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snaps, err := cfg.Library.ListSnapshots(r.Context(), queryLimit(r))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list snapshots", "INTERNAL_ERROR")
			return
		}
		if snaps == nil {
			snaps = []*library.Snapshot{}
		}
		WriteJSON(w, http.StatusOK, SnapshotsResponse{Snapshots: snaps})
	}
}

func restoreSnapshotHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "snapshot id required", "BAD_REQUEST")
			return
		}

		result, err := cfg.Library.RestoreSnapshot(r.Context(), id)
		if err != nil {
			if errors.Is(err, library.ErrSnapshotNotFound) {
				WriteError(w, http.StatusNotFound, "snapshot not found", "NOT_FOUND")
				return
			}
			writeCollectionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, LoadResponse{Document: documentResponse(cfg), Result: result})
	}
}

func recentFilesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := cfg.Library.RecentFiles(r.Context(), queryLimit(r))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list recent files", "INTERNAL_ERROR")
			return
		}
		if files == nil {
			files = []*library.RecentFile{}
		}
		WriteJSON(w, http.StatusOK, RecentResponse{Files: files})
	}
}

func documentResponse(cfg ServerConfig) DocumentResponse {
	doc := cfg.Library.Current()
	paths := cfg.Manager.Paths()
	return DocumentResponse{
		Path:   doc.Path,
		Dirty:  doc.Dirty,
		Paths:  len(paths),
		Points: dolly.CountPoints(paths),
	}
}

func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes+1))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read request body", "BAD_REQUEST")
		return nil, false
	}
	if len(data) > maxDocumentBytes {
		WriteError(w, http.StatusRequestEntityTooLarge, "document too large", "TOO_LARGE")
		return nil, false
	}
	return data, true
}

func queryFormat(r *http.Request) dolly.Format {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "yaml", "yml":
		return dolly.FormatYAML
	}
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return dolly.FormatYAML
	}
	return dolly.FormatJSON
}

func queryLimit(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return defaultListLimit
}
