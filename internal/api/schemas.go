package api

import (
	"github.com/vrcdolly/dolly-agent/internal/dolly"
	"github.com/vrcdolly/dolly-agent/internal/library"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	Paths   int    `json:"paths"`
	Points  int    `json:"points"`
}

type PathsResponse struct {
	Paths       []dolly.Path `json:"paths"`
	TotalPoints int          `json:"total_points"`
	Version     uint64       `json:"version"`
}

type SetPathsRequest struct {
	Paths []dolly.Path `json:"paths"`
}

type MoveRequest struct {
	To *int `json:"to"`
}

type DocumentResponse struct {
	Path   string `json:"path,omitempty"`
	Dirty  bool   `json:"dirty"`
	Paths  int    `json:"paths"`
	Points int    `json:"points"`
}

type FileRequest struct {
	Path string `json:"path"`
}

type LoadResponse struct {
	Document DocumentResponse    `json:"document"`
	Result   *library.LoadResult `json:"result"`
}

type ValidateResponse struct {
	Valid       bool     `json:"valid"`
	Paths       int      `json:"paths"`
	Points      int      `json:"points"`
	RangeErrors []string `json:"range_errors,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

type SnapshotsResponse struct {
	Snapshots []*library.Snapshot `json:"snapshots"`
}

type RecentResponse struct {
	Files []*library.RecentFile `json:"files"`
}

type PlayDelayedRequest struct {
	Delay float64 `json:"delay"`
}

type ChatboxRequest struct {
	Message string `json:"message"`
}

type OSCResponse struct {
	Status  string `json:"status"`
	Address string `json:"address"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
