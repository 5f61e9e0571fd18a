package library

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceSave    = "save"
	SourceImport  = "import"
	SourceOSC     = "osc"
	SourceWatch   = "watch"
	SourceRestore = "restore"
)

// Snapshot is a stored copy of the collection in document form.
type Snapshot struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	FilePath   string    `json:"file_path,omitempty"`
	PathCount  int       `json:"path_count"`
	PointCount int       `json:"point_count"`
	Content    string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

type RecentFile struct {
	Path     string    `json:"path"`
	OpenedAt time.Time `json:"opened_at"`
}

// Document describes the file backing the current collection.
type Document struct {
	Path  string `json:"path,omitempty"`
	Dirty bool   `json:"dirty"`
}

// LoadResult summarizes a collection that replaced the current one.
type LoadResult struct {
	Paths    int      `json:"paths"`
	Points   int      `json:"points"`
	Warnings []string `json:"warnings,omitempty"`
}

func NewID() string {
	return uuid.NewString()
}
