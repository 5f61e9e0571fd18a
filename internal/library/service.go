package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
	"github.com/vrcdolly/dolly-agent/internal/export"
	"github.com/vrcdolly/dolly-agent/internal/logging"
)

var (
	ErrNoPath           = errors.New("document has no file path")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

const lockRetryDelay = 50 * time.Millisecond

// Service ties the collection manager to files on disk and to the snapshot
// history. A failed open or import never touches the current collection.
type Service struct {
	manager *dolly.Manager
	repo    Repository
	logger  *slog.Logger
	keep    int

	mu           sync.Mutex
	path         string
	savedVersion uint64
}

func NewService(manager *dolly.Manager, repo Repository, keep int, logger *slog.Logger) *Service {
	return &Service{
		manager:      manager,
		repo:         repo,
		logger:       logger,
		keep:         keep,
		savedVersion: manager.Version(),
	}
}

// Current describes the open document.
func (s *Service) Current() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Document{Path: s.path, Dirty: s.manager.Version() != s.savedVersion}
}

// New starts an empty, unsaved collection.
func (s *Service) New() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.manager.SetPaths(nil)
	s.path = ""
	s.savedVersion = s.manager.Version()
}

// Open loads a JSON or YAML document and makes it the current file.
func (s *Service) Open(ctx context.Context, path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	paths, err := dolly.Decode(data, dolly.FormatFromPath(path))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.manager.SetPaths(paths)
	s.path = path
	s.savedVersion = s.manager.Version()
	s.mu.Unlock()

	if err := s.repo.TouchRecentFile(ctx, path, time.Now()); err != nil {
		s.warn("failed to record recent file", "error", err)
	}
	s.info("document opened", "path", logging.SanitizePath(path), "paths", len(paths))
	return summarize(paths), nil
}

// Import replaces the collection with a document received from elsewhere
// (request body, OSC, watched directory). The file path is kept and the
// document becomes dirty.
func (s *Service) Import(ctx context.Context, data []byte, format dolly.Format, source string) (*LoadResult, error) {
	paths, err := dolly.Decode(data, format)
	if err != nil {
		return nil, err
	}
	s.manager.SetPaths(paths)

	if err := s.snapshot(ctx, source, "", paths); err != nil {
		s.warn("failed to record snapshot", "source", source, "error", err)
	}
	s.info("collection imported", "source", source, "paths", len(paths))
	return summarize(paths), nil
}

// Save writes the collection to the current file.
func (s *Service) Save(ctx context.Context) (string, error) {
	s.mu.Lock()
	path := s.path
	s.mu.Unlock()

	if path == "" {
		return "", ErrNoPath
	}
	return path, s.SaveAs(ctx, path)
}

// SaveAs writes the collection to path and makes it the current file.
func (s *Service) SaveAs(ctx context.Context, path string) error {
	path = filepath.Clean(path)
	if err := export.ValidateOutputDir(filepath.Dir(path)); err != nil {
		return err
	}

	version := s.manager.Version()
	paths := s.manager.Paths()
	data, err := dolly.Encode(paths, dolly.FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := writeLocked(ctx, path, data); err != nil {
		return err
	}

	s.mu.Lock()
	s.path = path
	s.savedVersion = version
	s.mu.Unlock()

	if err := s.snapshot(ctx, SourceSave, path, paths); err != nil {
		s.warn("failed to record snapshot", "source", SourceSave, "error", err)
	}
	if err := s.repo.TouchRecentFile(ctx, path, time.Now()); err != nil {
		s.warn("failed to record recent file", "error", err)
	}
	s.info("document saved", "path", logging.SanitizePath(path), "bytes", len(data))
	return nil
}

func (s *Service) ListSnapshots(ctx context.Context, limit int) ([]*Snapshot, error) {
	return s.repo.ListSnapshots(ctx, limit)
}

// RestoreSnapshot replaces the collection with a stored snapshot.
func (s *Service) RestoreSnapshot(ctx context.Context, id string) (*LoadResult, error) {
	snap, err := s.repo.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSnapshotNotFound
	}
	paths, err := dolly.Decode([]byte(snap.Content), dolly.FormatJSON)
	if err != nil {
		return nil, err
	}
	s.manager.SetPaths(paths)

	if err := s.snapshot(ctx, SourceRestore, snap.FilePath, paths); err != nil {
		s.warn("failed to record snapshot", "source", SourceRestore, "error", err)
	}
	s.info("snapshot restored", "snapshot_id", id)
	return summarize(paths), nil
}

func (s *Service) RecentFiles(ctx context.Context, limit int) ([]*RecentFile, error) {
	return s.repo.ListRecentFiles(ctx, limit)
}

func (s *Service) snapshot(ctx context.Context, source, filePath string, paths []dolly.Path) error {
	content, err := dolly.MarshalDocument(paths)
	if err != nil {
		return err
	}
	return s.repo.CreateSnapshot(ctx, &Snapshot{
		ID:         NewID(),
		Source:     source,
		FilePath:   filePath,
		PathCount:  len(paths),
		PointCount: dolly.CountPoints(paths),
		Content:    content,
		CreatedAt:  time.Now(),
	}, s.keep)
}

// writeLocked writes data under an exclusive lock on path+".lock", through
// a temp file renamed into place.
func writeLocked(ctx context.Context, path string, data []byte) error {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", path)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(path + ".lock")
	}()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func summarize(paths []dolly.Path) *LoadResult {
	res := &LoadResult{Paths: len(paths), Points: dolly.CountPoints(paths)}
	rangeErrs, structural := dolly.ValidatePaths(paths)
	for _, e := range structural {
		res.Warnings = append(res.Warnings, e.Error())
	}
	for _, e := range rangeErrs {
		res.Warnings = append(res.Warnings, e.Error())
	}
	return res
}

func (s *Service) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Service) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
