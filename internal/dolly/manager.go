package dolly

import (
	"fmt"
	"log/slog"
	"sync"
)

// Listener receives a private copy of the collection after every change.
type Listener func(paths []Path)

// Manager owns the path collection. Every operation is atomic: it either
// applies completely or leaves the collection untouched and returns an error.
// Index, PathIndex and Path.Index are derived from structure and rewritten
// after each structural change.
type Manager struct {
	mu        sync.Mutex
	paths     []Path
	version   uint64
	listeners map[int]Listener
	nextID    int
	logger    *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		paths:     []Path{},
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Paths returns a deep copy of the collection.
func (m *Manager) Paths() []Path {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ClonePaths(m.paths)
}

// Path returns a copy of the path at pathIndex.
func (m *Manager) Path(pathIndex int) (Path, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pathIndex < 0 || pathIndex >= len(m.paths) {
		return Path{}, false
	}
	return clonePath(m.paths[pathIndex]), true
}

func (m *Manager) TotalPoints() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CountPoints(m.paths)
}

// Version increases by one with every applied change.
func (m *Manager) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// SetPaths replaces the collection wholesale, as given.
func (m *Manager) SetPaths(paths []Path) {
	_ = m.mutate("set_paths", func() error {
		m.paths = ClonePaths(paths)
		return nil
	})
}

// AddPath appends path. A path without points is replaced by a single
// default point.
func (m *Manager) AddPath(path Path) error {
	return m.mutate("add_path", func() error {
		if len(path.Points) == 0 {
			path = NewPath(len(m.paths))
		}
		if len(path.Points) >= MaxPointsPerPath {
			return ErrPathFull
		}
		if CountPoints(m.paths)+len(path.Points) >= MaxTotalPoints {
			return ErrCollectionFull
		}
		m.paths = append(m.paths, clonePath(path))
		m.reindex()
		return nil
	})
}

// UpdatePath replaces the path at pathIndex wholesale.
func (m *Manager) UpdatePath(pathIndex int, updated Path) error {
	return m.mutate("update_path", func() error {
		if err := m.checkPath(pathIndex); err != nil {
			return err
		}
		if len(updated.Points) == 0 {
			return ErrNoPoints
		}
		if len(updated.Points) >= MaxPointsPerPath {
			return ErrPathFull
		}
		if CountPoints(m.paths)-len(m.paths[pathIndex].Points)+len(updated.Points) > MaxTotalPoints {
			return ErrCollectionFull
		}
		m.paths[pathIndex] = clonePath(updated)
		m.reindex()
		return nil
	})
}

// RemovePath deletes the path at pathIndex and renumbers the rest.
func (m *Manager) RemovePath(pathIndex int) error {
	return m.mutate("remove_path", func() error {
		if err := m.checkPath(pathIndex); err != nil {
			return err
		}
		m.removePathLocked(pathIndex)
		return nil
	})
}

// AddPoint appends point to the path at pathIndex.
func (m *Manager) AddPoint(point Point, pathIndex int) error {
	return m.mutate("add_point", func() error {
		if err := m.checkPath(pathIndex); err != nil {
			return err
		}
		return m.insertLocked(len(m.paths[pathIndex].Points), point, pathIndex)
	})
}

// InsertPoint places point at index within the path, shifting later points.
func (m *Manager) InsertPoint(index int, point Point, pathIndex int) error {
	return m.mutate("insert_point", func() error {
		if err := m.checkPath(pathIndex); err != nil {
			return err
		}
		return m.insertLocked(index, point, pathIndex)
	})
}

// UpdatePoint replaces a point. When updated.PathIndex equals pathIndex the
// point at index is replaced verbatim. Otherwise the point is moved out of
// path updated.PathIndex (matched by its Index) and appended to path
// pathIndex; pathIndex may equal the number of paths to start a new one.
// A source path left empty is removed.
func (m *Manager) UpdatePoint(index int, updated Point, pathIndex int) error {
	return m.mutate("update_point", func() error {
		if updated.PathIndex == pathIndex {
			if err := m.checkPoint(index, pathIndex); err != nil {
				return err
			}
			m.paths[pathIndex].Points[index] = updated
			return nil
		}
		return m.transferLocked(updated, pathIndex)
	})
}

// RemovePoint deletes the point at index. Removing the last point of a path
// removes the path.
func (m *Manager) RemovePoint(index, pathIndex int) error {
	return m.mutate("remove_point", func() error {
		if err := m.checkPath(pathIndex); err != nil {
			return err
		}
		if len(m.paths[pathIndex].Points) == 1 {
			m.removePathLocked(pathIndex)
			return nil
		}
		if err := m.checkPoint(index, pathIndex); err != nil {
			return err
		}
		pts := m.paths[pathIndex].Points
		m.paths[pathIndex].Points = append(pts[:index:index], pts[index+1:]...)
		m.reindex()
		return nil
	})
}

// DuplicatePoint inserts a copy of the point at index right after it.
func (m *Manager) DuplicatePoint(index, pathIndex int) error {
	return m.mutate("duplicate_point", func() error {
		if err := m.checkPoint(index, pathIndex); err != nil {
			return err
		}
		return m.insertLocked(index+1, m.paths[pathIndex].Points[index], pathIndex)
	})
}

// MovePoint reorders a point within its path.
func (m *Manager) MovePoint(from, to, pathIndex int) error {
	return m.mutate("move_point", func() error {
		if err := m.checkPoint(from, pathIndex); err != nil {
			return err
		}
		if err := m.checkPoint(to, pathIndex); err != nil {
			return err
		}
		pts := m.paths[pathIndex].Points
		moved := pts[from]
		rest := append(pts[:from:from], pts[from+1:]...)
		out := make([]Point, 0, len(pts))
		out = append(out, rest[:to]...)
		out = append(out, moved)
		out = append(out, rest[to:]...)
		m.paths[pathIndex].Points = out
		m.reindex()
		return nil
	})
}

func (m *Manager) insertLocked(index int, point Point, pathIndex int) error {
	pts := m.paths[pathIndex].Points
	if index < 0 || index > len(pts) {
		return fmt.Errorf("%w: %d", ErrPointIndex, index)
	}
	if len(pts) >= MaxPointsPerPath {
		return ErrPathFull
	}
	if CountPoints(m.paths) >= MaxTotalPoints {
		return ErrCollectionFull
	}

	out := make([]Point, 0, len(pts)+1)
	out = append(out, pts[:index]...)
	out = append(out, point)
	out = append(out, pts[index:]...)
	m.paths[pathIndex].Points = out
	m.reindex()
	return nil
}

func (m *Manager) transferLocked(updated Point, dest int) error {
	src := updated.PathIndex
	if err := m.checkPath(src); err != nil {
		return err
	}
	if dest < 0 || dest > len(m.paths) {
		return fmt.Errorf("%w: %d", ErrPathIndex, dest)
	}

	pos := -1
	for i, p := range m.paths[src].Points {
		if p.Index == updated.Index {
			pos = i
			break
		}
	}
	if pos < 0 {
		return fmt.Errorf("%w: %d", ErrPointIndex, updated.Index)
	}

	if dest == len(m.paths) {
		m.paths = append(m.paths, Path{Index: dest})
	} else if len(m.paths[dest].Points) >= MaxPointsPerPath {
		return ErrPathFull
	}

	pts := m.paths[src].Points
	m.paths[src].Points = append(pts[:pos:pos], pts[pos+1:]...)

	updated.Index = len(m.paths[dest].Points)
	updated.PathIndex = dest
	m.paths[dest].Points = append(m.paths[dest].Points, updated)

	if len(m.paths[src].Points) == 0 {
		m.removePathLocked(src)
		return nil
	}
	m.reindex()
	return nil
}

func (m *Manager) removePathLocked(pathIndex int) {
	m.paths = append(m.paths[:pathIndex:pathIndex], m.paths[pathIndex+1:]...)
	m.reindex()
}

func (m *Manager) reindex() {
	for i := range m.paths {
		m.paths[i].Index = i
		for j := range m.paths[i].Points {
			m.paths[i].Points[j].Index = j
			m.paths[i].Points[j].PathIndex = i
		}
	}
}

func (m *Manager) checkPath(pathIndex int) error {
	if pathIndex < 0 || pathIndex >= len(m.paths) {
		return fmt.Errorf("%w: %d", ErrPathIndex, pathIndex)
	}
	return nil
}

func (m *Manager) checkPoint(index, pathIndex int) error {
	if err := m.checkPath(pathIndex); err != nil {
		return err
	}
	if index < 0 || index >= len(m.paths[pathIndex].Points) {
		return fmt.Errorf("%w: %d", ErrPointIndex, index)
	}
	return nil
}

// mutate runs fn under the lock and notifies listeners when it succeeds.
func (m *Manager) mutate(op string, fn func() error) error {
	m.mu.Lock()
	if err := fn(); err != nil {
		m.mu.Unlock()
		if m.logger != nil {
			m.logger.Debug("collection change rejected", "op", op, "error", err)
		}
		return err
	}
	m.version++
	snapshot := m.paths
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	copies := make([][]Path, len(listeners))
	for i := range listeners {
		copies[i] = ClonePaths(snapshot)
	}
	m.mu.Unlock()

	for i, l := range listeners {
		l(copies[i])
	}
	return nil
}
