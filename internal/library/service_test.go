package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vrcdolly/dolly-agent/internal/db"
	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

func setupTestService(t *testing.T, keep int) (*Service, *dolly.Manager, Repository) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := NewRepository(database.Conn())
	manager := dolly.NewManager(nil)
	return NewService(manager, repo, keep, nil), manager, repo
}

const twoPathDoc = `[
  {"Index": 0, "PathIndex": 0, "Aperture": 15, "Zoom": 45, "Speed": 3, "Duration": 2, "Saturation": 100, "Lightness": 50, "Hue": 120, "FocalDistance": 2, "IsLocal": true},
  {"Index": 1, "PathIndex": 0, "Aperture": 15, "Zoom": 45, "Speed": 3, "Duration": 2, "Saturation": 100, "Lightness": 50, "Hue": 120, "FocalDistance": 2, "IsLocal": true},
  {"Index": 0, "PathIndex": 1, "Aperture": 15, "Zoom": 45, "Speed": 3, "Duration": 2, "Saturation": 100, "Lightness": 50, "Hue": 120, "FocalDistance": 2, "IsLocal": true}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestService_Open(t *testing.T) {
	svc, manager, _ := setupTestService(t, 10)
	path := writeFile(t, "paths.json", twoPathDoc)

	res, err := svc.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if res.Paths != 2 || res.Points != 3 {
		t.Errorf("result = %+v, want 2 paths 3 points", res)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}
	if got := len(manager.Paths()); got != 2 {
		t.Errorf("manager has %d paths, want 2", got)
	}

	doc := svc.Current()
	if doc.Path != path || doc.Dirty {
		t.Errorf("Current() = %+v, want clean %s", doc, path)
	}

	recent, err := svc.RecentFiles(context.Background(), 5)
	if err != nil || len(recent) != 1 || recent[0].Path != path {
		t.Errorf("RecentFiles() = %v, %v", recent, err)
	}
}

func TestService_OpenInvalidKeepsCollection(t *testing.T) {
	svc, manager, _ := setupTestService(t, 10)
	manager.SetPaths([]dolly.Path{dolly.NewPath(0)})
	version := manager.Version()

	for _, content := range []string{"[]", "{broken", `{"Index":0}`} {
		path := writeFile(t, "bad.json", content)
		if _, err := svc.Open(context.Background(), path); err == nil {
			t.Errorf("Open(%q) should fail", content)
		}
	}
	if manager.Version() != version {
		t.Error("failed open mutated the collection")
	}
}

func TestService_OpenReportsRangeWarnings(t *testing.T) {
	svc, _, _ := setupTestService(t, 10)
	path := writeFile(t, "paths.json", `[{"Index":0,"PathIndex":0,"Aperture":99}]`)

	res, err := svc.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected range warnings")
	}
}

func TestService_SaveAsAndReopen(t *testing.T) {
	svc, manager, _ := setupTestService(t, 10)
	manager.SetPaths([]dolly.Path{dolly.NewPath(0)})
	pt := dolly.DefaultPoint(0, 0)
	pt.Name = "ui only"
	manager.AddPoint(pt, 0)

	if !svc.Current().Dirty {
		t.Fatal("document should be dirty before saving")
	}

	for _, name := range []string{"out.json", "out.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := svc.SaveAs(context.Background(), path); err != nil {
			t.Fatalf("SaveAs(%s) error = %v", name, err)
		}
		if svc.Current().Dirty {
			t.Errorf("document dirty after saving %s", name)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read saved file: %v", err)
		}
		if strings.Contains(string(data), "ui_") {
			t.Errorf("%s contains ui_ fields", name)
		}
		if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
			t.Errorf("lock file left behind for %s", name)
		}

		reopened, _, _ := setupTestService(t, 10)
		res, err := reopened.Open(context.Background(), path)
		if err != nil {
			t.Fatalf("Open(%s) error = %v", name, err)
		}
		if res.Points != 2 {
			t.Errorf("reopened %s has %d points, want 2", name, res.Points)
		}
	}
}

func TestService_SaveWithoutPath(t *testing.T) {
	svc, _, _ := setupTestService(t, 10)
	if _, err := svc.Save(context.Background()); !errors.Is(err, ErrNoPath) {
		t.Fatalf("Save() error = %v, want ErrNoPath", err)
	}
}

func TestService_SaveAsMissingDir(t *testing.T) {
	svc, _, _ := setupTestService(t, 10)
	err := svc.SaveAs(context.Background(), filepath.Join(t.TempDir(), "missing", "out.json"))
	if err == nil {
		t.Fatal("SaveAs() into a missing directory should fail")
	}
}

func TestService_ImportSnapshotsAndRestore(t *testing.T) {
	svc, manager, _ := setupTestService(t, 2)
	ctx := context.Background()

	res, err := svc.Import(ctx, []byte(twoPathDoc), dolly.FormatJSON, SourceOSC)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Paths != 2 {
		t.Fatalf("Import() paths = %d, want 2", res.Paths)
	}
	if !svc.Current().Dirty {
		t.Error("document should be dirty after import")
	}

	snaps, err := svc.ListSnapshots(ctx, 10)
	if err != nil || len(snaps) != 1 {
		t.Fatalf("ListSnapshots() = %v, %v", snaps, err)
	}
	first := snaps[0]
	if first.Source != SourceOSC || first.PointCount != 3 {
		t.Errorf("snapshot = %+v", first)
	}

	manager.SetPaths(nil)
	if _, err := svc.RestoreSnapshot(ctx, first.ID); err != nil {
		t.Fatalf("RestoreSnapshot() error = %v", err)
	}
	if manager.TotalPoints() != 3 {
		t.Errorf("restored points = %d, want 3", manager.TotalPoints())
	}
	snaps, _ = svc.ListSnapshots(ctx, 10)
	if len(snaps) != 2 || snaps[0].Source != SourceRestore || snaps[0].PointCount != 3 {
		t.Fatalf("snapshots after restore = %+v, want newest from %s", snaps, SourceRestore)
	}

	if _, err := svc.RestoreSnapshot(ctx, "missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("RestoreSnapshot(missing) error = %v", err)
	}

	svc.Import(ctx, []byte(twoPathDoc), dolly.FormatJSON, SourceWatch)
	svc.Import(ctx, []byte(twoPathDoc), dolly.FormatJSON, SourceImport)
	snaps, _ = svc.ListSnapshots(ctx, 10)
	if len(snaps) != 2 {
		t.Fatalf("len(snapshots) = %d, want retention of 2", len(snaps))
	}
	if snaps[0].Source != SourceImport {
		t.Errorf("newest snapshot source = %s, want %s", snaps[0].Source, SourceImport)
	}
}

func TestService_ImportEmptyKeepsCollection(t *testing.T) {
	svc, manager, _ := setupTestService(t, 10)
	manager.SetPaths([]dolly.Path{dolly.NewPath(0)})

	if _, err := svc.Import(context.Background(), []byte("[]"), dolly.FormatJSON, SourceImport); !errors.Is(err, dolly.ErrNoPoints) {
		t.Fatalf("Import() error = %v, want ErrNoPoints", err)
	}
	if manager.TotalPoints() != 1 {
		t.Errorf("collection changed on empty import")
	}
}

func TestService_New(t *testing.T) {
	svc, manager, _ := setupTestService(t, 10)
	manager.SetPaths([]dolly.Path{dolly.NewPath(0)})

	svc.New()
	if len(manager.Paths()) != 0 {
		t.Error("New() left paths behind")
	}
	if doc := svc.Current(); doc.Path != "" || doc.Dirty {
		t.Errorf("Current() = %+v, want clean untitled", doc)
	}
}
