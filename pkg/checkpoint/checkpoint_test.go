package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
)

const source = "https://www.pinterest.com/someuser/wallpapers/"

func newManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(t.TempDir(), source, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return mgr
}

func pageOf(n int, next string) models.Page {
	items := make([]models.WallpaperCandidate, n)
	return models.Page{Items: items, NextCursor: next}
}

func TestLoadMissing(t *testing.T) {
	mgr := newManager(t)

	cp, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cp != nil {
		t.Errorf("Expected nil checkpoint, got %+v", cp)
	}
	if mgr.Exists() {
		t.Error("Expected no checkpoint file")
	}
}

func TestSaveAndLoad(t *testing.T) {
	mgr := newManager(t)

	cp := &Checkpoint{Cursor: "20", Pages: 1, Items: 20}
	if err := mgr.Save(cp); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected checkpoint, got nil")
	}
	if loaded.Source != source {
		t.Errorf("Expected source %s, got %s", source, loaded.Source)
	}
	if loaded.Cursor != "20" || loaded.Pages != 1 || loaded.Items != 20 {
		t.Errorf("Unexpected checkpoint contents: %+v", loaded)
	}
	if loaded.Version != currentVersion {
		t.Errorf("Expected version %d, got %d", currentVersion, loaded.Version)
	}
	if loaded.CreatedAt.IsZero() || loaded.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestRecord(t *testing.T) {
	mgr := newManager(t)
	cp := &Checkpoint{}

	if err := mgr.Record(cp, pageOf(20, "20")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := mgr.Record(cp, pageOf(20, "40")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	loaded, err := mgr.Load()
	if err != nil || loaded == nil {
		t.Fatalf("Load() = %v, %v", loaded, err)
	}
	if loaded.Cursor != "40" {
		t.Errorf("Expected cursor 40, got %s", loaded.Cursor)
	}
	if loaded.Pages != 2 || loaded.Items != 40 {
		t.Errorf("Expected 2 pages and 40 items, got %d and %d", loaded.Pages, loaded.Items)
	}

	// Final page clears the file
	if err := mgr.Record(cp, pageOf(5, "")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if mgr.Exists() {
		t.Error("Expected checkpoint to be removed after the last page")
	}
	if cp.Items != 45 {
		t.Errorf("Expected 45 items in memory, got %d", cp.Items)
	}
}

func TestDelete(t *testing.T) {
	mgr := newManager(t)

	if err := mgr.Save(&Checkpoint{Cursor: "pin:abc"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !mgr.Exists() {
		t.Fatal("Expected checkpoint to exist")
	}

	if err := mgr.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mgr.Exists() {
		t.Error("Expected checkpoint to not exist after deletion")
	}

	// Deleting twice is fine
	if err := mgr.Delete(); err != nil {
		t.Errorf("Second Delete() error = %v", err)
	}
}

func TestSourcesDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	a, err := NewManager(dir, "https://example.com/a", logger.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewManager(dir, "https://example.com/b", logger.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}

	if a.Path() == b.Path() {
		t.Fatal("Different sources share a checkpoint path")
	}
	if err := a.Save(&Checkpoint{Cursor: "20"}); err != nil {
		t.Fatal(err)
	}
	if b.Exists() {
		t.Error("Saving one source created a checkpoint for another")
	}
}

func TestLoadRejectsForeignFile(t *testing.T) {
	mgr := newManager(t)

	content := `{"source":"https://other.example.com","cursor":"20"}`
	if err := os.WriteFile(mgr.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Load(); err == nil {
		t.Error("Expected error for checkpoint of another source")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	mgr := newManager(t)

	if err := os.WriteFile(mgr.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Load(); err == nil {
		t.Error("Expected decode error")
	}
}

func TestConcurrentSaves(t *testing.T) {
	mgr := newManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = mgr.Save(&Checkpoint{Cursor: "20", Pages: n})
		}(i)
	}
	wg.Wait()

	loaded, err := mgr.Load()
	if err != nil {
		t.Fatalf("Failed to load checkpoint after concurrent saves: %v", err)
	}
	if loaded == nil {
		t.Fatal("Checkpoint corrupted after concurrent saves")
	}

	entries, err := os.ReadDir(filepath.Dir(mgr.Path()))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Temporary file left behind: %s", e.Name())
		}
	}
}

func TestDefaultDirectory(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	mgr, err := NewManager("", source, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if !strings.Contains(mgr.Path(), "wallcrawl") {
		t.Errorf("Expected default path under wallcrawl data dir, got %s", mgr.Path())
	}
}
