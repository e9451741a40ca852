package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"wallcrawl/pkg/logger"
	"wallcrawl/pkg/models"
	"wallcrawl/pkg/urlutil"
)

const currentVersion = 1

// Checkpoint is the saved paging position for one source
type Checkpoint struct {
	Source    string    `json:"source"`
	Cursor    string    `json:"cursor"`
	Pages     int       `json:"pages"`
	Items     int       `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Manager reads and writes the checkpoint file of a single source
type Manager struct {
	mu     sync.Mutex
	path   string
	source string
	logger logger.Logger
}

// NewManager returns a manager for source. An empty dir selects the
// platform data directory.
func NewManager(dir, source string, log logger.Logger) (*Manager, error) {
	if dir == "" {
		dataDir, err := dataDirectory()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		dir = filepath.Join(dataDir, "cursors")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	if log == nil {
		log = logger.GetLogger()
	}

	return &Manager{
		path:   filepath.Join(dir, urlutil.HashID(source)+".cursor.json"),
		source: source,
		logger: log.WithField("source", source),
	}, nil
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.path
}

// Load returns the saved checkpoint, or nil when none exists
func (m *Manager) Load() (*Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Source != m.source {
		return nil, fmt.Errorf("checkpoint belongs to %q, not %q", cp.Source, m.source)
	}

	m.logger.DebugWithFields("Checkpoint loaded", map[string]interface{}{
		"pages":      cp.Pages,
		"items":      cp.Items,
		"updated_at": cp.UpdatedAt,
	})

	return &cp, nil
}

// Save writes cp through a temporary file and a rename
func (m *Manager) Save(cp *Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(cp)
}

func (m *Manager) save(cp *Checkpoint) error {
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	cp.Source = m.source
	cp.Version = currentVersion

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"pages": cp.Pages,
		"items": cp.Items,
	})
	return nil
}

// Record folds a fetched page into cp. A page without a next cursor ends
// the crawl and removes the checkpoint file.
func (m *Manager) Record(cp *Checkpoint, page models.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp.Pages++
	cp.Items += len(page.Items)
	cp.Cursor = page.NextCursor

	if !page.HasMore() {
		if err := m.remove(); err != nil {
			return err
		}
		m.logger.InfoWithFields("Source exhausted, checkpoint cleared", map[string]interface{}{
			"pages": cp.Pages,
			"items": cp.Items,
		})
		return nil
	}
	return m.save(cp)
}

// Delete removes the checkpoint file; a missing file is not an error
func (m *Manager) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.remove(); err != nil {
		return err
	}
	m.logger.Debug("Checkpoint deleted")
	return nil
}

func (m *Manager) remove() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Exists reports whether a checkpoint file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// dataDirectory returns the per-OS application data directory
func dataDirectory() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "wallcrawl"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "wallcrawl"), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "wallcrawl"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "wallcrawl"), nil
	}
}
