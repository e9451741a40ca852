package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Token is an opaque bearer token for one upstream host
type Token struct {
	Label        string    `json:"label"`
	Value        string    `json:"value"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is the interface for storing and retrieving tokens
type TokenStore interface {
	Store(token *Token) error
	Retrieve(label string) (*Token, error)
	List() ([]*Token, error)
	Delete(label string) error
	Exists(label string) bool
}

var labelPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// NormalizeLabel lower-cases a label and checks its characters
func NormalizeLabel(label string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(label))
	if !labelPattern.MatchString(l) {
		return "", fmt.Errorf("%w: label %q must use letters, digits, '-' or '_'", ErrInvalidToken, label)
	}
	return l, nil
}

// Manager handles token storage with fallback stores
type Manager struct {
	stores []TokenStore
}

// NewManager builds the keyring, encrypted file and environment chain.
// An empty configDir selects the platform config directory.
func NewManager(configDir string) (*Manager, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	if configDir == "" {
		dir, err := getConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		configDir = dir
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "tokens.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores returns a manager over the given stores, tried in order
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the token in the first store that accepts it
func (m *Manager) Store(token *Token) error {
	if token == nil {
		return ErrInvalidToken
	}
	label, err := NormalizeLabel(token.Label)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token.Value) == "" {
		return fmt.Errorf("%w: token value is required", ErrInvalidToken)
	}

	stored := &Token{
		Label:        label,
		Value:        strings.TrimSpace(token.Value),
		LastModified: time.Now(),
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(stored); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve returns the token from the first store that has it
func (m *Manager) Retrieve(label string) (*Token, error) {
	l, err := NormalizeLabel(label)
	if err != nil {
		return nil, err
	}
	for _, store := range m.stores {
		if token, err := store.Retrieve(l); err == nil && token != nil {
			return token, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, l)
}

// Value returns just the token string, or "" when none is stored
func (m *Manager) Value(label string) string {
	token, err := m.Retrieve(label)
	if err != nil {
		return ""
	}
	return token.Value
}

// List returns the newest copy of every token across all stores
func (m *Manager) List() ([]*Token, error) {
	byLabel := make(map[string]*Token)

	for _, store := range m.stores {
		tokens, err := store.List()
		if err != nil {
			continue
		}
		for _, token := range tokens {
			if existing, ok := byLabel[token.Label]; !ok || token.LastModified.After(existing.LastModified) {
				byLabel[token.Label] = token
			}
		}
	}

	result := make([]*Token, 0, len(byLabel))
	for _, token := range byLabel {
		result = append(result, token)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Label < result[j].Label })

	return result, nil
}

// Delete removes the token from every store holding it
func (m *Manager) Delete(label string) error {
	l, err := NormalizeLabel(label)
	if err != nil {
		return err
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(l); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrTokenNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrTokenNotFound, l)
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "wallcrawl")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "wallcrawl")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "wallcrawl")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "wallcrawl")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Mask hides all but the first and last four characters of a token value
func Mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrStoreUnavailable = errors.New("token store unavailable")
)
