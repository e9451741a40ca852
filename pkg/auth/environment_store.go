package auth

import (
	"os"
	"strings"
	"time"
)

// EnvPrefix prefixes the per-label token variables, e.g.
// WALLCRAWL_TOKEN_PINTEREST.
const EnvPrefix = "WALLCRAWL_TOKEN_"

// EnvironmentStore reads tokens from environment variables. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// EnvName returns the variable consulted for label
func EnvName(label string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(label, "-", "_"))
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(token *Token) error {
	return ErrStoreUnavailable
}

// Retrieve gets the token from the environment
func (e *EnvironmentStore) Retrieve(label string) (*Token, error) {
	if label == "" {
		return nil, ErrInvalidToken
	}
	value := strings.TrimSpace(os.Getenv(EnvName(label)))
	if value == "" {
		return nil, ErrTokenNotFound
	}
	return &Token{Label: label, Value: value, LastModified: time.Now()}, nil
}

// List returns every WALLCRAWL_TOKEN_* variable with a value
func (e *EnvironmentStore) List() ([]*Token, error) {
	var tokens []*Token
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) || strings.TrimSpace(value) == "" {
			continue
		}
		label := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		if label == "" {
			continue
		}
		tokens = append(tokens, &Token{
			Label:        label,
			Value:        strings.TrimSpace(value),
			LastModified: time.Time{},
		})
	}
	return tokens, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(label string) error {
	return ErrStoreUnavailable
}

// Exists checks whether the variable for label is set
func (e *EnvironmentStore) Exists(label string) bool {
	return label != "" && strings.TrimSpace(os.Getenv(EnvName(label))) != ""
}
