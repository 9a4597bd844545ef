package keyring

import (
	"errors"
	"os"
	"strings"

	gokeyring "github.com/zalando/go-keyring"
)

const (
	// ServiceName is the keyring service name for storing secrets.
	// Uses reverse domain notation for proper namespacing.
	ServiceName = "com.skovera.desk"

	// EnvPrefix namespaces the environment variables that can stand in for
	// keyring entries in CI/headless environments.
	EnvPrefix = "DESK_"
)

// Credential field names stored per provider.
const (
	FieldAPIKey = "api_key"
	FieldKeyID  = "key_id"
	FieldSecret = "secret"
)

// ErrNotFound is returned when a secret is not found in the keyring.
var ErrNotFound = errors.New("secret not found")

// Key builds the keyring entry name for one provider credential field,
// e.g. Key("alpaca", FieldSecret) -> "alpaca.secret".
func Key(provider, field string) string {
	return provider + "." + field
}

// EnvVar maps a keyring entry name to its environment override,
// e.g. "alpaca.key_id" -> "DESK_ALPACA_KEY_ID".
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Store provides an interface for secure secret storage.
type Store interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SystemStore implements Store using the system keyring.
type SystemStore struct{}

// NewSystemStore creates a new system keyring store.
func NewSystemStore() *SystemStore {
	return &SystemStore{}
}

// Get retrieves a secret from the system keyring.
func (s *SystemStore) Get(service, key string) (string, error) {
	secret, err := gokeyring.Get(service, key)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return secret, nil
}

// Set stores a secret in the system keyring.
func (s *SystemStore) Set(service, key, value string) error {
	return gokeyring.Set(service, key, value)
}

// Delete removes a secret from the system keyring.
func (s *SystemStore) Delete(service, key string) error {
	err := gokeyring.Delete(service, key)
	if err != nil && errors.Is(err, gokeyring.ErrNotFound) {
		return nil // Deleting non-existent key is not an error
	}
	return err
}

// EnvStore wraps another Store and checks environment variables first.
// This enables CI/headless environments to provide credentials via env
// vars: every entry name has a DESK_* override per EnvVar.
type EnvStore struct {
	underlying Store
}

// NewEnvStore creates a new EnvStore wrapping the given store.
func NewEnvStore(underlying Store) *EnvStore {
	return &EnvStore{underlying: underlying}
}

// Get retrieves a secret, checking the matching env var first.
func (e *EnvStore) Get(service, key string) (string, error) {
	if envVal := os.Getenv(EnvVar(key)); envVal != "" {
		return envVal, nil
	}
	return e.underlying.Get(service, key)
}

// Set stores a secret in the underlying store.
func (e *EnvStore) Set(service, key, value string) error {
	return e.underlying.Set(service, key, value)
}

// Delete removes a secret from the underlying store.
func (e *EnvStore) Delete(service, key string) error {
	return e.underlying.Delete(service, key)
}

// GetOrEmpty reads one provider credential field, treating every failure
// as absent. Provider availability checks use this: a locked or missing
// keyring means the provider is unavailable, not an error.
func GetOrEmpty(store Store, provider, field string) string {
	value, err := store.Get(ServiceName, Key(provider, field))
	if err != nil {
		return ""
	}
	return value
}
