package keyring

import (
	"errors"
	"testing"
)

func TestKey(t *testing.T) {
	if got := Key("alpaca", FieldSecret); got != "alpaca.secret" {
		t.Errorf("Key() = %q, want %q", got, "alpaca.secret")
	}
	if got := Key("polygon", FieldAPIKey); got != "polygon.api_key" {
		t.Errorf("Key() = %q, want %q", got, "polygon.api_key")
	}
}

func TestEnvVar(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"alpaca.key_id", "DESK_ALPACA_KEY_ID"},
		{"alpaca.secret", "DESK_ALPACA_SECRET"},
		{"alphavantage.api_key", "DESK_ALPHAVANTAGE_API_KEY"},
	}
	for _, tt := range tests {
		if got := EnvVar(tt.key); got != tt.want {
			t.Errorf("EnvVar(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestEnvStore_EnvOverridesUnderlying(t *testing.T) {
	t.Setenv("DESK_POLYGON_API_KEY", "env-key")

	underlying := NewMockStore().WithCredential("polygon", FieldAPIKey, "keyring-key")
	store := NewEnvStore(underlying)

	got, err := store.Get(ServiceName, Key("polygon", FieldAPIKey))
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if got != "env-key" {
		t.Errorf("Get() = %q, want env override %q", got, "env-key")
	}
}

func TestEnvStore_FallsBackToUnderlying(t *testing.T) {
	underlying := NewMockStore().WithCredential("polygon", FieldAPIKey, "keyring-key")
	store := NewEnvStore(underlying)

	got, err := store.Get(ServiceName, Key("polygon", FieldAPIKey))
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if got != "keyring-key" {
		t.Errorf("Get() = %q, want %q", got, "keyring-key")
	}
}

func TestEnvStore_NotFound(t *testing.T) {
	store := NewEnvStore(NewMockStore())

	_, err := store.Get(ServiceName, Key("finnhub", FieldAPIKey))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestEnvStore_SetAndDeletePassThrough(t *testing.T) {
	underlying := NewMockStore()
	store := NewEnvStore(underlying)

	if err := store.Set(ServiceName, Key("iexcloud", FieldAPIKey), "tok"); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}
	got, err := underlying.Get(ServiceName, Key("iexcloud", FieldAPIKey))
	if err != nil || got != "tok" {
		t.Fatalf("underlying Get() = %q, %v, want tok, nil", got, err)
	}

	if err := store.Delete(ServiceName, Key("iexcloud", FieldAPIKey)); err != nil {
		t.Fatalf("Delete() error = %v, want nil", err)
	}
	if _, err := underlying.Get(ServiceName, Key("iexcloud", FieldAPIKey)); !errors.Is(err, ErrNotFound) {
		t.Errorf("underlying Get() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestGetOrEmpty(t *testing.T) {
	store := NewMockStore().WithCredential("finnhub", FieldAPIKey, "fh-key")

	if got := GetOrEmpty(store, "finnhub", FieldAPIKey); got != "fh-key" {
		t.Errorf("GetOrEmpty() = %q, want %q", got, "fh-key")
	}
	if got := GetOrEmpty(store, "polygon", FieldAPIKey); got != "" {
		t.Errorf("GetOrEmpty() missing = %q, want empty", got)
	}

	// A failing keyring reads as absent, not as an error.
	broken := NewMockStore().WithGetError(errors.New("keyring locked"))
	if got := GetOrEmpty(broken, "finnhub", FieldAPIKey); got != "" {
		t.Errorf("GetOrEmpty() on error = %q, want empty", got)
	}
}
