package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBoltStoreSavesAndExpiresTokens(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		TokenTTL:        time.Hour,
		CleanupInterval: time.Hour,
	}

	storeRaw, err := openBolt(filepath.Join(dir, "nested", "tokens.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }
	store.lastCleanup.Store(now.Unix())

	if _, ok, err := store.Token("https://zs.zevs.me"); err != nil || ok {
		t.Fatalf("expected no token, ok=%v err=%v", ok, err)
	}

	if err := store.SaveToken("https://zs.zevs.me", "tok-1", time.Time{}); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := store.SaveToken("http://localhost:8000", "tok-2", now.Add(time.Minute)); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	tok, ok, err := store.Token("https://zs.zevs.me")
	if err != nil || !ok || tok != "tok-1" {
		t.Fatalf("expected tok-1, got %q ok=%v err=%v", tok, ok, err)
	}

	// Past the explicit expiry of tok-2 but within the TTL of tok-1.
	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Token("http://localhost:8000"); ok {
		t.Fatalf("expected tok-2 to expire")
	}
	if _, ok, _ := store.Token("https://zs.zevs.me"); !ok {
		t.Fatalf("expected tok-1 to survive")
	}

	// Past the TTL; cleanup pass removes everything.
	now = now.Add(2 * time.Hour)
	if err := store.maybeCleanupExpired(now); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, ok, _ := store.Token("https://zs.zevs.me"); ok {
		t.Fatalf("expected tok-1 to be cleaned up")
	}
}

func TestBoltStoreDeleteToken(t *testing.T) {
	store, err := NewStore("bbolt", filepath.Join(t.TempDir(), "tokens.db"), Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if err := store.SaveToken("h", "t", time.Time{}); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := store.DeleteToken("h"); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if _, ok, err := store.Token("h"); err != nil || ok {
		t.Fatalf("expected token removed, ok=%v err=%v", ok, err)
	}
}

func TestDecodeEntryRejectsShortValues(t *testing.T) {
	if _, _, ok := decodeEntry([]byte{1, 2, 3}); ok {
		t.Fatalf("expected short value to be rejected")
	}
	if _, _, ok := decodeEntry(encodeEntry(time.Unix(0, 0), "x")); ok {
		t.Fatalf("expected zero expiry to be rejected")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.SaveToken("h", "x", time.Time{}); err != nil {
		t.Fatalf("noop store SaveToken: %v", err)
	}
	if _, ok, _ := store.Token("h"); ok {
		t.Fatalf("noop store should never return a token")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
