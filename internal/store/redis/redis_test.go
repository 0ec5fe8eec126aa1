package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sadopc/smokebreak/internal/config"
	"github.com/sadopc/smokebreak/internal/store"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := config.RedisConfig{
		Addr:        mr.Addr(),
		KeyPrefix:   "smokebreak:",
		DialTimeout: "2s",
	}

	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestStore_WriteRead(t *testing.T) {
	s, mr := setupTestStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, store.KeySettings, []byte(`{"focusDuration":40}`)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := s.Read(ctx, store.KeySettings)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != `{"focusDuration":40}` {
		t.Errorf("Expected stored value, got %q", got)
	}

	// Keys are namespaced by the prefix
	raw, err := mr.Get("smokebreak:settings")
	if err != nil {
		t.Fatalf("expected prefixed key in redis: %v", err)
	}
	if raw != `{"focusDuration":40}` {
		t.Errorf("Expected raw value, got %q", raw)
	}
}

func TestStore_ReadMissing(t *testing.T) {
	s, _ := setupTestStore(t)

	_, err := s.Read(context.Background(), store.KeyStatistics)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_Remove(t *testing.T) {
	s, mr := setupTestStore(t)
	ctx := context.Background()

	_ = s.Write(ctx, store.KeyLegacySessions, []byte("7"))
	if err := s.Remove(ctx, store.KeyLegacySessions); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if mr.Exists("smokebreak:pomodoroSessions") {
		t.Error("Expected key to be deleted")
	}
	if err := s.Remove(ctx, store.KeyLegacySessions); err != nil {
		t.Errorf("Removing a missing key should succeed, got %v", err)
	}
}

func TestStore_WriteFailsWhenServerDown(t *testing.T) {
	s, mr := setupTestStore(t)
	mr.Close()

	if err := s.Write(context.Background(), store.KeySettings, []byte("{}")); err == nil {
		t.Error("Expected write error with Redis unavailable")
	}
}

func TestOpen_InvalidDialTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	_, err := Open(config.RedisConfig{Addr: mr.Addr(), DialTimeout: "soon"})
	if err == nil {
		t.Fatal("Expected error for invalid dial timeout")
	}
}

func TestOpen_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := Open(config.RedisConfig{Addr: addr, DialTimeout: "200ms"}); err == nil {
		t.Fatal("Expected connection error")
	}
}

func TestStoreImplementsKV(t *testing.T) {
	var _ store.KV = (*Store)(nil)
}
