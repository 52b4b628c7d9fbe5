package store

import (
	"errors"
	"testing"

	"github.com/dukerupert/kidpoints/internal/database"
)

func setupKVTestDB(t *testing.T) *SQLiteKV {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteKV(db)
}

func testKVContract(t *testing.T, kv KV) {
	t.Helper()

	_, ok, err := kv.Get(KeyMembers)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Fatal("expected missing slot")
	}

	if err := kv.Set(KeyMembers, []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(KeyMembers, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, ok, err := kv.Get(KeyMembers)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected populated slot")
	}
	if string(got) != `[{"id":"a"}]` {
		t.Errorf("value = %q, want %q", got, `[{"id":"a"}]`)
	}

	if err := kv.Set(KeySettings, []byte(`{}`)); err != nil {
		t.Fatalf("set settings: %v", err)
	}
	keys, err := kv.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != KeyMembers || keys[1] != KeySettings {
		t.Errorf("keys = %v, want [%s %s]", keys, KeyMembers, KeySettings)
	}

	if err := kv.Delete(KeyMembers, KeyTasks); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(KeyMembers); ok {
		t.Error("expected members slot deleted")
	}
	if _, ok, _ := kv.Get(KeySettings); !ok {
		t.Error("settings slot should survive")
	}
}

func TestSQLiteKV(t *testing.T) {
	testKVContract(t, setupKVTestDB(t))
}

func TestMemoryKV(t *testing.T) {
	testKVContract(t, NewMemoryKV())
}

func TestMemoryKVCopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	buf := []byte("abc")
	kv.Set("k", buf)
	buf[0] = 'z'

	got, _, _ := kv.Get("k")
	if string(got) != "abc" {
		t.Errorf("value = %q, want %q", got, "abc")
	}
}

func TestLoadJSONCorrupt(t *testing.T) {
	kv := NewMemoryKV()
	kv.Set(KeyRewards, []byte(`{not json`))

	var v []map[string]any
	found, err := LoadJSON(kv, KeyRewards, &v)
	if !found {
		t.Error("expected found for populated slot")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestSaveLoadJSON(t *testing.T) {
	kv := NewMemoryKV()
	if err := SaveJSON(kv, KeyCurrentMember, "m-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	var got string
	found, err := LoadJSON(kv, KeyCurrentMember, &got)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found || got != "m-1" {
		t.Errorf("got = %q (found %v), want %q", got, found, "m-1")
	}
}
