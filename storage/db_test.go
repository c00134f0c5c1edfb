package storage

import (
	"errors"
	"testing"
)

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("get: %q %v", got, err)
	}
	has, err := db.Has([]byte("k"))
	if err != nil || !has {
		t.Fatalf("has: %v %v", has, err)
	}
	// stored values must not alias caller buffers
	value := []byte("original")
	if err := db.Put([]byte("alias"), value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'X'
	got, err = db.Get([]byte("alias"))
	if err != nil || string(got) != "original" {
		t.Fatalf("stored value mutated through caller buffer: %q %v", got, err)
	}
}

func TestMemDBBatchAndDelete(t *testing.T) {
	db := NewMemDB()
	if err := db.Put([]byte("stale"), []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	err := db.WriteBatch([]BatchOp{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("stale"), Delete: true},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	got, err := db.Get([]byte("a"))
	if err != nil || string(got) != "1" {
		t.Fatalf("a: %q %v", got, err)
	}
	got, err = db.Get([]byte("b"))
	if err != nil || string(got) != "2" {
		t.Fatalf("b: %q %v", got, err)
	}
	if _, err := db.Get([]byte("stale")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted key must be gone, got %v", err)
	}
	if err := db.Delete([]byte("a")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.Delete([]byte("missing")); err != nil {
		t.Fatalf("deleting a missing key must be a no-op, got %v", err)
	}
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("get: %q %v", got, err)
	}
	has, err := db.Has([]byte("k"))
	if err != nil || !has {
		t.Fatalf("has: %v %v", has, err)
	}
	err = db.WriteBatch([]BatchOp{
		{Key: []byte("k2"), Value: []byte("v2")},
		{Key: []byte("k"), Delete: true},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if _, err := db.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted key must be gone, got %v", err)
	}
	got, err = db.Get([]byte("k2"))
	if err != nil || string(got) != "v2" {
		t.Fatalf("k2: %q %v", got, err)
	}
}
