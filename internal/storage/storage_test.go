package storage

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "staging.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBlobLifecycle(t *testing.T) {
	db := openTestDB(t)

	if _, found, err := db.GetBlob(ChangeSetKey); err != nil || found {
		t.Fatalf("fresh db: found=%v err=%v", found, err)
	}

	if err := db.PutBlob(ChangeSetKey, []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := db.PutBlob(ChangeSetKey, []byte("v2")); err != nil {
		t.Fatal(err)
	}

	value, found, err := db.GetBlob(ChangeSetKey)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if string(value) != "v2" {
		t.Errorf("value = %q, want the replacement", value)
	}

	if err := db.DeleteBlob(ChangeSetKey); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := db.GetBlob(ChangeSetKey); found {
		t.Error("blob survived deletion")
	}
	// Deleting again is fine.
	if err := db.DeleteBlob(ChangeSetKey); err != nil {
		t.Errorf("second delete errored: %v", err)
	}
}

func TestImageLifecycle(t *testing.T) {
	db := openTestDB(t)

	if err := db.PutImage("img-b", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := db.PutImage("img-a", []byte{4}); err != nil {
		t.Fatal(err)
	}

	data, found, err := db.GetImage("img-b")
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if len(data) != 3 {
		t.Errorf("bytes = %v", data)
	}

	keys, err := db.ImageKeys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "img-a" || keys[1] != "img-b" {
		t.Errorf("keys = %v", keys)
	}

	if err := db.DeleteImage("img-b"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := db.GetImage("img-b"); found {
		t.Error("image survived deletion")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staging.db")

	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.PutBlob("k", []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db2.Close()

	value, found, err := db2.GetBlob("k")
	if err != nil || !found || string(value) != "persisted" {
		t.Errorf("value=%q found=%v err=%v", value, found, err)
	}
}
