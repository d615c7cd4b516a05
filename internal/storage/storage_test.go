package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type record struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

func TestDiskStorageRoundTripAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	first := NewDiskStorage(path)
	if err := first.Init(); err != nil {
		t.Fatalf("Init err: %v", err)
	}
	if err := SetJSON(first, "user", record{Role: "staff", Name: "Ravi"}); err != nil {
		t.Fatalf("SetJSON err: %v", err)
	}

	second := NewDiskStorage(path)
	if err := second.Init(); err != nil {
		t.Fatalf("Init err: %v", err)
	}
	var got record
	if err := GetJSON(second, "user", &got); err != nil {
		t.Fatalf("GetJSON err: %v", err)
	}
	if got.Role != "staff" || got.Name != "Ravi" {
		t.Fatalf("unexpected record %+v", got)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should not be left behind")
	}
}

func TestDiskStorageRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := NewDiskStorage(path).Init(); !errors.Is(err, ErrStorageInit) {
		t.Fatalf("expected ErrStorageInit, got %v", err)
	}
}

func TestStoresReportMissingKeys(t *testing.T) {
	disk := NewDiskStorage(filepath.Join(t.TempDir(), "store.json"))
	if err := disk.Init(); err != nil {
		t.Fatal(err)
	}

	for name, s := range map[string]Store{"memory": NewMemoryStorage(), "disk": disk} {
		if _, err := s.Get("user"); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("%s: expected ErrKeyNotFound, got %v", name, err)
		}
		if err := s.Remove("user"); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("%s: expected ErrKeyNotFound on remove, got %v", name, err)
		}
		if err := s.Set("user", []byte("{bad")); !errors.Is(err, ErrInvalidData) {
			t.Errorf("%s: expected ErrInvalidData, got %v", name, err)
		}
	}
}

func TestMemoryStorageKeysSorted(t *testing.T) {
	m := NewMemoryStorage()
	for _, k := range []string{"theme", "user", "lang"} {
		if err := m.Set(k, []byte(`"x"`)); err != nil {
			t.Fatal(err)
		}
	}
	keys, _ := m.Keys()
	if len(keys) != 3 || keys[0] != "lang" || keys[2] != "user" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
