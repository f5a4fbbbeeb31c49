package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestJSONFileStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sub", "owners.json")

	st, err := NewJSONFileStore(path)
	if err != nil {
		t.Fatalf("NewJSONFileStore: %v", err)
	}

	want := map[string]json.RawMessage{
		"a": json.RawMessage(`{"n":1}`),
		"b": json.RawMessage(`"two"`),
	}
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d records, want 2", len(got))
	}
	var n struct {
		N int `json:"n"`
	}
	if err := json.Unmarshal(got["a"], &n); err != nil || n.N != 1 {
		t.Fatalf("record a = %s (err %v)", got["a"], err)
	}
}

func TestJSONFileStoreMissingFile(t *testing.T) {
	st, err := NewJSONFileStore(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("NewJSONFileStore: %v", err)
	}

	got, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("loaded %d records from missing file, want 0", len(got))
	}
}

func TestJSONFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := NewJSONFileStore(path)
	if err != nil {
		t.Fatalf("NewJSONFileStore: %v", err)
	}

	got, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on corrupt file errored: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("loaded %d records from corrupt file, want 0", len(got))
	}
}

func TestJSONFileFactoryNamesFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewJSONFileFactory(dir)

	st, err := f.Open("dedup")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := st.Save(context.Background(), map[string]json.RawMessage{"k": json.RawMessage(`1`)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "dedup.json")); err != nil {
		t.Fatalf("expected dedup.json in store dir: %v", err)
	}
}
