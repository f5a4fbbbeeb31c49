package gamelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func encodeUTF16LE(t *testing.T, s string) []byte {
	t.Helper()
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	b, _, err := transform.Bytes(enc, []byte(s))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func TestLatestPicksNewestMatch(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "chest_ownership_20250101.log")
	newer := filepath.Join(dir, "chest_ownership_20250102.log")
	unrelated := filepath.Join(dir, "kill_log_20250103.log")

	for _, p := range []string{old, newer, unrelated} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	r := NewReader(dir, "chest_ownership_", ".log", t.TempDir())
	path, ok, err := r.Latest()
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if !ok {
		t.Fatal("Latest found nothing")
	}
	if path != newer {
		t.Fatalf("Latest = %q, want %q", path, newer)
	}
}

func TestLatestNoMatch(t *testing.T) {
	r := NewReader(t.TempDir(), "chest_ownership_", ".log", t.TempDir())
	_, ok, err := r.Latest()
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if ok {
		t.Fatal("Latest reported a match in an empty dir")
	}
}

func TestSnapshotDecodesUTF16LE(t *testing.T) {
	dir := t.TempDir()
	scratch := t.TempDir()

	content := "2025.01.01-10.00.00: Vehicle (entity id: 8) disappeared.\n"
	path := filepath.Join(dir, "chest_ownership_1.log")
	if err := os.WriteFile(path, encodeUTF16LE(t, content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewReader(dir, "chest_ownership_", ".log", scratch)
	text, err := r.Snapshot(path)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if text != content {
		t.Fatalf("decoded text = %q, want %q", text, content)
	}

	// the scratch copy must be gone
	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch dir still holds %d files", len(entries))
	}
}

func TestSnapshotByteFallback(t *testing.T) {
	dir := t.TempDir()

	content := "2025.01.01-10.00.00: Vehicle (entity id: 8) disappeared.\n"
	path := filepath.Join(dir, "chest_ownership_1.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewReader(dir, "chest_ownership_", ".log", t.TempDir())
	text, err := r.Snapshot(path)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if text != content {
		t.Fatalf("decoded text = %q, want %q", text, content)
	}
}

func TestDecodeStripsNULPadding(t *testing.T) {
	raw := []byte("a\x00b\x00c\x00")
	// 50% NULs triggers the wide path, but the result must be clean
	got := Decode(raw)
	if strings.ContainsRune(got, 0) {
		t.Fatalf("decoded text still contains NUL: %q", got)
	}
}

func TestSnapshotMissingFile(t *testing.T) {
	r := NewReader(t.TempDir(), "chest_ownership_", ".log", t.TempDir())
	if _, err := r.Snapshot(filepath.Join(t.TempDir(), "nope.log")); err == nil {
		t.Fatal("Snapshot of a missing file did not error")
	}
}
