package gamelog

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Reader locates and snapshots the newest rotated game log file. The game
// process owns the directory; the reader never writes into it.
type Reader struct {
	dir        string
	prefix     string
	suffix     string
	scratchDir string
}

// NewReader creates a reader for the given log directory. scratchDir may be
// empty, in which case the system temp directory is used for snapshots.
func NewReader(dir, prefix, suffix, scratchDir string) *Reader {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &Reader{dir: dir, prefix: prefix, suffix: suffix, scratchDir: scratchDir}
}

// Latest returns the path of the most recently modified log file matching
// the rotation pattern, or ok=false if none exists.
func (r *Reader) Latest() (path string, ok bool, err error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return "", false, fmt.Errorf("failed to read log dir %s: %w", r.dir, err)
	}

	var newest string
	var newestMod int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, r.prefix) || !strings.HasSuffix(name, r.suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = name
			newestMod = mod
		}
	}

	if newest == "" {
		return "", false, nil
	}
	return filepath.Join(r.dir, newest), true, nil
}

// Snapshot copies the log file to a scratch location and decodes it. The
// copy exists because the game process may still be appending to the
// original; the scratch file is removed on every exit path.
func (r *Reader) Snapshot(path string) (string, error) {
	tmp, err := os.CreateTemp(r.scratchDir, "gamelog-*.snapshot")
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	src, err := os.Open(path)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	_, copyErr := io.Copy(tmp, src)
	src.Close()
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return "", fmt.Errorf("failed to snapshot log file %s: %w", path, copyErr)
	}

	raw, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot: %w", err)
	}

	return Decode(raw), nil
}

// utf16leBOM is the little-endian byte order mark the game engine writes at
// the head of fresh log files.
var utf16leBOM = []byte{0xFF, 0xFE}

// Decode converts raw log bytes to text. The engine writes UTF-16LE but
// rotated or truncated files occasionally come through byte-oriented, so
// the wide decoding is attempted first and verified before being trusted.
// NUL padding interleaved between characters is stripped in either case.
func Decode(raw []byte) string {
	if looksUTF16LE(raw) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, raw)
		if err == nil && !looksGarbled(out) {
			return stripNUL(string(out))
		}
		log.Printf("[LogReader] UTF-16LE decode rejected, falling back to byte decoding")
	}
	return stripNUL(string(raw))
}

// looksUTF16LE reports whether raw carries the UTF-16LE signature: either a
// BOM or a heavy share of NUL high bytes.
func looksUTF16LE(raw []byte) bool {
	if bytes.HasPrefix(raw, utf16leBOM) {
		return true
	}
	if len(raw) < 4 {
		return false
	}
	nuls := bytes.Count(raw, []byte{0})
	return nuls*3 >= len(raw)
}

// looksGarbled reports whether decoded text contains enough replacement
// runes to indicate the wrong decoding was applied.
func looksGarbled(decoded []byte) bool {
	if len(decoded) == 0 {
		return false
	}
	bad := 0
	for len(decoded) > 0 {
		r, size := utf8.DecodeRune(decoded)
		if r == utf8.RuneError && size == 1 {
			bad++
		}
		decoded = decoded[size:]
	}
	return bad > 8
}

// stripNUL removes NUL padding characters left between real characters.
func stripNUL(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
