package bffnt

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func TestSaveOpen(t *testing.T) {
	f := newTestFont(t)
	if err := f.SetMapping('A', 1); err != nil {
		t.Fatalf("SetMapping: %v", err)
	}

	path := filepath.Join(t.TempDir(), "font.bffnt")
	if err := f.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want, _ := f.Encode()
	have, _ := got.Encode()
	if !bytes.Equal(have, want) {
		t.Fatalf("font changed across save and open")
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.bffnt")); !errors.Is(err, ErrOpenFile) {
		t.Fatalf("Open missing file = %v, want ErrOpenFile", err)
	}
}
