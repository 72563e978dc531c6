package qr

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestPNGProducesImageOfRequestedSize(t *testing.T) {
	raw, err := PNG("https://zs.zevs.me/ex", 128)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestPNGRejectsEmptyContent(t *testing.T) {
	if _, err := PNG("", 0); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "ex.png")
	if err := WriteFile("https://zs.zevs.me/ex", 0, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Fatalf("written file is not a png: %v", err)
	}
}
