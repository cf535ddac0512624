package encode

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteTIFFRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(1, 1, color.RGBA{R: 0, G: 255, B: 0, A: 255})

	path := filepath.Join(t.TempDir(), "out.tif")
	if err := WriteTIFF(img, path); err != nil {
		t.Fatalf("WriteTIFF: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) < 8 || string(data[0:2]) != "II" {
		t.Fatalf("missing little-endian TIFF header")
	}
	if data[2] != 42 || data[3] != 0 {
		t.Fatalf("bad TIFF magic bytes: %v %v", data[2], data[3])
	}

	// Pixel data immediately follows the 8-byte header: first pixel red.
	if data[8] != 255 || data[9] != 0 || data[10] != 0 {
		t.Errorf("first pixel = (%d,%d,%d), want (255,0,0)", data[8], data[9], data[10])
	}
}
