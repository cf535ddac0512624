package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"github.com/gen2brain/webp"
)

// WebPEncoder encodes the rendered image as WebP via gen2brain/webp, the
// same pure-Go (WASM-backed, no cgo) libwebp binding decode.go already uses
// to read WebP input — one codec dependency instead of a second, cgo-only
// path that would make a CGO_ENABLED=0 build lose WebP output entirely.
type WebPEncoder struct {
	Quality int
}

func newWebPEncoder(quality int) (Encoder, error) {
	if quality <= 0 {
		quality = 85
	}
	return &WebPEncoder{Quality: quality}, nil
}

func (e *WebPEncoder) Encode(img image.Image) ([]byte, error) {
	rgba := imageToRGBA(img)
	if rgba.Bounds().Dx() == 0 || rgba.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("webp: empty image")
	}

	var buf bytes.Buffer
	opts := webp.Options{Quality: float32(e.Quality)}
	if err := webp.Encode(&buf, rgba, opts); err != nil {
		return nil, fmt.Errorf("webp: encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *WebPEncoder) Format() string        { return "webp" }
func (e *WebPEncoder) FileExtension() string { return ".webp" }

func imageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}
