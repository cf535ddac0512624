// Package encode turns a rendered image.RGBA into a file on disk, in
// whichever format the configured output path names by extension.
package encode

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Encoder turns an image into encoded bytes in one format.
type Encoder interface {
	// Encode encodes an image to bytes in this encoder's format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// FileExtension returns the conventional file extension, dot included.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality (ignored
// by lossless formats).
func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "png":
		return &PNGEncoder{}, nil
	case "webp":
		return newWebPEncoder(quality)
	case "terrarium":
		return &TerrariumEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported image format: %q (supported: jpeg, png, webp, terrarium)", format)
	}
}

// PixelSink is the output side of a render: given the final image, write it
// wherever it belongs. Renderer.Render takes a PixelSink's Save method
// directly, so it never needs to know which format the configured output
// path resolves to.
type PixelSink interface {
	Save(img image.Image, path string) error
}

// encoderSink adapts an Encoder into a PixelSink by encoding to bytes and
// writing them out in one shot.
type encoderSink struct {
	enc Encoder
}

func (s encoderSink) Save(img image.Image, path string) error {
	data, err := s.enc.Encode(img)
	if err != nil {
		return fmt.Errorf("encoding %s image: %w", s.enc.Format(), err)
	}
	return os.WriteFile(path, data, 0o644)
}

// tiffSink writes via WriteTIFF, which builds the uncompressed pixel data
// in memory and writes it with the TIFF header through a buffered file
// writer, instead of going through an Encoder.
type tiffSink struct{}

func (tiffSink) Save(img image.Image, path string) error {
	return WriteTIFF(img, path)
}

// NewSink picks a PixelSink from path's file extension: ".tif"/".tiff"
// (also used when path has no extension, matching the reference
// renderer's own TIFF-only output) writes an uncompressed TIFF directly;
// ".jpg"/".jpeg", ".png", ".webp" dispatch to the matching Encoder; any
// other extension is an error. quality is passed through to lossy
// encoders and ignored by lossless ones.
func NewSink(path string, quality int) (PixelSink, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "", ".tif", ".tiff":
		return tiffSink{}, nil
	case ".jpg", ".jpeg":
		enc, err := NewEncoder("jpeg", quality)
		if err != nil {
			return nil, err
		}
		return encoderSink{enc}, nil
	case ".png":
		enc, err := NewEncoder("png", quality)
		if err != nil {
			return nil, err
		}
		return encoderSink{enc}, nil
	case ".webp":
		enc, err := NewEncoder("webp", quality)
		if err != nil {
			return nil, err
		}
		return encoderSink{enc}, nil
	default:
		return nil, fmt.Errorf("%s: unrecognized output extension (want .tif, .jpg, .png, or .webp)", path)
	}
}
