package encode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"os"
)

// TIFF tag IDs, matching the subset internal/cog parses. Kept duplicated
// rather than exported from cog, since a reader and a writer agreeing on a
// tag's numeric value doesn't warrant a shared dependency between them.
const (
	tiffTagImageWidth      = 256
	tiffTagImageLength     = 257
	tiffTagBitsPerSample   = 258
	tiffTagCompression     = 259
	tiffTagPhotometric     = 262
	tiffTagStripOffsets    = 273
	tiffTagSamplesPerPixel = 277
	tiffTagRowsPerStrip    = 278
	tiffTagStripByteCounts = 279
	tiffTagPlanarConfig    = 284
)

const (
	tiffShort = 3
	tiffLong  = 4
)

// WriteTIFF writes img as an uncompressed, single-strip RGB baseline TIFF
// to path. This is deliberately minimal — no georeferencing, no tiling, no
// compression — since the renderer's output is a final photographic image,
// not another DEM source.
func WriteTIFF(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	pixels := make([]byte, width*height*3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pixels[i] = byte(r >> 8)
			pixels[i+1] = byte(g >> 8)
			pixels[i+2] = byte(b >> 8)
			i += 3
		}
	}

	bo := binary.LittleEndian

	type entry struct {
		tag, dtype uint16
		count      uint32
		value      uint32
	}

	// Image data follows the header immediately; the IFD follows the
	// image data.
	const headerSize = 8
	dataOffset := uint32(headerSize)
	ifdOffset := dataOffset + uint32(len(pixels))

	const numIFDEntries = 10
	bitsPerSampleOffset := ifdOffset + 2 + 12*numIFDEntries + 4 // after all entries + next-IFD pointer
	entries := []entry{
		{tiffTagImageWidth, tiffLong, 1, uint32(width)},
		{tiffTagImageLength, tiffLong, 1, uint32(height)},
		{tiffTagBitsPerSample, tiffShort, 3, bitsPerSampleOffset},
		{tiffTagCompression, tiffShort, 1, 1},
		{tiffTagPhotometric, tiffShort, 1, 2}, // RGB
		{tiffTagStripOffsets, tiffLong, 1, dataOffset},
		{tiffTagSamplesPerPixel, tiffShort, 1, 3},
		{tiffTagRowsPerStrip, tiffLong, 1, uint32(height)},
		{tiffTagStripByteCounts, tiffLong, 1, uint32(len(pixels))},
		{tiffTagPlanarConfig, tiffShort, 1, 1},
	}

	// Header: byte order, magic 42, offset of first IFD.
	header := make([]byte, headerSize)
	header[0], header[1] = 'I', 'I'
	bo.PutUint16(header[2:4], 42)
	bo.PutUint32(header[4:8], ifdOffset)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing TIFF header: %w", err)
	}

	if _, err := w.Write(pixels); err != nil {
		return fmt.Errorf("writing TIFF pixel data: %w", err)
	}

	numEntries := uint16(len(entries))
	var countBuf [2]byte
	bo.PutUint16(countBuf[:], numEntries)
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}

	for _, e := range entries {
		var buf [12]byte
		bo.PutUint16(buf[0:2], e.tag)
		bo.PutUint16(buf[2:4], e.dtype)
		bo.PutUint32(buf[4:8], e.count)
		bo.PutUint32(buf[8:12], e.value)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}

	var nextIFD [4]byte // 0 = no more IFDs
	if _, err := w.Write(nextIFD[:]); err != nil {
		return err
	}

	bps := make([]byte, 6)
	bo.PutUint16(bps[0:2], 8)
	bo.PutUint16(bps[2:4], 8)
	bo.PutUint16(bps[4:6], 8)
	if _, err := w.Write(bps); err != nil {
		return err
	}

	return w.Flush()
}
