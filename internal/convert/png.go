package convert

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"math"
)

const (
	pngSignatureLen = 8
	// IHDR is always the first chunk: length, type, 13 data bytes, CRC.
	ihdrChunkLen = 4 + 4 + 13 + 4

	inchesPerMeter = 39.3700787
)

// EncodePNG encodes img as PNG and records dpi in a pHYs chunk so viewers
// and print tools pick up the intended physical size.
//
// Layout of the inserted chunk (PNG, section 11.3.5.3):
//
//	length=9 | "pHYs" | ppu X (4) | ppu Y (4) | unit=1 (meter) | CRC
func EncodePNG(img image.Image, dpi int) ([]byte, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("convert: dpi must be > 0, got %d", dpi)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("convert: encode png: %w", err)
	}
	raw := buf.Bytes()
	if len(raw) < pngSignatureLen+ihdrChunkLen {
		return nil, fmt.Errorf("convert: encoded png too short (%d bytes)", len(raw))
	}

	ppm := uint32(math.Round(float64(dpi) * inchesPerMeter))
	data := make([]byte, 9)
	binary.BigEndian.PutUint32(data[0:4], ppm)
	binary.BigEndian.PutUint32(data[4:8], ppm)
	data[8] = 1

	split := pngSignatureLen + ihdrChunkLen
	out := make([]byte, 0, len(raw)+12+len(data))
	out = append(out, raw[:split]...)
	out = appendChunk(out, "pHYs", data)
	out = append(out, raw[split:]...)
	return out, nil
}

// DPI reads the resolution stored in a pHYs chunk. ok is false when the
// PNG has no pHYs chunk or its unit is not meters.
func DPI(data []byte) (dpi int, ok bool) {
	off := pngSignatureLen
	for off+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[off : off+4]))
		typ := string(data[off+4 : off+8])
		if off+12+n > len(data) {
			return 0, false
		}
		if typ == "pHYs" && n == 9 {
			body := data[off+8 : off+8+n]
			if body[8] != 1 {
				return 0, false
			}
			ppm := binary.BigEndian.Uint32(body[0:4])
			return int(math.Round(float64(ppm) / inchesPerMeter)), true
		}
		if typ == "IDAT" {
			// pHYs must precede image data.
			return 0, false
		}
		off += 12 + n
	}
	return 0, false
}

func appendChunk(dst []byte, typ string, data []byte) []byte {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(data)))
	copy(hdr[4:8], typ)
	dst = append(dst, hdr[:]...)
	dst = append(dst, data...)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:8])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	return append(dst, sum[:]...)
}
