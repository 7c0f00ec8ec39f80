package imageopt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// JPEG markers relevant to auxiliary metadata handling.
const (
	markerPrefix = 0xff
	markerSOI    = 0xd8
	markerSOS    = 0xda
	markerAPP1   = 0xe1 // EXIF, XMP
	markerAPP13  = 0xed // IPTC / Photoshop
)

// readAuxSegments scans a JPEG file and returns its APP1/APP13 segments
// verbatim, marker bytes included. These carry EXIF, XMP, and IPTC data.
func readAuxSegments(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 || data[0] != markerPrefix || data[1] != markerSOI {
		return nil, fmt.Errorf("not a JPEG stream: %s", path)
	}

	var segments [][]byte
	offset := 2
	for offset+4 <= len(data) {
		if data[offset] != markerPrefix {
			break
		}
		marker := data[offset+1]
		// Padding and standalone markers carry no length field.
		if marker == markerPrefix {
			offset++
			continue
		}
		if marker == markerSOS {
			break
		}
		if marker >= 0xd0 && marker <= 0xd9 {
			offset += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		end := offset + 2 + length
		if length < 2 || end > len(data) {
			return nil, fmt.Errorf("truncated JPEG segment at offset %d", offset)
		}
		if marker == markerAPP1 || marker == markerAPP13 {
			segment := make([]byte, end-offset)
			copy(segment, data[offset:end])
			segments = append(segments, segment)
		}
		offset = end
	}
	return segments, nil
}

// spliceAuxSegments rewrites the JPEG at path with the given segments
// inserted directly after the SOI marker. Entries the target cannot carry
// were already filtered by readAuxSegments.
func spliceAuxSegments(path string, segments [][]byte) error {
	if len(segments) == 0 {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) < 2 || data[0] != markerPrefix || data[1] != markerSOI {
		return fmt.Errorf("not a JPEG stream: %s", path)
	}

	total := len(data)
	for _, s := range segments {
		total += len(s)
	}
	out := make([]byte, 0, total)
	out = append(out, data[:2]...)
	for _, s := range segments {
		out = append(out, s...)
	}
	out = append(out, data[2:]...)
	return os.WriteFile(path, out, 0o644)
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// pngAuxChunkTypes are ancillary chunks carrying textual, EXIF, or timestamp
// metadata that a re-encode drops.
var pngAuxChunkTypes = map[string]bool{
	"tEXt": true,
	"zTXt": true,
	"iTXt": true,
	"eXIf": true,
	"tIME": true,
}

// hasStrippableMetadata reports whether the file carries auxiliary metadata
// the encoder would drop on re-encode. Only PNG ancillary chunks are
// detected; GIF extension blocks pass through untouched.
func hasStrippableMetadata(path, ext string) bool {
	if ext != "png" {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return pngHasAuxChunks(data)
}

// pngHasAuxChunks walks the PNG chunk stream looking for metadata chunks.
func pngHasAuxChunks(data []byte) bool {
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return false
	}
	offset := len(pngSignature)
	for offset+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		chunkType := string(data[offset+4 : offset+8])
		if pngAuxChunkTypes[chunkType] {
			return true
		}
		if chunkType == "IEND" {
			return false
		}
		// length + type + payload + crc
		offset += 12 + length
	}
	return false
}
