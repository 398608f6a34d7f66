package pak

import (
	"errors"
	"fmt"
	"io"
)

// The two magic bytes every segment starts with.
const (
	headerByte0 = 2
	headerByte1 = 1
)

// InfoSize is the byte length of the fixed footer record at the end of a
// segment.
const InfoSize = 24

// LinkProperty is the reserved property key whose value names the next
// segment of the archive chain.
const LinkProperty = "link"

// ValidateHeader reads the two magic bytes at the current position
// (expected to be the start of the segment) and checks them against the
// expected (2, 1) pair. Any other sequence, including end of stream, is
// ErrCorruptHeader.
func ValidateHeader(r io.Reader) error {
	b0, err := readU8(r)
	if err != nil {
		return corruptHeader(err)
	}
	b1, err := readU8(r)
	if err != nil {
		return corruptHeader(err)
	}
	if b0 != headerByte0 || b1 != headerByte1 {
		return fmt.Errorf("%w: got bytes (%d, %d)", ErrCorruptHeader, b0, b1)
	}
	return nil
}

// corruptHeader treats a short read of the magic bytes as a corrupt
// segment rather than a truncation; real device errors pass through.
func corruptHeader(err error) error {
	if errors.Is(err, ErrTruncated) {
		return ErrCorruptHeader
	}
	return err
}

// WriteHeader writes the segment magic bytes.
func WriteHeader(w io.Writer) error {
	if err := writeU8(w, headerByte0); err != nil {
		return err
	}
	return writeU8(w, headerByte1)
}

// Info is the fixed-size footer record located InfoSize bytes before the
// end of a segment. It carries the base offset of the segment's chunk data
// and the locations of the chunk and property tables.
type Info struct {
	Offset           int64 // base position of the segment's chunk data
	Size             int32 // declared segment size, informational
	ChunksOffset     int64 // absolute position of the chunk table
	ChunksCount      int32
	PropertiesOffset int64 // absolute position of the property table
	PropertiesCount  int32
}

// ReadInfo seeks to InfoSize bytes before the end of the stream and reads
// the six footer fields in their fixed order. The declared offsets are not
// validated against the stream bounds; a later seek surfaces any
// inconsistency.
func ReadInfo(rs io.ReadSeeker) (Info, error) {
	if _, err := rs.Seek(-InfoSize, io.SeekEnd); err != nil {
		return Info{}, fmt.Errorf("%w: seeking footer: %v", ErrTruncated, err)
	}

	var buf [InfoSize]byte
	if _, err := io.ReadFull(rs, buf[:]); err != nil {
		return Info{}, fmt.Errorf("reading footer: %w", truncated(err))
	}
	return Info{
		Offset:           int64(int32(byteOrder.Uint32(buf[0:4]))),
		Size:             int32(byteOrder.Uint32(buf[4:8])),
		ChunksOffset:     int64(int32(byteOrder.Uint32(buf[8:12]))),
		ChunksCount:      int32(byteOrder.Uint32(buf[12:16])),
		PropertiesOffset: int64(int32(byteOrder.Uint32(buf[16:20]))),
		PropertiesCount:  int32(byteOrder.Uint32(buf[20:24])),
	}, nil
}

// Write serializes the footer record. Offsets are truncated back to the
// 4-byte on-disk width.
func (i Info) Write(w io.Writer) error {
	for _, v := range []int32{
		int32(i.Offset),
		i.Size,
		int32(i.ChunksOffset),
		i.ChunksCount,
		int32(i.PropertiesOffset),
		i.PropertiesCount,
	} {
		if err := writeI32(w, v); err != nil {
			return err
		}
	}
	return nil
}

// Property is one key/value entry of a segment's property table.
type Property struct {
	Key   string
	Value string
}

// ReadProperty reads one property record at the current position.
func ReadProperty(r io.Reader) (Property, error) {
	key, err := readString(r)
	if err != nil {
		return Property{}, fmt.Errorf("property key: %w", err)
	}
	value, err := readString(r)
	if err != nil {
		return Property{}, fmt.Errorf("property %q value: %w", key, err)
	}
	return Property{Key: key, Value: value}, nil
}

// Write serializes one property record.
func (p Property) Write(w io.Writer) error {
	if err := writeString(w, p.Key); err != nil {
		return err
	}
	return writeString(w, p.Value)
}

// ReadProperties seeks to the property table and reads exactly
// info.PropertiesCount records. Duplicate keys within one segment keep the
// last record.
func ReadProperties(rs io.ReadSeeker, info Info) (map[string]Property, error) {
	if info.PropertiesCount < 0 {
		return nil, fmt.Errorf("pak: invalid property count %d", info.PropertiesCount)
	}
	if _, err := rs.Seek(info.PropertiesOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking property table at %d: %w", info.PropertiesOffset, err)
	}
	properties := make(map[string]Property, info.PropertiesCount)
	for i := int32(0); i < info.PropertiesCount; i++ {
		p, err := ReadProperty(rs)
		if err != nil {
			return nil, fmt.Errorf("property %d of %d: %w", i, info.PropertiesCount, err)
		}
		properties[p.Key] = p
	}
	return properties, nil
}

// Chunk is one entry of a segment's chunk table: a named byte range inside
// the segment's data region. Offset is relative to Info.Offset.
type Chunk struct {
	FullFileName string
	Offset       int32
	Size         int32
}

// ReadChunk reads one chunk record at the current position.
func ReadChunk(r io.Reader) (Chunk, error) {
	name, err := readString(r)
	if err != nil {
		return Chunk{}, fmt.Errorf("chunk name: %w", err)
	}
	offset, err := readI32(r)
	if err != nil {
		return Chunk{}, fmt.Errorf("chunk %q offset: %w", name, err)
	}
	size, err := readI32(r)
	if err != nil {
		return Chunk{}, fmt.Errorf("chunk %q size: %w", name, err)
	}
	return Chunk{FullFileName: name, Offset: offset, Size: size}, nil
}

// Write serializes one chunk record.
func (c Chunk) Write(w io.Writer) error {
	if err := writeString(w, c.FullFileName); err != nil {
		return err
	}
	if err := writeI32(w, c.Offset); err != nil {
		return err
	}
	return writeI32(w, c.Size)
}

// ReadChunks seeks to the chunk table and reads exactly info.ChunksCount
// records. Duplicate names within one segment keep the last record.
func ReadChunks(rs io.ReadSeeker, info Info) (map[string]Chunk, error) {
	if info.ChunksCount < 0 {
		return nil, fmt.Errorf("pak: invalid chunk count %d", info.ChunksCount)
	}
	if _, err := rs.Seek(info.ChunksOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking chunk table at %d: %w", info.ChunksOffset, err)
	}
	chunks := make(map[string]Chunk, info.ChunksCount)
	for i := int32(0); i < info.ChunksCount; i++ {
		c, err := ReadChunk(rs)
		if err != nil {
			return nil, fmt.Errorf("chunk %d of %d: %w", i, info.ChunksCount, err)
		}
		chunks[c.FullFileName] = c
	}
	return chunks, nil
}

// LoadSegment parses one whole segment: header, footer, then the chunk and
// property tables the footer points at. The stream position must be at the
// start of the segment.
func LoadSegment(rs io.ReadSeeker) (Info, map[string]Chunk, map[string]Property, error) {
	if err := ValidateHeader(rs); err != nil {
		return Info{}, nil, nil, err
	}
	info, err := ReadInfo(rs)
	if err != nil {
		return Info{}, nil, nil, err
	}
	chunks, err := ReadChunks(rs, info)
	if err != nil {
		return Info{}, nil, nil, err
	}
	properties, err := ReadProperties(rs, info)
	if err != nil {
		return Info{}, nil, nil, err
	}
	return info, chunks, properties, nil
}
