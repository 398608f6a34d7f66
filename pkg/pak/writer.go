package pak

import (
	"fmt"
	"io"
	"sort"
)

// dataOffset is where the data region of a written segment starts: right
// after the two header bytes.
const dataOffset = 2

// Builder assembles a single-segment archive in memory and serializes it
// as header, data region, chunk table, property table and footer. Because
// the format is uncompressed every offset is computable up front, so
// WriteTo needs no seeking.
type Builder struct {
	properties map[string]string
	files      map[string][]byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		properties: make(map[string]string),
		files:      make(map[string][]byte),
	}
}

// SetProperty stores a property, replacing any previous value of key.
// Setting LinkProperty makes readers continue the chain at the named
// segment.
func (b *Builder) SetProperty(key, value string) {
	b.properties[key] = value
}

// Add stores the data of one logical file, replacing any previous data
// under fullFileName. The name should use forward slashes, matching the
// paths readers expose.
func (b *Builder) Add(fullFileName string, data []byte) {
	b.files[fullFileName] = data
}

// WriteTo serializes the archive segment to w. Files and properties are
// written in sorted name order so output is deterministic.
func (b *Builder) WriteTo(w io.Writer) error {
	names := make([]string, 0, len(b.files))
	for name := range b.files {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]string, 0, len(b.properties))
	for key := range b.properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := WriteHeader(w); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	chunks := make([]Chunk, 0, len(names))
	offset := int32(0)
	for _, name := range names {
		data := b.files[name]
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing data of %s: %w", name, err)
		}
		chunks = append(chunks, Chunk{
			FullFileName: name,
			Offset:       offset,
			Size:         int32(len(data)),
		})
		offset += int32(len(data))
	}
	chunksOffset := int64(dataOffset) + int64(offset)

	tableSize := int64(0)
	for _, chunk := range chunks {
		if err := chunk.Write(w); err != nil {
			return fmt.Errorf("writing chunk record %s: %w", chunk.FullFileName, err)
		}
		tableSize += 2 + int64(len(chunk.FullFileName)) + 8
	}
	propertiesOffset := chunksOffset + tableSize

	for _, key := range keys {
		p := Property{Key: key, Value: b.properties[key]}
		if err := p.Write(w); err != nil {
			return fmt.Errorf("writing property %s: %w", key, err)
		}
		tableSize += 2 + int64(len(p.Key)) + 2 + int64(len(p.Value))
	}

	info := Info{
		Offset:           dataOffset,
		Size:             int32(chunksOffset + tableSize + InfoSize),
		ChunksOffset:     chunksOffset,
		ChunksCount:      int32(len(chunks)),
		PropertiesOffset: propertiesOffset,
		PropertiesCount:  int32(len(keys)),
	}
	if err := info.Write(w); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	return nil
}
