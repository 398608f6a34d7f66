package pak

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// StreamFactory opens the segment at path into a readable, seekable
// stream. MergeReader takes ownership of the returned stream; streams that
// also implement io.Closer are closed by MergeReader.Close.
type StreamFactory func(path string) (io.ReadSeeker, error)

// setFileName replaces the file name component of path with name. Link
// values always resolve against the directory of the initial archive,
// never the directory of the segment currently being read. A path with no
// directory component resolves to name alone.
func setFileName(path, name string) string {
	dir := filepath.Dir(path)
	if dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

// segmentStream is the shared handle to one segment's stream. Every
// MergedChunk of the segment holds the same handle; the mutex serializes
// the seek+read pairs of concurrent Data calls.
type segmentStream struct {
	mu sync.Mutex
	rs io.ReadSeeker
}

// MergedChunk is one named byte range of the merged archive. It holds the
// absolute position of the data inside its segment and the segment's
// shared stream handle; bytes are only read when Data is called.
type MergedChunk struct {
	offset int64
	size   int64
	stream *segmentStream
}

// Offset returns the absolute byte position of the chunk's data within
// its segment stream.
func (c *MergedChunk) Offset() int64 { return c.offset }

// Size returns the byte length of the chunk's data.
func (c *MergedChunk) Size() int64 { return c.size }

// Data seeks the owning segment stream to the chunk's absolute offset and
// reads exactly Size bytes into a fresh buffer. Nothing is cached; every
// call re-seeks and re-reads.
func (c *MergedChunk) Data() ([]byte, error) {
	if c.size < 0 {
		return nil, fmt.Errorf("pak: invalid chunk size %d", c.size)
	}
	buf := make([]byte, c.size)

	c.stream.mu.Lock()
	defer c.stream.mu.Unlock()
	if _, err := c.stream.rs.Seek(c.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking chunk data at %d: %w", c.offset, err)
	}
	if _, err := io.ReadFull(c.stream.rs, buf); err != nil {
		return nil, fmt.Errorf("reading %d bytes at %d: %w", c.size, c.offset, truncated(err))
	}
	return buf, nil
}

// MergeReader merges every segment of an archive chain and provides
// random access to the chunks of the whole archive.
type MergeReader struct {
	chunks     map[string]*MergedChunk
	properties map[string]string
	streams    []*segmentStream
}

// Open merges the archive chain starting at path, opening each segment
// from disk. The returned reader owns the file handles; release them with
// Close.
func Open(path string) (*MergeReader, error) {
	return Merge(path, func(p string) (io.ReadSeeker, error) {
		return os.Open(p)
	})
}

// Merge merges the archive chain starting at initial, opening each
// segment through the supplied factory. Segments are loaded sequentially:
// each segment's chunks are rebased onto the segment data offset and
// inserted into the aggregate maps, and every "link" property enqueues
// the next segment, resolved against the initial path. A chunk or
// property from a later segment silently replaces an earlier one with the
// same name.
//
// The first failure aborts the whole merge; there is no partial result.
// A link that points back at an already loaded path is skipped, so a
// cyclic chain terminates instead of re-merging forever.
func Merge(initial string, open StreamFactory) (*MergeReader, error) {
	m := &MergeReader{
		chunks:     make(map[string]*MergedChunk),
		properties: make(map[string]string),
	}

	queue := []string{initial}
	loaded := make(map[string]bool)

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if loaded[path] {
			continue
		}
		loaded[path] = true

		rs, err := open(path)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("opening segment %s: %w", path, err)
		}
		stream := &segmentStream{rs: rs}
		m.streams = append(m.streams, stream)

		info, chunks, properties, err := LoadSegment(rs)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("loading segment %s: %w", path, err)
		}

		for name, chunk := range chunks {
			m.chunks[name] = &MergedChunk{
				offset: info.Offset + int64(chunk.Offset),
				size:   int64(chunk.Size),
				stream: stream,
			}
		}
		for key, property := range properties {
			if key == LinkProperty {
				queue = append(queue, setFileName(initial, property.Value))
			}
			m.properties[key] = property.Value
		}
	}

	return m, nil
}

// ReadFile reads the data of the chunk stored under fullFileName. It
// fails with ErrNotFound, without touching any stream, when the name is
// absent from the merged chunk set.
func (m *MergeReader) ReadFile(fullFileName string) ([]byte, error) {
	chunk, ok := m.chunks[fullFileName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, fullFileName)
	}
	return chunk.Data()
}

// Chunks returns the merged chunk set, keyed by full file name. The map
// is the reader's own snapshot; callers must not modify it.
func (m *MergeReader) Chunks() map[string]*MergedChunk {
	return m.chunks
}

// Properties returns the merged property map. Callers must not modify it.
func (m *MergeReader) Properties() map[string]string {
	return m.properties
}

// Property returns the value of the property stored under key.
func (m *MergeReader) Property(key string) (string, bool) {
	value, ok := m.properties[key]
	return value, ok
}

// Len returns the number of chunks in the merged archive.
func (m *MergeReader) Len() int {
	return len(m.chunks)
}

// Close closes every segment stream that implements io.Closer and returns
// the first error encountered.
func (m *MergeReader) Close() error {
	var first error
	for _, stream := range m.streams {
		if closer, ok := stream.rs.(io.Closer); ok {
			if err := closer.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	m.streams = nil
	return first
}

// Extract writes every chunk of the merged archive below dest, recreating
// each chunk's logical path as a directory and file hierarchy.
func (m *MergeReader) Extract(dest string) error {
	for name, chunk := range m.chunks {
		output := filepath.Join(dest, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", name, err)
		}
		data, err := chunk.Data()
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
	}
	return nil
}
