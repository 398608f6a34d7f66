package pak

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// byteOrder is fixed by the format; every multi-byte integer in a pak
// segment is big-endian.
var byteOrder = binary.BigEndian

func readU8(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return buf[0], nil
}

func readI32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return int32(byteOrder.Uint32(buf[:])), nil
}

// readString reads a 2-byte length prefix followed by that many bytes,
// decoded strictly as UTF-8. A short read is ErrTruncated, never a
// partial result.
func readString(r io.Reader) (string, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return "", truncated(err)
	}
	n := byteOrder.Uint16(buf[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", truncated(err)
	}
	if !utf8.Valid(payload) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEncoding, payload)
	}
	return string(payload), nil
}

func writeU8(w io.Writer, v byte) error {
	_, err := w.Write([]byte{v})
	return err
}

func writeI32(w io.Writer, v int32) error {
	var buf [4]byte
	byteOrder.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("pak: string of %d bytes exceeds the 2-byte length prefix", len(s))
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidEncoding, s)
	}
	var buf [2]byte
	byteOrder.PutUint16(buf[:], uint16(len(s)))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}
