// Package codec decodes raw journal read buffers into typed records.
//
// A read buffer has a fixed shape: the first 8 bytes are the next
// cursor (always present, even when no records follow), then zero or
// more variable-length records back to back. Each record starts with a
// common header {RecordLength u32, MajorVersion u16, MinorVersion u16}
// and the declared length — not any static struct size — is what
// advances the walk, because records are padded to 8-byte boundaries.
//
// Two layouts interleave freely in one buffer: version 2 carries 64-bit
// file reference numbers (zero-extended here into the 128-bit form),
// version 3 carries native 128-bit ones. All integers are little-endian
// and decoded field by field at explicit offsets; the host struct
// layout is never overlaid on the wire bytes.
//
// The kernel guarantees well-formed output, so any structural violation
// found here (short header, overrun, unknown version, out-of-bounds
// declared length, name range escaping the record) is a *Error — a
// protocol contract violation, not a recoverable condition.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/volwatch/usnjrnl/pkg/usn"
)

// Wire layout constants. Offsets are relative to the start of a record.
const (
	// CursorPrefixSize is the length of the next-cursor word that leads
	// every read buffer.
	CursorPrefixSize = 8

	// commonHeaderSize covers RecordLength + MajorVersion + MinorVersion,
	// the prefix shared by every record version.
	commonHeaderSize = 8

	headerSizeV2 = 60
	headerSizeV3 = 76

	// File names are 1–255 UTF-16 code units on disk, bounding the
	// declared record length per version. FileNameLength itself may
	// still be zero (name retrieval suppressed); the padded length of a
	// nameless record clears the minimum regardless.
	maxNameBytes = 255 * 2

	minRecordSizeV2 = headerSizeV2 + 2
	maxRecordSizeV2 = headerSizeV2 + maxNameBytes
	minRecordSizeV3 = headerSizeV3 + 2
	maxRecordSizeV3 = headerSizeV3 + maxNameBytes
)

// Error is a structural violation in a journal buffer. It is fatal by
// contract: the kernel does not emit malformed buffers, so one of these
// means the codec and the OS disagree about the format version.
type Error struct {
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("malformed journal buffer at offset %d: %s", e.Offset, e.Msg)
}

func errorf(offset int, format string, args ...any) error {
	return &Error{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// Decode parses one journal read buffer: the leading next-cursor word
// followed by zero or more records, in buffer (= cursor-increasing)
// order. Decoding is pure; decoding the same buffer twice yields
// identical results.
//
// Records with a zero cursor are rejected: zero is the reserved "no
// activity" value and never a real record position.
func Decode(buf []byte) (usn.Usn, []usn.Record, error) {
	if len(buf) < CursorPrefixSize {
		return usn.None, nil, errorf(0, "buffer shorter than cursor prefix (%d bytes)", len(buf))
	}
	next := usn.Usn(binary.LittleEndian.Uint64(buf))

	var records []usn.Record
	off := CursorPrefixSize
	for off < len(buf) {
		rec, length, err := decodeAt(buf, off)
		if err != nil {
			return usn.None, nil, err
		}
		if rec.Usn.IsNone() {
			return usn.None, nil, errorf(off, "record carries the reserved zero cursor")
		}
		records = append(records, rec)
		off += length
	}
	return next, records, nil
}

// DecodeOne parses a buffer holding exactly one record with no cursor
// prefix, the shape produced by the read-one-record-by-handle control
// operation. Unlike Decode it tolerates a zero record cursor: that is
// how the kernel reports "no journal data for this file", and the
// identity resolver needs to observe it rather than have it rejected.
func DecodeOne(buf []byte) (usn.Record, error) {
	rec, length, err := decodeAt(buf, 0)
	if err != nil {
		return usn.Record{}, err
	}
	if rest := len(buf) - length; rest != 0 {
		return usn.Record{}, errorf(length, "%d trailing bytes after single record", rest)
	}
	return rec, nil
}

// decodeAt decodes the record starting at off, returning it together
// with its declared length so the caller can advance.
func decodeAt(buf []byte, off int) (usn.Record, int, error) {
	remaining := len(buf) - off
	if remaining < commonHeaderSize {
		return usn.Record{}, 0, errorf(off, "truncated record header (%d bytes remaining)", remaining)
	}
	length := int(binary.LittleEndian.Uint32(buf[off:]))
	major := binary.LittleEndian.Uint16(buf[off+4:])
	if length > remaining {
		return usn.Record{}, 0, errorf(off, "declared length %d overruns buffer (%d bytes remaining)", length, remaining)
	}

	var headerSize, minSize, maxSize int
	switch major {
	case 2:
		headerSize, minSize, maxSize = headerSizeV2, minRecordSizeV2, maxRecordSizeV2
	case 3:
		headerSize, minSize, maxSize = headerSizeV3, minRecordSizeV3, maxRecordSizeV3
	default:
		return usn.Record{}, 0, errorf(off, "unsupported record version %d", major)
	}
	if length < minSize || length > maxSize {
		return usn.Record{}, 0, errorf(off, "version %d record length %d outside [%d, %d]", major, length, minSize, maxSize)
	}

	rec := buf[off : off+length]
	var r usn.Record
	var nameLen, nameOff int
	switch major {
	case 2:
		r = usn.Record{
			FileID:     usn.FileIDFromUint64(binary.LittleEndian.Uint64(rec[8:])),
			ParentID:   usn.FileIDFromUint64(binary.LittleEndian.Uint64(rec[16:])),
			Usn:        usn.Usn(binary.LittleEndian.Uint64(rec[24:])),
			Timestamp:  int64(binary.LittleEndian.Uint64(rec[32:])),
			Reason:     usn.Reason(binary.LittleEndian.Uint32(rec[40:])),
			SourceInfo: binary.LittleEndian.Uint32(rec[44:]),
			SecurityID: binary.LittleEndian.Uint32(rec[48:]),
			Attributes: binary.LittleEndian.Uint32(rec[52:]),
		}
		nameLen = int(binary.LittleEndian.Uint16(rec[56:]))
		nameOff = int(binary.LittleEndian.Uint16(rec[58:]))
	case 3:
		r = usn.Record{
			FileID: usn.FileID{
				Lo: binary.LittleEndian.Uint64(rec[8:]),
				Hi: binary.LittleEndian.Uint64(rec[16:]),
			},
			ParentID: usn.FileID{
				Lo: binary.LittleEndian.Uint64(rec[24:]),
				Hi: binary.LittleEndian.Uint64(rec[32:]),
			},
			Usn:        usn.Usn(binary.LittleEndian.Uint64(rec[40:])),
			Timestamp:  int64(binary.LittleEndian.Uint64(rec[48:])),
			Reason:     usn.Reason(binary.LittleEndian.Uint32(rec[56:])),
			SourceInfo: binary.LittleEndian.Uint32(rec[60:]),
			SecurityID: binary.LittleEndian.Uint32(rec[64:]),
			Attributes: binary.LittleEndian.Uint32(rec[68:]),
		}
		nameLen = int(binary.LittleEndian.Uint16(rec[72:]))
		nameOff = int(binary.LittleEndian.Uint16(rec[74:]))
	}

	if nameLen > 0 {
		if nameOff < headerSize || nameOff+nameLen > length {
			return usn.Record{}, 0, errorf(off, "name range [%d, %d) escapes record of length %d", nameOff, nameOff+nameLen, length)
		}
		// Copy so records stay valid after the read buffer is reused.
		r.NameRaw = append([]byte(nil), rec[nameOff:nameOff+nameLen]...)
	}
	return r, length, nil
}
