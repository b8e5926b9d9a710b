package devicetest

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/volwatch/usnjrnl/pkg/usn"
)

// RecordSpec describes one synthetic journal record. Version must be 2
// or 3; version 2 truncates the file ids to their low 64 bits, exactly
// as the real layout does.
type RecordSpec struct {
	Version    int
	FileID     usn.FileID
	ParentID   usn.FileID
	Usn        usn.Usn
	Timestamp  int64
	Reason     usn.Reason
	SourceInfo uint32
	SecurityID uint32
	Attributes uint32
	Name       string
}

func encodeName(name string) []byte {
	units := utf16.Encode([]rune(name))
	raw := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[2*i:], u)
	}
	return raw
}

func pad8(n int) int { return (n + 7) &^ 7 }

// AppendRecord appends the wire form of spec to buf and returns the
// extended slice. Record length is the padded header+name size, with
// the pad bytes zeroed, matching kernel output.
func AppendRecord(buf []byte, spec RecordSpec) []byte {
	name := encodeName(spec.Name)

	var header int
	switch spec.Version {
	case 2:
		header = 60
	case 3:
		header = 76
	default:
		panic("devicetest: record version must be 2 or 3")
	}
	length := pad8(header + len(name))

	rec := make([]byte, length)
	binary.LittleEndian.PutUint32(rec[0:], uint32(length))
	binary.LittleEndian.PutUint16(rec[4:], uint16(spec.Version))

	switch spec.Version {
	case 2:
		binary.LittleEndian.PutUint64(rec[8:], spec.FileID.Lo)
		binary.LittleEndian.PutUint64(rec[16:], spec.ParentID.Lo)
		binary.LittleEndian.PutUint64(rec[24:], uint64(spec.Usn))
		binary.LittleEndian.PutUint64(rec[32:], uint64(spec.Timestamp))
		binary.LittleEndian.PutUint32(rec[40:], uint32(spec.Reason))
		binary.LittleEndian.PutUint32(rec[44:], spec.SourceInfo)
		binary.LittleEndian.PutUint32(rec[48:], spec.SecurityID)
		binary.LittleEndian.PutUint32(rec[52:], spec.Attributes)
		binary.LittleEndian.PutUint16(rec[56:], uint16(len(name)))
		binary.LittleEndian.PutUint16(rec[58:], uint16(header))
	case 3:
		binary.LittleEndian.PutUint64(rec[8:], spec.FileID.Lo)
		binary.LittleEndian.PutUint64(rec[16:], spec.FileID.Hi)
		binary.LittleEndian.PutUint64(rec[24:], spec.ParentID.Lo)
		binary.LittleEndian.PutUint64(rec[32:], spec.ParentID.Hi)
		binary.LittleEndian.PutUint64(rec[40:], uint64(spec.Usn))
		binary.LittleEndian.PutUint64(rec[48:], uint64(spec.Timestamp))
		binary.LittleEndian.PutUint32(rec[56:], uint32(spec.Reason))
		binary.LittleEndian.PutUint32(rec[60:], spec.SourceInfo)
		binary.LittleEndian.PutUint32(rec[64:], spec.SecurityID)
		binary.LittleEndian.PutUint32(rec[68:], spec.Attributes)
		binary.LittleEndian.PutUint16(rec[72:], uint16(len(name)))
		binary.LittleEndian.PutUint16(rec[74:], uint16(header))
	}
	copy(rec[header:], name)
	return append(buf, rec...)
}

// ReadBuffer builds a full journal read buffer: the next-cursor word
// followed by the given records.
func ReadBuffer(next usn.Usn, specs ...RecordSpec) []byte {
	buf := make([]byte, 8, 8+64*len(specs))
	binary.LittleEndian.PutUint64(buf, uint64(next))
	for _, spec := range specs {
		buf = AppendRecord(buf, spec)
	}
	return buf
}

// FileRecord builds the single-record buffer shape served by the
// read-one-record-by-handle operation (no cursor prefix).
func FileRecord(spec RecordSpec) []byte {
	return AppendRecord(nil, spec)
}

// CursorOnly builds a read buffer carrying a next cursor and no
// records: the end-of-data response, and also the shape some failing
// reads still populate.
func CursorOnly(next usn.Usn) []byte {
	return ReadBuffer(next)
}
