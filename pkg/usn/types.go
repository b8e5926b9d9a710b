// Package usn defines the value types shared by every layer of the
// change-journal toolkit: the 64-bit journal cursor, the 128-bit file
// reference identifier, change records, and journal metadata.
//
// Everything in this package is an immutable value type. Records are
// produced only by the codec subpackage; nothing here touches the OS.
package usn

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf16"
)

// Usn is a cursor into one journal instance: a monotonically increasing
// 64-bit position. Ordering is plain unsigned-integer ordering and is
// only meaningful within a single journal instance (see JournalData.JournalID).
type Usn uint64

// None is the reserved zero cursor. The kernel reports it to mean "no
// journal activity recorded"; it is never a valid read position and no
// real record carries it.
const None Usn = 0

// IsNone reports whether u is the reserved "no activity" value.
func (u Usn) IsNone() bool { return u == None }

func (u Usn) String() string { return fmt.Sprintf("%#x", uint64(u)) }

// FileID is a 128-bit file reference number: unique within a volume and
// stable across renames. The two halves have no independent meaning;
// identity is over the full 128 bits. Version-2 journal records carry
// only 64 bits, which zero-extend into the low half.
type FileID struct {
	Lo uint64
	Hi uint64
}

// FileIDFromUint64 zero-extends a 64-bit (version 2) reference number.
func FileIDFromUint64(v uint64) FileID {
	return FileID{Lo: v}
}

// IsZero reports whether the identifier is entirely zero. The kernel
// never assigns the zero id to a real file.
func (id FileID) IsZero() bool { return id.Lo == 0 && id.Hi == 0 }

func (id FileID) String() string {
	return fmt.Sprintf("%016x%016x", id.Hi, id.Lo)
}

// JournalData is the metadata returned by a journal query. JournalID
// changes whenever the journal is destroyed and recreated, invalidating
// every cursor issued under the previous instance.
type JournalData struct {
	JournalID       uint64
	FirstUsn        Usn
	NextUsn         Usn
	LowestValidUsn  Usn
	MaxUsn          Usn
	MaximumSize     uint64
	AllocationDelta uint64
}

// Record is one decoded change-journal entry. It is immutable once
// constructed and only the codec constructs it.
//
// NameRaw holds the file name exactly as it appears on the wire
// (UTF-16LE code units, no terminator). It may be empty when name
// retrieval is disabled or the record was read by handle. The codec
// never interprets these bytes; use Name for a decoded form.
type Record struct {
	FileID     FileID
	ParentID   FileID
	Usn        Usn
	Timestamp  int64 // raw FILETIME, opaque to this package
	Reason     Reason
	SourceInfo uint32
	SecurityID uint32
	Attributes uint32
	NameRaw    []byte
}

// Name decodes NameRaw as UTF-16LE. Returns "" for an empty name.
func (r Record) Name() string {
	if len(r.NameRaw) < 2 {
		return ""
	}
	units := make([]uint16, len(r.NameRaw)/2)
	for i := range units {
		units[i] = uint16(r.NameRaw[2*i]) | uint16(r.NameRaw[2*i+1])<<8
	}
	return string(utf16.Decode(units))
}

// Equal compares two records. File names compare case-insensitively;
// every other field compares exactly.
func (r Record) Equal(other Record) bool {
	if r.FileID != other.FileID ||
		r.ParentID != other.ParentID ||
		r.Usn != other.Usn ||
		r.Timestamp != other.Timestamp ||
		r.Reason != other.Reason ||
		r.SourceInfo != other.SourceInfo ||
		r.SecurityID != other.SecurityID ||
		r.Attributes != other.Attributes {
		return false
	}
	if bytes.Equal(r.NameRaw, other.NameRaw) {
		return true
	}
	return strings.EqualFold(r.Name(), other.Name())
}

func (r Record) String() string {
	return fmt.Sprintf("usn=%s file=%s parent=%s reason=%s name=%q",
		r.Usn, r.FileID, r.ParentID, r.Reason, r.Name())
}
