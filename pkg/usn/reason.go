package usn

import (
	"fmt"
	"strings"
)

// Reason is the bitmask describing why a journal record was written.
// A single record can carry several reasons accumulated across the
// lifetime of an open handle; the Close bit marks the final record.
type Reason uint32

const (
	ReasonDataOverwrite      Reason = 0x00000001
	ReasonDataExtend         Reason = 0x00000002
	ReasonDataTruncation     Reason = 0x00000004
	ReasonNamedDataOverwrite Reason = 0x00000010
	ReasonNamedDataExtend    Reason = 0x00000020
	ReasonNamedDataTruncate  Reason = 0x00000040
	ReasonFileCreate         Reason = 0x00000100
	ReasonFileDelete         Reason = 0x00000200
	ReasonEAChange           Reason = 0x00000400
	ReasonSecurityChange     Reason = 0x00000800
	ReasonRenameOldName      Reason = 0x00001000
	ReasonRenameNewName      Reason = 0x00002000
	ReasonIndexableChange    Reason = 0x00004000
	ReasonBasicInfoChange    Reason = 0x00008000
	ReasonHardLinkChange     Reason = 0x00010000
	ReasonCompressionChange  Reason = 0x00020000
	ReasonEncryptionChange   Reason = 0x00040000
	ReasonObjectIDChange     Reason = 0x00080000
	ReasonReparsePointChange Reason = 0x00100000
	ReasonStreamChange       Reason = 0x00200000
	ReasonTransactedChange   Reason = 0x00400000
	ReasonIntegrityChange    Reason = 0x00800000
	ReasonClose              Reason = 0x80000000
)

// ReasonMaskAll selects every change reason. It is the default read
// filter; the kernel drops records whose reason bits are all masked out.
const ReasonMaskAll Reason = 0xFFFFFFFF

var reasonNames = []struct {
	bit  Reason
	name string
}{
	{ReasonDataOverwrite, "DATA_OVERWRITE"},
	{ReasonDataExtend, "DATA_EXTEND"},
	{ReasonDataTruncation, "DATA_TRUNCATION"},
	{ReasonNamedDataOverwrite, "NAMED_DATA_OVERWRITE"},
	{ReasonNamedDataExtend, "NAMED_DATA_EXTEND"},
	{ReasonNamedDataTruncate, "NAMED_DATA_TRUNCATION"},
	{ReasonFileCreate, "FILE_CREATE"},
	{ReasonFileDelete, "FILE_DELETE"},
	{ReasonEAChange, "EA_CHANGE"},
	{ReasonSecurityChange, "SECURITY_CHANGE"},
	{ReasonRenameOldName, "RENAME_OLD_NAME"},
	{ReasonRenameNewName, "RENAME_NEW_NAME"},
	{ReasonIndexableChange, "INDEXABLE_CHANGE"},
	{ReasonBasicInfoChange, "BASIC_INFO_CHANGE"},
	{ReasonHardLinkChange, "HARD_LINK_CHANGE"},
	{ReasonCompressionChange, "COMPRESSION_CHANGE"},
	{ReasonEncryptionChange, "ENCRYPTION_CHANGE"},
	{ReasonObjectIDChange, "OBJECT_ID_CHANGE"},
	{ReasonReparsePointChange, "REPARSE_POINT_CHANGE"},
	{ReasonStreamChange, "STREAM_CHANGE"},
	{ReasonTransactedChange, "TRANSACTED_CHANGE"},
	{ReasonIntegrityChange, "INTEGRITY_CHANGE"},
	{ReasonClose, "CLOSE"},
}

// Has reports whether every bit in mask is set.
func (r Reason) Has(mask Reason) bool { return r&mask == mask }

// String renders the set bits as "A|B|C". Unknown bits are rendered as
// a single hex remainder so no information is lost in logs.
func (r Reason) String() string {
	if r == 0 {
		return "NONE"
	}
	var parts []string
	rest := r
	for _, rn := range reasonNames {
		if rest&rn.bit != 0 {
			parts = append(parts, rn.name)
			rest &^= rn.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}
