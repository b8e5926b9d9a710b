// Package journal drives the cursor-based journal protocol: the
// metadata query, the paged read loop, and the session that owns volume
// handles. It also defines the closed status taxonomy that every
// OS-boundary failure is normalized into.
package journal

import (
	"errors"

	"github.com/volwatch/usnjrnl/pkg/device"
)

// ErrUnexpectedErrno marks an OS error code outside the documented
// closed set for the call that produced it. It is never coerced into a
// nearby status: an unknown code means the kernel contract drifted, and
// callers must be able to detect that rather than misread it as, say,
// an inactive journal.
var ErrUnexpectedErrno = errors.New("os error code outside documented contract")

// QueryStatus is the closed result set of a journal metadata query.
type QueryStatus int

const (
	QuerySuccess QueryStatus = iota
	QueryJournalNotActive
	QueryJournalDeleteInProgress
	QueryNotSupported // volume does not support change journals
	QueryInvalidParameter
	QueryAccessDenied
)

func (s QueryStatus) String() string {
	switch s {
	case QuerySuccess:
		return "Success"
	case QueryJournalNotActive:
		return "JournalNotActive"
	case QueryJournalDeleteInProgress:
		return "JournalDeleteInProgress"
	case QueryNotSupported:
		return "VolumeDoesNotSupportChangeJournals"
	case QueryInvalidParameter:
		return "InvalidParameter"
	case QueryAccessDenied:
		return "AccessDenied"
	default:
		return "Unknown"
	}
}

// mapQueryErrno is the exhaustive errno contract of the query call.
func mapQueryErrno(e device.Errno) (QueryStatus, bool) {
	switch e {
	case device.ErrnoJournalNotActive:
		return QueryJournalNotActive, true
	case device.ErrnoJournalDeleteInProgress:
		return QueryJournalDeleteInProgress, true
	case device.ErrnoInvalidFunction:
		return QueryNotSupported, true
	case device.ErrnoInvalidParameter:
		return QueryInvalidParameter, true
	case device.ErrnoAccessDenied:
		return QueryAccessDenied, true
	default:
		return 0, false
	}
}

// ReadStatus is the closed result set of a journal read. It extends the
// query set with EntryDeleted: the start cursor has been truncated out
// of the journal, and the caller either restarts from cursor zero or
// accepts the gap.
type ReadStatus int

const (
	ReadSuccess ReadStatus = iota
	ReadJournalNotActive
	ReadJournalDeleteInProgress
	ReadJournalEntryDeleted
	ReadNotSupported
	ReadInvalidParameter
	ReadAccessDenied
)

func (s ReadStatus) String() string {
	switch s {
	case ReadSuccess:
		return "Success"
	case ReadJournalNotActive:
		return "JournalNotActive"
	case ReadJournalDeleteInProgress:
		return "JournalDeleteInProgress"
	case ReadJournalEntryDeleted:
		return "JournalEntryDeleted"
	case ReadNotSupported:
		return "VolumeDoesNotSupportChangeJournals"
	case ReadInvalidParameter:
		return "InvalidParameter"
	case ReadAccessDenied:
		return "AccessDenied"
	default:
		return "Unknown"
	}
}

func mapReadErrno(e device.Errno) (ReadStatus, bool) {
	switch e {
	case device.ErrnoJournalNotActive:
		return ReadJournalNotActive, true
	case device.ErrnoJournalDeleteInProgress:
		return ReadJournalDeleteInProgress, true
	case device.ErrnoJournalEntryDeleted:
		return ReadJournalEntryDeleted, true
	case device.ErrnoInvalidFunction:
		return ReadNotSupported, true
	case device.ErrnoInvalidParameter:
		return ReadInvalidParameter, true
	case device.ErrnoAccessDenied:
		return ReadAccessDenied, true
	default:
		return 0, false
	}
}

// OpenStatus classifies a failed volume or file open. Unlike the query
// and read taxonomies this set carries an explicit Unknown member: an
// open can fail with codes from the whole filesystem surface, so an
// unmapped code is folded rather than treated as contract drift.
type OpenStatus int

const (
	OpenNotFound OpenStatus = iota
	OpenPathNotFound
	OpenSharingViolation
	OpenAccessDenied
	OpenLockViolation
	OpenDeviceNotReady
	OpenLockedVolume
	OpenTimeout
	OpenCannotAccess
	OpenBadPath
	OpenUnknown
)

func (s OpenStatus) String() string {
	switch s {
	case OpenNotFound:
		return "NotFound"
	case OpenPathNotFound:
		return "PathNotFound"
	case OpenSharingViolation:
		return "SharingViolation"
	case OpenAccessDenied:
		return "AccessDenied"
	case OpenLockViolation:
		return "LockViolation"
	case OpenDeviceNotReady:
		return "DeviceNotReady"
	case OpenLockedVolume:
		return "LockedVolume"
	case OpenTimeout:
		return "Timeout"
	case OpenCannotAccess:
		return "CannotAccess"
	case OpenBadPath:
		return "BadPath"
	default:
		return "Unknown"
	}
}

// MapOpenErrno folds an open-call error code into the OpenStatus set.
func MapOpenErrno(e device.Errno) OpenStatus {
	switch e {
	case device.ErrnoFileNotFound:
		return OpenNotFound
	case device.ErrnoPathNotFound:
		return OpenPathNotFound
	case device.ErrnoSharingViolation:
		return OpenSharingViolation
	case device.ErrnoAccessDenied:
		return OpenAccessDenied
	case device.ErrnoLockViolation:
		return OpenLockViolation
	case device.ErrnoNotReady:
		return OpenDeviceNotReady
	case device.ErrnoLockedVolume:
		return OpenLockedVolume
	case device.ErrnoTimeout:
		return OpenTimeout
	case device.ErrnoCantAccessFile:
		return OpenCannotAccess
	case device.ErrnoBadPathname:
		return OpenBadPath
	default:
		return OpenUnknown
	}
}

// IsMissing reports whether the failure means "the resource does not
// exist here" — safe to treat the target as absent.
func (s OpenStatus) IsMissing() bool {
	switch s {
	case OpenNotFound, OpenPathNotFound, OpenDeviceNotReady,
		OpenLockedVolume, OpenCannotAccess, OpenBadPath:
		return true
	}
	return false
}

// IsContended reports whether the failure means another actor currently
// blocks access — the resource exists but cannot be touched right now.
func (s OpenStatus) IsContended() bool {
	switch s {
	case OpenSharingViolation, OpenAccessDenied, OpenLockViolation:
		return true
	}
	return false
}
