// Package device is the OS ioctl boundary of the toolkit. It exposes
// the handful of kernel operations the journal engine depends on —
// opening volume and file handles, the journal query/read control
// operations, identity queries, and volume enumeration — behind a
// single Device interface.
//
// The semantics of each call are an immutable external contract (the
// engine's error taxonomy is built on the exact set of error codes each
// call can produce). The real implementation lives in device_windows.go;
// devicetest provides a scriptable in-memory implementation used by all
// engine tests.
package device

import (
	"errors"
	"fmt"

	"github.com/volwatch/usnjrnl/pkg/usn"
)

// Handle is an open kernel handle to a file or volume. The zero value
// is never a valid handle.
type Handle uintptr

// InvalidHandle is returned alongside a non-nil error from the open calls.
const InvalidHandle Handle = 0

// ReadRequest is the input block for a journal read control operation.
// MinMajorVersion and MaxMajorVersion bound the record layouts the
// caller can decode; the engine always asks for [2, 3].
type ReadRequest struct {
	StartUsn          usn.Usn
	ReasonMask        usn.Reason
	ReturnOnlyOnClose bool
	Timeout           uint64
	BytesToWaitFor    uint64
	JournalID         uint64
	MinMajorVersion   uint16
	MaxMajorVersion   uint16

	// Privileged selects the control-code variant: the privileged read
	// requires the volume to be opened by its device path, the
	// unprivileged one works on the share path form. The caller must use
	// the same mode for every operation in one journal session.
	Privileged bool
}

// IDInfo is the extended identity of an open handle: the long-form
// 64-bit volume serial and the 128-bit file reference number.
type IDInfo struct {
	VolumeSerial uint64
	FileID       usn.FileID
}

// Device is the full set of kernel operations the engine needs.
//
// Every method that fails returns a *Error carrying the OS error code,
// except where a sentinel is documented. Handles returned by the open
// calls are owned by the caller and must be released with Close.
type Device interface {
	// OpenVolume opens a handle on a volume root path (either the share
	// form with a trailing separator or the device form without one).
	OpenVolume(path string) (Handle, error)

	// OpenFile opens a read/attribute handle on an ordinary file or
	// directory path, sharing with concurrent readers and writers.
	OpenFile(path string) (Handle, error)

	// Close releases a handle obtained from OpenVolume or OpenFile.
	Close(h Handle) error

	// QueryJournal issues the journal-metadata query control operation.
	QueryJournal(h Handle) (usn.JournalData, error)

	// ReadJournal issues one journal read at req.StartUsn into buf and
	// returns the number of bytes written. The first 8 bytes of buf are
	// the next cursor; the kernel has been observed to fill them on some
	// failure paths too, so callers must inspect buf[:n] whenever n >= 8
	// regardless of err.
	ReadJournal(h Handle, req ReadRequest, buf []byte) (int, error)

	// ReadFileRecord fetches the single most recent journal record for
	// the file behind h into buf, returning the number of bytes written.
	ReadFileRecord(h Handle, buf []byte) (int, error)

	// FileIDInfo returns the extended identity of h. On systems that do
	// not support the extended query it returns ErrUnsupported, in which
	// case ShortSerial is the fallback.
	FileIDInfo(h Handle) (IDInfo, error)

	// ShortSerial returns the legacy 32-bit volume serial for h. Always
	// available, but carries fewer distinguishing bits than IDInfo.
	ShortSerial(h Handle) (uint32, error)

	// Volumes enumerates all locally visible volumes, yielding one
	// canonical volume root path per volume.
	Volumes() ([]string, error)
}

// ErrUnsupported reports that the extended file-id query is not
// available on this system; callers fall back to ShortSerial.
var ErrUnsupported = errors.New("extended file id info not supported")

// Error is a failed boundary call: the operation, the path or handle it
// targeted, and the OS error code. The engine's status taxonomy maps
// Errno values into closed per-operation status sets.
type Error struct {
	Op    string
	Path  string
	Errno Errno
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Errno)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Errno)
}

// ErrnoOf extracts the OS error code from an error chain. The second
// return is false when err has no *Error in its chain.
func ErrnoOf(err error) (Errno, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Errno, true
	}
	return 0, false
}
