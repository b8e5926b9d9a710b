package device

import "fmt"

// Errno is a raw OS error code from a boundary call. The engine never
// branches on these directly outside the taxonomy mapping tables in
// pkg/journal; everything else sees typed statuses.
type Errno uint32

// The closed set of codes the engine's contract with the kernel covers.
// A code outside this set reaching a mapping table is a contract
// violation and surfaces as an unexpected-errno failure, never as a
// silent default.
const (
	ErrnoSuccess                 Errno = 0
	ErrnoInvalidFunction         Errno = 1 // volume does not support change journals
	ErrnoFileNotFound            Errno = 2
	ErrnoPathNotFound            Errno = 3
	ErrnoAccessDenied            Errno = 5
	ErrnoNotReady                Errno = 21
	ErrnoSharingViolation        Errno = 32
	ErrnoLockViolation           Errno = 33
	ErrnoInvalidParameter        Errno = 87
	ErrnoBadPathname             Errno = 161
	ErrnoJournalDeleteInProgress Errno = 1178
	ErrnoJournalNotActive        Errno = 1179
	ErrnoJournalEntryDeleted     Errno = 1181
	ErrnoTimeout                 Errno = 1460
	ErrnoCantAccessFile          Errno = 1920
	ErrnoLockedVolume            Errno = 0x80310000 // drive-encryption locked volume
)

var errnoNames = map[Errno]string{
	ErrnoSuccess:                 "success",
	ErrnoInvalidFunction:         "invalid function",
	ErrnoFileNotFound:            "file not found",
	ErrnoPathNotFound:            "path not found",
	ErrnoAccessDenied:            "access denied",
	ErrnoNotReady:                "device not ready",
	ErrnoSharingViolation:        "sharing violation",
	ErrnoLockViolation:           "lock violation",
	ErrnoInvalidParameter:        "invalid parameter",
	ErrnoBadPathname:             "bad pathname",
	ErrnoJournalDeleteInProgress: "journal delete in progress",
	ErrnoJournalNotActive:        "journal not active",
	ErrnoJournalEntryDeleted:     "journal entry deleted",
	ErrnoTimeout:                 "timeout",
	ErrnoCantAccessFile:          "cannot access file",
	ErrnoLockedVolume:            "locked volume",
}

func (e Errno) String() string {
	if name, ok := errnoNames[e]; ok {
		return fmt.Sprintf("%s (%#x)", name, uint32(e))
	}
	return fmt.Sprintf("errno %#x", uint32(e))
}
