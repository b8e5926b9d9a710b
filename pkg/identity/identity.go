// Package identity resolves a stable, version-aware identity for a
// file: the serial of its containing volume, its 128-bit file reference
// number, and its most recent change record. The identity is composed
// from two independently obtained pieces — the file's own journal
// record and the volume serial — because the two come from different
// kernel facilities with different availability guarantees.
package identity

import (
	"errors"
	"fmt"

	"github.com/volwatch/usnjrnl/internal/logger"
	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/usn"
	"github.com/volwatch/usnjrnl/pkg/usn/codec"
)

// recordBufSize fits any single record (max 586 bytes) with headroom.
const recordBufSize = 1024

// ErrNoIdentity reports that no versioned identity exists for the file:
// the journal is disabled on its volume, the file predates the journal,
// or the kernel refused the per-file record query. Never a zero-filled
// identity.
var ErrNoIdentity = errors.New("no versioned identity available")

// FileIdentity is the resolved identity tuple.
type FileIdentity struct {
	// VolumeSerial identifies the containing volume. Long-form (64-bit)
	// when the system supports the extended identity query; otherwise
	// the zero-extended 32-bit short serial, flagged below.
	VolumeSerial uint64

	// ShortSerialOnly marks a fallback serial: fewer random bits, an
	// inferior but acceptable substitute on older systems.
	ShortSerialOnly bool

	// FileID is the 128-bit file reference number.
	FileID usn.FileID

	// Record is the file's most recent journal record. Its Usn is the
	// file's current change cursor and is never usn.None here.
	Record usn.Record
}

func (id FileIdentity) String() string {
	return fmt.Sprintf("vol=%#x file=%s usn=%s", id.VolumeSerial, id.FileID, id.Record.Usn)
}

// Resolve opens path, resolves its identity and releases the handle on
// every exit path.
func Resolve(dev device.Device, path string) (FileIdentity, error) {
	h, err := dev.OpenFile(path)
	if err != nil {
		return FileIdentity{}, fmt.Errorf("resolve identity: %w", err)
	}
	defer func() {
		if cerr := dev.Close(h); cerr != nil {
			logger.Warn("closing identity handle", "path", path, "error", cerr)
		}
	}()
	return ResolveHandle(dev, h)
}

// ResolveHandle resolves the identity of an already-open handle. The
// handle stays owned by the caller.
func ResolveHandle(dev device.Device, h device.Handle) (FileIdentity, error) {
	rec, err := ownRecord(dev, h)
	if err != nil {
		return FileIdentity{}, err
	}
	if rec.Usn.IsNone() {
		// The reserved zero cursor means "no activity recorded", not a
		// real position; there is no identity to report.
		return FileIdentity{}, ErrNoIdentity
	}

	id := FileIdentity{FileID: rec.FileID, Record: rec}
	info, err := dev.FileIDInfo(h)
	switch {
	case err == nil:
		id.VolumeSerial = info.VolumeSerial
		if !info.FileID.IsZero() {
			id.FileID = info.FileID
		}
	case errors.Is(err, device.ErrUnsupported):
		short, serr := dev.ShortSerial(h)
		if serr != nil {
			return FileIdentity{}, fmt.Errorf("resolve volume serial: %w", serr)
		}
		id.VolumeSerial = uint64(short)
		id.ShortSerialOnly = true
	default:
		return FileIdentity{}, fmt.Errorf("resolve volume serial: %w", err)
	}
	return id, nil
}

// ownRecord fetches the file's single most recent journal record.
// "Not supported", "not active" and "access denied" from the per-file
// query all mean no data is available, which maps to ErrNoIdentity
// rather than a hard failure.
func ownRecord(dev device.Device, h device.Handle) (usn.Record, error) {
	buf := make([]byte, recordBufSize)
	n, err := dev.ReadFileRecord(h, buf)
	if err != nil {
		errno, ok := device.ErrnoOf(err)
		if !ok {
			return usn.Record{}, fmt.Errorf("read file record: %w", err)
		}
		switch errno {
		case device.ErrnoInvalidFunction, device.ErrnoJournalNotActive, device.ErrnoAccessDenied:
			return usn.Record{}, fmt.Errorf("%w: %s", ErrNoIdentity, errno)
		}
		return usn.Record{}, fmt.Errorf("read file record: %w", err)
	}
	rec, err := codec.DecodeOne(buf[:n])
	if err != nil {
		return usn.Record{}, fmt.Errorf("read file record: %w", err)
	}
	return rec, nil
}
