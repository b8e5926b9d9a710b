//go:build windows

package device

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/volwatch/usnjrnl/pkg/usn"
)

// Control codes for the journal operations. The privileged read and the
// unprivileged read are distinct codes with identical input/output
// layouts; which one a session issues is fixed by its mode.
const (
	fsctlReadUsnJournal             = 0x000900bb
	fsctlReadFileUsnData            = 0x000900eb
	fsctlQueryUsnJournal            = 0x000900f4
	fsctlReadUnprivilegedUsnJournal = 0x000903ab
)

// winDevice is the production Device backed by the Win32 API.
type winDevice struct{}

// Default returns the real kernel-backed Device.
func Default() Device { return winDevice{} }

func wrapErr(op, path string, err error) error {
	if errno, ok := err.(windows.Errno); ok {
		return &Error{Op: op, Path: path, Errno: Errno(errno)}
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}

func (winDevice) open(op, path string, access uint32) (Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return InvalidHandle, fmt.Errorf("%s %s: %w", op, path, err)
	}
	share := uint32(windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE | windows.FILE_SHARE_DELETE)
	h, err := windows.CreateFile(p, access, share, nil,
		windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return InvalidHandle, wrapErr(op, path, err)
	}
	return Handle(h), nil
}

func (d winDevice) OpenVolume(path string) (Handle, error) {
	return d.open("open volume", path, windows.GENERIC_READ)
}

func (d winDevice) OpenFile(path string) (Handle, error) {
	// Attribute access only; keeps the open from contending with writers.
	return d.open("open file", path, windows.FILE_READ_ATTRIBUTES)
}

func (winDevice) Close(h Handle) error {
	if err := windows.CloseHandle(windows.Handle(h)); err != nil {
		return wrapErr("close handle", "", err)
	}
	return nil
}

func (winDevice) ioctl(op string, h Handle, code uint32, in []byte, out []byte) (uint32, error) {
	var inPtr *byte
	if len(in) > 0 {
		inPtr = &in[0]
	}
	var outPtr *byte
	if len(out) > 0 {
		outPtr = &out[0]
	}
	var returned uint32
	err := windows.DeviceIoControl(windows.Handle(h), code,
		inPtr, uint32(len(in)), outPtr, uint32(len(out)), &returned, nil)
	if err != nil {
		return returned, wrapErr(op, "", err)
	}
	return returned, nil
}

func (d winDevice) QueryJournal(h Handle) (usn.JournalData, error) {
	// USN_JOURNAL_DATA_V1 is 60 bytes; only the V0 prefix matters here.
	out := make([]byte, 64)
	n, err := d.ioctl("query journal", h, fsctlQueryUsnJournal, nil, out)
	if err != nil {
		return usn.JournalData{}, err
	}
	if n < 56 {
		return usn.JournalData{}, fmt.Errorf("query journal: short output (%d bytes)", n)
	}
	return usn.JournalData{
		JournalID:       binary.LittleEndian.Uint64(out[0:]),
		FirstUsn:        usn.Usn(binary.LittleEndian.Uint64(out[8:])),
		NextUsn:         usn.Usn(binary.LittleEndian.Uint64(out[16:])),
		LowestValidUsn:  usn.Usn(binary.LittleEndian.Uint64(out[24:])),
		MaxUsn:          usn.Usn(binary.LittleEndian.Uint64(out[32:])),
		MaximumSize:     binary.LittleEndian.Uint64(out[40:]),
		AllocationDelta: binary.LittleEndian.Uint64(out[48:]),
	}, nil
}

func (d winDevice) ReadJournal(h Handle, req ReadRequest, buf []byte) (int, error) {
	// READ_USN_JOURNAL_DATA_V1, marshalled field by field rather than
	// overlaid, so the wire layout never depends on Go struct alignment.
	in := make([]byte, 48)
	binary.LittleEndian.PutUint64(in[0:], uint64(req.StartUsn))
	binary.LittleEndian.PutUint32(in[8:], uint32(req.ReasonMask))
	if req.ReturnOnlyOnClose {
		binary.LittleEndian.PutUint32(in[12:], 1)
	}
	binary.LittleEndian.PutUint64(in[16:], req.Timeout)
	binary.LittleEndian.PutUint64(in[24:], req.BytesToWaitFor)
	binary.LittleEndian.PutUint64(in[32:], req.JournalID)
	binary.LittleEndian.PutUint16(in[40:], req.MinMajorVersion)
	binary.LittleEndian.PutUint16(in[42:], req.MaxMajorVersion)

	code := uint32(fsctlReadUsnJournal)
	if !req.Privileged {
		code = fsctlReadUnprivilegedUsnJournal
	}
	n, err := d.ioctl("read journal", h, code, in, buf)
	return int(n), err
}

func (d winDevice) ReadFileRecord(h Handle, buf []byte) (int, error) {
	// Input is the acceptable [min, max] record major version pair.
	in := make([]byte, 4)
	binary.LittleEndian.PutUint16(in[0:], 2)
	binary.LittleEndian.PutUint16(in[2:], 3)
	n, err := d.ioctl("read file record", h, fsctlReadFileUsnData, in, buf)
	return int(n), err
}

func (winDevice) FileIDInfo(h Handle) (IDInfo, error) {
	// FILE_ID_INFO: u64 volume serial + 16-byte file id.
	var out [24]byte
	err := windows.GetFileInformationByHandleEx(windows.Handle(h),
		windows.FileIdInfo, &out[0], uint32(len(out)))
	if err != nil {
		if errno, ok := err.(windows.Errno); ok && Errno(errno) == ErrnoInvalidParameter {
			// Pre-ReFS-era kernels and some filesystems reject the
			// extended class; callers fall back to the short serial.
			return IDInfo{}, ErrUnsupported
		}
		return IDInfo{}, wrapErr("file id info", "", err)
	}
	return IDInfo{
		VolumeSerial: binary.LittleEndian.Uint64(out[0:]),
		FileID: usn.FileID{
			Lo: binary.LittleEndian.Uint64(out[8:]),
			Hi: binary.LittleEndian.Uint64(out[16:]),
		},
	}, nil
}

func (winDevice) ShortSerial(h Handle) (uint32, error) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(windows.Handle(h), &info); err != nil {
		return 0, wrapErr("short serial", "", err)
	}
	return info.VolumeSerialNumber, nil
}

func (winDevice) Volumes() ([]string, error) {
	var name [windows.MAX_PATH + 1]uint16
	fh, err := windows.FindFirstVolume(&name[0], uint32(len(name)))
	if err != nil {
		return nil, wrapErr("enumerate volumes", "", err)
	}
	defer windows.FindVolumeClose(fh)

	var paths []string
	for {
		paths = append(paths, windows.UTF16ToString(name[:]))
		if err := windows.FindNextVolume(fh, &name[0], uint32(len(name))); err != nil {
			if errno, ok := err.(windows.Errno); ok && errno == windows.ERROR_NO_MORE_FILES {
				return paths, nil
			}
			return nil, wrapErr("enumerate volumes", "", err)
		}
	}
}
