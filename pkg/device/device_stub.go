//go:build !windows

package device

import (
	"errors"

	"github.com/volwatch/usnjrnl/pkg/usn"
)

// ErrPlatform reports that no kernel-backed Device exists on this OS.
// The engine itself is portable (tests run everywhere against the
// devicetest fake); only Default is Windows-only.
var ErrPlatform = errors.New("change journals are only available on windows")

type stubDevice struct{}

// Default returns a Device whose every call fails with ErrPlatform.
func Default() Device { return stubDevice{} }

func (stubDevice) OpenVolume(string) (Handle, error) { return InvalidHandle, ErrPlatform }
func (stubDevice) OpenFile(string) (Handle, error)   { return InvalidHandle, ErrPlatform }
func (stubDevice) Close(Handle) error                { return ErrPlatform }
func (stubDevice) QueryJournal(Handle) (usn.JournalData, error) {
	return usn.JournalData{}, ErrPlatform
}
func (stubDevice) ReadJournal(Handle, ReadRequest, []byte) (int, error) { return 0, ErrPlatform }
func (stubDevice) ReadFileRecord(Handle, []byte) (int, error)           { return 0, ErrPlatform }
func (stubDevice) FileIDInfo(Handle) (IDInfo, error)                    { return IDInfo{}, ErrPlatform }
func (stubDevice) ShortSerial(Handle) (uint32, error)                   { return 0, ErrPlatform }
func (stubDevice) Volumes() ([]string, error)                           { return nil, ErrPlatform }
