package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/device/devicetest"
	"github.com/volwatch/usnjrnl/pkg/usn"
)

func ownRecordBuf(cursor usn.Usn) []byte {
	return devicetest.FileRecord(devicetest.RecordSpec{
		Version:  3,
		FileID:   usn.FileID{Lo: 0x77, Hi: 0x88},
		ParentID: usn.FileID{Lo: 0x11},
		Usn:      cursor,
		Reason:   usn.ReasonClose,
		Name:     "file.txt",
	})
}

func TestResolve(t *testing.T) {
	t.Run("ComposesSerialAndRecord", func(t *testing.T) {
		fake := devicetest.New()
		fake.AddFile(&devicetest.File{
			Path:      `C:\data\file.txt`,
			RecordBuf: ownRecordBuf(500),
			ID: device.IDInfo{
				VolumeSerial: 0xfeed,
				FileID:       usn.FileID{Lo: 0x77, Hi: 0x88},
			},
		})

		id, err := Resolve(fake, `C:\data\file.txt`)
		require.NoError(t, err)
		assert.Equal(t, uint64(0xfeed), id.VolumeSerial)
		assert.False(t, id.ShortSerialOnly)
		assert.Equal(t, usn.FileID{Lo: 0x77, Hi: 0x88}, id.FileID)
		assert.Equal(t, usn.Usn(500), id.Record.Usn)
		assert.Equal(t, "file.txt", id.Record.Name())

		// The handle opened for resolution must not leak.
		assert.Zero(t, fake.OpenHandles())
	})

	t.Run("ZeroCursorYieldsFailureNotZeroIdentity", func(t *testing.T) {
		fake := devicetest.New()
		fake.AddFile(&devicetest.File{
			Path:      `C:\old.txt`,
			RecordBuf: ownRecordBuf(0),
			ID:        device.IDInfo{VolumeSerial: 0xfeed},
		})

		_, err := Resolve(fake, `C:\old.txt`)
		require.ErrorIs(t, err, ErrNoIdentity)
		assert.Zero(t, fake.OpenHandles())
	})

	t.Run("FallsBackToShortSerial", func(t *testing.T) {
		fake := devicetest.New()
		fake.AddFile(&devicetest.File{
			Path:        `C:\f`,
			RecordBuf:   ownRecordBuf(42),
			NoLongForm:  true,
			ShortSerial: 0x1234,
		})

		id, err := Resolve(fake, `C:\f`)
		require.NoError(t, err)
		assert.Equal(t, uint64(0x1234), id.VolumeSerial)
		assert.True(t, id.ShortSerialOnly)
		// Without the extended query the record's own id is used.
		assert.Equal(t, usn.FileID{Lo: 0x77, Hi: 0x88}, id.FileID)
	})

	t.Run("NoDataErrnosMeanNoIdentity", func(t *testing.T) {
		for _, errno := range []device.Errno{
			device.ErrnoInvalidFunction,
			device.ErrnoJournalNotActive,
			device.ErrnoAccessDenied,
		} {
			t.Run(errno.String(), func(t *testing.T) {
				fake := devicetest.New()
				fake.AddFile(&devicetest.File{Path: `C:\f`, RecordErrno: errno})

				_, err := Resolve(fake, `C:\f`)
				require.ErrorIs(t, err, ErrNoIdentity)
			})
		}
	})

	t.Run("OtherRecordErrnosAreFailures", func(t *testing.T) {
		fake := devicetest.New()
		fake.AddFile(&devicetest.File{Path: `C:\f`, RecordErrno: device.ErrnoInvalidParameter})

		_, err := Resolve(fake, `C:\f`)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoIdentity)
	})

	t.Run("MissingFileFailsOpen", func(t *testing.T) {
		fake := devicetest.New()
		_, err := Resolve(fake, `C:\nope`)
		require.Error(t, err)
		errno, ok := device.ErrnoOf(err)
		require.True(t, ok)
		assert.Equal(t, device.ErrnoFileNotFound, errno)
	})
}
