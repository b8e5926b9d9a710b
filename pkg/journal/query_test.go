package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/device/devicetest"
	"github.com/volwatch/usnjrnl/pkg/usn"
)

func TestQuery(t *testing.T) {
	t.Run("SuccessReturnsDescriptor", func(t *testing.T) {
		journal := usn.JournalData{
			JournalID:      testJournalID,
			FirstUsn:       4096,
			NextUsn:        90112,
			LowestValidUsn: 4096,
			MaxUsn:         1 << 40,
			MaximumSize:    32 * 1024 * 1024,
		}
		fake, h := openTestVolume(t, &devicetest.Volume{Path: `\\?\Volume{a}\`, Journal: journal})

		data, status, err := Query(fake, h)
		require.NoError(t, err)
		assert.Equal(t, QuerySuccess, status)
		assert.Equal(t, journal, data)
	})

	t.Run("MapsDocumentedErrnos", func(t *testing.T) {
		cases := []struct {
			errno device.Errno
			want  QueryStatus
		}{
			{device.ErrnoJournalNotActive, QueryJournalNotActive},
			{device.ErrnoJournalDeleteInProgress, QueryJournalDeleteInProgress},
			{device.ErrnoInvalidFunction, QueryNotSupported},
			{device.ErrnoInvalidParameter, QueryInvalidParameter},
			{device.ErrnoAccessDenied, QueryAccessDenied},
		}
		for _, tc := range cases {
			t.Run(tc.want.String(), func(t *testing.T) {
				fake, h := openTestVolume(t, &devicetest.Volume{
					Path:       `\\?\Volume{a}\`,
					QueryErrno: tc.errno,
				})
				_, status, err := Query(fake, h)
				require.NoError(t, err)
				assert.Equal(t, tc.want, status)
			})
		}
	})

	t.Run("UnknownErrnoSurfacesAsUnexpected", func(t *testing.T) {
		fake, h := openTestVolume(t, &devicetest.Volume{
			Path:       `\\?\Volume{a}\`,
			QueryErrno: device.Errno(6),
		})
		_, _, err := Query(fake, h)
		require.ErrorIs(t, err, ErrUnexpectedErrno)
	})
}

func TestOpenStatusPredicates(t *testing.T) {
	t.Run("MissingStatuses", func(t *testing.T) {
		for _, s := range []OpenStatus{
			OpenNotFound, OpenPathNotFound, OpenDeviceNotReady,
			OpenLockedVolume, OpenCannotAccess, OpenBadPath,
		} {
			assert.True(t, s.IsMissing(), s.String())
			assert.False(t, s.IsContended(), s.String())
		}
	})

	t.Run("ContendedStatuses", func(t *testing.T) {
		for _, s := range []OpenStatus{
			OpenSharingViolation, OpenAccessDenied, OpenLockViolation,
		} {
			assert.True(t, s.IsContended(), s.String())
			assert.False(t, s.IsMissing(), s.String())
		}
	})

	t.Run("UnknownIsNeither", func(t *testing.T) {
		assert.False(t, OpenUnknown.IsMissing())
		assert.False(t, OpenUnknown.IsContended())
		assert.False(t, OpenTimeout.IsContended())
	})
}

func TestMapOpenErrno(t *testing.T) {
	cases := []struct {
		errno device.Errno
		want  OpenStatus
	}{
		{device.ErrnoFileNotFound, OpenNotFound},
		{device.ErrnoPathNotFound, OpenPathNotFound},
		{device.ErrnoSharingViolation, OpenSharingViolation},
		{device.ErrnoAccessDenied, OpenAccessDenied},
		{device.ErrnoLockViolation, OpenLockViolation},
		{device.ErrnoNotReady, OpenDeviceNotReady},
		{device.ErrnoLockedVolume, OpenLockedVolume},
		{device.ErrnoTimeout, OpenTimeout},
		{device.ErrnoCantAccessFile, OpenCannotAccess},
		{device.ErrnoBadPathname, OpenBadPath},
		{device.Errno(0xdead), OpenUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MapOpenErrno(tc.errno), tc.errno.String())
	}
}
