package journal

import (
	"fmt"

	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/usn"
)

// Query issues the journal-metadata control operation on an open volume
// handle. Expected failure modes come back as a QueryStatus with a nil
// error; an error is returned only for conditions outside the
// documented contract (unknown errno, non-errno failure).
func Query(dev device.Device, h device.Handle) (usn.JournalData, QueryStatus, error) {
	data, err := dev.QueryJournal(h)
	if err == nil {
		return data, QuerySuccess, nil
	}
	errno, ok := device.ErrnoOf(err)
	if !ok {
		return usn.JournalData{}, 0, fmt.Errorf("query journal: %w", err)
	}
	status, ok := mapQueryErrno(errno)
	if !ok {
		return usn.JournalData{}, 0, fmt.Errorf("query journal: %w: %s", ErrUnexpectedErrno, errno)
	}
	return usn.JournalData{}, status, nil
}
