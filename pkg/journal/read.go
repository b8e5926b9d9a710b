package journal

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/usn"
	"github.com/volwatch/usnjrnl/pkg/usn/codec"
)

// DefaultReadBufferSize is the per-read buffer size. Records average
// well under 128 bytes, so one read typically yields several hundred
// records, amortizing the control-operation overhead.
const DefaultReadBufferSize = 64 * 1024

// ReadOptions configures one paged read.
type ReadOptions struct {
	// JournalID must match the current journal instance; the kernel
	// rejects cursors issued under a recreated journal.
	JournalID uint64

	// StartUsn is the cursor to read from.
	StartUsn usn.Usn

	// EndUsn, when nonzero, bounds the read: once the local cursor
	// reaches or passes it the loop stops after consuming ExtraReads
	// additional passes. The kernel may return more or fewer records
	// than exactly up to EndUsn in one read; the allowance absorbs that.
	EndUsn     usn.Usn
	ExtraReads int

	// Deadline, when set, is a soft wall-clock limit checked between
	// physical reads only: a read in flight is never interrupted, and an
	// expired deadline yields success-with-timeout, not an error. An
	// already-expired deadline returns before the first read.
	Deadline time.Time

	// ReasonMask filters records by reason bits. Zero means all reasons.
	ReasonMask usn.Reason

	// BufferSize overrides DefaultReadBufferSize when positive.
	BufferSize int

	// Privileged selects the privileged read control-code variant. Must
	// match the addressing form the volume handle was opened with.
	Privileged bool
}

// ReadResult is the final outcome of a paged read: where the cursor
// ended up and why the loop stopped. Partial progress before a timeout
// or failure is already delivered and counted.
type ReadResult struct {
	Status   ReadStatus
	NextUsn  usn.Usn
	TimedOut bool
	Records  int
}

// Read pages through the journal from opts.StartUsn, delivering records
// to yield in buffer order (which is cursor-increasing). Delivery is
// synchronous; memory never exceeds one physical read's worth of
// records. A non-nil error from yield aborts the read and is returned
// verbatim.
//
// Expected failures surface as a ReadStatus with nil error. The
// OS-reported next cursor is propagated even on failure when the kernel
// supplies one (observed real-world behavior; see ReadJournal).
func Read(dev device.Device, h device.Handle, opts ReadOptions, yield func(usn.Record) error) (ReadResult, error) {
	mask := opts.ReasonMask
	if mask == 0 {
		mask = usn.ReasonMaskAll
	}
	size := opts.BufferSize
	if size <= 0 {
		size = DefaultReadBufferSize
	}

	buf := make([]byte, size)
	cursor := opts.StartUsn
	extra := opts.ExtraReads
	delivered := 0

	for {
		if !opts.Deadline.IsZero() && !time.Now().Before(opts.Deadline) {
			return ReadResult{Status: ReadSuccess, NextUsn: cursor, TimedOut: true, Records: delivered}, nil
		}
		if opts.EndUsn != 0 && cursor >= opts.EndUsn {
			if extra <= 0 {
				return ReadResult{Status: ReadSuccess, NextUsn: cursor, Records: delivered}, nil
			}
			extra--
		}

		req := device.ReadRequest{
			StartUsn:        cursor,
			ReasonMask:      mask,
			JournalID:       opts.JournalID,
			MinMajorVersion: 2,
			MaxMajorVersion: 3,
			Privileged:      opts.Privileged,
		}
		n, err := dev.ReadJournal(h, req, buf)
		if err != nil {
			// Some failure paths still report a usable next cursor in
			// the buffer prefix; trust it over the pre-read cursor.
			if n >= codec.CursorPrefixSize {
				cursor = usn.Usn(binary.LittleEndian.Uint64(buf))
			}
			errno, ok := device.ErrnoOf(err)
			if !ok {
				return ReadResult{NextUsn: cursor, Records: delivered}, fmt.Errorf("read journal: %w", err)
			}
			status, ok := mapReadErrno(errno)
			if !ok {
				return ReadResult{NextUsn: cursor, Records: delivered},
					fmt.Errorf("read journal at %s: %w: %s", cursor, ErrUnexpectedErrno, errno)
			}
			return ReadResult{Status: status, NextUsn: cursor, Records: delivered}, nil
		}

		next, records, err := codec.Decode(buf[:n])
		if err != nil {
			return ReadResult{NextUsn: cursor, Records: delivered}, fmt.Errorf("read journal at %s: %w", cursor, err)
		}
		if len(records) == 0 {
			// End of currently available journal data.
			return ReadResult{Status: ReadSuccess, NextUsn: next, Records: delivered}, nil
		}
		for _, rec := range records {
			if err := yield(rec); err != nil {
				return ReadResult{Status: ReadSuccess, NextUsn: rec.Usn, Records: delivered}, err
			}
			delivered++
		}
		cursor = next
	}
}

// Collect runs Read and gathers every record into a slice. Convenient
// for bounded reads; unbounded journals should stream through Read.
func Collect(dev device.Device, h device.Handle, opts ReadOptions) ([]usn.Record, ReadResult, error) {
	var records []usn.Record
	res, err := Read(dev, h, opts, func(r usn.Record) error {
		records = append(records, r)
		return nil
	})
	return records, res, err
}
