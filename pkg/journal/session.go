package journal

import (
	"errors"
	"fmt"

	"github.com/volwatch/usnjrnl/internal/logger"
	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/metrics"
	"github.com/volwatch/usnjrnl/pkg/usn"
	"github.com/volwatch/usnjrnl/pkg/usn/codec"
	"github.com/volwatch/usnjrnl/pkg/volume"
)

// Mode is the session privilege level. It is established once at
// construction and threaded through every operation: it selects the
// volume addressing form (share path vs device path) and the read
// control-code variant, which must agree for the whole session.
type Mode int

const (
	// Unprivileged opens volumes by share path and issues the
	// unprivileged read variant. Works without administrative rights.
	Unprivileged Mode = iota

	// Privileged opens volumes by device path and issues the privileged
	// read variant.
	Privileged
)

func (m Mode) String() string {
	if m == Privileged {
		return "privileged"
	}
	return "unprivileged"
}

// ErrUnknownVolume reports a serial the session's registry cannot
// resolve to a volume path.
var ErrUnknownVolume = errors.New("no volume for serial")

// Session ties a Device, a privilege mode and a volume registry
// together, caching one lazily-opened handle per volume.
//
// A Session is not safe for concurrent use: the handle cache is
// unsynchronized by contract (the whole engine is single-threaded).
// Confine a session to one goroutine or lock around it externally.
// Close releases every cached handle and must be called at teardown.
type Session struct {
	dev      device.Device
	mode     Mode
	registry *volume.Registry
	met      metrics.JournalMetrics

	handles map[uint64]device.Handle
}

// SessionOption customizes a Session at construction.
type SessionOption func(*Session)

// WithMetrics attaches a metrics collector. Without it the session
// records into a no-op implementation.
func WithMetrics(m metrics.JournalMetrics) SessionOption {
	return func(s *Session) { s.met = m }
}

// NewSession creates a session over an already-built registry.
func NewSession(dev device.Device, mode Mode, registry *volume.Registry, opts ...SessionOption) *Session {
	s := &Session{
		dev:      dev,
		mode:     mode,
		registry: registry,
		met:      metrics.NewNoopJournalMetrics(),
		handles:  make(map[uint64]device.Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the session's volume registry.
func (s *Session) Registry() *volume.Registry { return s.registry }

// Mode exposes the session's privilege mode.
func (s *Session) Mode() Mode { return s.mode }

// VolumeHandle returns the cached handle for a volume serial, opening
// it on first use with the addressing form the session mode requires.
func (s *Session) VolumeHandle(serial uint64) (device.Handle, error) {
	if h, ok := s.handles[serial]; ok {
		return h, nil
	}
	path, ok, err := s.registry.Lookup(serial)
	if err != nil {
		return device.InvalidHandle, err
	}
	if !ok {
		return device.InvalidHandle, fmt.Errorf("%w %#x", ErrUnknownVolume, serial)
	}

	addr := path.Share()
	if s.mode == Privileged {
		addr = path.Device()
	}
	h, err := s.dev.OpenVolume(addr)
	if err != nil {
		if errno, ok := device.ErrnoOf(err); ok {
			return device.InvalidHandle, fmt.Errorf("open volume %s (%s): %w", addr, MapOpenErrno(errno), err)
		}
		return device.InvalidHandle, err
	}
	s.handles[serial] = h
	s.met.SetOpenHandles(len(s.handles))
	logger.Debug("opened volume handle", "path", addr, "serial", fmt.Sprintf("%#x", serial), "mode", s.mode.String())
	return h, nil
}

// Query runs the journal metadata query against a volume serial.
func (s *Session) Query(serial uint64) (usn.JournalData, QueryStatus, error) {
	h, err := s.VolumeHandle(serial)
	if err != nil {
		return usn.JournalData{}, 0, err
	}
	data, status, err := Query(s.dev, h)
	if err == nil {
		s.met.RecordQuery(status.String())
	}
	return data, status, err
}

// Read pages through a volume's journal, filling in the session's
// privilege mode. All other policy comes from opts.
func (s *Session) Read(serial uint64, opts ReadOptions, yield func(usn.Record) error) (ReadResult, error) {
	h, err := s.VolumeHandle(serial)
	if err != nil {
		return ReadResult{}, err
	}
	opts.Privileged = s.mode == Privileged

	physical := 0
	res, err := Read(countingDevice{s.dev, &physical, s.met}, h, opts, yield)
	switch {
	case err == nil:
		s.met.RecordRead(res.Status.String(), res.Records, physical)
	case errors.Is(err, ErrUnexpectedErrno):
		s.met.RecordRead("Unexpected", res.Records, physical)
	default:
		var cerr *codec.Error
		if errors.As(err, &cerr) {
			s.met.RecordDecodeError()
		}
	}
	return res, err
}

// Close releases every cached volume handle. The session is unusable
// afterwards. Errors from individual closes are joined; all handles are
// attempted regardless.
func (s *Session) Close() error {
	var errs []error
	for serial, h := range s.handles {
		if err := s.dev.Close(h); err != nil {
			errs = append(errs, fmt.Errorf("close volume %#x: %w", serial, err))
		}
		delete(s.handles, serial)
	}
	s.met.SetOpenHandles(0)
	return errors.Join(errs...)
}

// countingDevice wraps the read call to count physical reads and bytes
// for metrics without touching the protocol loop itself.
type countingDevice struct {
	device.Device
	reads *int
	met   metrics.JournalMetrics
}

func (c countingDevice) ReadJournal(h device.Handle, req device.ReadRequest, buf []byte) (int, error) {
	*c.reads++
	n, err := c.Device.ReadJournal(h, req, buf)
	if n > 0 {
		c.met.RecordBytesRead(n)
	}
	return n, err
}
