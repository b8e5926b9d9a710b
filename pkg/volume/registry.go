package volume

import (
	"errors"
	"fmt"
	"sort"

	"github.com/volwatch/usnjrnl/internal/logger"
	"github.com/volwatch/usnjrnl/pkg/device"
)

// Pair is one enumerated (serial, path) observation, the unit the
// registry is folded from. ShortOnly marks serials obtained through the
// legacy 32-bit call, which carry fewer distinguishing bits.
type Pair struct {
	Serial    uint64
	Path      Path
	ShortOnly bool
}

// Registry maps volume serials to volume paths. Built once per session
// by Build; immutable afterwards, so lookups are safe to share across
// goroutines read-only.
type Registry struct {
	entries map[uint64]entry
}

type entry struct {
	path     Path
	poisoned bool
}

// ErrAmbiguousSerial reports a lookup of a serial observed on two
// distinct volumes.
var ErrAmbiguousSerial = errors.New("volume serial is ambiguous")

// Enumerate snapshots all locally visible volumes. For each volume it
// opens the root, obtains the long-form serial (falling back to the
// short form where unsupported) and closes the handle before moving on.
// Volumes that cannot be opened — ejected media, locked or inaccessible
// drives — are logged and skipped rather than failing the whole pass.
func Enumerate(dev device.Device) ([]Pair, error) {
	paths, err := dev.Volumes()
	if err != nil {
		return nil, fmt.Errorf("enumerate volumes: %w", err)
	}

	pairs := make([]Pair, 0, len(paths))
	for _, raw := range paths {
		p, err := NewPath(raw)
		if err != nil {
			logger.Warn("skipping unparseable volume path", "path", raw, "error", err)
			continue
		}
		pair, err := serialOf(dev, p)
		if err != nil {
			logger.Warn("skipping unreadable volume", "path", p.Share(), "error", err)
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func serialOf(dev device.Device, p Path) (Pair, error) {
	h, err := dev.OpenVolume(p.Share())
	if err != nil {
		return Pair{}, err
	}
	defer func() {
		if cerr := dev.Close(h); cerr != nil {
			logger.Warn("closing volume handle", "path", p.Share(), "error", cerr)
		}
	}()

	info, err := dev.FileIDInfo(h)
	if err == nil {
		return Pair{Serial: info.VolumeSerial, Path: p}, nil
	}
	if !errors.Is(err, device.ErrUnsupported) {
		return Pair{}, err
	}
	short, err := dev.ShortSerial(h)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Serial: uint64(short), Path: p, ShortOnly: true}, nil
}

// Build folds enumeration pairs into a registry, applying the poison
// rule: a serial observed on two distinct paths is marked ambiguous and
// permanently excluded from lookups. The poisoned entry stays in the
// map so a later pair under the same serial cannot silently "fix" the
// ambiguity.
func Build(pairs []Pair) *Registry {
	entries := make(map[uint64]entry, len(pairs))
	for _, p := range pairs {
		existing, seen := entries[p.Serial]
		switch {
		case !seen:
			entries[p.Serial] = entry{path: p.Path}
		case existing.poisoned:
			// Stays poisoned; nothing rehabilitates a serial.
		case existing.path == p.Path:
			// Same volume observed twice; harmless.
		default:
			logger.Warn("volume serial collision, poisoning",
				"serial", fmt.Sprintf("%#x", p.Serial),
				"first", existing.path.Share(), "second", p.Path.Share())
			entries[p.Serial] = entry{poisoned: true}
		}
	}
	return &Registry{entries: entries}
}

// Discover is Enumerate followed by Build.
func Discover(dev device.Device) (*Registry, error) {
	pairs, err := Enumerate(dev)
	if err != nil {
		return nil, err
	}
	return Build(pairs), nil
}

// Lookup resolves a serial to its volume path. Misses and poisoned
// serials both return ok=false; poisoned additionally returns
// ErrAmbiguousSerial so callers can tell the two apart.
func (r *Registry) Lookup(serial uint64) (Path, bool, error) {
	e, ok := r.entries[serial]
	if !ok {
		return Path{}, false, nil
	}
	if e.poisoned {
		return Path{}, false, fmt.Errorf("serial %#x: %w", serial, ErrAmbiguousSerial)
	}
	return e.path, true, nil
}

// LookupHandle resolves the volume containing an open handle: it reads
// the handle's volume serial (long form preferred, short as fallback)
// and delegates to Lookup.
func (r *Registry) LookupHandle(dev device.Device, h device.Handle) (Path, bool, error) {
	info, err := dev.FileIDInfo(h)
	if err == nil {
		return r.Lookup(info.VolumeSerial)
	}
	if !errors.Is(err, device.ErrUnsupported) {
		return Path{}, false, fmt.Errorf("resolve handle volume serial: %w", err)
	}
	short, err := dev.ShortSerial(h)
	if err != nil {
		return Path{}, false, fmt.Errorf("resolve handle volume serial: %w", err)
	}
	return r.Lookup(uint64(short))
}

// Serials returns the unpoisoned serials in ascending order.
func (r *Registry) Serials() []uint64 {
	serials := make([]uint64, 0, len(r.entries))
	for s, e := range r.entries {
		if !e.poisoned {
			serials = append(serials, s)
		}
	}
	sort.Slice(serials, func(i, j int) bool { return serials[i] < serials[j] })
	return serials
}

// Len counts unpoisoned entries.
func (r *Registry) Len() int {
	n := 0
	for _, e := range r.entries {
		if !e.poisoned {
			n++
		}
	}
	return n
}
