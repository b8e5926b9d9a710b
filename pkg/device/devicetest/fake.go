// Package devicetest provides a scriptable in-memory device.Device plus
// builders for synthetic journal buffers. Every engine test runs
// against this package, so the whole decode/protocol/registry/identity
// stack is exercised on any platform without a kernel journal.
package devicetest

import (
	"fmt"
	"strings"

	"github.com/volwatch/usnjrnl/pkg/device"
	"github.com/volwatch/usnjrnl/pkg/usn"
)

// ReadStep is one scripted response to a ReadJournal call. Steps are
// consumed in order; running past the script fails the call loudly.
//
// Buf is copied into the caller's buffer even when Errno is set, which
// is how the fake reproduces the observed kernel quirk of reporting a
// next cursor alongside a failure status.
type ReadStep struct {
	Buf   []byte
	Errno device.Errno
}

// Volume is one fake volume: its canonical enumeration path, serials,
// journal metadata and the scripted read responses.
type Volume struct {
	Path        string
	Serial      uint64 // long-form serial, also returned via FileIDInfo
	ShortSerial uint32
	NoLongForm  bool // FileIDInfo returns device.ErrUnsupported
	Journal     usn.JournalData
	QueryErrno  device.Errno
	OpenErrno   device.Errno
	Reads       []ReadStep

	readNext int
}

// File is one fake file: the single-record buffer served by
// ReadFileRecord and the identity answers.
type File struct {
	Path        string
	RecordBuf   []byte
	RecordErrno device.Errno
	ID          device.IDInfo
	NoLongForm  bool
	ShortSerial uint32
	OpenErrno   device.Errno
}

type object struct {
	vol  *Volume
	file *File
	path string
}

// Fake implements device.Device from scripted volumes and files. It is
// not safe for concurrent use, matching the engine's own contract.
type Fake struct {
	volumes []*Volume
	files   map[string]*File

	VolumesErrno device.Errno // fail enumeration when set

	nextHandle device.Handle
	open       map[device.Handle]*object

	// Requests records every ReadJournal input for assertions on the
	// protocol the client actually issued.
	Requests []device.ReadRequest

	// Opens and Closes count handle traffic for leak assertions.
	Opens  int
	Closes int

	// OpenedPaths records the exact path string of every successful
	// open, so tests can assert which addressing form was used.
	OpenedPaths []string
}

// New returns an empty fake. Add volumes and files before use.
func New() *Fake {
	return &Fake{
		files:      make(map[string]*File),
		open:       make(map[device.Handle]*object),
		nextHandle: 1,
	}
}

// AddVolume registers a volume; its Path should carry the trailing
// separator (the canonical enumeration form). OpenVolume accepts both
// the share form and the trimmed device form.
func (f *Fake) AddVolume(v *Volume) *Volume {
	f.volumes = append(f.volumes, v)
	return v
}

// AddFile registers a file reachable via OpenFile.
func (f *Fake) AddFile(file *File) *File {
	f.files[file.Path] = file
	return file
}

// OpenHandles reports how many handles are currently open.
func (f *Fake) OpenHandles() int { return len(f.open) }

func trimSep(path string) string { return strings.TrimRight(path, `\/`) }

func (f *Fake) OpenVolume(path string) (device.Handle, error) {
	for _, v := range f.volumes {
		if v.Path == path || trimSep(v.Path) == path {
			if v.OpenErrno != 0 {
				return device.InvalidHandle, &device.Error{Op: "open volume", Path: path, Errno: v.OpenErrno}
			}
			return f.issue(&object{vol: v, path: path}), nil
		}
	}
	return device.InvalidHandle, &device.Error{Op: "open volume", Path: path, Errno: device.ErrnoPathNotFound}
}

func (f *Fake) OpenFile(path string) (device.Handle, error) {
	file, ok := f.files[path]
	if !ok {
		return device.InvalidHandle, &device.Error{Op: "open file", Path: path, Errno: device.ErrnoFileNotFound}
	}
	if file.OpenErrno != 0 {
		return device.InvalidHandle, &device.Error{Op: "open file", Path: path, Errno: file.OpenErrno}
	}
	return f.issue(&object{file: file, path: path}), nil
}

func (f *Fake) issue(obj *object) device.Handle {
	h := f.nextHandle
	f.nextHandle++
	f.open[h] = obj
	f.Opens++
	f.OpenedPaths = append(f.OpenedPaths, obj.path)
	return h
}

func (f *Fake) Close(h device.Handle) error {
	if _, ok := f.open[h]; !ok {
		return fmt.Errorf("close of unknown handle %d", h)
	}
	delete(f.open, h)
	f.Closes++
	return nil
}

func (f *Fake) lookup(h device.Handle) (*object, error) {
	obj, ok := f.open[h]
	if !ok {
		return nil, fmt.Errorf("use of unknown handle %d", h)
	}
	return obj, nil
}

func (f *Fake) QueryJournal(h device.Handle) (usn.JournalData, error) {
	obj, err := f.lookup(h)
	if err != nil {
		return usn.JournalData{}, err
	}
	if obj.vol == nil {
		return usn.JournalData{}, fmt.Errorf("query journal on non-volume handle %d", h)
	}
	if obj.vol.QueryErrno != 0 {
		return usn.JournalData{}, &device.Error{Op: "query journal", Path: obj.path, Errno: obj.vol.QueryErrno}
	}
	return obj.vol.Journal, nil
}

func (f *Fake) ReadJournal(h device.Handle, req device.ReadRequest, buf []byte) (int, error) {
	obj, err := f.lookup(h)
	if err != nil {
		return 0, err
	}
	if obj.vol == nil {
		return 0, fmt.Errorf("read journal on non-volume handle %d", h)
	}
	f.Requests = append(f.Requests, req)

	v := obj.vol
	if v.readNext >= len(v.Reads) {
		return 0, fmt.Errorf("read journal past scripted responses (%d issued)", v.readNext)
	}
	step := v.Reads[v.readNext]
	v.readNext++

	n := copy(buf, step.Buf)
	if n < len(step.Buf) {
		return 0, fmt.Errorf("scripted buffer (%d bytes) exceeds read buffer (%d bytes)", len(step.Buf), len(buf))
	}
	if step.Errno != 0 {
		return n, &device.Error{Op: "read journal", Path: obj.path, Errno: step.Errno}
	}
	return n, nil
}

func (f *Fake) ReadFileRecord(h device.Handle, buf []byte) (int, error) {
	obj, err := f.lookup(h)
	if err != nil {
		return 0, err
	}
	if obj.file == nil {
		return 0, fmt.Errorf("read file record on non-file handle %d", h)
	}
	if obj.file.RecordErrno != 0 {
		return 0, &device.Error{Op: "read file record", Path: obj.path, Errno: obj.file.RecordErrno}
	}
	n := copy(buf, obj.file.RecordBuf)
	if n < len(obj.file.RecordBuf) {
		return 0, fmt.Errorf("scripted record (%d bytes) exceeds buffer (%d bytes)", len(obj.file.RecordBuf), len(buf))
	}
	return n, nil
}

func (f *Fake) FileIDInfo(h device.Handle) (device.IDInfo, error) {
	obj, err := f.lookup(h)
	if err != nil {
		return device.IDInfo{}, err
	}
	if obj.file != nil {
		if obj.file.NoLongForm {
			return device.IDInfo{}, device.ErrUnsupported
		}
		return obj.file.ID, nil
	}
	if obj.vol.NoLongForm {
		return device.IDInfo{}, device.ErrUnsupported
	}
	return device.IDInfo{VolumeSerial: obj.vol.Serial}, nil
}

func (f *Fake) ShortSerial(h device.Handle) (uint32, error) {
	obj, err := f.lookup(h)
	if err != nil {
		return 0, err
	}
	if obj.file != nil {
		return obj.file.ShortSerial, nil
	}
	return obj.vol.ShortSerial, nil
}

func (f *Fake) Volumes() ([]string, error) {
	if f.VolumesErrno != 0 {
		return nil, &device.Error{Op: "enumerate volumes", Errno: f.VolumesErrno}
	}
	paths := make([]string, 0, len(f.volumes))
	for _, v := range f.volumes {
		paths = append(paths, v.Path)
	}
	return paths, nil
}
