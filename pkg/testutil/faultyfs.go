package testutil

import (
	"io/fs"
	"sync"

	"github.com/arthur-debert/deplink/pkg/types"
)

// FaultyFS wraps a types.FS and fails selected operations. Each hook receives
// the path(s) of the call; a non-nil return is the injected error and the
// underlying call is skipped. Hooks may be called concurrently.
type FaultyFS struct {
	types.FS

	RemoveFunc    func(name string) error
	RemoveAllFunc func(path string) error
	MkdirAllFunc  func(path string) error
	SymlinkFunc   func(oldname, newname string) error
	WriteFileFunc func(name string) error
	ReadFileFunc  func(name string) error

	// ModeFunc rewrites the mode Lstat reports for name
	ModeFunc func(name string, mode fs.FileMode) fs.FileMode

	mu    sync.Mutex
	calls map[string]int
}

// NewFaultyFS wraps fsys with no faults configured.
func NewFaultyFS(fsys types.FS) *FaultyFS {
	return &FaultyFS{FS: fsys, calls: make(map[string]int)}
}

// Calls returns how many times op was invoked.
func (f *FaultyFS) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FaultyFS) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *FaultyFS) Remove(name string) error {
	f.record("Remove")
	if f.RemoveFunc != nil {
		if err := f.RemoveFunc(name); err != nil {
			return err
		}
	}
	return f.FS.Remove(name)
}

func (f *FaultyFS) RemoveAll(path string) error {
	f.record("RemoveAll")
	if f.RemoveAllFunc != nil {
		if err := f.RemoveAllFunc(path); err != nil {
			return err
		}
	}
	return f.FS.RemoveAll(path)
}

func (f *FaultyFS) MkdirAll(path string, perm fs.FileMode) error {
	f.record("MkdirAll")
	if f.MkdirAllFunc != nil {
		if err := f.MkdirAllFunc(path); err != nil {
			return err
		}
	}
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultyFS) Symlink(oldname, newname string) error {
	f.record("Symlink")
	if f.SymlinkFunc != nil {
		if err := f.SymlinkFunc(oldname, newname); err != nil {
			return err
		}
	}
	return f.FS.Symlink(oldname, newname)
}

func (f *FaultyFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	f.record("WriteFile")
	if f.WriteFileFunc != nil {
		if err := f.WriteFileFunc(name); err != nil {
			return err
		}
	}
	return f.FS.WriteFile(name, data, perm)
}

func (f *FaultyFS) ReadFile(name string) ([]byte, error) {
	f.record("ReadFile")
	if f.ReadFileFunc != nil {
		if err := f.ReadFileFunc(name); err != nil {
			return nil, err
		}
	}
	return f.FS.ReadFile(name)
}

func (f *FaultyFS) Lstat(name string) (fs.FileInfo, error) {
	f.record("Lstat")
	info, err := f.FS.Lstat(name)
	if err != nil || f.ModeFunc == nil {
		return info, err
	}
	return modeInfo{FileInfo: info, mode: f.ModeFunc(name, info.Mode())}, nil
}

type modeInfo struct {
	fs.FileInfo
	mode fs.FileMode
}

func (m modeInfo) Mode() fs.FileMode { return m.mode }
func (m modeInfo) IsDir() bool       { return m.mode.IsDir() }
