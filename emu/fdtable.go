package emu

import (
	"os"
	"time"
)

// fdEntry is one open file descriptor of the simulated program.
type fdEntry struct {
	hostFile *os.File // nil for the standard streams
	path     string
	open     bool
}

// fdTable maps the simulated program's file descriptors to host files.
// Descriptors 0-2 are the standard streams, routed through the hart's
// console writers rather than host files.
type fdTable struct {
	fds    map[uint64]*fdEntry
	nextFd uint64
}

func newFdTable() *fdTable {
	return &fdTable{
		fds: map[uint64]*fdEntry{
			0: {path: "stdin", open: true},
			1: {path: "stdout", open: true},
			2: {path: "stderr", open: true},
		},
		nextFd: 3,
	}
}

func (t *fdTable) openFile(path string, flags int, mode os.FileMode) (uint64, error) {
	f, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return 0, err
	}
	fd := t.nextFd
	t.nextFd++
	t.fds[fd] = &fdEntry{hostFile: f, path: path, open: true}
	return fd, nil
}

func (t *fdTable) get(fd uint64) (*fdEntry, bool) {
	e, ok := t.fds[fd]
	if !ok || !e.open {
		return nil, false
	}
	return e, true
}

func (t *fdTable) closeFd(fd uint64) error {
	e, ok := t.get(fd)
	if !ok {
		return os.ErrInvalid
	}
	e.open = false
	if fd > 2 && e.hostFile != nil {
		err := e.hostFile.Close()
		e.hostFile = nil
		return err
	}
	return nil
}

// stdioFileInfo is a stub FileInfo reported for the standard streams.
type stdioFileInfo struct {
	name string
}

func (f *stdioFileInfo) Name() string       { return f.name }
func (f *stdioFileInfo) Size() int64        { return 0 }
func (f *stdioFileInfo) Mode() os.FileMode  { return os.ModeCharDevice | 0666 }
func (f *stdioFileInfo) ModTime() time.Time { return time.Time{} }
func (f *stdioFileInfo) IsDir() bool        { return false }
func (f *stdioFileInfo) Sys() interface{}   { return nil }
