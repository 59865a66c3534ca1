//go:build unix

// Package mmap maps files into memory for read-only access.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mapping is a read-only memory mapping of a file.
type Mapping struct {
	Data []byte
}

// Open maps the file at the given path into memory. The mapping stays valid
// until Close is called.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return &Mapping{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Mapping{Data: data}, nil
}

// Close unmaps the file. The Data slice must not be used afterwards.
func (m *Mapping) Close() error {
	if m.Data == nil {
		return nil
	}
	data := m.Data
	m.Data = nil
	return unix.Munmap(data)
}
