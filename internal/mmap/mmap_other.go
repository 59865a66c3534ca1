//go:build !unix

package mmap

import "os"

// Mapping is a read-only copy of a file on platforms without mmap support.
type Mapping struct {
	Data []byte
}

// Open reads the whole file at the given path into memory.
func Open(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Mapping{Data: data}, nil
}

// Close releases the file contents.
func (m *Mapping) Close() error {
	m.Data = nil
	return nil
}
