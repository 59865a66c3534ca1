package hardwood

import (
	"fmt"
)

// openAll concatenates an ordered list of files behind one cursor. The first
// file opens synchronously; each following file's footer is decoded and its
// pages scanned in the background while the previous file is consumed, so a
// file boundary costs no parse latency. Batches never span files: all
// columns advance to the next file together.
func openAll(paths []string, options ...Option) (*RowCursor, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no parquet files to open")
	}
	config, err := NewCursorConfig(options...)
	if err != nil {
		return nil, err
	}

	f, err := Open(paths[0], options...)
	if err != nil {
		return nil, err
	}
	cur, err := prepareCursorFile(f, config)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", paths[0], err)
	}

	c := &RowCursor{
		config:   config,
		cur:      cur,
		paths:    paths,
		options:  options,
		next:     1,
		owned:    true,
		rowIndex: -1,
	}
	c.prefetchNext()
	return c, nil
}

// prefetchNext starts the preparation of the next file in the background.
func (c *RowCursor) prefetchNext() {
	if c.next >= len(c.paths) {
		c.pending = nil
		return
	}
	path := c.paths[c.next]
	c.next++
	ch := make(chan *cursorFile, 1)
	c.pending = ch

	go func() {
		f, err := Open(path, c.options...)
		if err != nil {
			ch <- &cursorFile{err: err}
			return
		}
		cf, err := prepareCursorFile(f, c.config)
		if err != nil {
			f.Close()
			ch <- &cursorFile{err: fmt.Errorf("%s: %w", path, err)}
			return
		}
		ch <- cf
	}()
}
