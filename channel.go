package smbfs

import (
	"io"
	"sync"
)

// SeekableByteChannel is a random-access adapter over a remote file
// handle (spec C8), grounded on original_source's SeekableSmbByteChannel.
// All mutating operations are serialized by mu, matching the original's
// synchronized methods.
type SeekableByteChannel struct {
	mu     sync.Mutex
	handle RandomAccessHandle
	path   string
	open   bool
}

func newSeekableByteChannel(handle RandomAccessHandle, path string) *SeekableByteChannel {
	return &SeekableByteChannel{handle: handle, path: path, open: true}
}

// Read reads up to len(p) bytes into p, returning the number of bytes
// actually read. Per local-filesystem convention it returns (0, io.EOF) at
// end of file rather than -1.
func (c *SeekableByteChannel) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return 0, newError(ClosedChannel, "Read", c.path, nil)
	}
	n, err := c.handle.Read(p)
	if err != nil && err != io.EOF {
		return n, mapCollaboratorError("Read", c.path, err)
	}
	return n, err
}

// Write writes len(p) bytes from p, retrying until the buffer is drained
// or the underlying operation errors — unlike the original, which issues
// a single underlying write call per invocation and trusts it to consume
// the whole buffer.
func (c *SeekableByteChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return 0, newError(ClosedChannel, "Write", c.path, nil)
	}

	total := 0
	for total < len(p) {
		n, err := c.handle.Write(p[total:])
		total += n
		if err != nil {
			return total, mapCollaboratorError("Write", c.path, err)
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Position returns the current offset into the file.
func (c *SeekableByteChannel) Position() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return 0, newError(ClosedChannel, "Position", c.path, nil)
	}
	pos, err := c.handle.Position()
	if err != nil {
		return 0, mapCollaboratorError("Position", c.path, err)
	}
	return pos, nil
}

// Seek repositions to newPosition (absolute, from the start of the file).
func (c *SeekableByteChannel) Seek(newPosition int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return newError(ClosedChannel, "Seek", c.path, nil)
	}
	if _, err := c.handle.Seek(newPosition, io.SeekStart); err != nil {
		return mapCollaboratorError("Seek", c.path, err)
	}
	return nil
}

// Size returns the current size of the underlying file.
func (c *SeekableByteChannel) Size() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return 0, newError(ClosedChannel, "Size", c.path, nil)
	}
	cur, err := c.handle.Position()
	if err != nil {
		return 0, mapCollaboratorError("Size", c.path, err)
	}
	end, err := c.handle.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, mapCollaboratorError("Size", c.path, err)
	}
	if _, err := c.handle.Seek(cur, io.SeekStart); err != nil {
		return 0, mapCollaboratorError("Size", c.path, err)
	}
	return end, nil
}

// Truncate sets the file's length.
func (c *SeekableByteChannel) Truncate(size int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return newError(ClosedChannel, "Truncate", c.path, nil)
	}
	if err := c.handle.SetLength(size); err != nil {
		return mapCollaboratorError("Truncate", c.path, err)
	}
	return nil
}

// IsOpen reports whether the channel is still open.
func (c *SeekableByteChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Close closes the channel; it is idempotent.
func (c *SeekableByteChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}
	c.open = false
	return c.handle.Close()
}
