// Package smbtest provides an in-memory smbfs.Collaborator double, standing
// in for a real SMB2 share in unit tests and absfs conformance runs, in
// place of a protocol-level mock server.
package smbtest

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
	"github.com/absfs/memfs"

	smbfs "github.com/jfrommann/smbnio"
)

// Collaborator is a smbfs.Collaborator backed by github.com/absfs/memfs.
// Hidden/read-only attributes and a distinct creation time have no home in
// memfs's os-shaped API, so they are tracked separately here, keyed by the
// in-memory rooted path.
type Collaborator struct {
	fs *memfs.FileSystem

	mu       sync.RWMutex
	hidden   map[string]bool
	readOnly map[string]bool
	created  map[string]time.Time
}

// New returns a Collaborator over a fresh, empty in-memory filesystem.
func New() *Collaborator {
	fsys, err := memfs.NewFS()
	if err != nil {
		// memfs.NewFS only fails on an allocation-level problem; a test
		// double that can't even construct its backing store isn't usable.
		panic("smbtest: memfs.NewFS: " + err.Error())
	}
	return &Collaborator{
		fs:       fsys,
		hidden:   make(map[string]bool),
		readOnly: make(map[string]bool),
		created:  make(map[string]time.Time),
	}
}

// SetHidden arranges for p (share-relative, slash-separated) to report the
// hidden attribute, for tests that need to exercise hidden-file handling.
func (c *Collaborator) SetHidden(p string, hidden bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hidden[toMemName(p)] = hidden
}

// SetReadOnly arranges for p to report as read-only.
func (c *Collaborator) SetReadOnly(p string, readOnly bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readOnly[toMemName(p)] = readOnly
}

// toMemName rewrites a share-relative smbfs path into memfs's rooted form.
func toMemName(p string) string {
	if p == "" {
		return "/"
	}
	return "/" + path.Clean(p)
}

func (c *Collaborator) stat(p string) (fs.FileInfo, error) {
	return c.fs.Stat(toMemName(p))
}

func (c *Collaborator) Exists(ctx context.Context, p string) (bool, error) {
	_, err := c.stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Collaborator) IsDirectory(ctx context.Context, p string) (bool, error) {
	info, err := c.stat(p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (c *Collaborator) IsHidden(ctx context.Context, p string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hidden[toMemName(p)], nil
}

func (c *Collaborator) CanRead(ctx context.Context, p string) (bool, error) {
	if _, err := c.stat(p); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Collaborator) CanWrite(ctx context.Context, p string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.readOnly[toMemName(p)], nil
}

func (c *Collaborator) Length(ctx context.Context, p string) (int64, error) {
	info, err := c.stat(p)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (c *Collaborator) LastModified(ctx context.Context, p string) (time.Time, error) {
	info, err := c.stat(p)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (c *Collaborator) CreateTime(ctx context.Context, p string) (time.Time, error) {
	c.mu.RLock()
	t, ok := c.created[toMemName(p)]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}
	info, err := c.stat(p)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (c *Collaborator) AttributesBitfield(ctx context.Context, p string) (uint32, error) {
	info, err := c.stat(p)
	if err != nil {
		return 0, err
	}
	bits := uint32(smbfs.FILE_ATTRIBUTE_NORMAL)
	if info.IsDir() {
		bits |= smbfs.FILE_ATTRIBUTE_DIRECTORY
	} else {
		bits |= smbfs.FILE_ATTRIBUTE_ARCHIVE
	}
	c.mu.RLock()
	if c.hidden[toMemName(p)] {
		bits |= smbfs.FILE_ATTRIBUTE_HIDDEN
	}
	if c.readOnly[toMemName(p)] {
		bits |= smbfs.FILE_ATTRIBUTE_READONLY
	}
	c.mu.RUnlock()
	return bits, nil
}

// DiskFreeSpace reports a fixed 1 GiB: memfs has no quota concept to query.
func (c *Collaborator) DiskFreeSpace(ctx context.Context, p string) (uint64, error) {
	return 1 << 30, nil
}

func (c *Collaborator) ListChildrenNames(ctx context.Context, p string) ([]string, error) {
	infos, err := c.fs.ReadDir(toMemName(p))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

func (c *Collaborator) ListChildren(ctx context.Context, p string) ([]smbfs.ChildInfo, error) {
	infos, err := c.fs.ReadDir(toMemName(p))
	if err != nil {
		return nil, err
	}
	children := make([]smbfs.ChildInfo, len(infos))
	for i, info := range infos {
		childRel := strings.TrimPrefix(path.Join(p, info.Name()), "/")
		bits, _ := c.AttributesBitfield(ctx, childRel)
		children[i] = smbfs.ChildInfo{
			Name:       info.Name(),
			IsDir:      info.IsDir(),
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			CreateTime: info.ModTime(),
			Attributes: bits,
		}
	}
	return children, nil
}

func (c *Collaborator) Mkdir(ctx context.Context, p string) error {
	return c.fs.Mkdir(toMemName(p), 0755)
}

func (c *Collaborator) Delete(ctx context.Context, p string) error {
	return c.fs.Remove(toMemName(p))
}

func (c *Collaborator) CopyTo(ctx context.Context, p, target string, replaceExisting bool) error {
	if !replaceExisting {
		if _, err := c.fs.Stat(toMemName(target)); err == nil {
			return fs.ErrExist
		}
	}
	src, err := c.fs.OpenFile(toMemName(p), os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := c.fs.OpenFile(toMemName(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func (c *Collaborator) RenameTo(ctx context.Context, p, target string, replaceExisting bool) error {
	if replaceExisting {
		_ = c.fs.Remove(toMemName(target))
	}
	return c.fs.Rename(toMemName(p), toMemName(target))
}

func (c *Collaborator) CreateNewFile(ctx context.Context, p string) error {
	f, err := c.fs.OpenFile(toMemName(p), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

func (c *Collaborator) SetLastModified(ctx context.Context, p string, t time.Time) error {
	return c.fs.Chtimes(toMemName(p), t, t)
}

func (c *Collaborator) SetCreateTime(ctx context.Context, p string, t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created[toMemName(p)] = t
	return nil
}

func (c *Collaborator) Open(ctx context.Context, p string, flags smbfs.OpenFlags) (smbfs.RandomAccessHandle, error) {
	var osFlags int
	switch {
	case flags.Read && flags.Write:
		osFlags = os.O_RDWR
	case flags.Write:
		osFlags = os.O_WRONLY
	default:
		osFlags = os.O_RDONLY
	}
	if flags.Create || flags.CreateNew {
		osFlags |= os.O_CREATE
	}
	if flags.CreateNew {
		osFlags |= os.O_EXCL
	}
	if flags.TruncateExisting {
		osFlags |= os.O_TRUNC
	}
	if flags.Append {
		osFlags |= os.O_APPEND
	}

	f, err := c.fs.OpenFile(toMemName(p), osFlags, 0644)
	if err != nil {
		return nil, err
	}
	return &handle{file: f}, nil
}

// Close is a no-op: the in-memory filesystem owns no external resource.
func (c *Collaborator) Close() error {
	return nil
}

// handle adapts an absfs.File into smbfs.RandomAccessHandle, tracking its
// own position the same way smb2Handle does for a real SMB file.
type handle struct {
	file absfs.File
	pos  int64
}

func (h *handle) Read(p []byte) (int, error) {
	n, err := h.file.Read(p)
	h.pos += int64(n)
	return n, err
}

func (h *handle) Write(p []byte) (int, error) {
	n, err := h.file.Write(p)
	h.pos += int64(n)
	return n, err
}

func (h *handle) Seek(offset int64, whence int) (int64, error) {
	pos, err := h.file.Seek(offset, whence)
	if err == nil {
		h.pos = pos
	}
	return pos, err
}

func (h *handle) Position() (int64, error) {
	return h.pos, nil
}

func (h *handle) SetLength(size int64) error {
	return h.file.Truncate(size)
}

func (h *handle) Close() error {
	return h.file.Close()
}
