package smbfs

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"
)

// smb2Collaborator implements Collaborator against a real SMB2/3 share
// reached through hirochachacha/go-smb2, via the pooled connection seam
// in connection.go/smb_interfaces.go/smb_wrapper.go (grounded on the
// teacher's smb_wrapper.go realSMB* adapters).
type smb2Collaborator struct {
	pool   *connectionPool
	config *Config
	retry  *RetryPolicy
	cache  *metadataCache
}

// newSMB2Collaborator builds a Collaborator backed by a connection pool
// dialed per config, retrying transient failures per retryPolicy (nil
// selects the default policy from retry.go).
func newSMB2Collaborator(config *Config, retryPolicy *RetryPolicy) Collaborator {
	return newSMB2CollaboratorWithFactory(config, retryPolicy, &RealConnectionFactory{})
}

// NewSMB2Collaborator builds a Collaborator that talks to a real SMB2/3
// share through hirochachacha/go-smb2, for callers outside this package
// that need to hand a Collaborator to Registry.NewFileSystem. retryPolicy
// may be nil to select the default policy from retry.go.
func NewSMB2Collaborator(config *Config, retryPolicy *RetryPolicy) Collaborator {
	return newSMB2Collaborator(config, retryPolicy)
}

// newSMB2CollaboratorWithFactory is like newSMB2Collaborator but dials
// through factory, letting tests substitute MockConnectionFactory for the
// real go-smb2 dialer.
func newSMB2CollaboratorWithFactory(config *Config, retryPolicy *RetryPolicy, factory ConnectionFactory) Collaborator {
	if retryPolicy == nil {
		retryPolicy = DefaultRetryPolicy()
	}
	return &smb2Collaborator{
		pool:   newConnectionPool(config, factory),
		config: config,
		retry:  retryPolicy,
		cache:  newMetadataCache(config.Cache),
	}
}

// withShare acquires a pooled connection, invokes fn with its share, and
// returns the connection to the pool whether fn succeeds or not.
func (c *smb2Collaborator) withShare(ctx context.Context, fn func(share SMBShare) error) error {
	return withRetry(ctx, c.retry, func() error {
		conn, err := c.pool.get(ctx)
		if err != nil {
			return err
		}
		defer c.pool.put(conn)
		return fn(conn.share)
	})
}

// toSMBName rewrites a share-relative smbfs path (forward-slash, no
// leading separator) into the form go-smb2 expects.
func toSMBName(p string) string {
	if p == "" {
		return "."
	}
	return filepathToSMB(p)
}

func filepathToSMB(p string) string {
	return strings.ReplaceAll(path.Clean("/"+p)[1:], "/", `\`)
}

func (c *smb2Collaborator) Exists(ctx context.Context, p string) (bool, error) {
	info, err := c.stat(ctx, p)
	if err != nil {
		if IsKind(err, NotFound) {
			return false, nil
		}
		return false, err
	}
	return info != nil, nil
}

func (c *smb2Collaborator) stat(ctx context.Context, p string) (fs.FileInfo, error) {
	if cached, ok := c.cache.getStatInfo(p); ok {
		return cached, nil
	}
	var info fs.FileInfo
	err := c.withShare(ctx, func(share SMBShare) error {
		i, err := share.Stat(toSMBName(p))
		if err != nil {
			return err
		}
		info = i
		return nil
	})
	if err != nil {
		return nil, mapCollaboratorError("stat", p, err)
	}
	c.cache.putStatInfo(p, info)
	return info, nil
}

func (c *smb2Collaborator) IsDirectory(ctx context.Context, p string) (bool, error) {
	info, err := c.stat(ctx, p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (c *smb2Collaborator) IsHidden(ctx context.Context, p string) (bool, error) {
	info, err := c.stat(ctx, p)
	if err != nil {
		return false, err
	}
	attrs := GetWindowsAttributes(info)
	if attrs == nil {
		return false, nil
	}
	return attrs.IsHidden(), nil
}

func (c *smb2Collaborator) CanRead(ctx context.Context, p string) (bool, error) {
	_, err := c.stat(ctx, p)
	if err != nil {
		if IsKind(err, AccessDenied) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *smb2Collaborator) CanWrite(ctx context.Context, p string) (bool, error) {
	info, err := c.stat(ctx, p)
	if err != nil {
		if IsKind(err, AccessDenied) {
			return false, nil
		}
		return false, err
	}
	attrs := GetWindowsAttributes(info)
	if attrs != nil && attrs.IsReadOnly() {
		return false, nil
	}
	return true, nil
}

func (c *smb2Collaborator) Length(ctx context.Context, p string) (int64, error) {
	info, err := c.stat(ctx, p)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (c *smb2Collaborator) LastModified(ctx context.Context, p string) (time.Time, error) {
	info, err := c.stat(ctx, p)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// creationTimer is implemented by file-info values that can report a
// creation time distinct from their modification time; when the
// collaborator's underlying info doesn't implement it, CreateTime falls
// back to ModTime (go-smb2's FileInfo does not always surface it).
type creationTimer interface {
	CreationTime() time.Time
}

func (c *smb2Collaborator) CreateTime(ctx context.Context, p string) (time.Time, error) {
	info, err := c.stat(ctx, p)
	if err != nil {
		return time.Time{}, err
	}
	if ct, ok := info.Sys().(creationTimer); ok {
		return ct.CreationTime(), nil
	}
	return info.ModTime(), nil
}

func (c *smb2Collaborator) AttributesBitfield(ctx context.Context, p string) (uint32, error) {
	info, err := c.stat(ctx, p)
	if err != nil {
		return 0, err
	}
	if attrs := GetWindowsAttributes(info); attrs != nil {
		return attrs.Attributes(), nil
	}
	return modeToAttributes(info.Mode()), nil
}

func (c *smb2Collaborator) DiskFreeSpace(ctx context.Context, p string) (uint64, error) {
	var free uint64
	err := c.withShare(ctx, func(share SMBShare) error {
		f, err := share.FreeSpace()
		if err != nil {
			return err
		}
		free = f
		return nil
	})
	if err != nil {
		return 0, mapCollaboratorError("DiskFreeSpace", p, err)
	}
	return free, nil
}

func (c *smb2Collaborator) ListChildrenNames(ctx context.Context, p string) ([]string, error) {
	infos, err := c.readDir(ctx, p)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

func (c *smb2Collaborator) ListChildren(ctx context.Context, p string) ([]ChildInfo, error) {
	infos, err := c.readDir(ctx, p)
	if err != nil {
		return nil, err
	}
	children := make([]ChildInfo, len(infos))
	for i, info := range infos {
		bits := modeToAttributes(info.Mode())
		if attrs := GetWindowsAttributes(info); attrs != nil {
			bits = attrs.Attributes()
		}
		children[i] = ChildInfo{
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

func (c *smb2Collaborator) readDir(ctx context.Context, p string) ([]fs.FileInfo, error) {
	if cached, ok := c.cache.getDirEntries(p); ok {
		return cached, nil
	}
	var infos []fs.FileInfo
	err := c.withShare(ctx, func(share SMBShare) error {
		i, err := share.ReadDir(toSMBName(p))
		if err != nil {
			return err
		}
		infos = i
		return nil
	})
	if err != nil {
		return nil, mapCollaboratorError("ListChildren", p, err)
	}
	c.cache.putDirEntries(p, infos)
	return infos, nil
}

func (c *smb2Collaborator) Mkdir(ctx context.Context, p string) error {
	err := c.withShare(ctx, func(share SMBShare) error {
		return share.Mkdir(toSMBName(p), 0755)
	})
	if err == nil {
		c.cache.invalidate(p)
	}
	return mapCollaboratorError("Mkdir", p, err)
}

func (c *smb2Collaborator) Delete(ctx context.Context, p string) error {
	err := c.withShare(ctx, func(share SMBShare) error {
		return share.Remove(toSMBName(p))
	})
	if err == nil {
		c.cache.invalidate(p)
	}
	return mapCollaboratorError("Delete", p, err)
}

func (c *smb2Collaborator) CopyTo(ctx context.Context, p, target string, replaceExisting bool) error {
	err := c.withShare(ctx, func(share SMBShare) error {
		if !replaceExisting {
			if _, err := share.Stat(toSMBName(target)); err == nil {
				return fs.ErrExist
			}
		}
		src, err := share.OpenFile(toSMBName(p), os.O_RDONLY, 0)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := share.OpenFile(toSMBName(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dst.Close()

		_, err = io.Copy(dst, src)
		return err
	})
	if err == nil {
		c.cache.invalidate(target)
	}
	return mapCollaboratorError("CopyTo", p, err)
}

func (c *smb2Collaborator) RenameTo(ctx context.Context, p, target string, replaceExisting bool) error {
	err := c.withShare(ctx, func(share SMBShare) error {
		if replaceExisting {
			_ = share.Remove(toSMBName(target))
		}
		return share.Rename(toSMBName(p), toSMBName(target))
	})
	if err == nil {
		c.cache.invalidate(p)
		c.cache.invalidate(target)
	}
	return mapCollaboratorError("RenameTo", p, err)
}

func (c *smb2Collaborator) CreateNewFile(ctx context.Context, p string) error {
	err := c.withShare(ctx, func(share SMBShare) error {
		f, err := share.OpenFile(toSMBName(p), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			return err
		}
		return f.Close()
	})
	if err == nil {
		c.cache.invalidate(p)
	}
	return mapCollaboratorError("CreateNewFile", p, err)
}

func (c *smb2Collaborator) SetLastModified(ctx context.Context, p string, t time.Time) error {
	err := c.withShare(ctx, func(share SMBShare) error {
		return share.Chtimes(toSMBName(p), t, t)
	})
	if err == nil {
		c.cache.invalidate(p)
	}
	return mapCollaboratorError("SetLastModified", p, err)
}

func (c *smb2Collaborator) SetCreateTime(ctx context.Context, p string, t time.Time) error {
	// The narrow SMBShare seam exposes only Chtimes(atime, mtime); the
	// underlying SMB2 SET_INFO request can set creation time independently,
	// but go-smb2's Share does not surface that separately, so this
	// provider cannot set creation time without also touching mtime.
	return newError(Unsupported, "SetCreateTime", p, nil)
}

func (c *smb2Collaborator) Open(ctx context.Context, p string, flags OpenFlags) (RandomAccessHandle, error) {
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

	var handle RandomAccessHandle
	err := c.withShare(ctx, func(share SMBShare) error {
		f, err := share.OpenFile(toSMBName(p), osFlags, 0644)
		if err != nil {
			return err
		}
		handle = &smb2Handle{file: f}
		return nil
	})
	if err != nil {
		return nil, mapCollaboratorError("Open", p, err)
	}
	if flags.Write {
		c.cache.invalidate(p)
	}
	return handle, nil
}

func (c *smb2Collaborator) Close() error {
	return c.pool.Close()
}

// smb2Handle adapts an SMBFile into the narrow RandomAccessHandle seam
// SeekableByteChannel consumes, tracking its own position since go-smb2's
// File exposes Seek but not a dedicated position query.
type smb2Handle struct {
	file SMBFile
	pos  int64
}

func (h *smb2Handle) Read(buf []byte) (int, error) {
	n, err := h.file.Read(buf)
	h.pos += int64(n)
	return n, err
}

func (h *smb2Handle) Write(buf []byte) (int, error) {
	n, err := h.file.Write(buf)
	h.pos += int64(n)
	return n, err
}

func (h *smb2Handle) Seek(offset int64, whence int) (int64, error) {
	pos, err := h.file.Seek(offset, whence)
	if err == nil {
		h.pos = pos
	}
	return pos, err
}

func (h *smb2Handle) Position() (int64, error) {
	return h.pos, nil
}

func (h *smb2Handle) SetLength(size int64) error {
	if truncater, ok := h.file.(interface{ Truncate(int64) error }); ok {
		return truncater.Truncate(size)
	}
	return newError(Unsupported, "SetLength", "", nil)
}

func (h *smb2Handle) Close() error {
	return h.file.Close()
}
