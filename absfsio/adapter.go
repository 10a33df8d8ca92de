// Package absfsio adapts an smbfs.FileSystem to the github.com/absfs/absfs
// FileSystem/File interfaces, so an SMB share composes with the rest of the
// absfs ecosystem (caching layers, union filesystems, the fstesting
// conformance suite) the same way a local or in-memory filesystem would.
package absfsio

import (
	"context"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	absfsCore "github.com/absfs/absfs"

	smbfs "github.com/jfrommann/smbnio"
)

// Adapter wraps an *smbfs.FileSystem for absfs consumption. The wrapped
// FileSystem is context-aware throughout; ctx (set at construction, or
// context.Background() if nil) is threaded through every call, since
// absfs.FileSystem's os-shaped methods carry none of their own.
type Adapter struct {
	fsys *smbfs.FileSystem
	ctx  context.Context

	mu  sync.RWMutex
	cwd string
}

// New wraps fsys for absfs consumption.
func New(fsys *smbfs.FileSystem, ctx context.Context) *Adapter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Adapter{fsys: fsys, ctx: ctx, cwd: "/"}
}

func (a *Adapter) resolve(name string) *smbfs.Path {
	if !strings.HasPrefix(name, "/") {
		a.mu.RLock()
		cwd := a.cwd
		a.mu.RUnlock()
		name = strings.TrimSuffix(cwd, "/") + "/" + name
	}
	return a.fsys.NewPath(name)
}

// flagsFromOS translates an os.O_* flag combination into smbfs.OpenFlags.
// os.O_SYNC is represented via the Sync field rather than dropped, so
// FileSystem.NewByteChannel can reject it with Unsupported the same way it
// would a direct Sync request; the stdlib os package defines no portable
// DSYNC/SPARSE/DELETE_ON_CLOSE flag for this path to translate, so those
// three can only be requested by setting the corresponding OpenFlags field
// directly.
func flagsFromOS(flag int) smbfs.OpenFlags {
	f := smbfs.OpenFlags{}
	switch flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_WRONLY:
		f.Write = true
	case os.O_RDWR:
		f.Read = true
		f.Write = true
	default:
		f.Read = true
	}
	if flag&os.O_EXCL != 0 {
		f.CreateNew = true
	} else if flag&os.O_CREATE != 0 {
		f.Create = true
	}
	if flag&os.O_APPEND != 0 {
		f.Append = true
		f.Write = true
	}
	if flag&os.O_TRUNC != 0 {
		f.TruncateExisting = true
	}
	if flag&os.O_SYNC != 0 {
		f.Sync = true
	}
	return f
}

// Open opens name read-only.
func (a *Adapter) Open(name string) (absfsCore.File, error) {
	return a.OpenFile(name, os.O_RDONLY, 0)
}

// OpenFile opens name with the given os.O_* flag combination, transparently
// handling directories (which SMB and absfs both model as Read-only
// listable Files rather than byte streams).
func (a *Adapter) OpenFile(name string, flag int, perm fs.FileMode) (absfsCore.File, error) {
	p := a.resolve(name)
	if exists, err := a.fsys.Exists(a.ctx, p); err == nil && exists {
		attrs, err := a.fsys.ReadAttributes(a.ctx, p)
		if err == nil && attrs.IsDirectory() {
			return newDirFile(a, p)
		}
	}
	ch, err := a.fsys.NewByteChannel(a.ctx, p, flagsFromOS(flag))
	if err != nil {
		return nil, err
	}
	return &fileHandle{adapter: a, path: p, ch: ch}, nil
}

// Create truncates-or-creates name for reading and writing.
func (a *Adapter) Create(name string) (absfsCore.File, error) {
	return a.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
}

// Mkdir creates a single directory; the parent must already exist.
func (a *Adapter) Mkdir(name string, perm fs.FileMode) error {
	return a.fsys.Mkdir(a.ctx, a.resolve(name))
}

// MkdirAll creates name and any missing parents, tolerating components that
// already exist (the narrow Collaborator has no dedicated MkdirAll, so this
// walks the path component by component the way os.MkdirAll does).
func (a *Adapter) MkdirAll(name string, perm fs.FileMode) error {
	full := a.resolve(name).String()
	clean := strings.Trim(full, "/")
	if clean == "" {
		return nil
	}
	parts := strings.Split(clean, "/")
	prefix := ""
	for _, part := range parts {
		prefix = prefix + "/" + part
		p := a.fsys.NewPath(prefix)
		if err := a.fsys.Mkdir(a.ctx, p); err != nil && !smbfs.IsKind(err, smbfs.AlreadyExists) {
			return err
		}
	}
	return nil
}

// Remove deletes the file or empty directory at name.
func (a *Adapter) Remove(name string) error {
	return a.fsys.Delete(a.ctx, a.resolve(name))
}

// RemoveAll recursively removes name, tolerating a name that doesn't exist.
func (a *Adapter) RemoveAll(name string) error {
	p := a.resolve(name)
	exists, err := a.fsys.Exists(a.ctx, p)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	attrs, err := a.fsys.ReadAttributes(a.ctx, p)
	if err != nil {
		return err
	}
	if attrs.IsDirectory() {
		ds, err := a.fsys.NewDirectoryStream(a.ctx, p, nil)
		if err != nil {
			return err
		}
		entries, err := ds.Entries()
		ds.Close()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := a.RemoveAll(e.Path.String()); err != nil {
				return err
			}
		}
	}
	return a.fsys.Delete(a.ctx, p)
}

// Rename moves oldname to newname, replacing newname if it already exists
// (os.Rename's semantics, stricter than the core's default).
func (a *Adapter) Rename(oldname, newname string) error {
	return a.fsys.Move(a.ctx, a.resolve(oldname), a.resolve(newname), smbfs.CopyOptions{ReplaceExisting: true})
}

// Stat reads name's attributes.
func (a *Adapter) Stat(name string) (fs.FileInfo, error) {
	p := a.resolve(name)
	attrs, err := a.fsys.ReadAttributes(a.ctx, p)
	if err != nil {
		return nil, err
	}
	return &fileInfo{name: baseName(p), attrs: attrs}, nil
}

// Lstat degrades to Stat: symbolic links are a non-goal of this provider.
func (a *Adapter) Lstat(name string) (fs.FileInfo, error) {
	return a.Stat(name)
}

// Chmod is unsupported: the Collaborator seam exposes no attribute setter
// beyond timestamps, so there is no remote operation to perform here.
func (a *Adapter) Chmod(name string, mode fs.FileMode) error {
	return smbfs.Err(smbfs.Unsupported)
}

// Chown is unsupported for the same reason as Chmod.
func (a *Adapter) Chown(name string, uid, gid int) error {
	return smbfs.Err(smbfs.Unsupported)
}

// Chtimes sets name's access and modification times via its basic
// attribute view.
func (a *Adapter) Chtimes(name string, atime, mtime time.Time) error {
	view, err := a.fsys.ReadAttributeView(a.ctx, a.resolve(name), "basic")
	if err != nil {
		return err
	}
	return view.SetTimes(a.ctx, &mtime, &atime, nil)
}

// Truncate changes the size of the named file.
func (a *Adapter) Truncate(name string, size int64) error {
	ch, err := a.fsys.NewByteChannel(a.ctx, a.resolve(name), smbfs.OpenFlags{Write: true})
	if err != nil {
		return err
	}
	defer ch.Close()
	return ch.Truncate(size)
}

// Separator reports the path component separator.
func (a *Adapter) Separator() uint8 { return '/' }

// ListSeparator reports the search-path separator.
func (a *Adapter) ListSeparator() uint8 { return ':' }

// Chdir changes the working directory absfs-relative calls resolve against.
func (a *Adapter) Chdir(dir string) error {
	p := a.resolve(dir)
	attrs, err := a.fsys.ReadAttributes(a.ctx, p)
	if err != nil {
		return err
	}
	if !attrs.IsDirectory() {
		return smbfs.Err(smbfs.NotADirectory)
	}
	a.mu.Lock()
	a.cwd = p.String()
	a.mu.Unlock()
	return nil
}

// Getwd returns the adapter's current working directory.
func (a *Adapter) Getwd() (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cwd, nil
}

// TempDir returns a conventional scratch directory; callers are expected to
// Mkdir it themselves if it doesn't yet exist on the share.
func (a *Adapter) TempDir() string {
	return "/tmp"
}

// ReadDir reads the named directory and returns its entries, satisfying
// absfs.FileSystem the same way absfs's own fallback does: open the
// directory and delegate to File.ReadDir.
func (a *Adapter) ReadDir(name string) ([]fs.DirEntry, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}

func baseName(p *smbfs.Path) string {
	fn := p.FileName()
	if fn.NameCount() == 0 {
		return "/"
	}
	return strings.TrimSuffix(fn.String(), "/")
}

// fileInfo adapts smbfs.BasicFileAttributes to fs.FileInfo.
type fileInfo struct {
	name  string
	attrs *smbfs.BasicFileAttributes
}

func (fi *fileInfo) Name() string { return fi.name }
func (fi *fileInfo) Size() int64  { return fi.attrs.Size }
func (fi *fileInfo) Mode() fs.FileMode {
	if fi.attrs.IsDirectory() {
		return fs.ModeDir | 0755
	}
	return 0644
}
func (fi *fileInfo) ModTime() time.Time { return fi.attrs.LastModified }
func (fi *fileInfo) IsDir() bool        { return fi.attrs.IsDirectory() }
func (fi *fileInfo) Sys() interface{}   { return fi.attrs }

// fileHandle adapts smbfs.SeekableByteChannel to absfsCore.File for regular
// files.
type fileHandle struct {
	adapter *Adapter
	path    *smbfs.Path
	ch      *smbfs.SeekableByteChannel
}

func (f *fileHandle) Name() string { return f.path.String() }

func (f *fileHandle) Read(p []byte) (int, error)  { return f.ch.Read(p) }
func (f *fileHandle) Write(p []byte) (int, error) { return f.ch.Write(p) }

func (f *fileHandle) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		cur, err := f.ch.Position()
		if err != nil {
			return 0, err
		}
		target = cur + offset
	case io.SeekEnd:
		size, err := f.ch.Size()
		if err != nil {
			return 0, err
		}
		target = size + offset
	}
	if err := f.ch.Seek(target); err != nil {
		return 0, err
	}
	return target, nil
}

func (f *fileHandle) Close() error { return f.ch.Close() }

func (f *fileHandle) Stat() (fs.FileInfo, error) { return f.adapter.Stat(f.path.String()) }

func (f *fileHandle) Truncate(size int64) error { return f.ch.Truncate(size) }

func (f *fileHandle) ReadAt(p []byte, off int64) (int, error) {
	cur, err := f.ch.Position()
	if err != nil {
		return 0, err
	}
	defer f.ch.Seek(cur)
	if err := f.ch.Seek(off); err != nil {
		return 0, err
	}
	return f.ch.Read(p)
}

func (f *fileHandle) WriteAt(p []byte, off int64) (int, error) {
	cur, err := f.ch.Position()
	if err != nil {
		return 0, err
	}
	defer f.ch.Seek(cur)
	if err := f.ch.Seek(off); err != nil {
		return 0, err
	}
	return f.ch.Write(p)
}

func (f *fileHandle) WriteString(s string) (int, error) { return f.ch.Write([]byte(s)) }

func (f *fileHandle) Readdir(n int) ([]fs.FileInfo, error) {
	return nil, smbfs.Err(smbfs.NotADirectory)
}
func (f *fileHandle) Readdirnames(n int) ([]string, error) {
	return nil, smbfs.Err(smbfs.NotADirectory)
}
func (f *fileHandle) ReadDir(n int) ([]fs.DirEntry, error) {
	return nil, smbfs.Err(smbfs.NotADirectory)
}
func (f *fileHandle) Sync() error { return nil }

// dirFile adapts smbfs.DirectoryStream to absfsCore.File for directories,
// eagerly materializing the listing the same way DirectoryStream itself
// does, then paginating it across successive Readdir/ReadDir calls the way
// os.File does.
type dirFile struct {
	adapter *Adapter
	path    *smbfs.Path
	ds      *smbfs.DirectoryStream
	entries []smbfs.DirectoryEntry
	pos     int
}

func newDirFile(a *Adapter, p *smbfs.Path) (*dirFile, error) {
	ds, err := a.fsys.NewDirectoryStream(a.ctx, p, nil)
	if err != nil {
		return nil, err
	}
	entries, err := ds.Entries()
	if err != nil {
		ds.Close()
		return nil, err
	}
	return &dirFile{adapter: a, path: p, ds: ds, entries: entries}, nil
}

func (d *dirFile) Name() string { return d.path.String() }

func (d *dirFile) Read(p []byte) (int, error)  { return 0, smbfs.Err(smbfs.Unsupported) }
func (d *dirFile) Write(p []byte) (int, error) { return 0, smbfs.Err(smbfs.Unsupported) }
func (d *dirFile) Seek(offset int64, whence int) (int64, error) {
	return 0, smbfs.Err(smbfs.Unsupported)
}
func (d *dirFile) Truncate(size int64) error                 { return smbfs.Err(smbfs.Unsupported) }
func (d *dirFile) ReadAt(p []byte, off int64) (int, error)    { return 0, smbfs.Err(smbfs.Unsupported) }
func (d *dirFile) WriteAt(p []byte, off int64) (int, error)   { return 0, smbfs.Err(smbfs.Unsupported) }
func (d *dirFile) WriteString(s string) (int, error)          { return 0, smbfs.Err(smbfs.Unsupported) }
func (d *dirFile) Sync() error                                { return nil }
func (d *dirFile) Close() error                               { return d.ds.Close() }
func (d *dirFile) Stat() (fs.FileInfo, error)                 { return d.adapter.Stat(d.path.String()) }

func (d *dirFile) remaining() []smbfs.DirectoryEntry {
	if d.pos >= len(d.entries) {
		return nil
	}
	return d.entries[d.pos:]
}

func (d *dirFile) Readdir(n int) ([]fs.FileInfo, error) {
	rem := d.remaining()
	if n <= 0 {
		d.pos = len(d.entries)
		infos := make([]fs.FileInfo, len(rem))
		for i, e := range rem {
			infos[i] = entryInfo(e)
		}
		return infos, nil
	}
	if len(rem) == 0 {
		return nil, io.EOF
	}
	if n > len(rem) {
		n = len(rem)
	}
	infos := make([]fs.FileInfo, n)
	for i := 0; i < n; i++ {
		infos[i] = entryInfo(rem[i])
	}
	d.pos += n
	return infos, nil
}

func (d *dirFile) Readdirnames(n int) ([]string, error) {
	infos, err := d.Readdir(n)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	infos, err := d.Readdir(n)
	if err != nil && len(infos) == 0 {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, err
}

func entryInfo(e smbfs.DirectoryEntry) fs.FileInfo {
	attrs := &smbfs.BasicFileAttributes{
		CreationTime:   e.Info.CreateTime,
		LastModified:   e.Info.ModTime,
		Size:           e.Info.Size,
		AttributesBits: e.Info.Attributes,
	}
	return &fileInfo{name: e.Info.Name, attrs: attrs}
}

var (
	_ absfsCore.FileSystem = (*Adapter)(nil)
	_ absfsCore.File       = (*fileHandle)(nil)
	_ absfsCore.File       = (*dirFile)(nil)
)
