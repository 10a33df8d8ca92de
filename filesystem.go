package smbfs

import (
	"context"
	"strings"
	"sync"
	"time"
)

// FileSystem represents a single SMB server reached with a particular set
// of credentials (spec C5). Connecting to the same server with different
// credentials produces a distinct FileSystem; so does using a different
// name for the same server. A FileSystem is the factory for Path values,
// dispatches file operations to the Collaborator, and optionally owns a
// watch Poller.
type FileSystem struct {
	identifier string
	registry   *Registry
	collab     Collaborator
	opts       *Options

	mu     sync.RWMutex
	closed bool

	poller       *Poller
	watchService *WatchService
}

// newFileSystem constructs a FileSystem bound to authority, wiring a watch
// Poller when opts requests one (spec §4.4's smb.watchservice.enabled).
func newFileSystem(authority string, registry *Registry, opts *Options, collab Collaborator) (*FileSystem, error) {
	fsys := &FileSystem{
		identifier: authority,
		registry:   registry,
		collab:     collab,
		opts:       opts,
	}
	if opts != nil && opts.WatchServiceEnabled {
		interval := defaultPollInterval
		if opts.WatchServicePollInterval > 0 {
			interval = millisToDuration(opts.WatchServicePollInterval)
		}
		fsys.poller = newPoller(collab, interval)
		fsys.watchService = newWatchService(fsys.poller)
	}
	return fsys, nil
}

// Identifier returns the canonical authority this FileSystem was
// registered under.
func (fsys *FileSystem) Identifier() string {
	return fsys.identifier
}

// IsOpen reports whether this FileSystem is still present in its
// registry; closing removes it, after which IsOpen reports false even
// though the Go value itself survives for in-flight callers.
func (fsys *FileSystem) IsOpen() bool {
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()
	return !fsys.closed && fsys.registry.Contains(fsys.identifier)
}

// Close removes this FileSystem from its registry and shuts down its
// watch service and poller, if any. It does not assert ownership over any
// underlying socket; per spec, closing a handle is purely a registry
// operation.
func (fsys *FileSystem) Close() error {
	fsys.mu.Lock()
	if fsys.closed {
		fsys.mu.Unlock()
		return nil
	}
	fsys.closed = true
	fsys.mu.Unlock()

	fsys.registry.Remove(fsys.identifier)

	if fsys.watchService != nil {
		fsys.watchService.Close()
	}
	return nil
}

func (fsys *FileSystem) checkOpen(op, path string) error {
	if !fsys.IsOpen() {
		return newError(ClosedFileSystem, op, path, nil)
	}
	return nil
}

// NewPath constructs a Path on this FileSystem from a raw path string.
func (fsys *FileSystem) NewPath(raw string) *Path {
	return newPath(fsys, raw)
}

// GetPath mirrors the registry's multi-component path-building convenience:
// the first component determines absoluteness/empty handling and the rest
// are joined with the separator, with the folder flag taken from whether
// the last component ends with "/".
func (fsys *FileSystem) GetPath(first string, more ...string) *Path {
	if len(more) == 0 {
		return newPath(fsys, first)
	}
	joined := strings.TrimSuffix(first, pathSeparator) + pathSeparator + strings.Join(more, pathSeparator)
	return newPath(fsys, joined)
}

// Shares lists the shares visible on this server (supplemented from
// original_source's SmbFileSystem#getRootDirectories, folded together with
// the teacher's ListShares naming — see SPEC_FULL.md §12).
func (fsys *FileSystem) Shares(ctx context.Context) ([]string, error) {
	if err := fsys.checkOpen("Shares", ""); err != nil {
		return nil, err
	}
	names, err := fsys.collab.ListChildrenNames(ctx, "")
	if err != nil {
		return nil, mapCollaboratorError("Shares", "", err)
	}
	return names, nil
}

// sharePath renders p without its leading separator, i.e. the form the
// Collaborator interface expects.
func sharePath(p *Path) string {
	return strings.TrimPrefix(p.render(), pathSeparator)
}

// NewWatchService returns this FileSystem's watch service, or an error if
// none was configured at construction time (spec: "No SMBPoller instance
// registered, WatchService is not supported").
func (fsys *FileSystem) NewWatchService() (*WatchService, error) {
	if fsys.watchService == nil {
		return nil, newError(Unsupported, "NewWatchService", "", nil)
	}
	return fsys.watchService, nil
}

// Register arms p for watching via this FileSystem's watch service for
// the given event kinds, returning the resulting WatchKey.
func (fsys *FileSystem) Register(ctx context.Context, p *Path, kinds []EventKind) (*WatchKey, error) {
	ws, err := fsys.NewWatchService()
	if err != nil {
		return nil, err
	}
	return ws.Register(ctx, sharePath(p), kinds)
}

// Exists reports whether p exists on the server.
func (fsys *FileSystem) Exists(ctx context.Context, p *Path) (bool, error) {
	if err := fsys.checkOpen("Exists", p.render()); err != nil {
		return false, err
	}
	ok, err := fsys.collab.Exists(ctx, sharePath(p))
	if err != nil {
		return false, mapCollaboratorError("Exists", p.render(), err)
	}
	return ok, nil
}

// IsHidden reports whether p carries the hidden attribute.
func (fsys *FileSystem) IsHidden(ctx context.Context, p *Path) (bool, error) {
	if err := fsys.checkOpen("IsHidden", p.render()); err != nil {
		return false, err
	}
	hidden, err := fsys.collab.IsHidden(ctx, sharePath(p))
	if err != nil {
		return false, mapCollaboratorError("IsHidden", p.render(), err)
	}
	return hidden, nil
}

// AccessMode selects which permission CheckAccess tests for.
type AccessMode int

const (
	// AccessRead tests readability.
	AccessRead AccessMode = iota
	// AccessWrite tests writability.
	AccessWrite
)

// CheckAccess verifies the requested access mode against p, per the
// original's READ/WRITE-only checkAccess semantics (see SPEC_FULL.md §12).
// It fails with AccessDenied if the check does not pass.
func (fsys *FileSystem) CheckAccess(ctx context.Context, p *Path, mode AccessMode) error {
	if err := fsys.checkOpen("CheckAccess", p.render()); err != nil {
		return err
	}
	var ok bool
	var err error
	switch mode {
	case AccessWrite:
		ok, err = fsys.collab.CanWrite(ctx, sharePath(p))
	default:
		ok, err = fsys.collab.CanRead(ctx, sharePath(p))
	}
	if err != nil {
		return mapCollaboratorError("CheckAccess", p.render(), err)
	}
	if !ok {
		return newError(AccessDenied, "CheckAccess", p.render(), nil)
	}
	return nil
}

// Mkdir creates the directory at p.
func (fsys *FileSystem) Mkdir(ctx context.Context, p *Path) error {
	if err := fsys.checkOpen("Mkdir", p.render()); err != nil {
		return err
	}
	if err := fsys.collab.Mkdir(ctx, sharePath(p)); err != nil {
		return mapCollaboratorError("Mkdir", p.render(), err)
	}
	return nil
}

// Delete removes the file or empty directory at p.
func (fsys *FileSystem) Delete(ctx context.Context, p *Path) error {
	if err := fsys.checkOpen("Delete", p.render()); err != nil {
		return err
	}
	if err := fsys.collab.Delete(ctx, sharePath(p)); err != nil {
		return mapCollaboratorError("Delete", p.render(), err)
	}
	return nil
}

// CopyOptions mirrors the copy-option handling spec §4.4 describes.
type CopyOptions struct {
	ReplaceExisting bool
	// CopyAttributes is accepted and silently ignored (spec §4.4): the
	// collaborator interface has no attribute-preserving copy primitive.
	CopyAttributes bool
}

// Copy copies src to dst, honoring CopyOptions. Absent ReplaceExisting, a
// copy whose target exists fails with AlreadyExists.
func (fsys *FileSystem) Copy(ctx context.Context, src, dst *Path, opts CopyOptions) error {
	if err := fsys.checkOpen("Copy", src.render()); err != nil {
		return err
	}
	if !opts.ReplaceExisting {
		if exists, err := fsys.Exists(ctx, dst); err != nil {
			return err
		} else if exists {
			return newError(AlreadyExists, "Copy", dst.render(), nil)
		}
	}
	if err := fsys.collab.CopyTo(ctx, sharePath(src), sharePath(dst), opts.ReplaceExisting); err != nil {
		return mapCollaboratorError("Copy", src.render(), err)
	}
	return nil
}

// Move renames/moves src to dst, honoring CopyOptions.ReplaceExisting.
func (fsys *FileSystem) Move(ctx context.Context, src, dst *Path, opts CopyOptions) error {
	if err := fsys.checkOpen("Move", src.render()); err != nil {
		return err
	}
	if !opts.ReplaceExisting {
		if exists, err := fsys.Exists(ctx, dst); err != nil {
			return err
		} else if exists {
			return newError(AlreadyExists, "Move", dst.render(), nil)
		}
	}
	if err := fsys.collab.RenameTo(ctx, sharePath(src), sharePath(dst), opts.ReplaceExisting); err != nil {
		return mapCollaboratorError("Move", src.render(), err)
	}
	return nil
}

// SameFile reports whether a and b name the same underlying resource: the
// collaborator interface has no stable file-key primitive beyond
// attributes, so two paths are considered the same file when they
// normalize to equal components on the same FileSystem.
func (fsys *FileSystem) SameFile(a, b *Path) bool {
	return a.Normalize().Equal(b.Normalize())
}

// ReadAttributes reads a BasicFileAttributes snapshot for p (spec §4.5).
func (fsys *FileSystem) ReadAttributes(ctx context.Context, p *Path) (*BasicFileAttributes, error) {
	if err := fsys.checkOpen("ReadAttributes", p.render()); err != nil {
		return nil, err
	}
	return readBasicAttributes(ctx, fsys.collab, p)
}

// ReadAttributeView returns a FileAttributeView for p. Only the "basic"
// view is supported (an empty name also selects it); any other name fails
// with Unsupported.
func (fsys *FileSystem) ReadAttributeView(ctx context.Context, p *Path, name string) (*FileAttributeView, error) {
	if err := fsys.checkOpen("ReadAttributeView", p.render()); err != nil {
		return nil, err
	}
	if name != "basic" && name != "" {
		return nil, newError(Unsupported, "ReadAttributeView", p.render(), nil)
	}
	return &FileAttributeView{fsys: fsys, path: p}, nil
}

// GetFileStore is explicitly unsupported (spec §4.4).
func (fsys *FileSystem) GetFileStore(p *Path) (interface{}, error) {
	return nil, newError(Unsupported, "GetFileStore", p.render(), nil)
}

// NewDirectoryStream opens a DirectoryStream over p's children, optionally
// filtered by matcher (nil accepts everything).
func (fsys *FileSystem) NewDirectoryStream(ctx context.Context, p *Path, matcher *PathMatcher) (*DirectoryStream, error) {
	if err := fsys.checkOpen("NewDirectoryStream", p.render()); err != nil {
		return nil, err
	}
	return newDirectoryStream(ctx, fsys, p, matcher)
}

// NewByteChannel opens a SeekableByteChannel over p with the given flags
// (spec §4.4/§4.7).
func (fsys *FileSystem) NewByteChannel(ctx context.Context, p *Path, flags OpenFlags) (*SeekableByteChannel, error) {
	if err := fsys.checkOpen("NewByteChannel", p.render()); err != nil {
		return nil, err
	}
	if flags.Sync || flags.Dsync || flags.Sparse || flags.DeleteOnClose {
		return nil, newError(Unsupported, "NewByteChannel", p.render(), nil)
	}
	if flags.CreateNew {
		if exists, err := fsys.Exists(ctx, p); err != nil {
			return nil, err
		} else if exists {
			return nil, newError(AlreadyExists, "NewByteChannel", p.render(), nil)
		}
	}
	handle, err := fsys.collab.Open(ctx, sharePath(p), flags)
	if err != nil {
		return nil, mapCollaboratorError("NewByteChannel", p.render(), err)
	}
	if flags.TruncateExisting && (flags.Write) {
		if err := handle.SetLength(0); err != nil {
			handle.Close()
			return nil, mapCollaboratorError("NewByteChannel", p.render(), err)
		}
	}
	if flags.Append {
		if _, err := handle.Seek(0, 2); err != nil {
			handle.Close()
			return nil, mapCollaboratorError("NewByteChannel", p.render(), err)
		}
	}
	return newSeekableByteChannel(handle, p.render()), nil
}

const defaultPollInterval = 30 * time.Second

func millisToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
