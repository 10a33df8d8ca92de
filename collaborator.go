package smbfs

import (
	"context"
	"time"
)

// ChildInfo describes one entry returned by Collaborator.ListChildren.
type ChildInfo struct {
	Name       string
	IsDir      bool
	Size       int64
	ModTime    time.Time
	CreateTime time.Time
	Attributes uint32
}

// Collaborator is the narrow interface the core consumes from an SMB
// client (spec §6). It deliberately excludes anything about the wire
// protocol itself — dialing, authentication, and framing are the
// responsibility of whoever constructs a Collaborator (smb2driver.go for
// the real thing, internal/smbtest for tests).
//
// All paths passed to a Collaborator are slash-separated, relative to the
// share root (no leading "/"), rendered as Path.render() would produce
// minus the leading separator.
type Collaborator interface {
	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) (bool, error)
	// IsDirectory reports whether path names a directory.
	IsDirectory(ctx context.Context, path string) (bool, error)
	// IsHidden reports whether path carries the hidden attribute.
	IsHidden(ctx context.Context, path string) (bool, error)
	// CanRead reports whether the current credentials can read path.
	CanRead(ctx context.Context, path string) (bool, error)
	// CanWrite reports whether the current credentials can write path.
	CanWrite(ctx context.Context, path string) (bool, error)
	// Length returns the size in bytes of the file at path.
	Length(ctx context.Context, path string) (int64, error)
	// LastModified returns the last-modified time of path.
	LastModified(ctx context.Context, path string) (time.Time, error)
	// CreateTime returns the creation time of path.
	CreateTime(ctx context.Context, path string) (time.Time, error)
	// AttributesBitfield returns the raw Windows FILE_ATTRIBUTE_* bitfield.
	AttributesBitfield(ctx context.Context, path string) (uint32, error)
	// DiskFreeSpace returns the free space, in bytes, of the share path
	// resides on.
	DiskFreeSpace(ctx context.Context, path string) (uint64, error)
	// ListChildrenNames lists the names of path's immediate children.
	ListChildrenNames(ctx context.Context, path string) ([]string, error)
	// ListChildren lists path's immediate children with full metadata, used
	// by DirectoryStream so a single round trip serves both names and
	// attributes.
	ListChildren(ctx context.Context, path string) ([]ChildInfo, error)

	// Mkdir creates the directory at path.
	Mkdir(ctx context.Context, path string) error
	// Delete removes the file or empty directory at path.
	Delete(ctx context.Context, path string) error
	// CopyTo copies the resource at path to target.
	CopyTo(ctx context.Context, path, target string, replaceExisting bool) error
	// RenameTo moves/renames the resource at path to target.
	RenameTo(ctx context.Context, path, target string, replaceExisting bool) error
	// CreateNewFile atomically creates an empty file at path, failing if it
	// already exists.
	CreateNewFile(ctx context.Context, path string) error
	// SetLastModified sets path's last-modified time.
	SetLastModified(ctx context.Context, path string, t time.Time) error
	// SetCreateTime sets path's creation time.
	SetCreateTime(ctx context.Context, path string, t time.Time) error

	// Open obtains a random-access handle on path, honoring the given
	// OpenFlags.
	Open(ctx context.Context, path string, flags OpenFlags) (RandomAccessHandle, error)

	// Close releases any resources the collaborator itself owns (e.g. a
	// pooled session). Individual handles are closed independently.
	Close() error
}

// OpenFlags mirrors the open-option handling spec §4.4 describes for byte
// channels. Sync, Dsync, Sparse, and DeleteOnClose exist only so a caller's
// request for them can be represented and rejected with Unsupported before
// a Collaborator is ever consulted (see FileSystem.NewByteChannel); no
// Collaborator implementation needs to inspect them.
type OpenFlags struct {
	Read             bool
	Write            bool
	Create           bool
	CreateNew        bool
	Append           bool
	TruncateExisting bool

	Sync          bool
	Dsync         bool
	Sparse        bool
	DeleteOnClose bool
}

// RandomAccessHandle is a remote random-access file handle, the seam
// SeekableByteChannel (C8) adapts.
type RandomAccessHandle interface {
	Seek(offset int64, whence int) (int64, error)
	Position() (int64, error)
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	SetLength(size int64) error
	Close() error
}
