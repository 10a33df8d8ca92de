package smbfs

import (
	"context"
	"sync/atomic"
)

// DirectoryEntry pairs a child Path with the metadata the collaborator
// returned for it in the same listing round trip.
type DirectoryEntry struct {
	Path *Path
	Info ChildInfo
}

// DirectoryStream is an eager, filtered, one-shot iterator over a
// directory's children (spec C7), grounded on original_source's
// SmbDirectoryStream.
type DirectoryStream struct {
	content        []DirectoryEntry
	closed         atomic.Bool
	iterReturned   atomic.Bool
	dirPath        string
}

// newDirectoryStream verifies p is a directory, eagerly lists its
// children through collab, applies matcher if non-nil, and returns the
// resulting stream.
func newDirectoryStream(ctx context.Context, fsys *FileSystem, p *Path, matcher *PathMatcher) (*DirectoryStream, error) {
	isDir, err := fsys.collab.IsDirectory(ctx, sharePath(p))
	if err != nil {
		return nil, mapCollaboratorError("NewDirectoryStream", p.render(), err)
	}
	if !isDir {
		return nil, newError(NotADirectory, "NewDirectoryStream", p.render(), nil)
	}

	children, err := fsys.collab.ListChildren(ctx, sharePath(p))
	if err != nil {
		return nil, mapCollaboratorError("NewDirectoryStream", p.render(), err)
	}

	ds := &DirectoryStream{dirPath: p.render()}
	for _, c := range children {
		childPath, err := p.ResolveString(c.Name)
		if err != nil {
			return nil, err
		}
		if matcher != nil && !matcher.MatchPath(childPath) {
			continue
		}
		ds.content = append(ds.content, DirectoryEntry{Path: childPath, Info: c})
	}
	return ds, nil
}

// Entries returns the directory's content exactly once; a second call, or
// any call after Close, fails with IllegalState (reported as
// InvalidArgument — the spec names this IllegalState informally but it
// maps onto the core's InvalidArgument kind, there being no dedicated kind
// for stream-reuse misuse).
func (ds *DirectoryStream) Entries() ([]DirectoryEntry, error) {
	if ds.closed.Load() {
		return nil, newError(InvalidArgument, "Entries", ds.dirPath, errStreamClosed)
	}
	if !ds.iterReturned.CompareAndSwap(false, true) {
		return nil, newError(InvalidArgument, "Entries", ds.dirPath, errStreamReused)
	}
	return ds.content, nil
}

// Close marks the stream closed; Entries after Close fails.
func (ds *DirectoryStream) Close() error {
	ds.closed.Store(true)
	return nil
}

var (
	errStreamClosed = simpleError("directory stream already closed")
	errStreamReused = simpleError("directory stream iterator already returned")
)

type simpleError string

func (e simpleError) Error() string { return string(e) }
