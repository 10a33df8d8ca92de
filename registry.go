package smbfs

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

var errNotSMBURI = errors.New("the provided URI does not point to an SMB resource")

// Registry is a process-wide cache of FileSystem handles keyed by their
// canonical authority (spec C4). It guarantees at-most-one live handle per
// server+credentials tuple and true insert-if-absent atomicity: concurrent
// callers racing to register the same authority will see exactly one
// winner and the rest AlreadyExists, unlike the original's
// containsKey-then-put sequence, which is not atomic under concurrent
// callers. See DESIGN.md.
type Registry struct {
	mu          sync.Mutex
	byAuthority map[string]*FileSystem
	defaults    *defaultCredentials
}

// DefaultRegistry is the package-wide Registry used by package-level
// helpers; tests and callers that want isolation construct their own via
// NewRegistry.
var DefaultRegistry = NewRegistry()

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byAuthority: make(map[string]*FileSystem)}
}

// SetDefaultCredentials installs the context/config default credentials
// tier used by the authority builder (spec §4.3 step 3) when neither the
// URI nor the options map supply credentials.
func (r *Registry) SetDefaultCredentials(domain, username, password string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = &defaultCredentials{domain: domain, username: username, password: password}
}

// NewFileSystem computes the canonical authority for uri+opts, fails with
// AlreadyExists if one is already registered, and otherwise constructs and
// registers a new handle, optionally with a watch poller if opts requests
// one.
func (r *Registry) NewFileSystem(ctx context.Context, uri string, opts *Options, collab Collaborator) (*FileSystem, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, newError(InvalidArgument, "NewFileSystem", uri, err)
	}
	if u.Scheme != "smb" {
		return nil, newError(InvalidArgument, "NewFileSystem", uri, errNotSMBURI)
	}

	r.mu.Lock()
	authority := buildAuthority(u.Host, opts, r.defaults)
	if _, exists := r.byAuthority[authority]; exists {
		r.mu.Unlock()
		return nil, newError(AlreadyExists, "NewFileSystem", authority, nil)
	}
	// Reserve the slot before releasing the lock and doing the (possibly
	// slow) construction work, so a second concurrent caller for the same
	// authority observes AlreadyExists rather than racing past this check.
	placeholder := &FileSystem{identifier: authority, registry: r}
	r.byAuthority[authority] = placeholder
	r.mu.Unlock()

	fsys, err := newFileSystem(authority, r, opts, collab)
	if err != nil {
		r.mu.Lock()
		delete(r.byAuthority, authority)
		r.mu.Unlock()
		return nil, err
	}

	r.mu.Lock()
	r.byAuthority[authority] = fsys
	r.mu.Unlock()
	return fsys, nil
}

// GetFileSystem looks up a FileSystem by the authority uri resolves to;
// fails with NotFound on a miss.
func (r *Registry) GetFileSystem(uri string, opts *Options) (*FileSystem, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, newError(InvalidArgument, "GetFileSystem", uri, err)
	}
	if u.Scheme != "smb" {
		return nil, newError(InvalidArgument, "GetFileSystem", uri, errNotSMBURI)
	}

	r.mu.Lock()
	authority := buildAuthority(u.Host, opts, r.defaults)
	fsys, ok := r.byAuthority[authority]
	r.mu.Unlock()
	if !ok {
		return nil, newError(NotFound, "GetFileSystem", authority, nil)
	}
	return fsys, nil
}

// GetOrCreateFileSystem looks up a FileSystem, creating one via
// NewFileSystem if none is registered yet.
func (r *Registry) GetOrCreateFileSystem(ctx context.Context, uri string, opts *Options, collab Collaborator) (*FileSystem, error) {
	fsys, err := r.GetFileSystem(uri, opts)
	if err == nil {
		return fsys, nil
	}
	if !IsKind(err, NotFound) {
		return nil, err
	}
	return r.NewFileSystem(ctx, uri, opts, collab)
}

// GetPath looks up-or-creates the FileSystem for uri and returns a Path
// built from the URI's path component.
func (r *Registry) GetPath(ctx context.Context, uri string, opts *Options, collab Collaborator) (*Path, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, newError(InvalidArgument, "GetPath", uri, err)
	}
	fsys, err := r.GetOrCreateFileSystem(ctx, uri, opts, collab)
	if err != nil {
		return nil, err
	}
	return newPath(fsys, u.Path), nil
}

// Remove deletes a FileSystem from the registry, e.g. as part of Close.
// It is a no-op if the authority is not registered.
func (r *Registry) Remove(authority string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byAuthority, authority)
}

// Contains reports whether authority currently has a registered handle.
// A FileSystem is "open" precisely while it is present in the registry.
func (r *Registry) Contains(authority string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byAuthority[authority]
	return ok
}

