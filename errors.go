package smbfs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies the failure modes the core can report, independent of
// whatever status code the SMB collaborator returned.
type Kind int

const (
	// Io covers any collaborator failure that doesn't map to a more
	// specific kind below.
	Io Kind = iota
	// InvalidArgument marks ill-formed input: a non-SMB URI, a path of
	// the wrong type, bad subpath indices, resolving against a file.
	InvalidArgument
	// NotFound marks a missing FileSystem registration or a missing file.
	NotFound
	// AlreadyExists marks a FileSystem already registered, a CREATE_NEW
	// collision, or a copy target that exists without REPLACE_EXISTING.
	AlreadyExists
	// AccessDenied marks a checkAccess failure for the requested mode.
	AccessDenied
	// NotADirectory marks a directory-stream request against a non-directory.
	NotADirectory
	// ClosedFileSystem marks an operation against a closed FileSystem handle.
	ClosedFileSystem
	// ClosedChannel marks an operation against a closed byte channel.
	ClosedChannel
	// ClosedWatchService marks an operation against a closed watch service.
	ClosedWatchService
	// Unsupported marks a feature this provider deliberately does not
	// implement (DSYNC/SYNC/SPARSE/DELETE_ON_CLOSE, attribute setters,
	// file stores, user-principal lookup, unknown watch kinds, symlinks).
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case NotFound:
		return "not found"
	case AlreadyExists:
		return "already exists"
	case AccessDenied:
		return "access denied"
	case NotADirectory:
		return "not a directory"
	case ClosedFileSystem:
		return "closed file system"
	case ClosedChannel:
		return "closed channel"
	case ClosedWatchService:
		return "closed watch service"
	case Unsupported:
		return "unsupported"
	default:
		return "io error"
	}
}

// Error is the sum-type error this package returns. Op and Path identify
// where the failure occurred; Err, if set, is the underlying cause (often
// the collaborator's raw error).
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, smbfs.Err(Kind)) style comparisons: two *Error
// values compare equal for Is purposes when their Kind matches.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// newError constructs an *Error of the given kind.
func newError(kind Kind, op, path string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}

// Err returns a sentinel-like *Error carrying only a Kind, suitable for use
// with errors.Is: errors.Is(err, smbfs.Err(smbfs.NotFound)).
func Err(kind Kind) error {
	return &Error{Kind: kind}
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// netError interface for network errors, used by isRetryable.
type netError interface {
	Timeout() bool
	Temporary() bool
}

// isRetryable returns true if the error indicates a transient failure
// that might succeed if retried. The core itself never retries (spec
// §7 Propagation); this is used only by the collaborator-facing retry
// policy wrapping network calls (A3 in SPEC_FULL.md).
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr netError
	if errors.As(err, &netErr) {
		if netErr.Temporary() || netErr.Timeout() {
			return true
		}
	}

	var e *Error
	if errors.As(err, &e) && e.Kind == Io {
		return true
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != nil && unwrapped != err {
		return isRetryable(unwrapped)
	}

	return false
}

// mapCollaboratorError maps a raw collaborator status/error to the core's
// error taxonomy, per spec §7's mapping guidance. statusName, when
// non-empty, is the collaborator's raw status code name (e.g.
// "STATUS_OBJECT_NAME_NOT_FOUND") used purely for classification; cause is
// wrapped unchanged so the original error remains inspectable via Unwrap.
func mapCollaboratorError(op, path string, cause error) error {
	if cause == nil {
		return nil
	}
	kind := classifyCollaboratorError(cause)
	return newError(kind, op, path, cause)
}

func classifyCollaboratorError(err error) Kind {
	msg := err.Error()
	switch {
	case containsAny(msg, "ACCESS_DENIED", "access denied", "permission denied"):
		return AccessDenied
	case containsAny(msg, "OBJECT_NAME_NOT_FOUND", "OBJECT_PATH_NOT_FOUND", "NO_SUCH_FILE", "no such file", "not exist"):
		return NotFound
	case containsAny(msg, "OBJECT_NAME_COLLISION", "already exists", "file exists"):
		return AlreadyExists
	default:
		return Io
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
