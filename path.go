package smbfs

import (
	"fmt"
	"net/url"
	"strings"
)

// Path is an immutable SMB path value tied to the FileSystem that produced
// it. Two paths compare equal only if they share the same FileSystem
// identity and the same components; the absolute/folder flags affect
// rendering and algebra but not equality.
type Path struct {
	fs         *FileSystem
	components []string
	absolute   bool
	folder     bool
}

// newPath builds a Path from a raw path string, splitting it into
// components per the C1 primitives.
func newPath(fsys *FileSystem, raw string) *Path {
	return &Path{
		fs:         fsys,
		components: splitPath(raw),
		absolute:   isAbsolutePath(raw),
		folder:     isFolder(raw),
	}
}

// render merges the path back into its canonical string form.
func (p *Path) render() string {
	return mergePath(p.components, 0, len(p.components), p.absolute, p.folder)
}

// String implements fmt.Stringer.
func (p *Path) String() string {
	return p.render()
}

// FileSystem returns the owning FileSystem handle.
func (p *Path) FileSystem() *FileSystem {
	return p.fs
}

// IsAbsolute reports whether the path began with "/".
func (p *Path) IsAbsolute() bool {
	return p.absolute
}

// IsFolder reports whether the path ended with "/".
func (p *Path) IsFolder() bool {
	return p.folder
}

// NameCount returns the number of path components.
func (p *Path) NameCount() int {
	return len(p.components)
}

// Root returns the root path "/" on the same FileSystem, or nil if this
// path is relative.
func (p *Path) Root() *Path {
	if !p.absolute {
		return nil
	}
	return newPath(p.fs, "/")
}

// FileName returns a new relative path containing just the last component.
func (p *Path) FileName() *Path {
	if len(p.components) == 0 {
		return newPath(p.fs, "")
	}
	return newPath(p.fs, p.components[len(p.components)-1])
}

// Parent returns a folder-path built from components [0, n-1), or nil if
// this path has at most one component.
func (p *Path) Parent() *Path {
	if len(p.components) <= 1 {
		return nil
	}
	reduced := mergePath(p.components, 0, len(p.components)-1, p.absolute, true)
	return newPath(p.fs, reduced)
}

// Name returns the name element at index i as a relative Path. The folder
// flag is set iff i is the last component and self is a folder.
func (p *Path) Name(i int) (*Path, error) {
	if i < 0 || i >= len(p.components) {
		return nil, newError(InvalidArgument, "Name", p.render(), fmt.Errorf("index %d out of bounds [0,%d)", i, len(p.components)))
	}
	folder := i == len(p.components)-1 && p.folder
	reduced := mergePath(p.components, i, i+1, false, folder)
	return newPath(p.fs, reduced), nil
}

// Subpath returns a relative path over components [begin, end). The folder
// flag is set iff end-1 is the last component and self is a folder.
//
// Unlike the original implementation this ports from, end == NameCount()
// is accepted (a standard half-open range); only end > NameCount() is
// rejected. See DESIGN.md for the rationale.
func (p *Path) Subpath(begin, end int) (*Path, error) {
	n := len(p.components)
	if begin < 0 || end > n {
		return nil, newError(InvalidArgument, "Subpath", p.render(), fmt.Errorf("indices [%d,%d) out of bounds for %d components", begin, end, n))
	}
	if begin > end {
		return nil, newError(InvalidArgument, "Subpath", p.render(), fmt.Errorf("begin %d greater than end %d", begin, end))
	}
	folder := end-1 == n-1 && p.folder
	reduced := mergePath(p.components, begin, end, false, folder)
	return newPath(p.fs, reduced), nil
}

// StartsWith reports whether this path's rendered string starts with
// other's. Cross-filesystem comparisons always return false.
func (p *Path) StartsWith(other *Path) bool {
	if other.fs != p.fs {
		return false
	}
	return strings.HasPrefix(p.render(), other.render())
}

// StartsWithString is like StartsWith but compares against a raw string.
func (p *Path) StartsWithString(other string) bool {
	return strings.HasPrefix(p.render(), other)
}

// EndsWith reports whether this path's rendered string ends with other's.
// Cross-filesystem comparisons always return false.
func (p *Path) EndsWith(other *Path) bool {
	if other.fs != p.fs {
		return false
	}
	return strings.HasSuffix(p.render(), other.render())
}

// EndsWithString is like EndsWith but compares against a raw string.
func (p *Path) EndsWithString(other string) bool {
	return strings.HasSuffix(p.render(), other)
}

// Normalize eliminates "." and ".." components without ever crossing the
// root: "." is dropped; ".." pops the previous component when there is one
// to pop; a ".." with nothing left to pop is dropped from an absolute path
// and kept in a relative one. An absolute path left with no components
// renders as the root "/".
func (p *Path) Normalize() *Path {
	normalized := make([]string, 0, len(p.components))
	for _, c := range p.components {
		switch {
		case c == ".":
			continue
		case c == ".." && len(normalized) > 0 && normalized[len(normalized)-1] != "..":
			normalized = normalized[:len(normalized)-1]
		case c == ".." && p.absolute:
			continue
		default:
			normalized = append(normalized, c)
		}
	}
	folder := p.folder || (p.absolute && len(normalized) == 0)
	path := mergePath(normalized, 0, len(normalized), p.absolute, folder)
	return newPath(p.fs, path)
}

// Resolve resolves other against this path. If other is absolute, it is
// returned verbatim. Otherwise this path must be a folder (fails with
// InvalidArgument if not); the component arrays are concatenated and the
// folder flag of the result follows other.
func (p *Path) Resolve(other *Path) (*Path, error) {
	if other.fs != p.fs {
		return nil, newError(InvalidArgument, "Resolve", p.render(), fmt.Errorf("other path belongs to a different file system"))
	}
	if other.absolute {
		return other, nil
	}
	if !p.folder {
		return nil, newError(InvalidArgument, "Resolve", p.render(), fmt.Errorf("cannot resolve against a file path; add a trailing '/' or use ResolveSibling"))
	}
	components := make([]string, 0, len(p.components)+len(other.components))
	components = append(components, p.components...)
	components = append(components, other.components...)
	path := mergePath(components, 0, len(components), p.absolute, other.folder)
	return newPath(p.fs, path), nil
}

// ResolveString is like Resolve but takes a raw path string.
func (p *Path) ResolveString(other string) (*Path, error) {
	if isAbsolutePath(other) {
		return newPath(p.fs, other), nil
	}
	if !p.folder {
		return nil, newError(InvalidArgument, "Resolve", p.render(), fmt.Errorf("cannot resolve against a file path; add a trailing '/' or use ResolveSibling"))
	}
	split := splitPath(other)
	components := make([]string, 0, len(p.components)+len(split))
	components = append(components, p.components...)
	components = append(components, split...)
	path := mergePath(components, 0, len(components), p.absolute, isFolder(other))
	return newPath(p.fs, path), nil
}

// ResolveSibling resolves other against this path's parent. If other is
// absolute, it is returned verbatim.
func (p *Path) ResolveSibling(other *Path) (*Path, error) {
	if other.fs != p.fs {
		return nil, newError(InvalidArgument, "ResolveSibling", p.render(), fmt.Errorf("other path belongs to a different file system"))
	}
	if other.absolute {
		return other, nil
	}
	n := len(p.components)
	components := make([]string, 0, n-1+len(other.components))
	if n > 0 {
		components = append(components, p.components[:n-1]...)
	}
	components = append(components, other.components...)
	path := mergePath(components, 0, len(components), p.absolute, other.folder)
	return newPath(p.fs, path), nil
}

// ResolveSiblingString is like ResolveSibling but takes a raw path string.
// Unlike ResolveSibling, the current path must be a folder, matching the
// resolve-against-file rejection the original implementation applies here.
func (p *Path) ResolveSiblingString(other string) (*Path, error) {
	if !p.folder {
		return nil, newError(InvalidArgument, "ResolveSibling", p.render(), fmt.Errorf("cannot resolve against a file path; add a trailing '/' or use ResolveSibling"))
	}
	if isAbsolutePath(other) {
		return newPath(p.fs, other), nil
	}
	split := splitPath(other)
	n := len(p.components)
	components := make([]string, 0, n-1+len(split))
	if n > 0 {
		components = append(components, p.components[:n-1]...)
	}
	components = append(components, split...)
	path := mergePath(components, 0, len(components), p.absolute, isFolder(other))
	return newPath(p.fs, path), nil
}

// Relativize constructs a relative path r such that, informally,
// p.Resolve(r).Normalize() == target.Normalize(). Fails if the two paths
// disagree on absoluteness or belong to different file systems.
func (p *Path) Relativize(target *Path) (*Path, error) {
	if target.fs != p.fs {
		return nil, newError(InvalidArgument, "Relativize", p.render(), fmt.Errorf("target path belongs to a different file system"))
	}
	if target.absolute != p.absolute {
		return nil, newError(InvalidArgument, "Relativize", p.render(), fmt.Errorf("paths differ in absoluteness"))
	}

	common := true
	lastIndex := 0
	var newComponents []string
	for i := 0; i < len(p.components); i++ {
		if common {
			if i < len(target.components) {
				if p.components[i] == target.components[i] {
					lastIndex++
				} else {
					common = false
					newComponents = append(newComponents, "..")
				}
			} else {
				newComponents = append(newComponents, "..")
				common = false
			}
		} else {
			newComponents = append(newComponents, "..")
		}
	}

	if lastIndex < len(target.components) {
		newComponents = append(newComponents, target.components[lastIndex:]...)
	}

	path := mergePath(newComponents, 0, len(newComponents), false, target.folder)
	return newPath(p.fs, path), nil
}

// ToURI builds a smb:// URI representing this path against its file
// system's canonical authority.
func (p *Path) ToURI() (string, error) {
	rendered := p.render()
	u := &url.URL{
		Scheme: "smb",
		Host:   p.fs.identifier,
		Path:   rendered,
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// ToAbsolutePath returns this path if it is already absolute; otherwise it
// resolves it against the file system's root.
func (p *Path) ToAbsolutePath() (*Path, error) {
	if p.absolute {
		return p, nil
	}
	root := newPath(p.fs, "/")
	return root.Resolve(p)
}

// Iterator returns one relative path per component, closest-to-root first.
// Every element but the last has folder=true; the last has folder=self.folder.
func (p *Path) Iterator() []*Path {
	elements := make([]*Path, 0, len(p.components))
	for i := 0; i < len(p.components)-1; i++ {
		elements = append(elements, newPath(p.fs, p.components[i]+pathSeparator))
	}
	if len(p.components) > 0 {
		last := p.components[len(p.components)-1]
		if p.folder {
			last += pathSeparator
		}
		elements = append(elements, newPath(p.fs, last))
	}
	return elements
}

// Compare lexicographically compares the rendered strings of two paths on
// the same file system. Cross-filesystem comparisons fail.
func (p *Path) Compare(other *Path) (int, error) {
	if other.fs != p.fs {
		return 0, newError(InvalidArgument, "Compare", p.render(), fmt.Errorf("other path belongs to a different file system"))
	}
	return strings.Compare(p.render(), other.render()), nil
}

// Equal reports value equality: same FileSystem identity and same
// components. The absolute/folder flags do not affect equality.
func (p *Path) Equal(other *Path) bool {
	if other == nil || other.fs != p.fs {
		return false
	}
	if len(p.components) != len(other.components) {
		return false
	}
	for i := range p.components {
		if p.components[i] != other.components[i] {
			return false
		}
	}
	return true
}
