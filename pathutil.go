package smbfs

import "strings"

// pathSeparator is the canonical component separator used by SMB paths,
// mirroring the forward-slash convention the rest of this package renders
// paths with regardless of the underlying UNC backslash convention.
const pathSeparator = "/"

// isFolder reports whether path points to a folder, i.e. ends with the
// separator.
func isFolder(path string) bool {
	return strings.HasSuffix(path, pathSeparator)
}

// isAbsolutePath reports whether path is rooted, i.e. starts with the
// separator.
func isAbsolutePath(path string) bool {
	return strings.HasPrefix(path, pathSeparator)
}

// splitPath splits path into its components, dropping the leading empty
// component produced by an absolute path's leading separator and the
// trailing empty component produced by a folder path's trailing separator
// (that information is carried separately by isFolder, so the empty
// component would otherwise double up when mergePath re-renders it).
func splitPath(path string) []string {
	parts := strings.Split(path, pathSeparator)
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if n := len(parts); n > 0 && parts[n-1] == "" {
		parts = parts[:n-1]
	}
	return parts
}

// mergePath renders components[start:end] back into a single path string.
// start is inclusive, end is exclusive. absolute prefixes a leading
// separator; folder keeps a trailing separator, otherwise it is trimmed.
func mergePath(components []string, start, end int, absolute, folder bool) string {
	var b strings.Builder
	if absolute {
		b.WriteString(pathSeparator)
	}
	for i := start; i < end; i++ {
		b.WriteString(components[i])
		b.WriteString(pathSeparator)
	}
	out := b.String()
	if !folder && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}
