package smbfs

import (
	"regexp"
	"strings"
)

// PathMatcher tests a Path against a glob or regex pattern (spec C9),
// grounded on original_source's SmbPathMatcher.
type PathMatcher struct {
	re *regexp.Regexp
}

// NewPathMatcher builds a PathMatcher from pattern. A "glob:" prefix is
// translated to a regular expression; a "regex:" prefix, or no prefix at
// all, is used as a regular expression directly.
func NewPathMatcher(pattern string) (*PathMatcher, error) {
	var expr string
	switch {
	case strings.HasPrefix(pattern, "glob:"):
		expr = globToRegex(strings.TrimPrefix(pattern, "glob:"))
	case strings.HasPrefix(pattern, "regex:"):
		expr = strings.TrimPrefix(pattern, "regex:")
	default:
		expr = pattern
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, newError(InvalidArgument, "NewPathMatcher", pattern, err)
	}
	return &PathMatcher{re: re}, nil
}

// MatchPath reports whether p's normalized rendering matches the pattern.
func (m *PathMatcher) MatchPath(p *Path) bool {
	return m.re.MatchString(p.Normalize().render())
}

// globToRegex translates a glob pattern into the body of a regular
// expression, character by character, mirroring the original's escape
// handling and curly-brace alternation: "*" becomes ".*", "?" becomes
// ".", the RegEx metacharacters ".()+|^$@%" are escaped literally, "\"
// toggles escaping for the following character, and "{a,b,c}" becomes
// "(a|b|c)".
func globToRegex(glob string) string {
	glob = strings.TrimSpace(glob)

	var sb strings.Builder
	escaping := false
	inCurlies := 0

	for _, ch := range glob {
		switch ch {
		case '*':
			if escaping {
				sb.WriteString(`\*`)
			} else {
				sb.WriteString(".*")
			}
			escaping = false
		case '?':
			if escaping {
				sb.WriteString(`\?`)
			} else {
				sb.WriteByte('.')
			}
			escaping = false
		case '.', '(', ')', '+', '|', '^', '$', '@', '%':
			sb.WriteByte('\\')
			sb.WriteRune(ch)
			escaping = false
		case '\\':
			if escaping {
				sb.WriteString(`\\`)
				escaping = false
			} else {
				escaping = true
			}
		case '{':
			if escaping {
				sb.WriteString(`\{`)
			} else {
				sb.WriteByte('(')
				inCurlies++
			}
			escaping = false
		case '}':
			if inCurlies > 0 && !escaping {
				sb.WriteByte(')')
				inCurlies--
			} else if escaping {
				sb.WriteString(`\}`)
			} else {
				sb.WriteByte('}')
			}
			escaping = false
		case ',':
			if inCurlies > 0 && !escaping {
				sb.WriteByte('|')
			} else if escaping {
				sb.WriteString(`\,`)
			} else {
				sb.WriteByte(',')
			}
		default:
			escaping = false
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}
