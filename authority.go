package smbfs

import (
	"net/url"
	"strings"
)

// credentialsSeparator delimits embedded credentials from the host part of
// an authority string, e.g. "user:pass@host".
const credentialsSeparator = "@"

// Options carries the per-FileSystem configuration recognized by the
// registry (spec §4.4/§6): domain/username/password credentials, watch
// service tuning, and an arbitrary pass-through prefix for collaborator
// configuration (the SMB library's own option namespace).
type Options struct {
	Domain   string
	Username string
	Password string

	WatchServiceEnabled      bool
	WatchServicePollInterval int64 // milliseconds; 0 means "use default"

	// Passthrough holds any option key carrying the collaborator's own
	// configuration prefix ("smb2."), forwarded to the driver untouched.
	Passthrough map[string]string
}

// defaultCredentials mirrors the context/config defaults tier of the
// authority precedence rules (spec §4.3 step 3): a FileSystem-wide default
// domain/user/password supplied out-of-band, analogous to the original's
// CIFSContext config defaults.
type defaultCredentials struct {
	domain   string
	username string
	password string
}

// buildAuthority computes the canonical authority string for a URI given
// Options and optional context defaults, applying the four-tier precedence
// from spec §4.3:
//  1. URI authority already contains an "@" -> used verbatim.
//  2. Options provide credentials -> "[domain;]user[:password]@" + URI authority.
//  3. Context defaults provide credentials -> same construction.
//  4. Otherwise -> URI authority verbatim.
func buildAuthority(rawAuthority string, opts *Options, defaults *defaultCredentials) string {
	if strings.Contains(rawAuthority, credentialsSeparator) {
		return rawAuthority
	}

	var b strings.Builder
	wrote := false

	if opts != nil && (opts.Username != "" || opts.Domain != "") {
		if opts.Domain != "" {
			b.WriteString(opts.Domain)
			b.WriteString(";")
		}
		if opts.Username != "" {
			b.WriteString(url.QueryEscape(opts.Username))
			wrote = true
			if opts.Password != "" {
				b.WriteString(":")
				b.WriteString(url.QueryEscape(opts.Password))
			}
		}
	} else if defaults != nil && (defaults.username != "" || defaults.domain != "") {
		if defaults.domain != "" {
			b.WriteString(defaults.domain)
			b.WriteString(";")
		}
		if defaults.username != "" {
			b.WriteString(url.QueryEscape(defaults.username))
			wrote = true
			if defaults.password != "" {
				b.WriteString(":")
				b.WriteString(url.QueryEscape(defaults.password))
			}
		}
	}

	if wrote || b.Len() > 0 {
		b.WriteString(credentialsSeparator)
		b.WriteString(rawAuthority)
		return b.String()
	}
	return rawAuthority
}

// parseOptions extracts the recognized Options fields from a generic
// string-keyed map, in the style the original's env-map handling follows,
// passing through any key carrying the collaborator configuration prefix.
func parseOptions(raw map[string]string) *Options {
	opts := &Options{Passthrough: map[string]string{}}
	for k, v := range raw {
		switch k {
		case "domain":
			opts.Domain = v
		case "username":
			opts.Username = v
		case "password":
			opts.Password = v
		case "smb.watchservice.enabled":
			opts.WatchServiceEnabled = v == "true" || v == "1"
		case "smb.watchservice.pollInterval":
			opts.WatchServicePollInterval = parseMillis(v)
		default:
			if strings.HasPrefix(k, "smb2.") {
				opts.Passthrough[k] = v
			}
		}
	}
	return opts
}

func parseMillis(s string) int64 {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	return n
}
