package smbfs

import (
	"reflect"
	"testing"
)

func TestBuildAuthority(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		opts    *Options
		dflt    *defaultCredentials
		want    string
	}{
		{
			name: "URI authority already carries credentials wins verbatim",
			raw:  "user:pass@server",
			opts: &Options{Username: "other"},
			want: "user:pass@server",
		},
		{
			name: "options credentials take precedence over defaults",
			raw:  "server",
			opts: &Options{Username: "alice", Password: "secret"},
			dflt: &defaultCredentials{username: "bob", password: "other"},
			want: "alice:secret@server",
		},
		{
			name: "options domain and username",
			raw:  "server",
			opts: &Options{Domain: "CORP", Username: "alice"},
			want: "CORP;alice@server",
		},
		{
			name: "defaults used when options supply no credentials",
			raw:  "server",
			opts: &Options{},
			dflt: &defaultCredentials{username: "bob", password: "pw"},
			want: "bob:pw@server",
		},
		{
			name: "no credentials anywhere returns raw authority",
			raw:  "server",
			want: "server",
		},
		{
			name: "username is URL-escaped",
			raw:  "server",
			opts: &Options{Username: "dom\\user"},
			want: "dom%5Cuser@server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildAuthority(tt.raw, tt.opts, tt.dflt); got != tt.want {
				t.Errorf("buildAuthority(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseOptions(t *testing.T) {
	raw := map[string]string{
		"domain":                         "CORP",
		"username":                       "alice",
		"password":                       "secret",
		"smb.watchservice.enabled":       "true",
		"smb.watchservice.pollInterval":  "5000",
		"smb2.maxOpen":                   "20",
		"unrecognized.key":               "ignored",
	}

	opts := parseOptions(raw)

	if opts.Domain != "CORP" {
		t.Errorf("Domain = %q, want %q", opts.Domain, "CORP")
	}
	if opts.Username != "alice" {
		t.Errorf("Username = %q, want %q", opts.Username, "alice")
	}
	if opts.Password != "secret" {
		t.Errorf("Password = %q, want %q", opts.Password, "secret")
	}
	if !opts.WatchServiceEnabled {
		t.Error("WatchServiceEnabled = false, want true")
	}
	if opts.WatchServicePollInterval != 5000 {
		t.Errorf("WatchServicePollInterval = %d, want 5000", opts.WatchServicePollInterval)
	}
	if want := (map[string]string{"smb2.maxOpen": "20"}); !reflect.DeepEqual(opts.Passthrough, want) {
		t.Errorf("Passthrough = %v, want %v", opts.Passthrough, want)
	}
}

func TestParseOptions_WatchServiceEnabledAcceptsNumericFlag(t *testing.T) {
	opts := parseOptions(map[string]string{"smb.watchservice.enabled": "1"})
	if !opts.WatchServiceEnabled {
		t.Error("WatchServiceEnabled = false, want true for \"1\"")
	}
}

func TestParseMillis(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1500", 1500},
		{"", 0},
		{"abc", 0},
		{"12x", 0},
	}

	for _, tt := range tests {
		if got := parseMillis(tt.in); got != tt.want {
			t.Errorf("parseMillis(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
