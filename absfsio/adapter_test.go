package absfsio

import (
	"context"
	"os"
	"testing"

	"github.com/absfs/fstesting"

	smbfs "github.com/jfrommann/smbnio"
	"github.com/jfrommann/smbnio/internal/smbtest"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	registry := smbfs.NewRegistry()
	fsys, err := registry.NewFileSystem(context.Background(), "smb://absfsio-test/", nil, smbtest.New())
	if err != nil {
		t.Fatalf("NewFileSystem: %v", err)
	}
	t.Cleanup(func() { fsys.Close() })
	return New(fsys, context.Background())
}

func TestFSTestingSuite(t *testing.T) {
	suite := &fstesting.Suite{
		FS: newTestAdapter(t),
		Features: fstesting.Features{
			Symlinks:      false,
			HardLinks:     false,
			Permissions:   false, // Chmod/Chown are unsupported; see DESIGN.md
			Timestamps:    true,
			CaseSensitive: true,
			AtomicRename:  true,
			SparseFiles:   false,
			LargeFiles:    true,
		},
		TestDir:     "/fstesting",
		KeepTestDir: false,
	}
	suite.Run(t)
}

func TestFSTestingQuickCheck(t *testing.T) {
	suite := &fstesting.Suite{FS: newTestAdapter(t)}
	suite.QuickCheck(t)
}

func TestFlagsFromOS(t *testing.T) {
	tests := []struct {
		name string
		flag int
		want smbfs.OpenFlags
	}{
		{"read-only", os.O_RDONLY, smbfs.OpenFlags{Read: true}},
		{"write-only", os.O_WRONLY, smbfs.OpenFlags{Write: true}},
		{"read-write", os.O_RDWR, smbfs.OpenFlags{Read: true, Write: true}},
		{"create", os.O_RDWR | os.O_CREATE, smbfs.OpenFlags{Read: true, Write: true, Create: true}},
		{"create-new", os.O_RDWR | os.O_CREATE | os.O_EXCL, smbfs.OpenFlags{Read: true, Write: true, CreateNew: true}},
		{"append", os.O_WRONLY | os.O_APPEND, smbfs.OpenFlags{Write: true, Append: true}},
		{"truncate", os.O_RDWR | os.O_TRUNC, smbfs.OpenFlags{Read: true, Write: true, TruncateExisting: true}},
		{"sync", os.O_RDONLY | os.O_SYNC, smbfs.OpenFlags{Read: true, Sync: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flagsFromOS(tt.flag); got != tt.want {
				t.Errorf("flagsFromOS(%#o) = %+v, want %+v", tt.flag, got, tt.want)
			}
		})
	}
}

// TestOpenRejectsSync confirms os.O_SYNC surfaces as Unsupported through
// the adapter rather than being silently honored or dropped.
func TestOpenRejectsSync(t *testing.T) {
	a := newTestAdapter(t)
	if _, err := a.OpenFile("/sync.txt", os.O_RDWR|os.O_CREATE|os.O_SYNC, 0644); !smbfs.IsKind(err, smbfs.Unsupported) {
		t.Errorf("OpenFile with O_SYNC = %v, want Unsupported", err)
	}
}
