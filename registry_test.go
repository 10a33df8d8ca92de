package smbfs

import (
	"context"
	"testing"

	"github.com/jfrommann/smbnio/internal/smbtest"
)

func TestRegistry_NewFileSystem_DuplicateAuthorityFails(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	fsys, err := registry.NewFileSystem(ctx, "smb://dup-test/", nil, smbtest.New())
	if err != nil {
		t.Fatalf("NewFileSystem: %v", err)
	}
	defer fsys.Close()

	if _, err := registry.NewFileSystem(ctx, "smb://dup-test/", nil, smbtest.New()); !IsKind(err, AlreadyExists) {
		t.Errorf("second NewFileSystem() err = %v, want AlreadyExists", err)
	}
}

func TestRegistry_NewFileSystem_RejectsNonSMBScheme(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.NewFileSystem(context.Background(), "http://server/share", nil, smbtest.New()); !IsKind(err, InvalidArgument) {
		t.Errorf("NewFileSystem() err = %v, want InvalidArgument", err)
	}
}

func TestRegistry_GetFileSystem(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	fsys, err := registry.NewFileSystem(ctx, "smb://get-test/", nil, smbtest.New())
	if err != nil {
		t.Fatalf("NewFileSystem: %v", err)
	}
	defer fsys.Close()

	got, err := registry.GetFileSystem("smb://get-test/", nil)
	if err != nil {
		t.Fatalf("GetFileSystem: %v", err)
	}
	if got != fsys {
		t.Error("GetFileSystem() returned a different handle than NewFileSystem produced")
	}

	if _, err := registry.GetFileSystem("smb://never-registered/", nil); !IsKind(err, NotFound) {
		t.Errorf("GetFileSystem() on a miss err = %v, want NotFound", err)
	}
}

func TestRegistry_SetDefaultCredentials(t *testing.T) {
	registry := NewRegistry()
	registry.SetDefaultCredentials("CORP", "alice", "secret")

	fsys, err := registry.NewFileSystem(context.Background(), "smb://cred-test/", nil, smbtest.New())
	if err != nil {
		t.Fatalf("NewFileSystem: %v", err)
	}
	defer fsys.Close()

	want := "CORP;alice:secret@cred-test"
	if got := fsys.Identifier(); got != want {
		t.Errorf("Identifier() = %q, want %q", got, want)
	}
}
