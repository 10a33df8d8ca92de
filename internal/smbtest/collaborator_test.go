package smbtest

import (
	"context"
	"testing"

	smbfs "github.com/jfrommann/smbnio"
)

func TestCollaborator_CreateReadWriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := New()

	if err := c.CreateNewFile(ctx, "file.txt"); err != nil {
		t.Fatalf("CreateNewFile: %v", err)
	}

	handle, err := c.Open(ctx, "file.txt", smbfs.OpenFlags{Write: true})
	if err != nil {
		t.Fatalf("Open for write: %v", err)
	}
	if _, err := handle.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := handle.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	handle, err = c.Open(ctx, "file.txt", smbfs.OpenFlags{Read: true})
	if err != nil {
		t.Fatalf("Open for read: %v", err)
	}
	defer handle.Close()
	buf := make([]byte, 5)
	if _, err := handle.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("Read content = %q, want %q", buf, "hello")
	}
}

func TestCollaborator_CreateNewFileFailsWhenExists(t *testing.T) {
	ctx := context.Background()
	c := New()

	if err := c.CreateNewFile(ctx, "dup.txt"); err != nil {
		t.Fatalf("first CreateNewFile: %v", err)
	}
	if err := c.CreateNewFile(ctx, "dup.txt"); err == nil {
		t.Fatal("second CreateNewFile: want error, got nil")
	}
}

func TestCollaborator_MkdirAndListChildren(t *testing.T) {
	ctx := context.Background()
	c := New()

	if err := c.Mkdir(ctx, "dir"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := c.CreateNewFile(ctx, "dir/a.txt"); err != nil {
		t.Fatalf("CreateNewFile: %v", err)
	}

	isDir, err := c.IsDirectory(ctx, "dir")
	if err != nil {
		t.Fatalf("IsDirectory: %v", err)
	}
	if !isDir {
		t.Fatal("IsDirectory(dir) = false, want true")
	}

	names, err := c.ListChildrenNames(ctx, "dir")
	if err != nil {
		t.Fatalf("ListChildrenNames: %v", err)
	}
	if len(names) != 1 || names[0] != "a.txt" {
		t.Fatalf("ListChildrenNames = %v, want [a.txt]", names)
	}
}

func TestCollaborator_HiddenAndReadOnlyAttributes(t *testing.T) {
	ctx := context.Background()
	c := New()

	if err := c.CreateNewFile(ctx, "secret.txt"); err != nil {
		t.Fatalf("CreateNewFile: %v", err)
	}
	c.SetHidden("secret.txt", true)
	c.SetReadOnly("secret.txt", true)

	hidden, err := c.IsHidden(ctx, "secret.txt")
	if err != nil {
		t.Fatalf("IsHidden: %v", err)
	}
	if !hidden {
		t.Fatal("IsHidden = false, want true")
	}

	canWrite, err := c.CanWrite(ctx, "secret.txt")
	if err != nil {
		t.Fatalf("CanWrite: %v", err)
	}
	if canWrite {
		t.Fatal("CanWrite = true, want false")
	}

	bits, err := c.AttributesBitfield(ctx, "secret.txt")
	if err != nil {
		t.Fatalf("AttributesBitfield: %v", err)
	}
	if bits&smbfs.FILE_ATTRIBUTE_HIDDEN == 0 {
		t.Error("AttributesBitfield missing FILE_ATTRIBUTE_HIDDEN")
	}
	if bits&smbfs.FILE_ATTRIBUTE_READONLY == 0 {
		t.Error("AttributesBitfield missing FILE_ATTRIBUTE_READONLY")
	}
}

func TestCollaborator_RenameAndCopy(t *testing.T) {
	ctx := context.Background()
	c := New()

	if err := c.CreateNewFile(ctx, "src.txt"); err != nil {
		t.Fatalf("CreateNewFile: %v", err)
	}
	if err := c.CopyTo(ctx, "src.txt", "copy.txt", false); err != nil {
		t.Fatalf("CopyTo: %v", err)
	}
	if exists, _ := c.Exists(ctx, "copy.txt"); !exists {
		t.Fatal("copy.txt does not exist after CopyTo")
	}

	if err := c.RenameTo(ctx, "copy.txt", "renamed.txt", false); err != nil {
		t.Fatalf("RenameTo: %v", err)
	}
	if exists, _ := c.Exists(ctx, "copy.txt"); exists {
		t.Fatal("copy.txt still exists after RenameTo")
	}
	if exists, _ := c.Exists(ctx, "renamed.txt"); !exists {
		t.Fatal("renamed.txt does not exist after RenameTo")
	}
}
