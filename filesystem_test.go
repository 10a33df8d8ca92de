package smbfs

import (
	"context"
	"testing"

	"github.com/jfrommann/smbnio/internal/smbtest"
)

func newTestFileSystem(t *testing.T) *FileSystem {
	t.Helper()
	registry := NewRegistry()
	fsys, err := registry.NewFileSystem(context.Background(), "smb://filesystem-test/", nil, smbtest.New())
	if err != nil {
		t.Fatalf("NewFileSystem: %v", err)
	}
	t.Cleanup(func() { fsys.Close() })
	return fsys
}

func TestFileSystem_Identifier(t *testing.T) {
	fsys := newTestFileSystem(t)
	if got := fsys.Identifier(); got != "filesystem-test" {
		t.Errorf("Identifier() = %q, want %q", got, "filesystem-test")
	}
}

func TestFileSystem_CloseRemovesFromRegistry(t *testing.T) {
	registry := NewRegistry()
	fsys, err := registry.NewFileSystem(context.Background(), "smb://close-test/", nil, smbtest.New())
	if err != nil {
		t.Fatalf("NewFileSystem: %v", err)
	}
	if !fsys.IsOpen() {
		t.Fatal("IsOpen() = false immediately after NewFileSystem")
	}
	if err := fsys.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fsys.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}
	if registry.Contains("close-test") {
		t.Error("registry still contains the FileSystem after Close")
	}
}

func TestFileSystem_MkdirExistsDelete(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	p := fsys.NewPath("/dir")

	if ok, err := fsys.Exists(ctx, p); err != nil || ok {
		t.Fatalf("Exists() = %v, %v, want false, nil", ok, err)
	}
	if err := fsys.Mkdir(ctx, p); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if ok, err := fsys.Exists(ctx, p); err != nil || !ok {
		t.Fatalf("Exists() after Mkdir = %v, %v, want true, nil", ok, err)
	}
	if err := fsys.Delete(ctx, p); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, err := fsys.Exists(ctx, p); err != nil || ok {
		t.Fatalf("Exists() after Delete = %v, %v, want false, nil", ok, err)
	}
}

func TestFileSystem_CopyRefusesExistingTargetWithoutReplace(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	src := fsys.NewPath("/a.txt")
	dst := fsys.NewPath("/b.txt")

	writeTestFile(t, fsys, src, "payload")
	writeTestFile(t, fsys, dst, "existing")

	if err := fsys.Copy(ctx, src, dst, CopyOptions{}); !IsKind(err, AlreadyExists) {
		t.Fatalf("Copy() err = %v, want AlreadyExists", err)
	}
	if err := fsys.Copy(ctx, src, dst, CopyOptions{ReplaceExisting: true}); err != nil {
		t.Fatalf("Copy with ReplaceExisting: %v", err)
	}
}

func TestFileSystem_MoveRenamesPath(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	src := fsys.NewPath("/old.txt")
	dst := fsys.NewPath("/new.txt")
	writeTestFile(t, fsys, src, "payload")

	if err := fsys.Move(ctx, src, dst, CopyOptions{}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if ok, _ := fsys.Exists(ctx, src); ok {
		t.Error("source still exists after Move")
	}
	if ok, _ := fsys.Exists(ctx, dst); !ok {
		t.Error("target does not exist after Move")
	}
}

func TestFileSystem_ReadAttributesReportsDirectoryAndSize(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	dir := fsys.NewPath("/adir")
	file := fsys.NewPath("/adir/afile")

	if err := fsys.Mkdir(ctx, dir); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	writeTestFile(t, fsys, file, "hello")

	dirAttrs, err := fsys.ReadAttributes(ctx, dir)
	if err != nil {
		t.Fatalf("ReadAttributes(dir): %v", err)
	}
	if !dirAttrs.IsDirectory() {
		t.Error("dir attributes do not report IsDirectory")
	}

	fileAttrs, err := fsys.ReadAttributes(ctx, file)
	if err != nil {
		t.Fatalf("ReadAttributes(file): %v", err)
	}
	if fileAttrs.Size != int64(len("hello")) {
		t.Errorf("file Size = %d, want %d", fileAttrs.Size, len("hello"))
	}
}

func TestFileSystem_ReadAttributeViewRejectsUnknownName(t *testing.T) {
	fsys := newTestFileSystem(t)
	p := fsys.NewPath("/x")
	if _, err := fsys.ReadAttributeView(context.Background(), p, "posix"); !IsKind(err, Unsupported) {
		t.Errorf("ReadAttributeView(posix) err = %v, want Unsupported", err)
	}
}

func TestFileSystem_OperationsFailAfterClose(t *testing.T) {
	fsys := newTestFileSystem(t)
	fsys.Close()

	if _, err := fsys.Exists(context.Background(), fsys.NewPath("/x")); !IsKind(err, ClosedFileSystem) {
		t.Errorf("Exists() after Close err = %v, want ClosedFileSystem", err)
	}
}

func writeTestFile(t *testing.T, fsys *FileSystem, p *Path, content string) {
	t.Helper()
	ch, err := fsys.NewByteChannel(context.Background(), p, OpenFlags{Write: true, Create: true, TruncateExisting: true})
	if err != nil {
		t.Fatalf("NewByteChannel(%s): %v", p.render(), err)
	}
	defer ch.Close()
	if _, err := ch.Write([]byte(content)); err != nil {
		t.Fatalf("Write(%s): %v", p.render(), err)
	}
}
