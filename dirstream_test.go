package smbfs

import (
	"context"
	"testing"
)

func TestDirectoryStream_ListsChildrenAndAppliesMatcher(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	dir := fsys.NewPath("/list")

	if err := fsys.Mkdir(ctx, dir); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	writeTestFile(t, fsys, fsys.NewPath("/list/a.txt"), "a")
	writeTestFile(t, fsys, fsys.NewPath("/list/b.log"), "b")

	ds, err := fsys.NewDirectoryStream(ctx, dir, nil)
	if err != nil {
		t.Fatalf("NewDirectoryStream: %v", err)
	}
	entries, err := ds.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	matcher, err := NewPathMatcher("glob:*.txt")
	if err != nil {
		t.Fatalf("NewPathMatcher: %v", err)
	}
	filtered, err := fsys.NewDirectoryStream(ctx, dir, matcher)
	if err != nil {
		t.Fatalf("NewDirectoryStream with matcher: %v", err)
	}
	filteredEntries, err := filtered.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(filteredEntries) != 1 || filteredEntries[0].Path.FileName().String() != "a.txt" {
		t.Fatalf("filtered entries = %v, want exactly a.txt", filteredEntries)
	}
}

func TestDirectoryStream_RejectsNonDirectory(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	p := fsys.NewPath("/file.txt")
	writeTestFile(t, fsys, p, "data")

	if _, err := fsys.NewDirectoryStream(ctx, p, nil); !IsKind(err, NotADirectory) {
		t.Errorf("NewDirectoryStream(file) err = %v, want NotADirectory", err)
	}
}

func TestDirectoryStream_EntriesIsOneShot(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	dir := fsys.NewPath("/oneshot")
	if err := fsys.Mkdir(ctx, dir); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	ds, err := fsys.NewDirectoryStream(ctx, dir, nil)
	if err != nil {
		t.Fatalf("NewDirectoryStream: %v", err)
	}
	if _, err := ds.Entries(); err != nil {
		t.Fatalf("first Entries(): %v", err)
	}
	if _, err := ds.Entries(); err == nil {
		t.Error("second Entries() expected an error, got nil")
	}
}

func TestDirectoryStream_EntriesFailsAfterClose(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	dir := fsys.NewPath("/closed-stream")
	if err := fsys.Mkdir(ctx, dir); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	ds, err := fsys.NewDirectoryStream(ctx, dir, nil)
	if err != nil {
		t.Fatalf("NewDirectoryStream: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := ds.Entries(); err == nil {
		t.Error("Entries() after Close expected an error, got nil")
	}
}
