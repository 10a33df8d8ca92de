package smbfs

import (
	"context"
	"testing"
)

func TestSeekableByteChannel_WriteReadSeek(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	p := fsys.NewPath("/channel.txt")

	ch, err := fsys.NewByteChannel(ctx, p, OpenFlags{Write: true, Create: true, TruncateExisting: true})
	if err != nil {
		t.Fatalf("NewByteChannel: %v", err)
	}

	if n, err := ch.Write([]byte("hello world")); err != nil || n != len("hello world") {
		t.Fatalf("Write() = %d, %v, want %d, nil", n, err, len("hello world"))
	}
	if size, err := ch.Size(); err != nil || size != int64(len("hello world")) {
		t.Fatalf("Size() = %d, %v, want %d, nil", size, err, len("hello world"))
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ch, err = fsys.NewByteChannel(ctx, p, OpenFlags{Read: true})
	if err != nil {
		t.Fatalf("NewByteChannel for read: %v", err)
	}
	defer ch.Close()

	if err := ch.Seek(6); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if pos, err := ch.Position(); err != nil || pos != 6 {
		t.Fatalf("Position() = %d, %v, want 6, nil", pos, err)
	}

	buf := make([]byte, 5)
	if n, err := ch.Read(buf); err != nil || string(buf[:n]) != "world" {
		t.Fatalf("Read() = %q, %v, want %q, nil", buf[:n], err, "world")
	}
}

func TestSeekableByteChannel_Truncate(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	p := fsys.NewPath("/truncate.txt")
	writeTestFile(t, fsys, p, "0123456789")

	ch, err := fsys.NewByteChannel(ctx, p, OpenFlags{Write: true})
	if err != nil {
		t.Fatalf("NewByteChannel: %v", err)
	}
	defer ch.Close()

	if err := ch.Truncate(4); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if size, err := ch.Size(); err != nil || size != 4 {
		t.Fatalf("Size() after Truncate = %d, %v, want 4, nil", size, err)
	}
}

func TestFileSystem_NewByteChannelRejectsUnsupportedOpenOptions(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	p := fsys.NewPath("/unsupported.txt")

	tests := []struct {
		name  string
		flags OpenFlags
	}{
		{"sync", OpenFlags{Read: true, Sync: true}},
		{"dsync", OpenFlags{Read: true, Dsync: true}},
		{"sparse", OpenFlags{Write: true, Create: true, Sparse: true}},
		{"delete-on-close", OpenFlags{Read: true, DeleteOnClose: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fsys.NewByteChannel(ctx, p, tt.flags); !IsKind(err, Unsupported) {
				t.Errorf("NewByteChannel(%+v) = %v, want Unsupported", tt.flags, err)
			}
		})
	}
}

func TestSeekableByteChannel_CloseIsIdempotentAndBlocksFurtherUse(t *testing.T) {
	ctx := context.Background()
	fsys := newTestFileSystem(t)
	p := fsys.NewPath("/closed.txt")
	writeTestFile(t, fsys, p, "data")

	ch, err := fsys.NewByteChannel(ctx, p, OpenFlags{Read: true})
	if err != nil {
		t.Fatalf("NewByteChannel: %v", err)
	}

	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if ch.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}

	if _, err := ch.Read(make([]byte, 1)); !IsKind(err, ClosedChannel) {
		t.Errorf("Read() after Close err = %v, want ClosedChannel", err)
	}
	if _, err := ch.Write([]byte("x")); !IsKind(err, ClosedChannel) {
		t.Errorf("Write() after Close err = %v, want ClosedChannel", err)
	}
	if err := ch.Seek(0); !IsKind(err, ClosedChannel) {
		t.Errorf("Seek() after Close err = %v, want ClosedChannel", err)
	}
}
