package smbfs

import (
	"context"
	"fmt"
)

// ShareType represents the type of SMB share.
type ShareType uint32

const (
	// ShareTypeDisk represents a disk share (standard file share).
	ShareTypeDisk ShareType = 0x00000000

	// ShareTypePrintQueue represents a print queue share.
	ShareTypePrintQueue ShareType = 0x00000001

	// ShareTypeDevice represents a communication device share.
	ShareTypeDevice ShareType = 0x00000002

	// ShareTypeIPC represents an IPC share (named pipes).
	ShareTypeIPC ShareType = 0x00000003

	// ShareTypeSpecial represents special shares (admin shares: C$, IPC$, etc.).
	ShareTypeSpecial ShareType = 0x80000000

	// ShareTypeTemporary represents a temporary share.
	ShareTypeTemporary ShareType = 0x40000000
)

// String returns a human-readable string for the share type.
func (st ShareType) String() string {
	switch st {
	case ShareTypeDisk:
		return "Disk"
	case ShareTypePrintQueue:
		return "Print Queue"
	case ShareTypeDevice:
		return "Device"
	case ShareTypeIPC:
		return "IPC"
	case ShareTypeSpecial:
		return "Special"
	case ShareTypeTemporary:
		return "Temporary"
	default:
		return fmt.Sprintf("Unknown(%d)", st)
	}
}

// ShareInfo describes one share visible on the server this FileSystem is
// bound to. Administrative shares (names ending in "$") are classified as
// ShareTypeSpecial; everything else is assumed to be a disk share, since
// the narrow Collaborator interface has no share-type query of its own
// (full MS-SRVS NetShareEnum semantics are out of scope — see DESIGN.md).
type ShareInfo struct {
	Name string
	Type ShareType
}

// ListShareInfo lists the server's shares with a best-effort ShareType
// classification, building on FileSystem.Shares.
func (fsys *FileSystem) ListShareInfo(ctx context.Context) ([]ShareInfo, error) {
	names, err := fsys.Shares(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]ShareInfo, len(names))
	for i, name := range names {
		st := ShareTypeDisk
		if len(name) > 0 && name[len(name)-1] == '$' {
			st = ShareTypeSpecial
		}
		infos[i] = ShareInfo{Name: name, Type: st}
	}
	return infos, nil
}
