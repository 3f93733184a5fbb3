package models

import (
	"fmt"
	"strconv"
	"strings"
)

// PermissionKind tags a guild channel permission.
type PermissionKind string

const (
	PermissionRead  PermissionKind = "read"
	PermissionWrite PermissionKind = "write"
)

// Permission grants one capability on one guild channel.
type Permission struct {
	Kind      PermissionKind `json:"kind" gorm:"size:8;not null;uniqueIndex:idx_role_permission,priority:2"`
	ChannelID int64          `json:"channelId" gorm:"not null;uniqueIndex:idx_role_permission,priority:3;index:idx_permission_channel"`
}

// Read builds the read permission for a guild channel.
func Read(channelID int64) Permission {
	return Permission{Kind: PermissionRead, ChannelID: channelID}
}

// Write builds the write permission for a guild channel.
func Write(channelID int64) Permission {
	return Permission{Kind: PermissionWrite, ChannelID: channelID}
}

// Valid reports whether the permission names a known kind.
func (p Permission) Valid() bool {
	return p.Kind == PermissionRead || p.Kind == PermissionWrite
}

func (p Permission) String() string {
	return fmt.Sprintf("%s:%d", p.Kind, p.ChannelID)
}

// ParsePermission reads the "kind:channel" form produced by String.
func ParsePermission(s string) (Permission, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return Permission{}, fmt.Errorf("invalid permission %q", s)
	}
	channelID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Permission{}, fmt.Errorf("invalid permission channel %q: %w", id, err)
	}
	p := Permission{Kind: PermissionKind(strings.ToLower(kind)), ChannelID: channelID}
	if !p.Valid() {
		return Permission{}, fmt.Errorf("invalid permission kind %q", kind)
	}
	return p, nil
}
