package models

import (
	"time"
)

// Guild groups channels under a role based permission system
type Guild struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:64;not null"`
	Owner     Identity  `json:"owner" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// GuildMember is indexed both ways: the primary key leads with the user,
// idx_guild_member_guild leads with the guild.
type GuildMember struct {
	UserID  Identity `json:"userId" gorm:"primaryKey;index:idx_guild_member_guild,priority:2"`
	GuildID int64    `json:"guildId" gorm:"primaryKey;autoIncrement:false;index:idx_guild_member_guild,priority:1"`
}

// GuildChannel belongs to exactly one guild
type GuildChannel struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	GuildID   int64     `json:"guildId" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"size:64;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// GuildRole belongs to exactly one guild. Color carries up to 30 bits, no alpha.
type GuildRole struct {
	ID      int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	GuildID int64  `json:"guildId" gorm:"not null;index"`
	Name    string `json:"name" gorm:"size:64;not null"`
	Color   uint32 `json:"color" gorm:"not null;default:0"`
}

// MaxRoleColor is the first color value that does not fit in 30 bits.
const MaxRoleColor = 1 << 30

// GuildPermission attaches a permission to a role; (role, permission) is unique.
type GuildPermission struct {
	ID         int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	RoleID     int64      `json:"roleId" gorm:"not null;uniqueIndex:idx_role_permission,priority:1"`
	Permission Permission `json:"permission" gorm:"embedded"`
}

// GuildMemberRole assigns a role to a user. GuildID is carried so that
// leaving a guild can drop its assignments without a join.
type GuildMemberRole struct {
	UserID  Identity `json:"userId" gorm:"primaryKey;index:idx_member_role_role,priority:2"`
	RoleID  int64    `json:"roleId" gorm:"primaryKey;autoIncrement:false;index:idx_member_role_role,priority:1"`
	GuildID int64    `json:"guildId" gorm:"not null;index"`
}

// GuildMessage is one entry of a guild channel's append-only log
type GuildMessage struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Sender    string    `json:"sender" gorm:"size:64;not null"`
	ChannelID int64     `json:"channelId" gorm:"not null;index"`
	Sent      time.Time `json:"sent" gorm:"not null"`
	Text      string    `json:"text" gorm:"not null"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Friend{},
		&FriendRequest{},
		&Channel{},
		&Member{},
		&Message{},
		&Guild{},
		&GuildMember{},
		&GuildChannel{},
		&GuildRole{},
		&GuildPermission{},
		&GuildMemberRole{},
		&GuildMessage{},
	}
}

// TableName overrides the table name for Guild
func (Guild) TableName() string {
	return "guilds"
}

// TableName overrides the table name for GuildMember
func (GuildMember) TableName() string {
	return "guild_members"
}

// TableName overrides the table name for GuildChannel
func (GuildChannel) TableName() string {
	return "guild_channels"
}

// TableName overrides the table name for GuildRole
func (GuildRole) TableName() string {
	return "guild_roles"
}

// TableName overrides the table name for GuildPermission
func (GuildPermission) TableName() string {
	return "guild_permissions"
}

// TableName overrides the table name for GuildMemberRole
func (GuildMemberRole) TableName() string {
	return "guild_member_roles"
}

// TableName overrides the table name for GuildMessage
func (GuildMessage) TableName() string {
	return "guild_messages"
}
