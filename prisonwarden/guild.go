package prisonwarden

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNoInviteChannel indicates a guild has no invite channel
	// configured, so one-time invites can't be created for it.
	ErrNoInviteChannel = errors.New("no invite channel configured")

	// ErrNoModlogChannel indicates a guild has no modlog channel
	// configured for the event in question.
	ErrNoModlogChannel = errors.New("no modlog channel configured")
)

// GuildConfig holds per-guild settings. Rows are seeded with the 'init'
// subcommand and are read-only from the bot's perspective.
type GuildConfig struct {
	GuildID         string `json:"guild_id" gorm:"column:server_id;primaryKey;type:string"`
	InviteChannelID string `json:"invite_channel_id" gorm:"column:invite_channel_id"`

	ModelUnixTime
}

func (GuildConfig) TableName() string {
	return "config"
}

// ModlogChannels holds the per-guild channels receiving automated event
// notifications. Empty columns disable the corresponding log.
//
//nolint:lll // struct tags can't be split
type ModlogChannels struct {
	GuildID                string `json:"guild_id" gorm:"column:server_id;primaryKey;type:string"`
	InviteCreatesChannelID string `json:"invite_creates_channel_id" gorm:"column:invite_creates_channel_id"`
	InviteDeletesChannelID string `json:"invite_deletes_channel_id" gorm:"column:invite_deletes_channel_id"`
	MemberJoinsChannelID   string `json:"member_joins_channel_id" gorm:"column:member_joins_channel_id"`

	ModelUnixTime
}

func (ModlogChannels) TableName() string {
	return "modlog_channels"
}

// AppealRole marks a guild role whose holders are currently undergoing the
// ban-appeal process.
type AppealRole struct {
	ModelUintID

	GuildID string `json:"guild_id" gorm:"column:server_id;index"`
	RoleID  string `json:"role_id" gorm:"column:role_id"`

	ModelUnixTime
}

func (AppealRole) TableName() string {
	return "appeals_roles"
}

// InviteChannelID returns the configured invite channel for the guild, or
// ErrNoInviteChannel when the guild has no (non-empty) row.
func InviteChannelID(
	ctx context.Context,
	db *gorm.DB,
	guildID string,
) (string, error) {
	var config GuildConfig
	err := db.WithContext(ctx).Where(
		"server_id = ?",
		guildID,
	).First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoInviteChannel
		}
		return "", err
	}
	if config.InviteChannelID == "" {
		return "", ErrNoInviteChannel
	}
	return config.InviteChannelID, nil
}

// GetModlogChannels returns the guild's modlog channel row, or
// ErrNoModlogChannel when none exists.
func GetModlogChannels(
	ctx context.Context,
	db *gorm.DB,
	guildID string,
) (ModlogChannels, error) {
	var channels ModlogChannels
	err := db.WithContext(ctx).Where(
		"server_id = ?",
		guildID,
	).First(&channels).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return channels, ErrNoModlogChannel
		}
		return channels, err
	}
	return channels, nil
}

// AppealRoleIDs returns the guild's configured appeal role IDs.
func AppealRoleIDs(
	ctx context.Context,
	db *gorm.DB,
	guildID string,
) ([]string, error) {
	var roles []AppealRole
	err := db.WithContext(ctx).Where(
		"server_id = ?",
		guildID,
	).Find(&roles).Error
	if err != nil {
		return nil, err
	}
	roleIDs := make([]string, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.RoleID)
	}
	return roleIDs, nil
}
