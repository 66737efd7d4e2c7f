package prisonwarden

import (
	"context"
	"log/slog"

	"gorm.io/gorm"
)

// JoinLog is an append-only record of one observed member join event.
//
//nolint:lll // struct tags can't be split
type JoinLog struct {
	ModelUintID

	GuildID string `json:"guild_id" gorm:"column:server_id;index:idx_joins_guild_user"`
	UserID  string `json:"user_id" gorm:"column:user_id;index:idx_joins_guild_user"`

	// JoinedAt is the join timestamp reported by the gateway, in Unix
	// milliseconds.
	JoinedAt int64 `json:"joined_at" gorm:"column:joined_at"`

	// MessageLink is a jump link to the modlog message posted for this
	// join, if a member-joins modlog channel was configured at the time.
	MessageLink string `json:"message_link" gorm:"column:message_link"`

	ModelUnixTime
}

func (JoinLog) TableName() string {
	return "joins"
}

func (j JoinLog) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(j.ID)),
		slog.String("server_id", j.GuildID),
		slog.String("user_id", j.UserID),
		slog.Int64("joined_at", j.JoinedAt),
	)
}

// JoinsForUser returns the recorded join events for the given user in the
// given guild, newest first.
func JoinsForUser(
	ctx context.Context,
	db *gorm.DB,
	guildID string,
	userID string,
) ([]JoinLog, error) {
	var joins []JoinLog
	err := db.WithContext(ctx).Where(
		"server_id = ? AND user_id = ?",
		guildID,
		userID,
	).Order("joined_at desc").Find(&joins).Error
	return joins, err
}
