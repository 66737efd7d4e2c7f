package prisonwarden

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Identity is the subset of a Discord member or user that the bot actually
// uses. Gateway payloads sometimes carry a full member, sometimes a bare
// user; handlers normalize to this type instead of branching on which
// fields happen to be populated.
type Identity struct {
	// ID is the Discord user ID (snowflake).
	ID string

	// Username is the account name, not unique for display purposes.
	Username string

	// DisplayName is the guild nickname or global display name, falling
	// back to the username.
	DisplayName string

	// JoinedAt is when the member joined the guild. Zero for identities
	// built from bare users (ex: unban targets no longer in the guild).
	JoinedAt time.Time

	// AvatarURL references the user's avatar image, if known.
	AvatarURL string
}

// IdentityFromMember builds an Identity from a guild member payload.
func IdentityFromMember(m *discordgo.Member) Identity {
	identity := Identity{JoinedAt: m.JoinedAt}
	if m.User != nil {
		identity.ID = m.User.ID
		identity.Username = m.User.Username
		identity.DisplayName = m.User.GlobalName
		identity.AvatarURL = m.User.AvatarURL("")
	}
	if m.Nick != "" {
		identity.DisplayName = m.Nick
	}
	if identity.DisplayName == "" {
		identity.DisplayName = identity.Username
	}
	return identity
}

// IdentityFromUser builds an Identity from a bare user payload. JoinedAt
// is left zero.
func IdentityFromUser(u *discordgo.User) Identity {
	displayName := u.GlobalName
	if displayName == "" {
		displayName = u.Username
	}
	return Identity{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: displayName,
		AvatarURL:   u.AvatarURL(""),
	}
}

func (i Identity) String() string {
	if i.DisplayName != "" && i.DisplayName != i.Username {
		return fmt.Sprintf("%s (%s)", i.DisplayName, i.Username)
	}
	return i.Username
}

// Mention returns the user mention string for the identity.
func (i Identity) Mention() string {
	return "<@" + i.ID + ">"
}

func (i Identity) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", i.ID),
		slog.String("username", i.Username),
		slog.String("display_name", i.DisplayName),
	)
}
