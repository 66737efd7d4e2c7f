package prisonwarden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// modlogChannelFor resolves the modlog channel for one event type, given a
// selector over the guild's ModlogChannels row. Returns "" (no error) when
// the guild has no row or the column is empty, so callers can skip quietly.
func (p *PrisonWarden) modlogChannelFor(
	ctx context.Context,
	guildID string,
	pick func(ModlogChannels) string,
) (string, error) {
	channels, err := GetModlogChannels(ctx, p.db, guildID)
	if err != nil {
		if errors.Is(err, ErrNoModlogChannel) {
			return "", nil
		}
		return "", err
	}
	return pick(channels), nil
}

// handlerInviteCreate posts an "Invite Created" embed to the guild's
// invite-creates modlog channel, when one is configured.
func (p *PrisonWarden) handlerInviteCreate() func(
	s *discordgo.Session,
	e *discordgo.InviteCreate,
) {
	return func(_ *discordgo.Session, e *discordgo.InviteCreate) {
		if e.GuildID == "" {
			return
		}
		ctx := context.Background()
		logger := p.logger.With(
			loggerNameKey, "invite_create",
			slog.String("guild_id", e.GuildID),
			slog.String("code", e.Code),
		)

		channelID, err := p.modlogChannelFor(
			ctx,
			e.GuildID,
			func(c ModlogChannels) string {
				return c.InviteCreatesChannelID
			},
		)
		if err != nil {
			logger.Error("error fetching modlog channels", tint.Err(err))
			return
		}
		if channelID == "" {
			return
		}
		if _, err = p.discord.session.Channel(channelID); err != nil {
			logger.Warn("modlog channel unavailable", tint.Err(err))
			return
		}

		inviterMention := "unknown"
		inviterID := ""
		if e.Inviter != nil {
			inviterMention = e.Inviter.Mention()
			inviterID = e.Inviter.ID
		}

		embed := p.baseEmbed(
			"Invite Created",
			fmt.Sprintf(
				"Invite for channel <#%s> created by %s",
				e.ChannelID,
				inviterMention,
			),
		)
		embed.Color = embedColorBlurple
		embed.Footer = embedFooter(
			fmt.Sprintf("Inviter ID: %s", inviterID), "",
		)
		embed.Fields = []*discordgo.MessageEmbedField{
			embedFieldInline("Temporary Membership?", yesNo(e.Temporary)),
			embedFieldInline("Expires?", expiresString(e.MaxAge)),
			embedFieldInline("Max Uses", maxUsesString(e.MaxUses)),
			embedField("URL", inviteURL(e.Invite)),
		}

		_, err = p.discord.session.ChannelMessageSendComplex(
			channelID,
			&discordgo.MessageSend{Content: inviterID, Embed: embed},
		)
		if err != nil {
			logger.Error("error posting invite-create log", tint.Err(err))
		}
	}
}

// handlerInviteDelete posts an "Invite Deleted" embed to the guild's
// invite-deletes modlog channel, when one is configured. The gateway
// payload for deletions carries only the channel and code, so the log is
// correspondingly sparse.
func (p *PrisonWarden) handlerInviteDelete() func(
	s *discordgo.Session,
	e *discordgo.InviteDelete,
) {
	return func(_ *discordgo.Session, e *discordgo.InviteDelete) {
		if e.GuildID == "" {
			return
		}
		ctx := context.Background()
		logger := p.logger.With(
			loggerNameKey, "invite_delete",
			slog.String("guild_id", e.GuildID),
			slog.String("code", e.Code),
		)

		channelID, err := p.modlogChannelFor(
			ctx,
			e.GuildID,
			func(c ModlogChannels) string {
				return c.InviteDeletesChannelID
			},
		)
		if err != nil {
			logger.Error("error fetching modlog channels", tint.Err(err))
			return
		}
		if channelID == "" {
			return
		}
		if _, err = p.discord.session.Channel(channelID); err != nil {
			logger.Warn("modlog channel unavailable", tint.Err(err))
			return
		}

		embed := p.baseEmbed(
			"Invite Deleted",
			fmt.Sprintf("Invite for channel <#%s> deleted", e.ChannelID),
		)
		embed.Color = embedColorGold
		embed.Footer = embedFooter(
			fmt.Sprintf("Invite Code: %s", e.Code), "",
		)
		embed.Fields = []*discordgo.MessageEmbedField{
			embedField(
				"URL",
				fmt.Sprintf("https://discord.gg/%s", e.Code),
			),
		}

		_, err = p.discord.session.ChannelMessageSendEmbed(channelID, embed)
		if err != nil {
			logger.Error("error posting invite-delete log", tint.Err(err))
		}
	}
}

// handlerGuildMemberAdd records a join-log row for the new member and, when
// a member-joins modlog channel is configured, posts a join embed and
// stores its jump link back on the row.
func (p *PrisonWarden) handlerGuildMemberAdd() func(
	s *discordgo.Session,
	e *discordgo.GuildMemberAdd,
) {
	return func(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
		if e.Member == nil || e.User == nil {
			return
		}
		ctx := context.Background()
		identity := IdentityFromMember(e.Member)
		logger := p.logger.With(
			loggerNameKey, "member_join",
			slog.String("guild_id", e.GuildID),
			"user", identity,
		)

		join := JoinLog{
			GuildID:  e.GuildID,
			UserID:   identity.ID,
			JoinedAt: e.JoinedAt.UTC().UnixMilli(),
		}
		if err := p.db.WithContext(ctx).Create(&join).Error; err != nil {
			logger.Error("error recording join", tint.Err(err))
			return
		}
		logger.InfoContext(ctx, "member joined", "join", join)

		channelID, err := p.modlogChannelFor(
			ctx,
			e.GuildID,
			func(c ModlogChannels) string {
				return c.MemberJoinsChannelID
			},
		)
		if err != nil {
			logger.Error("error fetching modlog channels", tint.Err(err))
			return
		}
		if channelID == "" {
			return
		}

		embed := p.baseEmbed(
			"Member Joined",
			fmt.Sprintf("%s joined the server", identity.Mention()),
		)
		embed.Color = embedColorSuccess
		embed.Author = embedAuthor(identity.String(), identity.AvatarURL)
		embed.Footer = embedFooter(
			fmt.Sprintf("User ID: %s", identity.ID), "",
		)
		if createdAt, snowflakeErr := discordgo.SnowflakeTimestamp(
			identity.ID,
		); snowflakeErr == nil {
			embed.Fields = append(embed.Fields, embedField(
				"Account Created",
				timeSinceString(time.Now().UTC(), createdAt.UTC()),
			))
		}

		message, err := p.discord.session.ChannelMessageSendComplex(
			channelID,
			&discordgo.MessageSend{Content: identity.ID, Embed: embed},
		)
		if err != nil {
			logger.Warn("error posting member-join log", tint.Err(err))
			return
		}

		err = p.db.WithContext(ctx).Model(&join).Update(
			"message_link",
			messageLink(e.GuildID, channelID, message.ID),
		).Error
		if err != nil {
			logger.Error("error storing join message link", tint.Err(err))
		}
	}
}

// expiresString renders an invite's max-age for display. maxAge is in
// seconds; zero means the invite never expires.
func expiresString(maxAge int) string {
	if maxAge == 0 {
		return "No"
	}
	return fmt.Sprintf("Yes (%d minutes)", maxAge/60)
}

// maxUsesString renders an invite's use ceiling for display.
func maxUsesString(maxUses int) string {
	if maxUses == 0 {
		return "Infinite"
	}
	return fmt.Sprintf("%d", maxUses)
}
