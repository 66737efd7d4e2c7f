package prisonwarden

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

// runAppealsCommand lists the users currently holding one of the guild's
// configured appeal roles, ordered by join time. With a 1-based position
// argument, shows details for that one appeal instead.
func (p *PrisonWarden) runAppealsCommand(
	ctx context.Context,
	cc *CommandContext,
) error {
	roleIDs, err := AppealRoleIDs(ctx, p.db, cc.GuildID())
	if err != nil {
		return fmt.Errorf("error fetching appeal roles: %w", err)
	}
	if len(roleIDs) == 0 {
		return cc.reply("No appeal roles set")
	}

	roster, err := p.buildGuildRoster(cc.Session, cc.GuildID(), roleIDs)
	if err != nil {
		return err
	}
	if len(roster) == 0 {
		embed := &discordgo.MessageEmbed{
			Title:       "No Appeals Found",
			Description: "There are no appeals! \U0001f9f9✨",
			Color:       embedColorSuccess,
		}
		return cc.replyEmbed(embed)
	}

	if len(cc.Args) == 0 {
		return p.sendAppealRoster(ctx, cc, roster)
	}

	position, err := strconv.Atoi(cc.Args[0])
	if err != nil {
		return userErrorf("Invalid appeal ID %q", cc.Args[0])
	}
	return p.sendAppealDetail(ctx, cc, roster, position)
}

// buildGuildRoster fetches the guild's member list and reduces it to the
// appeal roster for the given role IDs. Roles that no longer exist in the
// guild are skipped.
func (p *PrisonWarden) buildGuildRoster(
	session DiscordSessionHandler,
	guildID string,
	roleIDs []string,
) (Roster, error) {
	guildRoles, err := session.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("error fetching guild roles: %w", err)
	}
	existing := map[string]bool{}
	for _, role := range guildRoles {
		existing[role.ID] = true
	}
	activeRoleIDs := make([]string, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		if existing[roleID] {
			activeRoleIDs = append(activeRoleIDs, roleID)
		}
	}

	members, err := allGuildMembers(session, guildID)
	if err != nil {
		return nil, fmt.Errorf("error fetching guild members: %w", err)
	}

	identities := make([]Identity, 0, len(members))
	memberRoles := make(map[string][]string, len(members))
	for _, member := range members {
		identity := IdentityFromMember(member)
		identities = append(identities, identity)
		memberRoles[identity.ID] = member.Roles
	}

	return BuildRoster(
		activeRoleIDs,
		rosterRoleMembers(activeRoleIDs, identities, memberRoles),
	), nil
}

func (p *PrisonWarden) sendAppealRoster(
	ctx context.Context,
	cc *CommandContext,
	roster Roster,
) error {
	now := time.Now().UTC()
	lines := make([]string, 0, len(roster))
	for _, appeal := range roster {
		lines = append(
			lines,
			fmt.Sprintf(
				"`%s` - Joined %s",
				appeal.Identity,
				timeSinceString(now, appeal.Identity.JoinedAt),
			),
		)
	}
	paginator := &Paginator{
		Session:     cc.Session,
		ChannelID:   cc.ChannelID(),
		RequesterID: cc.Invoker.ID,
		Title:       "Pending Appeals",
		Color:       p.config.Discord.EmbedColor,
		Lines:       lines,
		Numbered:    true,
		ItemName:    "members",
		PageSize:    p.config.Appeals.PaginationPageSize,
		Timeout:     p.config.Appeals.PaginationTimeout,
		Logger:      cc.Logger,
	}
	return paginator.Send(ctx)
}

func (p *PrisonWarden) sendAppealDetail(
	ctx context.Context,
	cc *CommandContext,
	roster Roster,
	position int,
) error {
	appeal, err := roster.Get(position)
	if err != nil {
		if isOutOfRange(err) {
			return userWarningf(
				"That Appeal ID is out of range, try a number between `1` and `%d` instead",
				len(roster),
			)
		}
		return err
	}

	identity := appeal.Identity
	embed := p.baseEmbed("Appeal Info", "")
	embed.Footer = embedFooter(identity.String(), identity.AvatarURL)
	embed.Fields = append(
		embed.Fields,
		embedFieldInline("User", identity.String()),
		embedFieldInline(
			"Joined",
			timeSinceString(time.Now().UTC(), identity.JoinedAt),
		),
	)

	if topRole := p.memberTopRole(cc.Session, cc.GuildID(), identity.ID); topRole != nil {
		embed.Color = topRole.Color
		embed.Fields = append(
			embed.Fields,
			embedFieldInline("Top Role", topRole.Mention()),
		)
	}

	noteCount, err := CountNotes(ctx, p.db, cc.GuildID(), identity.ID)
	if err != nil {
		return fmt.Errorf("error counting notes: %w", err)
	}
	if noteCount > 0 {
		embed.Fields = append(
			embed.Fields,
			embedFieldInline("Note Count", fmt.Sprintf("%d", noteCount)),
		)
	}

	_, err = cc.Session.ChannelMessageSendComplex(
		cc.ChannelID(),
		&discordgo.MessageSend{Content: identity.ID, Embed: embed},
	)
	return err
}

// memberTopRole returns the member's highest-positioned role, or nil when
// it can't be determined.
func (p *PrisonWarden) memberTopRole(
	session DiscordSessionHandler,
	guildID string,
	userID string,
) *discordgo.Role {
	member, err := session.GuildMember(guildID, userID)
	if err != nil {
		return nil
	}
	guildRoles, err := session.GuildRoles(guildID)
	if err != nil {
		return nil
	}
	held := map[string]bool{}
	for _, roleID := range member.Roles {
		held[roleID] = true
	}
	var top *discordgo.Role
	for _, role := range guildRoles {
		if !held[role.ID] {
			continue
		}
		if top == nil || role.Position > top.Position {
			top = role
		}
	}
	return top
}
