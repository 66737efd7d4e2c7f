package prisonwarden

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// runInvitesCommand handles:
//
//	invites             - paginated list of the guild's active invites
//	invites purge test  - list the stale invites a purge would delete
//	invites purge purge - delete stale invites, reporting the count
func (p *PrisonWarden) runInvitesCommand(
	ctx context.Context,
	cc *CommandContext,
) error {
	if len(cc.Args) > 0 && strings.EqualFold(cc.Args[0], "purge") {
		return p.runInvitesPurge(ctx, cc)
	}

	invites, err := cc.Session.GuildInvites(cc.GuildID())
	if err != nil {
		return fmt.Errorf("error fetching invites: %w", err)
	}
	sortInvitesByCreation(invites)

	if len(invites) == 0 {
		return cc.replyEmbed(
			p.baseEmbed("Active Invites", "This server has no active invites"),
		)
	}

	lines := make([]string, 0, len(invites))
	for _, invite := range invites {
		lines = append(lines, inviteListLine(invite))
	}

	paginator := &Paginator{
		Session:     cc.Session,
		ChannelID:   cc.ChannelID(),
		RequesterID: cc.Invoker.ID,
		Title:       "Active Invites",
		Color:       p.config.Discord.EmbedColor,
		Lines:       lines,
		ItemName:    "invites",
		PageSize:    p.config.Appeals.PaginationPageSize,
		Timeout:     p.config.Appeals.PaginationTimeout,
		Logger:      cc.Logger,
	}
	return paginator.Send(ctx)
}

func inviteListLine(invite *discordgo.Invite) string {
	inviter := "unknown"
	if invite.Inviter != nil {
		inviter = invite.Inviter.Mention()
	}
	maxUses := "∞"
	if invite.MaxUses > 0 {
		maxUses = fmt.Sprintf("%d", invite.MaxUses)
	}
	return fmt.Sprintf(
		"%s - %s - Used %d/%s times",
		inviteURL(invite),
		inviter,
		invite.Uses,
		maxUses,
	)
}

// runInvitesPurge handles the 'purge test' and 'purge purge' subcommands:
// the former previews what would be deleted, the latter deletes.
func (p *PrisonWarden) runInvitesPurge(
	ctx context.Context,
	cc *CommandContext,
) error {
	if len(cc.Args) < 2 {
		return userErrorf(
			"Specify a purge mode: `purge test` to preview, `purge purge` to delete",
		)
	}

	stale, err := p.fetchStaleInvites(cc)
	if err != nil {
		return err
	}

	switch strings.ToLower(cc.Args[1]) {
	case "test":
		if len(stale) == 0 {
			return cc.replyEmbed(
				p.baseEmbed("Stale Invites", "No stale invites to purge"),
			)
		}
		lines := make([]string, 0, len(stale))
		now := time.Now().UTC()
		for _, invite := range stale {
			lines = append(
				lines,
				fmt.Sprintf(
					"%s - created %s",
					inviteURL(invite),
					timeSinceString(now, invite.CreatedAt),
				),
			)
		}
		paginator := &Paginator{
			Session:     cc.Session,
			ChannelID:   cc.ChannelID(),
			RequesterID: cc.Invoker.ID,
			Title:       "Stale Invites (test)",
			Color:       p.config.Discord.EmbedColor,
			Lines:       lines,
			ItemName:    "invites",
			PageSize:    p.config.Appeals.PaginationPageSize,
			Timeout:     p.config.Appeals.PaginationTimeout,
			Logger:      cc.Logger,
		}
		return paginator.Send(ctx)
	case "purge":
		deleted := PurgeInvites(
			WithLogger(ctx, cc.Logger),
			cc.Session,
			stale,
			p.bulkLimiter,
		)
		return cc.replyEmbed(
			p.baseEmbed(
				"Stale Invites Purged",
				fmt.Sprintf(
					"Deleted %d of %d stale invites",
					deleted,
					len(stale),
				),
			),
		)
	default:
		return userErrorf(
			"Unknown purge mode %q (use `test` or `purge`)",
			cc.Args[1],
		)
	}
}

// fetchStaleInvites returns the guild's stale invites, oldest first.
func (p *PrisonWarden) fetchStaleInvites(cc *CommandContext) (
	[]*discordgo.Invite,
	error,
) {
	invites, err := cc.Session.GuildInvites(cc.GuildID())
	if err != nil {
		return nil, fmt.Errorf("error fetching invites: %w", err)
	}
	return StaleInvites(
		invites,
		time.Now().UTC(),
		p.config.Appeals.StaleInviteAge,
	), nil
}

// runInviteCommand hands out a one-time-use, never-expiring invite for the
// guild's configured invite channel. Unless 'new' is given, the oldest
// stale invite is reused instead of creating another one, to keep stale
// invites from stacking up.
func (p *PrisonWarden) runInviteCommand(
	ctx context.Context,
	cc *CommandContext,
) error {
	forceNew := len(cc.Args) > 0 && strings.EqualFold(cc.Args[0], "new")

	var invite *discordgo.Invite
	var usingStale bool
	var err error

	if !forceNew {
		var stale []*discordgo.Invite
		stale, err = p.fetchStaleInvites(cc)
		if err != nil {
			return err
		}
		if len(stale) > 0 {
			invite = stale[0]
			usingStale = true
		}
	}
	if invite == nil {
		invite, err = p.createOneTimeInvite(
			ctx,
			cc.Session,
			cc.GuildID(),
			cc.Invoker,
		)
		if err != nil {
			return err
		}
	}

	title := "Ban Appeals Invite"
	if usingStale {
		title += " (using \"stale\" invite)"
	}
	embed := p.baseEmbed(title, "This invite link will expire after one use")
	embed.Footer = embedFooter(
		fmt.Sprintf("Requested by %s (%s)", cc.Invoker, cc.Invoker.ID),
		cc.Invoker.AvatarURL,
	)
	if usingStale {
		embed.Fields = append(
			embed.Fields,
			embedField(
				"NOTE",
				"This invite was created from the oldest \"stale\" invite "+
					"(aka a one-time-use invite that has gone unused past the "+
					"configured age threshold)",
			),
		)
	}

	_, err = cc.Session.ChannelMessageSendComplex(
		cc.ChannelID(),
		&discordgo.MessageSend{
			Content: inviteURL(invite),
			Embed:   embed,
		},
	)
	return err
}
