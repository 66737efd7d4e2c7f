package prisonwarden

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"golang.org/x/time/rate"
)

// inviteURL returns the full invite link for an invite.
func inviteURL(invite *discordgo.Invite) string {
	return "https://discord.gg/" + invite.Code
}

// inviteIsStale reports whether an invite is "stale": a single-use invite
// that has never been used and is at least maxAge old.
func inviteIsStale(
	invite *discordgo.Invite,
	now time.Time,
	maxAge time.Duration,
) bool {
	return invite.Uses == 0 &&
		invite.MaxUses == 1 &&
		now.Sub(invite.CreatedAt) >= maxAge
}

// StaleInvites filters a snapshot of a guild's invites down to the stale
// ones, sorted ascending by creation time (oldest first). The input is not
// modified; empty input or no matches yields an empty result.
func StaleInvites(
	invites []*discordgo.Invite,
	now time.Time,
	maxAge time.Duration,
) []*discordgo.Invite {
	stale := make([]*discordgo.Invite, 0, len(invites))
	for _, invite := range invites {
		if inviteIsStale(invite, now, maxAge) {
			stale = append(stale, invite)
		}
	}
	sortInvitesByCreation(stale)
	return stale
}

// sortInvitesByCreation sorts invites ascending by creation time, in place.
func sortInvitesByCreation(invites []*discordgo.Invite) {
	sort.SliceStable(
		invites, func(i, j int) bool {
			return invites[i].CreatedAt.Before(invites[j].CreatedAt)
		},
	)
}

// PurgeInvites deletes each given invite, skipping (and logging) per-invite
// failures, and returns the number successfully deleted. Deletions are
// paced by the given limiter when one is provided.
func PurgeInvites(
	ctx context.Context,
	session DiscordSessionHandler,
	invites []*discordgo.Invite,
	limiter *rate.Limiter,
) int {
	logger, ok := ContextLogger(ctx)
	if logger == nil || !ok {
		logger = slog.Default()
	}

	deleted := 0
	for _, invite := range invites {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return deleted
			}
		}
		if _, err := session.InviteDelete(invite.Code); err != nil {
			logger.WarnContext(
				ctx,
				"failed to delete stale invite",
				"code", invite.Code,
				tint.Err(err),
			)
			continue
		}
		deleted++
	}
	return deleted
}

// createOneTimeInvite creates a new single-use, never-expiring invite in
// the guild's configured invite channel. Returns ErrNoInviteChannel (via
// InviteChannelID) when the guild has no invite channel configured.
func (p *PrisonWarden) createOneTimeInvite(
	ctx context.Context,
	session DiscordSessionHandler,
	guildID string,
	requester Identity,
) (*discordgo.Invite, error) {
	channelID, err := InviteChannelID(ctx, p.db, guildID)
	if err != nil {
		return nil, err
	}
	invite, err := session.ChannelInviteCreate(
		channelID,
		discordgo.Invite{
			MaxAge:    0,
			MaxUses:   1,
			Temporary: false,
			Unique:    true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("error creating invite: %w", err)
	}
	p.logger.InfoContext(
		ctx,
		"created one-time invite",
		"code", invite.Code,
		"channel_id", channelID,
		"requester", requester,
	)
	return invite, nil
}
