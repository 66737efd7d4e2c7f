package prisonwarden

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lmittmann/tint"
)

// bulkAction is one moderation call against a single user, issued by the
// banall/kickall/unbanall commands.
type bulkAction func(guildID string, userID string) error

// runBanAllCommand bans every listed user. Failures are skipped and only
// reflected in the final count.
func (p *PrisonWarden) runBanAllCommand(
	ctx context.Context,
	cc *CommandContext,
) error {
	reason := fmt.Sprintf("banall issued by %s", cc.Invoker.String())
	return p.runBulkCommand(ctx, cc, "Banned",
		func(guildID string, userID string) error {
			return cc.Session.GuildBanCreateWithReason(guildID, userID, reason, 0)
		},
	)
}

// runKickAllCommand kicks every listed user that is still a member.
func (p *PrisonWarden) runKickAllCommand(
	ctx context.Context,
	cc *CommandContext,
) error {
	reason := fmt.Sprintf("kickall issued by %s", cc.Invoker.String())
	return p.runBulkCommand(ctx, cc, "Kicked",
		func(guildID string, userID string) error {
			return cc.Session.GuildMemberDeleteWithReason(guildID, userID, reason)
		},
	)
}

// runUnbanAllCommand removes the ban for every listed user.
func (p *PrisonWarden) runUnbanAllCommand(
	ctx context.Context,
	cc *CommandContext,
) error {
	return p.runBulkCommand(ctx, cc, "Unbanned",
		func(guildID string, userID string) error {
			return cc.Session.GuildBanDelete(guildID, userID)
		},
	)
}

// runBulkCommand issues action once per target, sequentially and paced by
// the shared limiter. Per-target failures are logged and skipped; the only
// aggregate reported is the final success count. Nothing is retried.
func (p *PrisonWarden) runBulkCommand(
	ctx context.Context,
	cc *CommandContext,
	verb string,
	action bulkAction,
) error {
	if len(cc.Args) == 0 {
		return userErrorf("Specify at least one user")
	}

	succeeded := 0
	for _, arg := range cc.Args {
		if err := p.bulkLimiter.Wait(ctx); err != nil {
			return err
		}
		userID := parseUserID(arg)
		if err := action(cc.GuildID(), userID); err != nil {
			cc.Logger.Warn(
				"bulk action failed",
				slog.String("user_id", userID),
				tint.Err(err),
			)
			continue
		}
		succeeded++
	}

	return cc.reply(fmt.Sprintf(
		"%s %d of %d users",
		verb,
		succeeded,
		len(cc.Args),
	))
}
