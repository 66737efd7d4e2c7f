package prisonwarden

import (
	"context"
	"fmt"
	"time"
)

// runJoinsCommand lists the recorded join events for a user, newest first.
func (p *PrisonWarden) runJoinsCommand(
	ctx context.Context,
	cc *CommandContext,
) error {
	if len(cc.Args) == 0 {
		return userErrorf("Specify a user to fetch join records for")
	}

	// join records outlive membership, so fall back to a bare ID for
	// users no longer in the guild
	userID := parseUserID(cc.Args[0])
	displayName := userID
	if member, err := memberFromArg(
		cc.Session,
		cc.GuildID(),
		cc.Args[0],
	); err == nil {
		identity := IdentityFromMember(member)
		userID = identity.ID
		displayName = identity.String()
	}

	joins, err := JoinsForUser(ctx, p.db, cc.GuildID(), userID)
	if err != nil {
		return fmt.Errorf("error fetching join records: %w", err)
	}
	if len(joins) == 0 {
		return userErrorf("No join records found for %s", displayName)
	}

	now := time.Now().UTC()
	lines := make([]string, 0, len(joins))
	for _, join := range joins {
		joinedAt := time.UnixMilli(join.JoinedAt).UTC()
		line := fmt.Sprintf(
			"Joined %s (<t:%d:f>)",
			timeSinceString(now, joinedAt),
			joinedAt.Unix(),
		)
		if join.MessageLink != "" {
			line = fmt.Sprintf("[%s](%s)", line, join.MessageLink)
		}
		lines = append(lines, line)
	}

	paginator := &Paginator{
		Session:     cc.Session,
		ChannelID:   cc.ChannelID(),
		RequesterID: cc.Invoker.ID,
		Title:       fmt.Sprintf("Joins for %s", displayName),
		Color:       p.config.Discord.EmbedColor,
		Lines:       lines,
		Numbered:    true,
		ItemName:    "joins",
		PageSize:    p.config.Appeals.PaginationPageSize,
		Timeout:     p.config.Appeals.PaginationTimeout,
		Logger:      cc.Logger,
	}
	return paginator.Send(ctx)
}
