package prisonwarden

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"
)

// runNotesCommand handles the notes command group:
//
//	notes get <member>                    - list a user's notes
//	notes add <member> <url> [text...]    - record a new note
//	notes rename <member> <index> <text>  - replace a note's text
//	notes <member>                        - shorthand for 'notes get'
func (p *PrisonWarden) runNotesCommand(
	ctx context.Context,
	cc *CommandContext,
) error {
	if len(cc.Args) == 0 {
		return userErrorf(
			"Specify a subcommand (`get`, `add`, `rename`) or a member",
		)
	}
	switch strings.ToLower(cc.Args[0]) {
	case "get", "for", "retrieve", "fetch":
		if len(cc.Args) < 2 {
			return userErrorf("Specify a member to fetch notes for")
		}
		return p.runNotesGet(ctx, cc, cc.Args[1])
	case "add", "set", "put", "push":
		return p.runNotesAdd(ctx, cc)
	case "rename":
		return p.runNotesRename(ctx, cc)
	default:
		// bare member argument is equivalent to 'notes get <member>'
		return p.runNotesGet(ctx, cc, cc.Args[0])
	}
}

func (p *PrisonWarden) runNotesGet(
	ctx context.Context,
	cc *CommandContext,
	memberArg string,
) error {
	member, err := memberFromArg(cc.Session, cc.GuildID(), memberArg)
	if err != nil {
		return err
	}
	identity := IdentityFromMember(member)

	notes, err := NotesForUser(ctx, p.db, cc.GuildID(), identity.ID)
	if err != nil {
		return fmt.Errorf("error fetching notes: %w", err)
	}
	if len(notes) == 0 {
		return userErrorf("%s has no appeal notes", identity)
	}

	lines := make([]string, 0, len(notes))
	for _, note := range notes {
		text, decodeErr := note.DecodedText()
		if decodeErr != nil {
			cc.Logger.Warn(
				"note text failed to decode",
				"note", note,
				tint.Err(decodeErr),
			)
		}
		lines = append(lines, fmt.Sprintf("[%s](%s)", text, note.Link))
	}

	paginator := &Paginator{
		Session:     cc.Session,
		ChannelID:   cc.ChannelID(),
		RequesterID: cc.Invoker.ID,
		Title:       "Ban Appeal Notes",
		Color:       p.config.Discord.EmbedColor,
		Author:      embedAuthor(identity.String(), identity.AvatarURL),
		Lines:       lines,
		Numbered:    true,
		ItemName:    "notes",
		PageSize:    p.config.Appeals.PaginationPageSize,
		Timeout:     p.config.Appeals.PaginationTimeout,
		Logger:      cc.Logger,
	}
	return paginator.Send(ctx)
}

func (p *PrisonWarden) runNotesAdd(
	ctx context.Context,
	cc *CommandContext,
) error {
	if len(cc.Args) < 3 {
		return userErrorf("Usage: `notes add <member> <url> [text]`")
	}
	member, err := memberFromArg(cc.Session, cc.GuildID(), cc.Args[1])
	if err != nil {
		return err
	}
	identity := IdentityFromMember(member)

	link := cc.Args[2]
	if !validURL(link) {
		return userErrorf("Invalid URL: %q", link)
	}
	text := strings.Join(cc.Args[3:], " ")

	note, err := CreateNote(
		ctx,
		p.db,
		cc.GuildID(),
		identity.ID,
		cc.Invoker.ID,
		link,
		text,
	)
	if err != nil {
		return fmt.Errorf("error creating note: %w", err)
	}
	cc.Logger.InfoContext(ctx, "created note", "note", note)

	decoded, _ := note.DecodedText()
	embed := p.baseEmbed(
		"Appeal Note Created",
		fmt.Sprintf("[%s](%s)", decoded, note.Link),
	)
	embed.Author = embedAuthor(identity.String(), identity.AvatarURL)
	return cc.replyEmbed(embed)
}

func (p *PrisonWarden) runNotesRename(
	ctx context.Context,
	cc *CommandContext,
) error {
	if len(cc.Args) < 4 {
		return userErrorf("Usage: `notes rename <member> <index> <text>`")
	}
	member, err := memberFromArg(cc.Session, cc.GuildID(), cc.Args[1])
	if err != nil {
		return err
	}
	identity := IdentityFromMember(member)

	position, err := strconv.Atoi(cc.Args[2])
	if err != nil {
		return userErrorf("Invalid note index %q", cc.Args[2])
	}
	text := strings.Join(cc.Args[3:], " ")

	note, err := RenameNote(
		ctx,
		p.db,
		cc.GuildID(),
		identity.ID,
		position,
		text,
	)
	if err != nil {
		count, countErr := CountNotes(ctx, p.db, cc.GuildID(), identity.ID)
		if countErr == nil && isOutOfRange(err) {
			return userWarningf(
				"That note index is out of range, try a number between `1` and `%d` instead",
				count,
			)
		}
		return fmt.Errorf("error renaming note: %w", err)
	}
	cc.Logger.InfoContext(ctx, "renamed note", "note", note)

	decoded, _ := note.DecodedText()
	embed := p.baseEmbed(
		"Appeal Note Renamed",
		fmt.Sprintf("[%s](%s)", decoded, note.Link),
	)
	embed.Author = embedAuthor(identity.String(), identity.AvatarURL)
	return cc.replyEmbed(embed)
}
