package prisonwarden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

const (
	commandPing      = "ping"
	commandPineapple = "pineapple"
	commandInvites   = "invites"
	commandInvite    = "invite"
	commandNotes     = "notes"
	commandAppeals   = "appeals"
	commandJoins     = "joins"
	commandBanAll    = "banall"
	commandKickAll   = "kickall"
	commandUnbanAll  = "unbanall"
)

const genericErrorMessage = "sorry, something went wrong!"

// userInputError is a user-caused failure (bad URL, unknown member, ...).
// Its message is shown to the user as a failure embed instead of being
// logged as a bot error.
type userInputError struct {
	msg string
}

func (e userInputError) Error() string {
	return e.msg
}

func userErrorf(format string, args ...any) error {
	return userInputError{msg: fmt.Sprintf(format, args...)}
}

// userWarning is like userInputError, but rendered as a warning embed
// (ex: an index out of range with a recoverable hint).
type userWarning struct {
	msg string
}

func (e userWarning) Error() string {
	return e.msg
}

func userWarningf(format string, args ...any) error {
	return userWarning{msg: fmt.Sprintf(format, args...)}
}

// CommandContext carries everything a command handler needs for one
// invocation: the session, the triggering message, the parsed arguments
// and a scoped logger. Handlers receive their dependencies here rather
// than reaching for globals.
type CommandContext struct {
	Session DiscordSessionHandler
	Message *discordgo.MessageCreate

	// Args are the whitespace-separated tokens following the command name.
	Args []string

	// Invoker is the identity of the user running the command.
	Invoker Identity

	Logger *slog.Logger
}

// GuildID returns the guild the command was invoked in.
func (cc *CommandContext) GuildID() string {
	return cc.Message.GuildID
}

// ChannelID returns the channel the command was invoked in.
func (cc *CommandContext) ChannelID() string {
	return cc.Message.ChannelID
}

func (cc *CommandContext) reply(content string) error {
	_, err := cc.Session.ChannelMessageSend(cc.ChannelID(), content)
	return err
}

func (cc *CommandContext) replyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := cc.Session.ChannelMessageSendEmbed(cc.ChannelID(), embed)
	return err
}

// Command is one prefix-triggered chat command. RequiredPermissions is
// checked against the invoking user's channel permissions before Run is
// called.
type Command struct {
	Name                string
	RequiredPermissions int64
	GuildOnly           bool
	Run                 func(ctx context.Context, cc *CommandContext) error
}

// newCommandMap wires the full command surface.
func (p *PrisonWarden) newCommandMap() map[string]*Command {
	commands := []*Command{
		{
			Name: commandPing,
			Run:  p.runPingCommand,
		},
		{
			Name: commandPineapple,
			Run:  p.runPineappleCommand,
		},
		{
			Name:                commandInvites,
			RequiredPermissions: discordgo.PermissionManageChannels,
			GuildOnly:           true,
			Run:                 p.runInvitesCommand,
		},
		{
			Name: commandInvite,
			RequiredPermissions: discordgo.PermissionManageChannels |
				discordgo.PermissionCreateInstantInvite,
			GuildOnly: true,
			Run:       p.runInviteCommand,
		},
		{
			Name:                commandNotes,
			RequiredPermissions: discordgo.PermissionManageRoles,
			GuildOnly:           true,
			Run:                 p.runNotesCommand,
		},
		{
			Name:                commandAppeals,
			RequiredPermissions: discordgo.PermissionManageRoles,
			GuildOnly:           true,
			Run:                 p.runAppealsCommand,
		},
		{
			Name:                commandJoins,
			RequiredPermissions: discordgo.PermissionManageRoles,
			GuildOnly:           true,
			Run:                 p.runJoinsCommand,
		},
		{
			Name:                commandBanAll,
			RequiredPermissions: discordgo.PermissionBanMembers,
			GuildOnly:           true,
			Run:                 p.runBanAllCommand,
		},
		{
			Name:                commandKickAll,
			RequiredPermissions: discordgo.PermissionKickMembers,
			GuildOnly:           true,
			Run:                 p.runKickAllCommand,
		},
		{
			Name:                commandUnbanAll,
			RequiredPermissions: discordgo.PermissionBanMembers,
			GuildOnly:           true,
			Run:                 p.runUnbanAllCommand,
		},
	}
	commandMap := make(map[string]*Command, len(commands))
	for _, command := range commands {
		commandMap[command.Name] = command
	}
	return commandMap
}

// parseCommand splits message content into a command name and arguments.
// Returns ok=false when the content doesn't start with the prefix or has
// no command name.
func parseCommand(content string, prefix string) (
	name string,
	args []string,
	ok bool,
) {
	if !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// handlerMessageCreate returns the gateway handler dispatching prefix
// commands.
func (p *PrisonWarden) handlerMessageCreate() func(
	s *discordgo.Session,
	m *discordgo.MessageCreate,
) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		p.dispatchCommand(context.Background(), p.discord.session, m)
	}
}

// dispatchCommand routes one message to its command handler, enforcing
// guild-only and permission requirements first.
func (p *PrisonWarden) dispatchCommand(
	ctx context.Context,
	session DiscordSessionHandler,
	m *discordgo.MessageCreate,
) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	name, args, ok := parseCommand(m.Content, p.config.Discord.Prefix)
	if !ok {
		return
	}
	command, ok := p.commands[name]
	if !ok {
		return
	}
	if command.GuildOnly && m.GuildID == "" {
		return
	}

	logger := p.logger.With(
		slog.Group(
			"command",
			"name", command.Name,
			"guild_id", m.GuildID,
			"channel_id", m.ChannelID,
			"user_id", m.Author.ID,
		),
	)

	invoker := IdentityFromUser(m.Author)
	if m.Member != nil {
		invoker.JoinedAt = m.Member.JoinedAt
		if m.Member.Nick != "" {
			invoker.DisplayName = m.Member.Nick
		}
	}

	cc := &CommandContext{
		Session: session,
		Message: m,
		Args:    args,
		Invoker: invoker,
		Logger:  logger,
	}

	if command.RequiredPermissions != 0 {
		permissions, err := session.UserChannelPermissions(
			m.Author.ID,
			m.ChannelID,
		)
		if err != nil {
			logger.Error("error checking permissions", tint.Err(err))
			return
		}
		if permissions&command.RequiredPermissions != command.RequiredPermissions {
			logger.Info("permission denied")
			_ = cc.replyEmbed(
				failEmbed("You don't have permission to use that command"),
			)
			return
		}
	}

	logger.InfoContext(ctx, "running command", "args", args)
	err := command.Run(WithLogger(ctx, logger), cc)
	if err == nil {
		return
	}
	p.reportCommandError(ctx, cc, err)
}

// reportCommandError renders a command error back to the invoking user.
// User-caused failures keep their message; anything else is logged and
// reported generically.
func (p *PrisonWarden) reportCommandError(
	ctx context.Context,
	cc *CommandContext,
	err error,
) {
	var inputErr userInputError
	var warning userWarning
	switch {
	case errors.As(err, &warning):
		_ = cc.replyEmbed(warnEmbed(warning.Error()))
	case errors.As(err, &inputErr):
		_ = cc.replyEmbed(failEmbed(inputErr.Error()))
	case errors.Is(err, ErrNoInviteChannel):
		_ = cc.replyEmbed(
			failEmbed("No invite channel is configured for this server"),
		)
	default:
		cc.Logger.ErrorContext(ctx, "command failed", tint.Err(err))
		_ = cc.replyEmbed(failEmbed(genericErrorMessage))
	}
}

func isOutOfRange(err error) bool {
	return errors.Is(err, ErrNoteOutOfRange) ||
		errors.Is(err, ErrRosterOutOfRange)
}

// memberFromArg resolves a command argument into a guild member. Accepts
// raw user IDs and <@id> / <@!id> mentions.
func memberFromArg(
	session DiscordSessionHandler,
	guildID string,
	arg string,
) (*discordgo.Member, error) {
	userID := parseUserID(arg)
	member, err := session.GuildMember(guildID, userID)
	if err != nil {
		return nil, userErrorf("No member %q found", arg)
	}
	return member, nil
}

// parseUserID strips mention decoration from a user argument.
func parseUserID(arg string) string {
	id := strings.TrimSuffix(strings.TrimPrefix(arg, "<@"), ">")
	return strings.TrimPrefix(id, "!")
}
