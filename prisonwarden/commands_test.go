package prisonwarden

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// newTestWarden assembles a PrisonWarden backed by a temp sqlite database,
// without opening any gateway connection.
func newTestWarden(t *testing.T) *PrisonWarden {
	t.Helper()
	config := DefaultConfig()
	config.Discord.Token = "test-token"

	p := &PrisonWarden{
		config: config,
		logger: slog.Default(),
		db:     testDB(t),
	}
	p.discord = newDiscord(config.Discord)
	p.discord.logger = slog.Default()
	p.discord.warden = p
	p.commands = p.newCommandMap()
	p.bulkLimiter = rate.NewLimiter(rate.Inf, 1)
	return p
}

func testMessage(content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "message-1",
			GuildID:   "guild-1",
			ChannelID: "channel-1",
			Content:   content,
			Author: &discordgo.User{
				ID:       "invoker-1",
				Username: "moderator",
			},
		},
	}
}

func newTestCommandContext(
	t *testing.T,
	session DiscordSessionHandler,
	args ...string,
) *CommandContext {
	t.Helper()
	return &CommandContext{
		Session: session,
		Message: testMessage(""),
		Args:    args,
		Invoker: Identity{ID: "invoker-1", Username: "moderator"},
		Logger:  slog.Default(),
	}
}

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		name         string
		content      string
		prefix       string
		expectedName string
		expectedArgs []string
		expectedOK   bool
	}{
		{
			name:         "bare command",
			content:      ".ping",
			prefix:       ".",
			expectedName: "ping",
			expectedOK:   true,
		},
		{
			name:         "command with args",
			content:      ".notes add @someone https://example.com",
			prefix:       ".",
			expectedName: "notes",
			expectedArgs: []string{"add", "@someone", "https://example.com"},
			expectedOK:   true,
		},
		{
			name:       "missing prefix",
			content:    "ping",
			prefix:     ".",
			expectedOK: false,
		},
		{
			name:       "prefix only",
			content:    ".",
			prefix:     ".",
			expectedOK: false,
		},
		{
			name:       "empty content",
			content:    "",
			prefix:     ".",
			expectedOK: false,
		},
		{
			name:         "extra whitespace",
			content:      ".appeals   3",
			prefix:       ".",
			expectedName: "appeals",
			expectedArgs: []string{"3"},
			expectedOK:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(
			tc.name, func(t *testing.T) {
				name, args, ok := parseCommand(tc.content, tc.prefix)
				assert.Equal(t, tc.expectedOK, ok)
				if !tc.expectedOK {
					return
				}
				assert.Equal(t, tc.expectedName, name)
				assert.Equal(t, tc.expectedArgs, args)
			},
		)
	}
}

func TestDispatchCommandIgnoresBots(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)

	m := testMessage(".ping")
	m.Author.Bot = true
	p.dispatchCommand(context.Background(), session, m)
	assert.Empty(t, session.sentMessages)
}

func TestDispatchCommandUnknownCommand(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)

	p.dispatchCommand(
		context.Background(),
		session,
		testMessage(".definitelynotacommand"),
	)
	assert.Empty(t, session.sentMessages)
}

func TestDispatchCommandPermissionDenied(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)
	session.permissions = discordgo.PermissionSendMessages

	p.dispatchCommand(context.Background(), session, testMessage(".banall 1"))

	require.Len(t, session.sentMessages, 1)
	embed := session.sentMessages[0].Embed
	require.NotNil(t, embed)
	assert.Contains(t, embed.Description, "permission")
	assert.Empty(t, session.bans)
}

func TestDispatchCommandRunsPing(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)

	p.dispatchCommand(context.Background(), session, testMessage(".ping"))

	require.Len(t, session.sentMessages, 1)
	assert.Contains(t, session.sentMessages[0].Content, "Pong!")
}

func TestDispatchCommandGuildOnly(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)
	session.permissions = discordgo.PermissionAdministrator

	m := testMessage(".appeals")
	m.GuildID = ""
	p.dispatchCommand(context.Background(), session, m)
	assert.Empty(t, session.sentMessages)
}

func TestRunBulkCommandSkipsFailures(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)
	session.banErrs["user-2"] = errors.New("missing permissions")

	cc := newTestCommandContext(
		t,
		session,
		"user-1",
		"<@user-2>",
		"user-3",
	)
	err := p.runBanAllCommand(context.Background(), cc)
	require.NoError(t, err)

	assert.Equal(t, []string{"user-1", "user-3"}, session.bans)
	require.Len(t, session.sentMessages, 1)
	assert.Equal(t, "Banned 2 of 3 users", session.sentMessages[0].Content)
}

func TestRunBulkCommandNoArgs(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)

	err := p.runKickAllCommand(
		context.Background(),
		newTestCommandContext(t, session),
	)
	var inputErr userInputError
	require.ErrorAs(t, err, &inputErr)
	assert.Empty(t, session.kicks)
}

func TestRunUnbanAllCommand(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)

	cc := newTestCommandContext(t, session, "user-1", "user-2")
	err := p.runUnbanAllCommand(context.Background(), cc)
	require.NoError(t, err)

	assert.Equal(t, []string{"user-1", "user-2"}, session.unbans)
	require.Len(t, session.sentMessages, 1)
	assert.Equal(t, "Unbanned 2 of 2 users", session.sentMessages[0].Content)
}

func TestReportCommandErrorRendering(t *testing.T) {
	p := newTestWarden(t)

	testCases := []struct {
		name          string
		err           error
		expectedColor int
		expectedText  string
	}{
		{
			name:          "user input error",
			err:           userErrorf("Invalid URL: %q", "nope"),
			expectedColor: embedColorFail,
			expectedText:  `Invalid URL: "nope"`,
		},
		{
			name: "warning",
			err: userWarningf(
				"That Appeal ID is out of range, try a number between `1` and `%d` instead",
				4,
			),
			expectedColor: embedColorWarn,
			expectedText:  "between `1` and `4`",
		},
		{
			name:          "missing invite channel",
			err:           fmt.Errorf("creating invite: %w", ErrNoInviteChannel),
			expectedColor: embedColorFail,
			expectedText:  "No invite channel is configured for this server",
		},
		{
			name:          "internal error",
			err:           errors.New("database exploded"),
			expectedColor: embedColorFail,
			expectedText:  genericErrorMessage,
		},
	}

	for _, tc := range testCases {
		t.Run(
			tc.name, func(t *testing.T) {
				session := newMockSession(t)
				cc := newTestCommandContext(t, session)
				p.reportCommandError(context.Background(), cc, tc.err)

				require.Len(t, session.sentMessages, 1)
				embed := session.sentMessages[0].Embed
				require.NotNil(t, embed)
				assert.Equal(t, tc.expectedColor, embed.Color)
				assert.Contains(t, embed.Description, tc.expectedText)
			},
		)
	}
}

func TestIsOutOfRange(t *testing.T) {
	assert.True(t, isOutOfRange(fmt.Errorf("wrap: %w", ErrNoteOutOfRange)))
	assert.True(t, isOutOfRange(fmt.Errorf("wrap: %w", ErrRosterOutOfRange)))
	assert.False(t, isOutOfRange(errors.New("other")))
}
