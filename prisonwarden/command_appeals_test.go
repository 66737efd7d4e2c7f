package prisonwarden

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAppealGuild(t *testing.T, p *PrisonWarden, session *mockSession) {
	t.Helper()
	require.NoError(
		t,
		p.db.Create(&AppealRole{GuildID: "guild-1", RoleID: "appeal-role"}).Error,
	)
	session.roles = []*discordgo.Role{
		{ID: "appeal-role", Name: "Appealing", Position: 1},
		{ID: "other-role", Name: "Other", Position: 2, Color: 0x00ff00},
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	addTestMember(
		session, "newest", "newest-user", base.Add(48*time.Hour),
		"appeal-role",
	)
	addTestMember(
		session, "oldest", "oldest-user", base,
		"appeal-role", "other-role",
	)
	addTestMember(session, "bystander", "bystander-user", base, "other-role")
}

func TestRunAppealsCommandNoRolesConfigured(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)

	err := p.runAppealsCommand(
		context.Background(),
		newTestCommandContext(t, session),
	)
	require.NoError(t, err)
	require.Len(t, session.sentMessages, 1)
	assert.Equal(t, "No appeal roles set", session.sentMessages[0].Content)
}

func TestRunAppealsCommandEmptyRoster(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)
	require.NoError(
		t,
		p.db.Create(&AppealRole{GuildID: "guild-1", RoleID: "appeal-role"}).Error,
	)
	session.roles = []*discordgo.Role{{ID: "appeal-role"}}

	err := p.runAppealsCommand(
		context.Background(),
		newTestCommandContext(t, session),
	)
	require.NoError(t, err)
	require.Len(t, session.sentMessages, 1)
	embed := session.sentMessages[0].Embed
	require.NotNil(t, embed)
	assert.Equal(t, "No Appeals Found", embed.Title)
	assert.Equal(t, embedColorSuccess, embed.Color)
	assert.Contains(t, embed.Description, "There are no appeals!")
}

func TestRunAppealsCommandRoster(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)
	seedAppealGuild(t, p, session)

	err := p.runAppealsCommand(
		context.Background(),
		newTestCommandContext(t, session),
	)
	require.NoError(t, err)
	require.Len(t, session.sentMessages, 1)
	embed := session.sentMessages[0].Embed
	require.NotNil(t, embed)
	assert.Equal(t, "Pending Appeals", embed.Title)
	assert.Contains(t, embed.Description, "1) `oldest-user`")
	assert.Contains(t, embed.Description, "2) `newest-user`")
	assert.NotContains(t, embed.Description, "bystander")
}

func TestRunAppealsCommandDetail(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)
	seedAppealGuild(t, p, session)

	_, err := CreateNote(
		context.Background(), p.db, "guild-1", "oldest", "invoker-1",
		"https://example.com/1", "",
	)
	require.NoError(t, err)

	cc := newTestCommandContext(t, session, "1")
	require.NoError(t, p.runAppealsCommand(context.Background(), cc))

	require.Len(t, session.sentMessages, 1)
	sent := session.sentMessages[0]
	// the raw user ID is sent as content for easy copying
	assert.Equal(t, "oldest", sent.Content)
	require.NotNil(t, sent.Embed)
	assert.Equal(t, "Appeal Info", sent.Embed.Title)
	// detail embed picks up the member's top role color
	assert.Equal(t, 0x00ff00, sent.Embed.Color)

	fieldNames := make([]string, 0, len(sent.Embed.Fields))
	for _, field := range sent.Embed.Fields {
		fieldNames = append(fieldNames, field.Name)
	}
	assert.Contains(t, fieldNames, "User")
	assert.Contains(t, fieldNames, "Joined")
	assert.Contains(t, fieldNames, "Top Role")
	assert.Contains(t, fieldNames, "Note Count")
}

func TestRunAppealsCommandOutOfRange(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)
	seedAppealGuild(t, p, session)

	cc := newTestCommandContext(t, session, "10")
	err := p.runAppealsCommand(context.Background(), cc)
	var warning userWarning
	require.ErrorAs(t, err, &warning)
	assert.Contains(
		t,
		err.Error(),
		"That Appeal ID is out of range, try a number between `1` and `2` instead",
	)
}

func TestRunAppealsCommandBadPosition(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)
	seedAppealGuild(t, p, session)

	cc := newTestCommandContext(t, session, "first")
	err := p.runAppealsCommand(context.Background(), cc)
	var inputErr userInputError
	require.ErrorAs(t, err, &inputErr)
}

func TestBuildGuildRosterSkipsDeletedRoles(t *testing.T) {
	p := newTestWarden(t)
	session := newMockSession(t)
	// configured role no longer exists in the guild
	session.roles = []*discordgo.Role{{ID: "other-role"}}
	addTestMember(
		session, "user-1", "someone", time.Now().UTC(), "deleted-role",
	)

	roster, err := p.buildGuildRoster(
		session,
		"guild-1",
		[]string{"deleted-role"},
	)
	require.NoError(t, err)
	assert.Empty(t, roster)
}
