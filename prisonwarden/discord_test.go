package prisonwarden

import (
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSession implements DiscordSessionHandler in-memory for tests.
type mockSession struct {
	t *testing.T

	// sentMessages accumulates everything sent via the ChannelMessageSend*
	// methods, in order
	sentMessages []*discordgo.MessageSend

	deletedInvites   []string
	inviteDeleteErrs map[string]error

	guildInvites    []*discordgo.Invite
	guildInvitesErr error

	createdInvites []discordgo.Invite
	createInvite   *discordgo.Invite
	createErr      error

	members    map[string]*discordgo.Member
	allMembers []*discordgo.Member
	roles      []*discordgo.Role

	bans    []string
	unbans  []string
	kicks   []string
	banErrs map[string]error

	permissions    int64
	permissionsErr error

	channels map[string]*discordgo.Channel

	handlers []any

	latency time.Duration

	nextMessageID int
}

func newMockSession(t *testing.T) *mockSession {
	t.Helper()
	return &mockSession{
		t:                t,
		inviteDeleteErrs: map[string]error{},
		members:          map[string]*discordgo.Member{},
		banErrs:          map[string]error{},
		channels:         map[string]*discordgo.Channel{},
		latency:          50 * time.Millisecond,
	}
}

func (m *mockSession) message(content string, embeds ...*discordgo.MessageEmbed) *discordgo.Message {
	m.nextMessageID++
	return &discordgo.Message{
		ID:      fmt.Sprintf("message-%d", m.nextMessageID),
		Content: content,
		Embeds:  embeds,
	}
}

func (m *mockSession) Open() error  { return nil }
func (m *mockSession) Close() error { return nil }

func (m *mockSession) AddHandler(handler any) func() {
	m.handlers = append(m.handlers, handler)
	return func() {}
}

func (m *mockSession) ChannelMessageSend(
	channelID string,
	message string,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	m.sentMessages = append(
		m.sentMessages,
		&discordgo.MessageSend{Content: message},
	)
	return m.message(message), nil
}

func (m *mockSession) ChannelMessageSendEmbed(
	channelID string,
	embed *discordgo.MessageEmbed,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	m.sentMessages = append(m.sentMessages, &discordgo.MessageSend{Embed: embed})
	return m.message("", embed), nil
}

func (m *mockSession) ChannelMessageSendComplex(
	channelID string,
	data *discordgo.MessageSend,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	m.sentMessages = append(m.sentMessages, data)
	return m.message(data.Content, data.Embed), nil
}

func (m *mockSession) ChannelMessageEditEmbed(
	channelID string,
	messageID string,
	embed *discordgo.MessageEmbed,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return m.message("", embed), nil
}

func (m *mockSession) MessageReactionAdd(
	channelID string,
	messageID string,
	emojiID string,
	_ ...discordgo.RequestOption,
) error {
	return nil
}

func (m *mockSession) MessageReactionsRemoveAll(
	channelID string,
	messageID string,
	_ ...discordgo.RequestOption,
) error {
	return nil
}

func (m *mockSession) Channel(
	channelID string,
	_ ...discordgo.RequestOption,
) (*discordgo.Channel, error) {
	channel, ok := m.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("unknown channel: %s", channelID)
	}
	return channel, nil
}

func (m *mockSession) GuildInvites(
	guildID string,
	_ ...discordgo.RequestOption,
) ([]*discordgo.Invite, error) {
	return m.guildInvites, m.guildInvitesErr
}

func (m *mockSession) ChannelInviteCreate(
	channelID string,
	invite discordgo.Invite,
	_ ...discordgo.RequestOption,
) (*discordgo.Invite, error) {
	m.createdInvites = append(m.createdInvites, invite)
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createInvite != nil {
		return m.createInvite, nil
	}
	return &discordgo.Invite{
		Code:      fmt.Sprintf("new-%d", len(m.createdInvites)),
		MaxUses:   invite.MaxUses,
		MaxAge:    invite.MaxAge,
		Temporary: invite.Temporary,
	}, nil
}

func (m *mockSession) InviteDelete(
	code string,
	_ ...discordgo.RequestOption,
) (*discordgo.Invite, error) {
	m.deletedInvites = append(m.deletedInvites, code)
	if err := m.inviteDeleteErrs[code]; err != nil {
		return nil, err
	}
	return &discordgo.Invite{Code: code}, nil
}

func (m *mockSession) GuildMember(
	guildID string,
	userID string,
	_ ...discordgo.RequestOption,
) (*discordgo.Member, error) {
	member, ok := m.members[userID]
	if !ok {
		return nil, fmt.Errorf("unknown member: %s", userID)
	}
	return member, nil
}

func (m *mockSession) GuildMembers(
	guildID string,
	after string,
	limit int,
	_ ...discordgo.RequestOption,
) ([]*discordgo.Member, error) {
	start := 0
	if after != "" {
		for i, member := range m.allMembers {
			if member.User != nil && member.User.ID == after {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(m.allMembers) {
		end = len(m.allMembers)
	}
	if start >= end {
		return nil, nil
	}
	return m.allMembers[start:end], nil
}

func (m *mockSession) GuildRoles(
	guildID string,
	_ ...discordgo.RequestOption,
) ([]*discordgo.Role, error) {
	return m.roles, nil
}

func (m *mockSession) GuildBanCreateWithReason(
	guildID string,
	userID string,
	reason string,
	days int,
	_ ...discordgo.RequestOption,
) error {
	if err := m.banErrs[userID]; err != nil {
		return err
	}
	m.bans = append(m.bans, userID)
	return nil
}

func (m *mockSession) GuildBanDelete(
	guildID string,
	userID string,
	_ ...discordgo.RequestOption,
) error {
	if err := m.banErrs[userID]; err != nil {
		return err
	}
	m.unbans = append(m.unbans, userID)
	return nil
}

func (m *mockSession) GuildMemberDeleteWithReason(
	guildID string,
	userID string,
	reason string,
	_ ...discordgo.RequestOption,
) error {
	if err := m.banErrs[userID]; err != nil {
		return err
	}
	m.kicks = append(m.kicks, userID)
	return nil
}

func (m *mockSession) UserChannelPermissions(
	userID string,
	channelID string,
	_ ...discordgo.RequestOption,
) (int64, error) {
	return m.permissions, m.permissionsErr
}

func (m *mockSession) HeartbeatLatency() time.Duration {
	return m.latency
}

func (m *mockSession) UpdateStatusComplex(_ discordgo.UpdateStatusData) error {
	return nil
}

func (m *mockSession) SetHTTPClient(_ *http.Client) {}

func (m *mockSession) SetLogLevel(_ slog.Level) error { return nil }

var _ DiscordSessionHandler = (*mockSession)(nil)

func TestAllGuildMembersPagination(t *testing.T) {
	session := newMockSession(t)
	for i := 0; i < guildMembersPageSize+5; i++ {
		session.allMembers = append(
			session.allMembers,
			&discordgo.Member{
				User: &discordgo.User{ID: fmt.Sprintf("user-%04d", i)},
			},
		)
	}

	members, err := allGuildMembers(session, "guild-1")
	require.NoError(t, err)
	assert.Len(t, members, guildMembersPageSize+5)
	assert.Equal(t, "user-0000", members[0].User.ID)
	assert.Equal(
		t,
		fmt.Sprintf("user-%04d", guildMembersPageSize+4),
		members[len(members)-1].User.ID,
	)
}

func TestAllGuildMembersEmptyGuild(t *testing.T) {
	session := newMockSession(t)
	members, err := allGuildMembers(session, "guild-1")
	require.NoError(t, err)
	assert.Empty(t, members)
}
