package prisonwarden

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// guildMembersPageSize is the page size used when listing guild members
// (the Discord API maximum).
const guildMembersPageSize = 1000

// Discord manages the gateway session and provides the bot's Discord
// operations. It tracks connection state and counters exposed through the
// status API.
type Discord struct {
	session                     DiscordSessionHandler
	config                      *DiscordConfig
	logger                      *slog.Logger
	metricConnects              atomic.Int64
	metricDisconnects           atomic.Int64
	connected                   atomic.Bool
	discordgoRemoveHandlerFuncs []func()
	warden                      *PrisonWarden
}

func newDiscord(config *DiscordConfig) *Discord {
	return &Discord{
		config:                      config,
		discordgoRemoveHandlerFuncs: []func(){},
	}
}

// newSession initializes a new Discord session for the Discord struct.
// It sets up the session with the appropriate logger, token, and
// configuration.
func (d *Discord) newSession() (DiscordSessionHandler, error) {
	session := DiscordSession{
		logger: d.logger.With(loggerNameKey, "discord_session_handler"),
	}
	disc, err := discordgo.New("Bot " + d.config.Token)
	if err != nil {
		return session, fmt.Errorf("error creating discord session: %w", err)
	}
	disc.SyncEvents = false
	disc.StateEnabled = false
	disc.Identify.Intents = d.config.GatewayIntents
	session.session = disc
	if d.config.httpClient != nil {
		disc.Client = d.config.httpClient
	}

	if err = session.SetLogLevel(d.config.DiscordGoLogLevel.Level()); err != nil {
		return session, err
	}

	return session, nil
}

func (d *Discord) handlerReady() func(
	s *discordgo.Session,
	r *discordgo.Ready,
) {
	return func(s *discordgo.Session, _ *discordgo.Ready) {
		d.logger.Info(
			"Ready",
			"session_id", s.State.SessionID,
			"user_id", s.State.User.ID,
			"username", s.State.User.Username,
		)
		if d.config.Status != "" {
			if err := d.session.UpdateStatusComplex(
				discordgo.UpdateStatusData{Status: d.config.Status},
			); err != nil {
				d.logger.Warn("unable to update status", tint.Err(err))
			}
		}
	}
}

func (d *Discord) handlerConnect() func(
	s *discordgo.Session,
	r *discordgo.Connect,
) {
	return func(s *discordgo.Session, _ *discordgo.Connect) {
		d.metricConnects.Add(1)
		d.connected.Store(true)

		var sessionID string
		var userID string
		var username string

		if s != nil && s.State != nil {
			sessionID = s.State.SessionID
			if s.State.User != nil {
				userID = s.State.User.ID
				username = s.State.User.Username
			}
		}
		d.logger.Info(
			"Connected",
			"session_id", sessionID,
			slog.Group("user", "id", userID, "username", username),
		)
	}
}

func (d *Discord) handlerDisconnect() func(
	s *discordgo.Session,
	r *discordgo.Disconnect,
) {
	return func(s *discordgo.Session, _ *discordgo.Disconnect) {
		d.connected.Store(false)
		d.metricDisconnects.Add(1)

		var sessionID string
		if s != nil && s.State != nil {
			sessionID = s.State.SessionID
		}
		d.logger.Info("disconnected", "session_id", sessionID)
	}
}

// allGuildMembers pages through the guild member list endpoint until the
// full member list has been retrieved.
func allGuildMembers(
	session DiscordSessionHandler,
	guildID string,
) ([]*discordgo.Member, error) {
	var members []*discordgo.Member
	after := ""
	for {
		page, err := session.GuildMembers(guildID, after, guildMembersPageSize)
		if err != nil {
			return members, err
		}
		members = append(members, page...)
		if len(page) < guildMembersPageSize {
			return members, nil
		}
		last := page[len(page)-1]
		if last.User == nil {
			return members, nil
		}
		after = last.User.ID
	}
}

// DiscordSessionHandler defines the interface for handling Discord
// sessions. This basically defines the methods from `discordgo.Session`
// which are used in this application, to enable testing/mocking.
type DiscordSessionHandler interface {
	// Open creates a websocket connection to Discord
	Open() error

	// Close closes the websocket connection to Discord
	Close() error

	// AddHandler adds a discord gateway event handler, returning a
	// function that removes it
	AddHandler(handler any) func()

	// ChannelMessageSend sends a message to the given channel
	ChannelMessageSend(
		channelID string,
		message string,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)

	// ChannelMessageSendEmbed sends an embed to the given channel
	ChannelMessageSendEmbed(
		channelID string,
		embed *discordgo.MessageEmbed,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)

	// ChannelMessageSendComplex sends a full message payload to the given
	// channel
	ChannelMessageSendComplex(
		channelID string,
		data *discordgo.MessageSend,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)

	// ChannelMessageEditEmbed replaces the embed on an existing message
	ChannelMessageEditEmbed(
		channelID string,
		messageID string,
		embed *discordgo.MessageEmbed,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)

	// MessageReactionAdd adds the given emoji as a reaction
	MessageReactionAdd(
		channelID string,
		messageID string,
		emojiID string,
		options ...discordgo.RequestOption,
	) error

	// MessageReactionsRemoveAll clears all reactions from a message
	MessageReactionsRemoveAll(
		channelID string,
		messageID string,
		options ...discordgo.RequestOption,
	) error

	// Channel retrieves a channel by ID
	Channel(
		channelID string,
		options ...discordgo.RequestOption,
	) (*discordgo.Channel, error)

	// GuildInvites returns all active invites for a guild
	GuildInvites(
		guildID string,
		options ...discordgo.RequestOption,
	) ([]*discordgo.Invite, error)

	// ChannelInviteCreate creates an invite for the given channel
	ChannelInviteCreate(
		channelID string,
		invite discordgo.Invite,
		options ...discordgo.RequestOption,
	) (*discordgo.Invite, error)

	// InviteDelete deletes an invite by code
	InviteDelete(
		code string,
		options ...discordgo.RequestOption,
	) (*discordgo.Invite, error)

	// GuildMember retrieves a guild member by user ID
	GuildMember(
		guildID string,
		userID string,
		options ...discordgo.RequestOption,
	) (*discordgo.Member, error)

	// GuildMembers lists guild members, paged by the 'after' user ID
	GuildMembers(
		guildID string,
		after string,
		limit int,
		options ...discordgo.RequestOption,
	) ([]*discordgo.Member, error)

	// GuildRoles lists a guild's roles
	GuildRoles(
		guildID string,
		options ...discordgo.RequestOption,
	) ([]*discordgo.Role, error)

	// GuildBanCreateWithReason bans a user from a guild
	GuildBanCreateWithReason(
		guildID string,
		userID string,
		reason string,
		days int,
		options ...discordgo.RequestOption,
	) error

	// GuildBanDelete removes a user's ban
	GuildBanDelete(
		guildID string,
		userID string,
		options ...discordgo.RequestOption,
	) error

	// GuildMemberDeleteWithReason kicks a user from a guild
	GuildMemberDeleteWithReason(
		guildID string,
		userID string,
		reason string,
		options ...discordgo.RequestOption,
	) error

	// UserChannelPermissions returns the aggregate permissions for a user
	// in a channel
	UserChannelPermissions(
		userID string,
		channelID string,
		options ...discordgo.RequestOption,
	) (int64, error)

	// HeartbeatLatency returns the most recent gateway heartbeat round
	// trip time
	HeartbeatLatency() time.Duration

	// UpdateStatusComplex sends the given status update, untouched
	UpdateStatusComplex(data discordgo.UpdateStatusData) error

	// SetHTTPClient sets the HTTP client for the session
	SetHTTPClient(client *http.Client)

	// SetLogLevel modifies the session's log level
	SetLogLevel(lvl slog.Level) error
}

// DiscordSession implements DiscordSessionHandler, wrapping a
// [discordgo.Session](https://pkg.go.dev/github.com/bwmarrin/discordgo#Session)
type DiscordSession struct {
	session *discordgo.Session
	logger  *slog.Logger
}

func (d DiscordSession) Open() error {
	return d.session.Open()
}

func (d DiscordSession) Close() error {
	return d.session.Close()
}

func (d DiscordSession) AddHandler(handler any) func() {
	return d.session.AddHandler(handler)
}

func (d DiscordSession) ChannelMessageSend(
	channelID string,
	message string,
	options ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return d.session.ChannelMessageSend(channelID, message, options...)
}

func (d DiscordSession) ChannelMessageSendEmbed(
	channelID string,
	embed *discordgo.MessageEmbed,
	options ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return d.session.ChannelMessageSendEmbed(channelID, embed, options...)
}

func (d DiscordSession) ChannelMessageSendComplex(
	channelID string,
	data *discordgo.MessageSend,
	options ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return d.session.ChannelMessageSendComplex(channelID, data, options...)
}

func (d DiscordSession) ChannelMessageEditEmbed(
	channelID string,
	messageID string,
	embed *discordgo.MessageEmbed,
	options ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return d.session.ChannelMessageEditEmbed(
		channelID,
		messageID,
		embed,
		options...,
	)
}

func (d DiscordSession) MessageReactionAdd(
	channelID string,
	messageID string,
	emojiID string,
	options ...discordgo.RequestOption,
) error {
	return d.session.MessageReactionAdd(
		channelID,
		messageID,
		emojiID,
		options...,
	)
}

func (d DiscordSession) MessageReactionsRemoveAll(
	channelID string,
	messageID string,
	options ...discordgo.RequestOption,
) error {
	return d.session.MessageReactionsRemoveAll(channelID, messageID, options...)
}

func (d DiscordSession) Channel(
	channelID string,
	options ...discordgo.RequestOption,
) (*discordgo.Channel, error) {
	channel, err := d.session.Channel(channelID, options...)
	if err != nil {
		d.logger.Error(
			"error retrieving channel",
			"channel_id", channelID,
			tint.Err(err),
		)
	}
	return channel, err
}

func (d DiscordSession) GuildInvites(
	guildID string,
	options ...discordgo.RequestOption,
) ([]*discordgo.Invite, error) {
	return d.session.GuildInvites(guildID, options...)
}

func (d DiscordSession) ChannelInviteCreate(
	channelID string,
	invite discordgo.Invite,
	options ...discordgo.RequestOption,
) (*discordgo.Invite, error) {
	created, err := d.session.ChannelInviteCreate(channelID, invite, options...)
	if err != nil {
		d.logger.Error(
			"error creating invite",
			"channel_id", channelID,
			tint.Err(err),
		)
	} else {
		d.logger.Info(
			"created invite",
			"channel_id", channelID,
			"code", created.Code,
		)
	}
	return created, err
}

func (d DiscordSession) InviteDelete(
	code string,
	options ...discordgo.RequestOption,
) (*discordgo.Invite, error) {
	return d.session.InviteDelete(code, options...)
}

func (d DiscordSession) GuildMember(
	guildID string,
	userID string,
	options ...discordgo.RequestOption,
) (*discordgo.Member, error) {
	return d.session.GuildMember(guildID, userID, options...)
}

func (d DiscordSession) GuildMembers(
	guildID string,
	after string,
	limit int,
	options ...discordgo.RequestOption,
) ([]*discordgo.Member, error) {
	return d.session.GuildMembers(guildID, after, limit, options...)
}

func (d DiscordSession) GuildRoles(
	guildID string,
	options ...discordgo.RequestOption,
) ([]*discordgo.Role, error) {
	return d.session.GuildRoles(guildID, options...)
}

func (d DiscordSession) GuildBanCreateWithReason(
	guildID string,
	userID string,
	reason string,
	days int,
	options ...discordgo.RequestOption,
) error {
	return d.session.GuildBanCreateWithReason(
		guildID,
		userID,
		reason,
		days,
		options...,
	)
}

func (d DiscordSession) GuildBanDelete(
	guildID string,
	userID string,
	options ...discordgo.RequestOption,
) error {
	return d.session.GuildBanDelete(guildID, userID, options...)
}

func (d DiscordSession) GuildMemberDeleteWithReason(
	guildID string,
	userID string,
	reason string,
	options ...discordgo.RequestOption,
) error {
	return d.session.GuildMemberDeleteWithReason(
		guildID,
		userID,
		reason,
		options...,
	)
}

func (d DiscordSession) UserChannelPermissions(
	userID string,
	channelID string,
	options ...discordgo.RequestOption,
) (int64, error) {
	return d.session.UserChannelPermissions(userID, channelID, options...)
}

func (d DiscordSession) HeartbeatLatency() time.Duration {
	return d.session.HeartbeatLatency()
}

func (d DiscordSession) UpdateStatusComplex(
	data discordgo.UpdateStatusData,
) error {
	return d.session.UpdateStatusComplex(data)
}

func (d DiscordSession) SetHTTPClient(client *http.Client) {
	d.session.Client = client
}

func (d DiscordSession) SetLogLevel(lvl slog.Level) error {
	switch lvl.Level() {
	case slog.LevelInfo:
		d.session.LogLevel = discordgo.LogInformational
	case slog.LevelWarn:
		d.session.LogLevel = discordgo.LogWarning
	case slog.LevelDebug:
		d.session.LogLevel = discordgo.LogDebug
	case slog.LevelError:
		d.session.LogLevel = discordgo.LogError
	default:
		return fmt.Errorf("invalid log level: %s", lvl)
	}
	return nil
}
