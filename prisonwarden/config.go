//nolint:lll // struct tags can't be split
package prisonwarden

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	EnvvarSetEnvPrefix = "PRISONWARDEN_ENV_PREFIX"
	DefaultEnvPrefix   = "PW"

	DefaultDatabaseType          = "sqlite"
	DefaultDatabase              = "prisonwarden.sqlite3"
	DefaultDatabaseSlowThreshold = 200 * time.Millisecond

	DefaultLogLevel          = slog.LevelInfo
	DefaultDatabaseLogLevel  = slog.LevelInfo
	DefaultDiscordLogLevel   = slog.LevelWarn
	DefaultDiscordgoLogLevel = slog.LevelWarn
	DefaultAPILogLevel       = slog.LevelInfo

	DefaultStartupTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 60 * time.Second

	DefaultCommandPrefix = "."

	// DefaultEmbedColor is the purple used for most bot embeds.
	DefaultEmbedColor = 0x843da4

	// DefaultStaleInviteAge is the age at which an unused single-use invite
	// is considered stale. An earlier deployment used 24h; the current
	// policy is a week.
	DefaultStaleInviteAge = 7 * 24 * time.Hour

	// DefaultBulkActionsPerSecond paces banall/kickall/unbanall and invite
	// purges, one REST call per target.
	DefaultBulkActionsPerSecond = 2.0

	DefaultPaginationPageSize = 10
	DefaultPaginationTimeout  = 2 * time.Minute

	DefaultAPIListen         = "127.0.0.1:5000"
	defaultListenNetwork     = "tcp"
	DefaultReadTimeout       = 5 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 30 * time.Second

	discordMaxMessageLength = 2000
)

// DefaultGatewayIntents covers everything the bot reacts to: guild
// metadata, invites, joins (privileged members intent) and prefix commands
// (privileged message content intent).
const DefaultGatewayIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildInvites |
	discordgo.IntentsGuildMessages |
	discordgo.IntentMessageContent

// Config is the top-level bot configuration, normally populated by the
// cmd package from environment variables.
type Config struct {
	// Database connection string
	Database string `yaml:"database" mapstructure:"database" json:"database"`

	// DatabaseType specifies the type of database, either 'sqlite' or 'postgres'
	DatabaseType string `yaml:"database_type" mapstructure:"database_type" json:"database_type" binding:"oneof=sqlite postgres"`

	// DatabaseLogLevel sets the log level for database operations
	DatabaseLogLevel *slog.LevelVar `yaml:"database_log_level" mapstructure:"database_log_level" json:"database_log_level"`

	// DatabaseSlowThreshold is the duration threshold for identifying slow database queries
	DatabaseSlowThreshold time.Duration `yaml:"database_slow_threshold" mapstructure:"database_slow_threshold" json:"database_slow_threshold"`

	// Discord configures the Discord bot itself
	Discord *DiscordConfig `yaml:"discord" mapstructure:"discord" json:"discord"`

	// Appeals configures the ban-appeals workflow
	Appeals *AppealsConfig `yaml:"appeals" mapstructure:"appeals" json:"appeals"`

	// API configures the read-only status API server
	API *APIConfig `yaml:"api" mapstructure:"api" json:"api"`

	// LogLevel is the base log level, for the default logger
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// StartupTimeout sets a limit on the amount of time the bot has to
	// initialize. If this is passed, the bot will abort startup.
	StartupTimeout time.Duration `yaml:"startup_timeout" mapstructure:"startup_timeout" json:"startup_timeout"`

	// ShutdownTimeout is the time to allow for a graceful shutdown. After
	// this elapses, the bot will force close all connections and exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout"`

	HTTPClient *http.Client `log:"[redacted]"`
}

func (c Config) LogValue() slog.Value {
	return structToSlogValue(c)
}

// DiscordConfig configures the discord connection and command surface.
//
//nolint:lll // can't break tags
type DiscordConfig struct {
	// Discord bot token (from the 'Bot' tab in the discord dev portal)
	Token string `yaml:"token" mapstructure:"token" json:"token" log:"[redacted]" binding:"required"`

	// Prefix triggering chat commands (ex: "." for ".appeals")
	Prefix string `yaml:"prefix" mapstructure:"prefix" json:"prefix" binding:"required"`

	// EmbedColor is the accent color used for bot embeds
	EmbedColor int `yaml:"embed_color" mapstructure:"embed_color" json:"embed_color"`

	// Status sets the bot user's presence ("online", "idle", "dnd")
	Status string `yaml:"status" mapstructure:"status" json:"status" binding:"omitempty,oneof=online idle dnd"`

	// Discord gateway intents. See: https://discord.com/developers/docs/topics/gateway#gateway-intents
	GatewayIntents discordgo.Intent `yaml:"gateway_intents" mapstructure:"gateway_intents" json:"gateway_intents"`

	// Base discord logging level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Log level for the `discordgo` library's logger
	DiscordGoLogLevel *slog.LevelVar `yaml:"discordgo_log_level" mapstructure:"discordgo_log_level" json:"discordgo_log_level"`

	httpClient *http.Client
}

// AppealsConfig configures the ban-appeals workflow behavior.
type AppealsConfig struct {
	// StaleInviteAge is the minimum age of an unused single-use invite
	// before it is considered stale
	StaleInviteAge time.Duration `yaml:"stale_invite_age" mapstructure:"stale_invite_age" json:"stale_invite_age" binding:"min=1h"`

	// BulkActionsPerSecond paces bulk ban/kick/unban calls and invite purges
	BulkActionsPerSecond float64 `yaml:"bulk_actions_per_second" mapstructure:"bulk_actions_per_second" json:"bulk_actions_per_second" binding:"gt=0"`

	// PaginationPageSize is the number of lines per paginated embed page
	PaginationPageSize int `yaml:"pagination_page_size" mapstructure:"pagination_page_size" json:"pagination_page_size" binding:"min=1,max=25"`

	// PaginationTimeout is how long reaction navigation stays active on a
	// paginated embed
	PaginationTimeout time.Duration `yaml:"pagination_timeout" mapstructure:"pagination_timeout" json:"pagination_timeout" binding:"min=10s"`
}

// APIConfig configures the read-only status API server.
//
//nolint:lll // can't break tags
type APIConfig struct {
	// Determines if the status API should be active.
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`

	// The address and port on which the server should listen (e.g., "127.0.0.1:5000").
	Listen string `yaml:"listen" mapstructure:"listen" json:"listen" binding:"required_if=Enabled true,hostname|filepath"`

	// The network type for listening (e.g., "tcp", "tcp4", "tcp6", "unix").
	ListenNetwork string `yaml:"listen_network" mapstructure:"listen_network" json:"listen_network" binding:"required_if=Enabled true,oneof=tcp tcp4 tcp6 unix"`

	// The logging level for the API server.
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Cross-origin configuration
	CORS CORSConfig `yaml:"cors" mapstructure:"cors" json:"cors"`

	// Maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout" binding:"required_if=Enabled true,min=1s"`

	// Amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout" json:"read_header_timeout" binding:"required_if=Enabled true,min=1s"`

	// Maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout" binding:"required_if=Enabled true,min=1s"`

	// Maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" json:"idle_timeout" binding:"required_if=Enabled true,min=1s"`
}

// CORSConfig specifies cross-origin resource sharing settings
type CORSConfig struct {
	AllowOrigins []string      `yaml:"allow_origins" mapstructure:"allow_origins" json:"allow_origins"`
	AllowMethods []string      `yaml:"allow_methods" mapstructure:"allow_methods" json:"allow_methods"`
	AllowHeaders []string      `yaml:"allow_headers" mapstructure:"allow_headers" json:"allow_headers"`
	MaxAge       time.Duration `yaml:"max_age" mapstructure:"max_age" json:"max_age"`
}

var (
	DefaultCORSAllowMethods = []string{
		http.MethodGet,
		http.MethodOptions,
		http.MethodHead,
	}
	DefaultCORSAllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Accept",
		"Cache-Control",
	}
	DefaultCORSMaxAge = 12 * time.Hour
)

func DefaultCORSConfig() CORSConfig {
	defaultMethods := make([]string, len(DefaultCORSAllowMethods))
	copy(defaultMethods, DefaultCORSAllowMethods)

	defaultHeaders := make([]string, len(DefaultCORSAllowHeaders))
	copy(defaultHeaders, DefaultCORSAllowHeaders)

	return CORSConfig{
		AllowOrigins: []string{},
		AllowMethods: defaultMethods,
		AllowHeaders: defaultHeaders,
		MaxAge:       DefaultCORSMaxAge,
	}
}

// DefaultConfig returns a Config with all default settings populated
func DefaultConfig() *Config {
	mainLogLevel := &slog.LevelVar{}
	discordLogLevel := &slog.LevelVar{}
	discordgoLogLevel := &slog.LevelVar{}
	dbLogLevel := &slog.LevelVar{}
	apiLogLevel := &slog.LevelVar{}

	mainLogLevel.Set(DefaultLogLevel)
	discordLogLevel.Set(DefaultDiscordLogLevel)
	discordgoLogLevel.Set(DefaultDiscordgoLogLevel)
	dbLogLevel.Set(DefaultDatabaseLogLevel)
	apiLogLevel.Set(DefaultAPILogLevel)

	return &Config{
		DatabaseType:          DefaultDatabaseType,
		Database:              DefaultDatabase,
		DatabaseLogLevel:      dbLogLevel,
		DatabaseSlowThreshold: DefaultDatabaseSlowThreshold,
		LogLevel:              mainLogLevel,
		StartupTimeout:        DefaultStartupTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,
		Discord: &DiscordConfig{
			Prefix:            DefaultCommandPrefix,
			EmbedColor:        DefaultEmbedColor,
			Status:            "idle",
			GatewayIntents:    DefaultGatewayIntents,
			LogLevel:          discordLogLevel,
			DiscordGoLogLevel: discordgoLogLevel,
		},
		Appeals: &AppealsConfig{
			StaleInviteAge:       DefaultStaleInviteAge,
			BulkActionsPerSecond: DefaultBulkActionsPerSecond,
			PaginationPageSize:   DefaultPaginationPageSize,
			PaginationTimeout:    DefaultPaginationTimeout,
		},
		API: &APIConfig{
			Enabled:           false,
			Listen:            DefaultAPIListen,
			ListenNetwork:     defaultListenNetwork,
			LogLevel:          apiLogLevel,
			CORS:              DefaultCORSConfig(),
			ReadTimeout:       DefaultReadTimeout,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
	}
}
