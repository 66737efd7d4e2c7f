package prisonwarden

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Build info, set via -ldflags at build time.
var (
	Version   = "dev"
	CommitSHA = ""
	BuildTime = ""
)

var defaultLogWriter io.Writer = os.Stdout

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// tintHandler returns a tint slog handler writing to the default log
// writer at the given level.
func tintHandler(level slog.Leveler) slog.Handler {
	return tint.NewHandler(
		defaultLogWriter, &tint.Options{
			Level:     level,
			AddSource: true,
		},
	)
}

// PrisonWarden is the top-level bot. It owns the database handle, the
// Discord gateway session, the command table and the status API, and wires
// them together in Run.
type PrisonWarden struct {
	config     *Config
	logger     *slog.Logger
	logHandler slog.Handler

	db      *gorm.DB
	discord *Discord
	api     *API

	commands map[string]*Command

	// bulkLimiter paces the REST calls issued by bulk moderation commands
	// and invite purges.
	bulkLimiter *rate.Limiter

	startedAt time.Time

	// runMu prevents concurrent Run calls
	runMu sync.Mutex
}

// New assembles a PrisonWarden from the given config. The database and
// gateway connections aren't opened until Run.
func New(config *Config) (*PrisonWarden, error) {
	switch config.DatabaseType {
	case dbTypeSQLite, dbTypePostgres:
		//
	default:
		return nil, errors.New(
			"invalid database type (must be 'sqlite' or 'postgres')",
		)
	}

	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	p := &PrisonWarden{config: config}

	p.logHandler = tintHandler(config.LogLevel)
	p.logger = slog.New(p.logHandler)
	slog.SetDefault(p.logger)

	config.Discord.httpClient = config.HTTPClient

	discordgo.Logger = discordgoLoggerFunc(
		context.Background(),
		tintHandler(config.Discord.DiscordGoLogLevel).WithAttrs(
			[]slog.Attr{slog.String(loggerNameKey, "discordgo")},
		),
	)

	disc := newDiscord(config.Discord)
	disc.logger = slog.New(
		tintHandler(config.Discord.LogLevel),
	).With(loggerNameKey, "discord")
	disc.warden = p
	p.discord = disc

	p.commands = p.newCommandMap()
	p.bulkLimiter = rate.NewLimiter(
		rate.Limit(config.Appeals.BulkActionsPerSecond),
		1,
	)

	if config.API.Enabled {
		p.api = newAPI(p, config.API)
	}

	return p, nil
}

// ValidateConfig validates the bot config against its binding tags.
func (p *PrisonWarden) ValidateConfig() error {
	return structValidator.Struct(p.config)
}

// Run starts the bot: opens and migrates the database, connects to the
// gateway, registers event handlers and serves the status API. It blocks
// until ctx is canceled, then shuts down gracefully.
func (p *PrisonWarden) Run(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	p.startedAt = time.Now()
	logger := p.logger

	if err := p.ValidateConfig(); err != nil {
		logger.Error("invalid config", tint.Err(err))
		return err
	}

	ctx = WithLogger(ctx, logger)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting", slog.Any("config", p.config))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, p.config.StartupTimeout)
	defer startCancel()

	if err := p.initDB(startCtx); err != nil {
		logger.Error("error initializing database", tint.Err(err))
		return err
	}

	session, err := p.discord.newSession()
	if err != nil {
		logger.Error("error creating discord session", tint.Err(err))
		return err
	}
	p.discord.session = session
	p.registerGatewayHandlers(session)

	if err = session.Open(); err != nil {
		logger.Error("error connecting to gateway", tint.Err(err))
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if p.api != nil {
		group.Go(
			func() error {
				serveErr := p.api.Serve(groupCtx)
				if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
					return fmt.Errorf("error serving api: %w", serveErr)
				}
				return nil
			},
		)
	}

	logger.InfoContext(ctx, "startup complete")
	<-groupCtx.Done()

	shutdownErr := p.shutdown(context.WithoutCancel(ctx))
	if groupErr := group.Wait(); groupErr != nil {
		logger.Error("api server error", tint.Err(groupErr))
	}
	return shutdownErr
}

// registerGatewayHandlers adds all gateway event handlers to the session,
// keeping the remove funcs so shutdown can detach them.
func (p *PrisonWarden) registerGatewayHandlers(session DiscordSessionHandler) {
	handlers := []any{
		p.discord.handlerReady(),
		p.discord.handlerConnect(),
		p.discord.handlerDisconnect(),
		p.handlerMessageCreate(),
		p.handlerInviteCreate(),
		p.handlerInviteDelete(),
		p.handlerGuildMemberAdd(),
	}
	for _, handler := range handlers {
		p.discord.discordgoRemoveHandlerFuncs = append(
			p.discord.discordgoRemoveHandlerFuncs,
			session.AddHandler(handler),
		)
	}
}

// shutdown detaches gateway handlers, closes the session, stops the API
// server and closes the database, within the configured timeout.
func (p *PrisonWarden) shutdown(ctx context.Context) error {
	p.logger.WarnContext(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, p.config.ShutdownTimeout)
	defer cancel()

	var errs []error

	for _, removeHandler := range p.discord.discordgoRemoveHandlerFuncs {
		removeHandler()
	}
	p.discord.discordgoRemoveHandlerFuncs = nil

	if p.discord.session != nil {
		if err := p.discord.session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing session: %w", err))
		}
	}

	if p.api != nil {
		if err := p.api.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error stopping api: %w", err))
		}
	}

	if p.db != nil {
		if sqlDB, err := p.db.DB(); err == nil {
			if err = sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("error closing database: %w", err))
			}
		}
	}

	p.logger.WarnContext(ctx, "shutdown complete")
	return errors.Join(errs...)
}
