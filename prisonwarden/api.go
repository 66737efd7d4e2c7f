package prisonwarden

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	apiPathHealth = "/health"
	apiPathStatus = "/api/status"

	xRequestIDHeader = "X-Request-ID"
)

// API is the read-only operator surface: a small HTTP server reporting
// bot health and gateway statistics. It never mutates bot state.
type API struct {
	warden *PrisonWarden
	config *APIConfig

	httpServer *http.Server
	engine     *gin.Engine
	listener   net.Listener
	logger     *slog.Logger
}

// newAPI configures the gin engine, middleware and routes, and the
// underlying HTTP server. The server isn't started until Serve is called.
func newAPI(p *PrisonWarden, config *APIConfig) *API {
	r := gin.New()

	api := &API{
		warden: p,
		config: config,
		engine: r,
		logger: p.logger.With(loggerNameKey, "api"),
	}
	api.httpServer = &http.Server{
		Addr:              config.Listen,
		Handler:           r,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}

	r.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		ginLoggingMiddleware(api.logger),
		cors.New(config.CORS.GINConfig()),
	)

	r.GET(apiPathHealth, api.healthCheck)
	r.GET(apiPathStatus, api.getStatus)

	return api
}

// Serve listens on the configured address and serves until the server is
// shut down.
func (a *API) Serve(ctx context.Context) error {
	if a.listener == nil {
		listenCfg := &net.ListenConfig{}
		ln, err := listenCfg.Listen(
			ctx,
			a.config.ListenNetwork,
			a.config.Listen,
		)
		if err != nil {
			return fmt.Errorf("error listening on %s: %w", a.config.Listen, err)
		}
		a.listener = ln
	}
	a.logger.Info("api listening", "address", a.listener.Addr().String())
	return a.httpServer.Serve(a.listener)
}

// Shutdown gracefully stops the HTTP server.
func (a *API) Shutdown(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}

type healthCheckResponse struct {
	DiscordGatewayConnected bool `json:"discord_gateway_connected"`
	DatabaseAvailable       bool `json:"database_available"`
}

// healthCheck reports whether the gateway is connected and the database
// reachable. Returns 503 when either is down.
func (a *API) healthCheck(c *gin.Context) {
	response := healthCheckResponse{
		DiscordGatewayConnected: a.warden.discord.connected.Load(),
	}

	sqlDB, err := a.warden.db.DB()
	if err == nil {
		response.DatabaseAvailable = sqlDB.PingContext(
			c.Request.Context(),
		) == nil
	}

	status := http.StatusOK
	if !response.DiscordGatewayConnected || !response.DatabaseAvailable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

type statusResponse struct {
	Version            string    `json:"version"`
	CommitSHA          string    `json:"commit_sha,omitempty"`
	StartedAt          time.Time `json:"started_at"`
	UptimeSeconds      float64   `json:"uptime_seconds"`
	GatewayConnected   bool      `json:"gateway_connected"`
	GatewayConnects    int64     `json:"gateway_connects"`
	GatewayDisconnects int64     `json:"gateway_disconnects"`
}

// getStatus reports build information and gateway connection counters.
func (a *API) getStatus(c *gin.Context) {
	startedAt := a.warden.startedAt
	c.JSON(
		http.StatusOK, statusResponse{
			Version:            Version,
			CommitSHA:          CommitSHA,
			StartedAt:          startedAt,
			UptimeSeconds:      time.Since(startedAt).Seconds(),
			GatewayConnected:   a.warden.discord.connected.Load(),
			GatewayConnects:    a.warden.discord.metricConnects.Load(),
			GatewayDisconnects: a.warden.discord.metricDisconnects.Load(),
		},
	)
}

// GINConfig converts the CORS settings into a gin-contrib/cors config.
func (c CORSConfig) GINConfig() cors.Config {
	return cors.Config{
		AllowOrigins: c.AllowOrigins,
		AllowMethods: c.AllowMethods,
		AllowHeaders: c.AllowHeaders,
		MaxAge:       c.MaxAge,
	}
}

// requestIDMiddleware assigns each request a random hex ID and echoes it
// back in the X-Request-ID response header.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := generateRandomHexString(32)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(xRequestIDHeader, id)
		c.Header(xRequestIDHeader, id)
		c.Next()
	}
}

// ginLoggingMiddleware logs each request with its duration and response
// status once the handler chain finishes.
func ginLoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		requestID, _ := c.Get(xRequestIDHeader)
		requestLogger := logger.With(
			slog.Group(
				"request",
				"id", requestID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"remote_ip", c.RemoteIP(),
			),
			slog.Group(
				"response",
				"status_code", c.Writer.Status(),
				"duration", latency,
			),
		)

		var errs []error
		for _, e := range c.Errors.ByType(gin.ErrorTypePrivate) {
			errs = append(errs, *e)
		}
		if len(errs) > 0 {
			requestLogger.Error("request finished with errors", "errors", errs)
			return
		}
		requestLogger.Info("request finished")
	}
}

// generateRandomHexString returns a random hex string of length n.
func generateRandomHexString(n int) (string, error) {
	bytes := make([]byte, n/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("error generating random string: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
