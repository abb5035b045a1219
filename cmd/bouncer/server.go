package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kickguard/bouncer/automod/cachestore"
	"github.com/kickguard/bouncer/automod/countstore"
	"github.com/kickguard/bouncer/automod/engine"
	"github.com/kickguard/bouncer/automod/flagstore"
	"github.com/kickguard/bouncer/automod/keyword"
	"github.com/kickguard/bouncer/automod/whitelist"
	"github.com/kickguard/bouncer/discord"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
)

type Server struct {
	echo     *echo.Echo
	httpd    *http.Server
	logger   *slog.Logger
	engine   *engine.Engine
	commands *engine.Commands

	// tracks join events still being processed, so shutdown can wait for them
	inflight sync.WaitGroup
}

type Config struct {
	Logger *slog.Logger
	// filesystem path, or redis:// URL
	WhitelistLocation   string
	RulesFile           string
	MinAccountAgeMonths int
	NoticeText          string
	RedisURL            string
	DiscordHost         string
	DiscordToken        string
	DiscordRateLimit    int
	FetchProfiles       bool
	AdminToken          string
	SlackWebhookURL     string
	Bind                string
}

func openWhitelist(ctx context.Context, location string, logger *slog.Logger) (*whitelist.Store, error) {
	var backend whitelist.Backend
	if strings.HasPrefix(location, "redis://") || strings.HasPrefix(location, "rediss://") {
		rb, err := whitelist.NewRedisBackend(location)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis whitelist backend: %w", err)
		}
		backend = rb
	} else {
		backend = whitelist.NewFileBackend(location)
	}
	return whitelist.Open(ctx, backend, logger)
}

func loadRules(path string) (keyword.Rules, error) {
	if path == "" {
		return keyword.DefaultRules(), nil
	}
	return keyword.LoadRulesFile(path)
}

func NewServer(ctx context.Context, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	if config.DiscordToken == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}

	store, err := openWhitelist(ctx, config.WhitelistLocation, logger)
	if err != nil {
		return nil, err
	}

	rules, err := loadRules(config.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading detector rules: %w", err)
	}
	logger.Info("loaded detector rules", "keywords", len(rules.Keywords), "co_occurrence", len(rules.CoOccurrence))

	var cache cachestore.CacheStore
	var flags flagstore.FlagStore
	var counters countstore.CountStore
	if config.RedisURL != "" {
		// profiles are read once per join event, so no local layer in front of redis
		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, cachestore.RedisCacheOptions{TTL: 30 * time.Minute})
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh

		flg, err := flagstore.NewRedisFlagStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis flagstore: %v", err)
		}
		flags = flg

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt
	} else {
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute)
		flags = flagstore.NewMemFlagStore()
		counters = countstore.NewMemCountStore()
	}

	dc := discord.NewClient(config.DiscordHost, config.DiscordToken, config.DiscordRateLimit)

	eng := &engine.Engine{
		Logger:              logger,
		Whitelist:           store,
		Detector:            keyword.NewDetector(rules),
		Gateway:             dc,
		Cache:               cache,
		Flags:               flags,
		Counters:            counters,
		MinAccountAgeMonths: config.MinAccountAgeMonths,
		NoticeText:          config.NoticeText,
	}
	if config.FetchProfiles {
		eng.Profiles = dc
	}
	if config.SlackWebhookURL != "" {
		eng.Notifier = &engine.SlackNotifier{SlackWebhookURL: config.SlackWebhookURL}
	}

	s := &Server{
		logger:   logger,
		engine:   eng,
		commands: &engine.Commands{Store: store},
	}
	s.echo = s.newEcho(config.AdminToken, prometheus.DefaultRegisterer)
	s.httpd = &http.Server{
		Handler:        s.echo,
		Addr:           config.Bind,
		WriteTimeout:   1 * time.Minute,
		ReadTimeout:    1 * time.Minute,
		MaxHeaderBytes: 1 * (1024 * 1024),
	}
	return s, nil
}

func (s *Server) newEcho(adminToken string, reg prometheus.Registerer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(s.logger))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "bouncer",
		Registerer: reg,
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.HTTPErrorHandler = s.errorHandler

	e.GET("/_health", s.HandleHealthCheck)

	// bearer token; an empty configured token rejects everything
	auth := middleware.KeyAuth(func(key string, c echo.Context) (bool, error) {
		return adminToken != "" && key == adminToken, nil
	})

	hooks := e.Group("/hooks", auth)
	hooks.POST("/member-join", s.HandleMemberJoin)

	admin := e.Group("/admin", auth)
	admin.GET("/whitelist", s.HandleListWhitelist)
	admin.POST("/whitelist", s.HandleAddWhitelist)
	admin.DELETE("/whitelist/:username", s.HandleRemoveWhitelist)
	admin.GET("/stats/:guild", s.HandleGuildStats)
	return e
}

// Serves prometheus metrics until ctx is cancelled.
func (s *Server) RunMetrics(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: listen, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Run() error {
	s.logger.Info("starting server", "bind", s.httpd.Addr)
	if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stops accepting requests, then waits for in-flight join events to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	err := s.httpd.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("gave up waiting for in-flight join events")
	}
	return err
}
