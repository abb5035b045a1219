package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kickguard/bouncer/automod/engine"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "bouncer",
		Usage:   "new-member vetting daemon (keeps fresh and scammy accounts out)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "info",
			EnvVars: []string{"BOUNCER_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "whitelist-path",
			Usage:   "path to whitelist JSON file, or redis:// URL",
			Value:   "config/whitelist.json",
			EnvVars: []string{"BOUNCER_WHITELIST"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		whitelistCmd,
	}

	return app.Run(args)
}

func configLogger(cctx *cli.Context) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "min-account-age-months",
			Usage:   "accounts younger than this many calendar months are removed",
			Value:   engine.DefaultMinAccountAgeMonths,
			EnvVars: []string{"BOUNCER_MIN_ACCOUNT_AGE_MONTHS"},
		},
		&cli.StringFlag{
			Name:    "rules-file",
			Usage:   "YAML file with detector keywords and co-occurrence groups (built-in rules if unset)",
			EnvVars: []string{"BOUNCER_RULES_FILE"},
		},
		&cli.StringFlag{
			Name:    "notice-text",
			Usage:   "direct message sent to a member before removal",
			Value:   engine.DefaultNoticeText,
			EnvVars: []string{"BOUNCER_NOTICE_TEXT"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for profile cache and decision flags (in-memory if unset)",
			EnvVars: []string{"BOUNCER_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:     "discord-token",
			Usage:    "bot token for the discord REST API",
			Required: true,
			EnvVars:  []string{"BOUNCER_DISCORD_TOKEN", "DISCORD_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "discord-host",
			Usage:   "method, hostname, and base path of the discord REST API",
			Value:   "https://discord.com/api/v10",
			EnvVars: []string{"BOUNCER_DISCORD_HOST"},
		},
		&cli.IntFlag{
			Name:    "discord-rate-limit",
			Usage:   "max number of requests per second to the discord REST API",
			Value:   20,
			EnvVars: []string{"BOUNCER_DISCORD_RATE_LIMIT"},
		},
		&cli.BoolFlag{
			Name:    "fetch-profiles",
			Usage:   "fetch the full guild member profile before the scam check",
			EnvVars: []string{"BOUNCER_FETCH_PROFILES"},
		},
		&cli.StringFlag{
			Name:    "admin-token",
			Usage:   "bearer token required on webhook and admin endpoints",
			EnvVars: []string{"BOUNCER_ADMIN_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack webhook to report removals to",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":3999",
			EnvVars: []string{"BOUNCER_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3998",
			EnvVars: []string{"BOUNCER_METRICS_LISTEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		logger := configLogger(cctx)

		shutdownOTEL, err := configOTEL(ctx, "bouncer")
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		defer shutdownOTEL()

		if cctx.String("admin-token") == "" {
			logger.Warn("no admin token configured; webhook and admin endpoints will reject all requests")
		}

		srv, err := NewServer(ctx, Config{
			Logger:              logger,
			WhitelistLocation:   cctx.String("whitelist-path"),
			RulesFile:           cctx.String("rules-file"),
			MinAccountAgeMonths: cctx.Int("min-account-age-months"),
			NoticeText:          cctx.String("notice-text"),
			RedisURL:            cctx.String("redis-url"),
			DiscordHost:         cctx.String("discord-host"),
			DiscordToken:        cctx.String("discord-token"),
			DiscordRateLimit:    cctx.Int("discord-rate-limit"),
			FetchProfiles:       cctx.Bool("fetch-profiles"),
			AdminToken:          cctx.String("admin-token"),
			SlackWebhookURL:     cctx.String("slack-webhook-url"),
			Bind:                cctx.String("bind"),
		})
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.RunMetrics(gctx, cctx.String("metrics-listen")); err != nil {
				return fmt.Errorf("failed to start metrics endpoint: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			if err := srv.Run(); err != nil {
				return fmt.Errorf("failed to run bouncer service: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
		return g.Wait()
	},
}

var whitelistCmd = &cli.Command{
	Name:  "whitelist",
	Usage: "manage the whitelist directly, without a running daemon",
	Subcommands: []*cli.Command{
		&cli.Command{
			Name:   "list",
			Usage:  "print all whitelist entries",
			Action: runWhitelistList,
		},
		&cli.Command{
			Name:      "add",
			Usage:     "add a username to the whitelist",
			ArgsUsage: "<username> <reason>",
			Action:    runWhitelistAdd,
		},
		&cli.Command{
			Name:      "remove",
			Usage:     "remove a username from the whitelist",
			ArgsUsage: "<username>",
			Action:    runWhitelistRemove,
		},
	},
}

func openCommands(cctx *cli.Context) (*engine.Commands, error) {
	logger := configLogger(cctx)
	store, err := openWhitelist(cctx.Context, cctx.String("whitelist-path"), logger)
	if err != nil {
		return nil, err
	}
	return &engine.Commands{Store: store}, nil
}

func runWhitelistList(cctx *cli.Context) error {
	cmds, err := openCommands(cctx)
	if err != nil {
		return err
	}
	for _, e := range cmds.ListWhitelist() {
		fmt.Printf("%s\t%s\n", e.Username, e.Reason)
	}
	return nil
}

func runWhitelistAdd(cctx *cli.Context) error {
	if cctx.Args().Len() < 2 {
		return fmt.Errorf("need username and reason as arguments")
	}
	cmds, err := openCommands(cctx)
	if err != nil {
		return err
	}
	reason := strings.Join(cctx.Args().Slice()[1:], " ")
	out, err := cmds.AddWhitelist(cctx.Context, cctx.Args().First(), reason)
	if err != nil {
		return err
	}
	fmt.Println(out.Message())
	return nil
}

func runWhitelistRemove(cctx *cli.Context) error {
	if cctx.Args().Len() != 1 {
		return fmt.Errorf("need exactly one username as argument")
	}
	cmds, err := openCommands(cctx)
	if err != nil {
		return err
	}
	out, err := cmds.RemoveWhitelist(cctx.Context, cctx.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(out.Message())
	return nil
}
