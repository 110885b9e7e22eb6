package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/companion/internal/ai"
	"github.com/keshon/companion/internal/conductor"
	"github.com/keshon/companion/internal/config"
	"github.com/keshon/companion/internal/discord"
	"github.com/keshon/companion/internal/emotion"
	"github.com/keshon/companion/internal/logging"
	"github.com/keshon/companion/internal/mobileapi"
	v "github.com/keshon/companion/internal/version"
	"github.com/keshon/companion/pkg/jobmgr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info", "")
		fallback.Fatal().Err(err).Msg("loading configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFile)
	log.Info().Str("version", v.Version).Msgf("starting %s", v.AppName)

	tuning, err := emotion.LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Warn().Err(err).Msg("tuning file unusable, using defaults")
	}

	store, err := emotion.NewStore(cfg.StatePath(), tuning, log)
	if err != nil {
		log.Warn().Err(err).Msg("state persistence unavailable, running memory-only")
		store = nil
	} else {
		defer store.Close()
	}

	var api *mobileapi.Server
	engine := emotion.NewEngine(emotion.EngineOptions{
		Store:     store,
		Tuning:    tuning,
		Logger:    log,
		IdleAfter: cfg.IdleAfter,
		OnChange: func(snap emotion.Snapshot) {
			if api != nil {
				api.OnChange(snap)
			}
		},
	})

	provider := ai.NewLocalProvider(cfg.LLMEndpoint, cfg.LLMModel, cfg.LLMAPIKey, cfg.LLMTimeout)
	cond := conductor.New(engine, provider, conductor.Options{
		Identity:     cfg.Identity(),
		NeglectAfter: cfg.NeglectAfter,
		IgnoredAfter: cfg.IgnoredAfter,
		LLMPerMinute: cfg.LLMPerMinute,
		LLMCooldown:  cfg.LLMCooldown,
	}, log)
	api = mobileapi.NewServer(engine, cond, log)

	jm := jobmgr.NewManager(func(msg string) {
		log.Debug().Str("job", msg).Msg("job status")
	})
	mustStart := func(name string, runner func(ctx context.Context) error) {
		if err := jm.Start(name, runner); err != nil {
			log.Fatal().Err(err).Str("job", name).Msg("starting job")
		}
	}

	mustStart("engine", engine.Run)
	mustStart("watcher", cond.Run)
	mustStart("api", func(ctx context.Context) error {
		return api.Run(ctx, cfg.HTTPAddr)
	})
	if cfg.DiscordToken != "" {
		mustStart("discord", func(ctx context.Context) error {
			return discord.StartBot(ctx, cfg.DiscordToken, cond, log)
		})
	} else {
		log.Info().Msg("no discord token, adapter disabled")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info().Str("signal", s.String()).Msg("shutting down")

	jm.StopAll()
	log.Info().Msg("goodbye")
}
